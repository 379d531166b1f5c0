package http

import (
	"io"
	"net/http"
	"strconv"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	httpcmn "github.com/aukilabs/hagall-common/http"
	"github.com/aukilabs/kenaz/bvh"
	"github.com/aukilabs/kenaz/dagaz"
	"github.com/aukilabs/kenaz/models"
	"github.com/segmentio/encoding/json"
)

const (
	maxBodySize = 1 << 20

	ErrTypeInvalidNodeID = "invalid_node_id"
)

type errorResponse struct {
	Error string `json:"error"`
}

type createSceneResponse struct {
	ID string `json:"id"`
}

type sceneResponse struct {
	ID        string    `json:"id"`
	NodeCount int       `json:"node_count"`
	Bounds    bvh.Box   `json:"bounds"`
	Stats     bvh.Stats `json:"stats"`
}

type registerNodeRequest struct {
	ParentID uint32       `json:"parent_id"`
	Min      bvh.Vector3f `json:"min"`
	Max      bvh.Vector3f `json:"max"`
}

type intersectRequest struct {
	Origin    bvh.Vector3f `json:"origin"`
	Direction bvh.Vector3f `json:"direction"`
}

type intersectResponse struct {
	Hit  bool             `json:"hit"`
	Node *models.NodeInfo `json:"node,omitempty"`
}

type regionRequest struct {
	Min bvh.Vector3f `json:"min"`
	Max bvh.Vector3f `json:"max"`
}

type regionResponse struct {
	Nodes []models.NodeInfo `json:"nodes"`
}

// SceneHandler serves the scene API.
type SceneHandler struct {
	// The store that contains all the server scenes.
	Scenes *models.SceneStore
}

// Routes registers the scene API routes on the given mux.
func (h *SceneHandler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /scenes", h.HandleCreateScene)
	mux.HandleFunc("GET /scenes/{scene}", h.HandleGetScene)
	mux.HandleFunc("DELETE /scenes/{scene}", h.HandleDeleteScene)
	mux.HandleFunc("POST /scenes/{scene}/nodes", h.HandleRegisterNode)
	mux.HandleFunc("GET /scenes/{scene}/nodes/{node}", h.HandleGetNode)
	mux.HandleFunc("DELETE /scenes/{scene}/nodes/{node}", h.HandleUnregisterNode)
	mux.HandleFunc("POST /scenes/{scene}/rebuild", h.HandleRebuild)
	mux.HandleFunc("POST /scenes/{scene}/intersect", h.HandleIntersect)
	mux.HandleFunc("POST /scenes/{scene}/region", h.HandleRegion)
	mux.HandleFunc("POST /scenes/{scene}/dagaz/quads", h.HandleDagazQuadSample)
	mux.HandleFunc("POST /scenes/{scene}/dagaz/ground", h.HandleDagazGroundPlane)
	mux.HandleFunc("POST /scenes/{scene}/dagaz/region", h.HandleDagazRegion)
}

func (h *SceneHandler) HandleCreateScene(w http.ResponseWriter, r *http.Request) {
	scene := h.Scenes.New()

	logs.WithClientID(r.Header.Get(httpcmn.HeaderPosemeshClientID)).
		WithTag("scene_id", scene.ID).
		Info("scene created")

	writeJSON(w, http.StatusCreated, createSceneResponse{ID: scene.ID})
}

func (h *SceneHandler) HandleGetScene(w http.ResponseWriter, r *http.Request) {
	scene, ok := h.scene(w, r)
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, sceneResponse{
		ID:        scene.ID,
		NodeCount: scene.NodeCount(),
		Bounds:    scene.Bounds(),
		Stats:     scene.Stats(),
	})
}

func (h *SceneHandler) HandleDeleteScene(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("scene")
	if err := h.Scenes.Remove(id); err != nil {
		writeError(w, r, err)
		return
	}

	logs.WithClientID(r.Header.Get(httpcmn.HeaderPosemeshClientID)).
		WithTag("scene_id", id).
		Info("scene deleted")

	w.WriteHeader(http.StatusNoContent)
}

func (h *SceneHandler) HandleRegisterNode(w http.ResponseWriter, r *http.Request) {
	scene, ok := h.scene(w, r)
	if !ok {
		return
	}

	var req registerNodeRequest
	if !readJSON(w, r, &req) {
		return
	}

	id, err := scene.Register(req.ParentID, bvh.Box{Min: req.Min, Max: req.Max})
	if err != nil {
		writeError(w, r, err)
		return
	}

	info, err := scene.Node(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (h *SceneHandler) HandleGetNode(w http.ResponseWriter, r *http.Request) {
	scene, ok := h.scene(w, r)
	if !ok {
		return
	}

	id, ok := nodeID(w, r)
	if !ok {
		return
	}

	info, err := scene.Node(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *SceneHandler) HandleUnregisterNode(w http.ResponseWriter, r *http.Request) {
	scene, ok := h.scene(w, r)
	if !ok {
		return
	}

	id, ok := nodeID(w, r)
	if !ok {
		return
	}

	if err := scene.Unregister(id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SceneHandler) HandleRebuild(w http.ResponseWriter, r *http.Request) {
	scene, ok := h.scene(w, r)
	if !ok {
		return
	}

	scene.Rebuild()
	writeJSON(w, http.StatusOK, scene.Stats())
}

func (h *SceneHandler) HandleIntersect(w http.ResponseWriter, r *http.Request) {
	scene, ok := h.scene(w, r)
	if !ok {
		return
	}

	var req intersectRequest
	if !readJSON(w, r, &req) {
		return
	}

	info, hit, err := scene.Intersect(bvh.NewRay(req.Origin, req.Direction))
	if err != nil {
		writeError(w, r, err)
		return
	}

	res := intersectResponse{Hit: hit}
	if hit {
		res.Node = &info
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *SceneHandler) HandleRegion(w http.ResponseWriter, r *http.Request) {
	scene, ok := h.scene(w, r)
	if !ok {
		return
	}

	var req regionRequest
	if !readJSON(w, r, &req) {
		return
	}

	nodes, err := scene.Query(bvh.Box{Min: req.Min, Max: req.Max})
	if err != nil {
		writeError(w, r, err)
		return
	}

	if nodes == nil {
		nodes = []models.NodeInfo{}
	}
	writeJSON(w, http.StatusOK, regionResponse{Nodes: nodes})
}

func (h *SceneHandler) scene(w http.ResponseWriter, r *http.Request) (*models.Scene, bool) {
	scene, err := h.Scenes.Get(r.PathValue("scene"))
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return scene, true
}

func nodeID(w http.ResponseWriter, r *http.Request) (uint32, bool) {
	id, err := strconv.ParseUint(r.PathValue("node"), 10, 32)
	if err != nil {
		writeError(w, r, errors.New("invalid node id").
			WithType(ErrTypeInvalidNodeID).
			WithTag("node_id", r.PathValue("node")).
			Wrap(err))
		return 0, false
	}
	return uint32(id), true
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		httpcmn.BadRequest(w, errors.New("reading body failed").Wrap(err))
		return nil, false
	}
	return b, true
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	b, ok := readBody(w, r)
	if !ok {
		return false
	}

	if err := json.Unmarshal(b, v); err != nil {
		httpcmn.BadRequest(w, httpcmn.ErrBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		httpcmn.InternalServerError(w, errors.New("encoding response failed").Wrap(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch errors.Type(err) {
	case models.ErrTypeSceneNotFound, models.ErrTypeNodeNotFound:
		writeJSON(w, http.StatusNotFound, errorResponse{Error: errors.Type(err)})

	case models.ErrTypeSceneFull:
		writeJSON(w, http.StatusConflict, errorResponse{Error: errors.Type(err)})

	case models.ErrTypeInvalidBox,
		models.ErrTypeInvalidRay,
		dagaz.ErrTypeInvalidQuad,
		dagaz.ErrTypeInvalidRay,
		ErrTypeInvalidNodeID:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: errors.Type(err)})

	default:
		logs.WithClientID(r.Header.Get(httpcmn.HeaderPosemeshClientID)).
			WithTag("path", r.URL.Path).
			Error(err)
		httpcmn.InternalServerError(w, err)
	}
}

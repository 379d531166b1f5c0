package http

import (
	"net/http"

	"github.com/aukilabs/go-tooling/pkg/errors"
	httpcmn "github.com/aukilabs/hagall-common/http"
	"github.com/aukilabs/hagall-common/messages/dagazpb"
	"github.com/aukilabs/kenaz/dagaz"
	"google.golang.org/protobuf/proto"
)

const protobufContentType = "application/x-protobuf"

type quadSampleResponse struct {
	NodeIDs []uint32 `json:"node_ids"`
}

func (h *SceneHandler) HandleDagazQuadSample(w http.ResponseWriter, r *http.Request) {
	scene, ok := h.scene(w, r)
	if !ok {
		return
	}

	var sample dagazpb.DagazQuadSample
	if !readProto(w, r, &sample) {
		return
	}

	ids, err := dagaz.InsertQuadSample(scene, &sample)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, quadSampleResponse{NodeIDs: ids})
}

func (h *SceneHandler) HandleDagazGroundPlane(w http.ResponseWriter, r *http.Request) {
	scene, ok := h.scene(w, r)
	if !ok {
		return
	}

	var req dagazpb.DagazGetGroundPlaneRequest
	if !readProto(w, r, &req) {
		return
	}

	res, err := dagaz.GroundPlane(scene, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeProto(w, res)
}

func (h *SceneHandler) HandleDagazRegion(w http.ResponseWriter, r *http.Request) {
	scene, ok := h.scene(w, r)
	if !ok {
		return
	}

	var req dagazpb.DagazGetRegionRequest
	if !readProto(w, r, &req) {
		return
	}

	res, err := dagaz.Region(scene, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeProto(w, res)
}

func readProto(w http.ResponseWriter, r *http.Request, m proto.Message) bool {
	b, ok := readBody(w, r)
	if !ok {
		return false
	}

	if err := proto.Unmarshal(b, m); err != nil {
		httpcmn.BadRequest(w, httpcmn.ErrBadRequest)
		return false
	}
	return true
}

func writeProto(w http.ResponseWriter, m proto.Message) {
	b, err := proto.Marshal(m)
	if err != nil {
		httpcmn.InternalServerError(w, errors.New("encoding response failed").Wrap(err))
		return
	}

	w.Header().Set("Content-Type", protobufContentType)
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

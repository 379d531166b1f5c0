package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	httpcmn "github.com/aukilabs/hagall-common/http"
	"github.com/aukilabs/kenaz/bvh"
	"github.com/aukilabs/kenaz/models"
	"golang.org/x/net/websocket"
)

// The name of the path value that contains the queried scene id.
const ScenePathValue = "scene"

// RayHandler answers the ray and region queries of a client connected to a
// scene.
type RayHandler struct {
	// The time a client is idle before being disconnected.
	ClientIdleTimeout time.Duration

	// The store that contains all the server scenes.
	Scenes *models.SceneStore

	conn     *websocket.Conn
	scene    *models.Scene
	clientID string
}

func (h *RayHandler) HandleConnect(conn *websocket.Conn) {
	req := conn.Request()
	h.clientID = req.Header.Get(httpcmn.HeaderPosemeshClientID)
	h.conn = conn

	if scene, err := h.Scenes.Get(req.PathValue(ScenePathValue)); err == nil {
		h.scene = scene
	}
}

func (h *RayHandler) HandlePing(ctx context.Context, respond ResponseSender, req Request) error {
	respond.Send(Response{
		Type:      MsgTypePing,
		RequestID: req.RequestID,
	})
	return nil
}

func (h *RayHandler) HandleIntersect(ctx context.Context, respond ResponseSender, req Request) error {
	if h.scene == nil {
		respond.Send(newErrorResponse(req, models.ErrTypeSceneNotFound))
		return nil
	}

	hit, ok, err := h.scene.Intersect(bvh.NewRay(req.Origin, req.Direction))
	if err != nil {
		respond.Send(newErrorResponse(req, errors.Type(err)))
		return nil
	}

	res := Response{
		Type:      MsgTypeIntersect,
		RequestID: req.RequestID,
		Hit:       ok,
	}
	if ok {
		res.NodeID = hit.ID
		res.Box = &hit.Bounds
	}

	respond.Send(res)
	return nil
}

func (h *RayHandler) HandleRegion(ctx context.Context, respond ResponseSender, req Request) error {
	if h.scene == nil {
		respond.Send(newErrorResponse(req, models.ErrTypeSceneNotFound))
		return nil
	}

	nodes, err := h.scene.Query(bvh.Box{Min: req.Min, Max: req.Max})
	if err != nil {
		respond.Send(newErrorResponse(req, errors.Type(err)))
		return nil
	}

	respond.Send(Response{
		Type:      MsgTypeRegion,
		RequestID: req.RequestID,
		Hit:       len(nodes) != 0,
		Nodes:     nodes,
	})
	return nil
}

func (h *RayHandler) HandleDisconnect(_ error) {
}

func (h *RayHandler) Receiver() Receiver {
	return newReceiver(h.conn)
}

func (h *RayHandler) Sender() Sender {
	return newSender(h.conn)
}

func (h *RayHandler) Close() {
}

func (h *RayHandler) IdleTimeout() time.Duration {
	return h.ClientIdleTimeout
}

func (h *RayHandler) CurrentScene() *models.Scene {
	return h.scene
}

func (h *RayHandler) GetClientID() string {
	return h.clientID
}

func newErrorResponse(req Request, errType string) Response {
	return Response{
		Type:      MsgTypeError,
		RequestID: req.RequestID,
		Error:     errType,
	}
}

// VerifyScene returns a handshake that rejects connections to scenes that do
// not exist.
func VerifyScene(scenes *models.SceneStore) func(*websocket.Config, *http.Request) error {
	return func(c *websocket.Config, r *http.Request) error {
		_, err := scenes.Get(r.PathValue(ScenePathValue))
		return err
	}
}

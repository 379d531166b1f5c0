package websocket

import (
	"testing"
	"time"

	"github.com/aukilabs/kenaz/bvh"
	"github.com/aukilabs/kenaz/models"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

func newTestScenes(t *testing.T) (*models.SceneStore, *models.Scene, uint32) {
	scenes := &models.SceneStore{
		SceneConfig: models.SceneConfig{AutoRebuild: true},
	}
	scene := scenes.New()

	_, err := scene.Register(models.RootID, bvh.NewBox(bvh.Vector3f{X: -1, Y: -1, Z: 6.5}, bvh.Vector3f{X: 1, Y: 1, Z: 7.5}))
	require.NoError(t, err)
	near, err := scene.Register(models.RootID, bvh.NewBox(bvh.Vector3f{X: -1, Y: -1, Z: 2.5}, bvh.Vector3f{X: 1, Y: 1, Z: 3.5}))
	require.NoError(t, err)

	return scenes, scene, near
}

func roundTrip(t *testing.T, conn *websocket.Conn, req Request) Response {
	require.NoError(t, websocket.JSON.Send(conn, req))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second*5)))
	var res Response
	require.NoError(t, websocket.JSON.Receive(conn, &res))
	return res
}

func TestHandlerHandlePing(t *testing.T) {
	scenes, scene, _ := newTestScenes(t)
	dial, close := NewTestingEnv(t, scenes, newTestHandler(scenes))
	defer close()

	conn, err := dial(scene.ID)
	require.NoError(t, err)

	res := roundTrip(t, conn, Request{Type: MsgTypePing, RequestID: 1})
	require.Equal(t, MsgTypePing, res.Type)
	require.Equal(t, uint32(1), res.RequestID)
}

func TestHandlerHandleIntersect(t *testing.T) {
	scenes, scene, near := newTestScenes(t)
	dial, close := NewTestingEnv(t, scenes, newTestHandler(scenes))
	defer close()

	conn, err := dial(scene.ID)
	require.NoError(t, err)

	t.Run("hit", func(t *testing.T) {
		res := roundTrip(t, conn, Request{
			RequestID: 2,
			Origin:    bvh.Vector3f{X: 0, Y: 0, Z: 0},
			Direction: bvh.Vector3f{X: 0, Y: 0, Z: 1},
		})
		require.Equal(t, MsgTypeIntersect, res.Type)
		require.Equal(t, uint32(2), res.RequestID)
		require.True(t, res.Hit)
		require.Equal(t, near, res.NodeID)
		require.NotNil(t, res.Box)
		require.Equal(t, float32(2.5), res.Box.Min.Z)
	})

	t.Run("miss", func(t *testing.T) {
		res := roundTrip(t, conn, Request{
			Type:      MsgTypeIntersect,
			RequestID: 3,
			Origin:    bvh.Vector3f{X: 10, Y: 10, Z: 10},
			Direction: bvh.Vector3f{X: 1, Y: 0, Z: 0},
		})
		require.Equal(t, uint32(3), res.RequestID)
		require.False(t, res.Hit)
		require.Nil(t, res.Box)
	})
}

func TestHandlerHandleRegion(t *testing.T) {
	scenes, scene, near := newTestScenes(t)
	dial, close := NewTestingEnv(t, scenes, newTestHandler(scenes))
	defer close()

	conn, err := dial(scene.ID)
	require.NoError(t, err)

	res := roundTrip(t, conn, Request{
		Type:      MsgTypeRegion,
		RequestID: 4,
		Min:       bvh.Vector3f{X: -5, Y: -5, Z: 0},
		Max:       bvh.Vector3f{X: 5, Y: 5, Z: 4},
	})
	require.Equal(t, MsgTypeRegion, res.Type)
	require.True(t, res.Hit)
	require.Len(t, res.Nodes, 1)
	require.Equal(t, near, res.Nodes[0].ID)

	res = roundTrip(t, conn, Request{
		Type:      MsgTypeRegion,
		RequestID: 5,
		Min:       bvh.Vector3f{X: 5, Y: 5, Z: 5},
		Max:       bvh.Vector3f{X: -5, Y: -5, Z: -5},
	})
	require.Equal(t, MsgTypeError, res.Type)
	require.Equal(t, models.ErrTypeInvalidBox, res.Error)
}

func TestHandlerUnknownMessage(t *testing.T) {
	scenes, scene, _ := newTestScenes(t)
	dial, close := NewTestingEnv(t, scenes, newTestHandler(scenes))
	defer close()

	conn, err := dial(scene.ID)
	require.NoError(t, err)

	res := roundTrip(t, conn, Request{Type: "teleport", RequestID: 6})
	require.Equal(t, MsgTypeError, res.Type)
	require.Equal(t, uint32(6), res.RequestID)

	require.NoError(t, websocket.Message.Send(conn, "{not json"))
	var decodeRes Response
	require.NoError(t, websocket.JSON.Receive(conn, &decodeRes))
	require.Equal(t, MsgTypeError, decodeRes.Type)
	require.Equal(t, ErrTypeMsgDecode, decodeRes.Error)
}

func TestHandlerUnknownScene(t *testing.T) {
	scenes, _, _ := newTestScenes(t)
	dial, close := NewTestingEnv(t, scenes, newTestHandler(scenes))
	defer close()

	_, err := dial("unknown")
	require.Error(t, err)
}

func TestHandlerIdleTimeout(t *testing.T) {
	scenes, scene, _ := newTestScenes(t)
	dial, close := NewTestingEnv(t, scenes, func() Handler {
		return &RayHandler{
			ClientIdleTimeout: time.Millisecond * 50,
			Scenes:            scenes,
		}
	})
	defer close()

	conn, err := dial(scene.ID)
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second*5)))
	var res Response
	err = websocket.JSON.Receive(conn, &res)
	require.Error(t, err)
}

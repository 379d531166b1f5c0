package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	httpcmn "github.com/aukilabs/hagall-common/http"
	"github.com/aukilabs/kenaz/models"
	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
	"golang.org/x/net/websocket"
)

// Creates a testing environment to unit test handlers. The returned dial
// function connects a client to the rays endpoint of the given scene.
func NewTestingEnv(t *testing.T, scenes *models.SceneStore, newHandler func() Handler) (func(sceneID string) (*websocket.Conn, error), func()) {
	var mutex sync.Mutex
	logger := t.Log

	logs.Encoder = func(v any) ([]byte, error) {
		return json.MarshalIndent(v, "", "  ")
	}

	logs.SetLogger(func(e logs.Entry) {
		mutex.Lock()
		defer mutex.Unlock()

		if logger != nil {
			logger(e)
		}
	})

	errors.Encoder = json.Marshal

	var mux http.ServeMux
	mux.Handle("/scenes/{scene}/rays", websocket.Server{
		Handshake: VerifyScene(scenes),
		Handler: func(conn *websocket.Conn) {
			defer conn.Close()

			handler := newHandler()
			defer handler.Close()

			Handle(context.Background(), conn, handler)
		},
	})
	server := httptest.NewServer(&mux)

	var conns []*websocket.Conn
	dial := func(sceneID string) (*websocket.Conn, error) {
		config, err := websocket.NewConfig(
			strings.ReplaceAll(server.URL, "http://", "ws://")+"/scenes/"+sceneID+"/rays",
			"http://localhost",
		)
		if err != nil {
			return nil, err
		}

		config.Header.Set("User-Agent", "ted")
		config.Header.Set("X-Forwarded-for", "192.0.0.0")
		config.Header.Set(httpcmn.HeaderPosemeshClientID, uuid.NewString())

		conn, err := websocket.DialConfig(config)
		if err != nil {
			return nil, err
		}

		mutex.Lock()
		conns = append(conns, conn)
		mutex.Unlock()
		return conn, nil
	}

	return dial, func() {
		mutex.Lock()
		logger = nil
		for _, c := range conns {
			c.Close()
		}
		mutex.Unlock()

		server.Close()
	}
}

func newTestHandler(scenes *models.SceneStore) func() Handler {
	return func() Handler {
		var h Handler = &RayHandler{
			ClientIdleTimeout: time.Minute,
			Scenes:            scenes,
		}

		h = HandlerWithLogs(h, time.Millisecond*100)
		h = HandlerWithMetrics(h, "https://auki-test.com")
		return h
	}
}

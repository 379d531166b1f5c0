package websocket

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func metricValue(t *testing.T, m prometheus.Metric) float64 {
	var pb dto.Metric
	require.NoError(t, m.Write(&pb))

	if pb.Gauge != nil {
		return pb.Gauge.GetValue()
	}
	return pb.Counter.GetValue()
}

func TestHandlerWithMetricsSceneLabel(t *testing.T) {
	scenes, scene, _ := newTestScenes(t)
	dial, close := NewTestingEnv(t, scenes, newTestHandler(scenes))
	defer close()

	conn, err := dial(scene.ID)
	require.NoError(t, err)

	res := roundTrip(t, conn, Request{Type: MsgTypePing, RequestID: 1})
	require.Equal(t, MsgTypePing, res.Type)

	require.Equal(t, float64(1), metricValue(t, wsConnectedClients.With(prometheus.Labels{
		publicEndpointLabel: "https://auki-test.com",
		sceneIDLabel:        scene.ID,
	})))

	require.Equal(t, float64(1), metricValue(t, wsReceivedMsgs.With(prometheus.Labels{
		publicEndpointLabel: "https://auki-test.com",
		msgTypeLabel:        MsgTypePing,
		sceneIDLabel:        scene.ID,
	})))
}

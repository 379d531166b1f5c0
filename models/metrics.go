package models

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	hitLabel = "hit"
)

var (
	kenazSceneCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scene_count",
		Help: "The number of scenes.",
	})

	kenazSceneCountTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scene_count_total",
		Help: "The total number of scenes.",
	})

	kenazSceneNodes = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scene_nodes",
		Help: "The number of nodes registered across all scenes.",
	})

	kenazSceneRebuildLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scene_rebuild_latency",
		Help:    "The time in seconds to rebuild a scene hierarchy.",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	})

	kenazSceneIntersectLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scene_intersect_latency",
		Help:    "The time in seconds to intersect a ray with a scene.",
		Buckets: prometheus.ExponentialBuckets(0.000001, 4, 10),
	}, []string{hitLabel})

	kenazSceneIntersectHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scene_intersect_hits",
		Help: "The number of ray intersections, labeled by whether a node was hit.",
	}, []string{hitLabel})
)

func instrumentIncreaseSceneGauge() {
	kenazSceneCount.Inc()
}

func instrumentDecreaseSceneGauge() {
	kenazSceneCount.Dec()
}

func instrumentCountScene() {
	kenazSceneCountTotal.Inc()
}

func instrumentNodeCount(delta int) {
	kenazSceneNodes.Add(float64(delta))
}

func instrumentRebuild(d time.Duration) {
	kenazSceneRebuildLatency.Observe(d.Seconds())
}

func instrumentIntersect(hit bool, d time.Duration) {
	labels := prometheus.Labels{hitLabel: strconv.FormatBool(hit)}

	kenazSceneIntersectHits.With(labels).Inc()
	kenazSceneIntersectLatency.With(labels).Observe(d.Seconds())
}

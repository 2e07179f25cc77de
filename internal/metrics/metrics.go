package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	AggregateRunsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "playground_aggregate_runs_total",
		Help: "Total number of full district aggregations",
	})
	AggregateDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "playground_aggregate_duration_ms",
		Help:    "Full aggregation duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	})
	DistrictMerges = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "playground_district_key_merges",
		Help: "Districts merged into an earlier district with the same name key in the latest aggregation",
	})
	SnapshotDistricts = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "playground_snapshot_districts",
		Help: "Districts in the current snapshot",
	})
	SnapshotFeatures = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "playground_snapshot_features",
		Help: "Playground features in the current snapshot",
	})
	SnapshotRevision = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "playground_snapshot_revision",
		Help: "Revision of the current snapshot",
	})
	PublishTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "playground_publish_total",
		Help: "District publish decisions by result",
	}, []string{"result"})
	PublishErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "playground_publish_errors_total",
		Help: "Total publisher failures",
	})
	LocateRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "playground_locate_requests_total",
		Help: "Viewport locate requests by cache layer",
	}, []string{"cache"})
	LocateDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "playground_locate_duration_ms",
		Help:    "Viewport locate duration in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 20, 50, 100},
	})
	IngestTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "playground_ingest_total",
		Help: "Source reloads by status",
	}, []string{"status"})
	IngestDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "playground_ingest_duration_ms",
		Help:    "Source reload duration in milliseconds",
		Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000, 30000},
	})
)

func init() {
	prometheus.MustRegister(AggregateRunsTotal)
	prometheus.MustRegister(AggregateDurationMs)
	prometheus.MustRegister(DistrictMerges)
	prometheus.MustRegister(SnapshotDistricts)
	prometheus.MustRegister(SnapshotFeatures)
	prometheus.MustRegister(SnapshotRevision)
	prometheus.MustRegister(PublishTotal)
	prometheus.MustRegister(PublishErrorsTotal)
	prometheus.MustRegister(LocateRequestsTotal)
	prometheus.MustRegister(LocateDurationMs)
	prometheus.MustRegister(IngestTotal)
	prometheus.MustRegister(IngestDurationMs)
}

// 文档注释：返回 Prometheus 指标监听器，在主入口挂载到 /metrics
func Handler() http.Handler { return promhttp.Handler() }

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ChecksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geosanity_checks_total",
		Help: "Total number of exit-node checks by verdict",
	}, []string{"verdict"})
	CheckDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "geosanity_check_duration_ms",
		Help:    "Single check duration in milliseconds",
		Buckets: []float64{5, 10, 20, 50, 100, 200, 500, 1000, 2000, 5000, 10000},
	})
	IndeterminateTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geosanity_indeterminate_total",
		Help: "Indeterminate checks by reason",
	}, []string{"reason"})
	SamplesDroppedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geosanity_samples_dropped_total",
		Help: "Latency samples dropped before disk construction, by reason",
	}, []string{"reason"})
	DisksBuiltTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geosanity_disks_built_total",
		Help: "Total feasibility disks built",
	})
	DisksComplementedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geosanity_disks_complemented_total",
		Help: "Feasibility disks that needed the world-box complement",
	})
	DiskFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "geosanity_disk_failures_total",
		Help: "Feasibility disks dropped because construction failed",
	})
	GeocodeRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geosanity_geocode_requests_total",
		Help: "Claim coordinate lookups by source and status",
	}, []string{"source", "status"})
	GeocodeCacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geosanity_geocode_cache_hits_total",
		Help: "Claim coordinate cache hits by tier",
	}, []string{"tier"})
	GeocodeDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "geosanity_geocode_duration_ms",
		Help:    "Remote geocode call duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000},
	})
	ExportFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "geosanity_export_failures_total",
		Help: "Export hook failures by hook",
	}, []string{"hook"})
)

func init() {
	prometheus.MustRegister(ChecksTotal)
	prometheus.MustRegister(CheckDurationMs)
	prometheus.MustRegister(IndeterminateTotal)
	prometheus.MustRegister(SamplesDroppedTotal)
	prometheus.MustRegister(DisksBuiltTotal)
	prometheus.MustRegister(DisksComplementedTotal)
	prometheus.MustRegister(DiskFailuresTotal)
	prometheus.MustRegister(GeocodeRequestsTotal)
	prometheus.MustRegister(GeocodeCacheHitsTotal)
	prometheus.MustRegister(GeocodeDurationMs)
	prometheus.MustRegister(ExportFailuresTotal)
}

// 文档注释：返回 Prometheus 指标处理器
// 背景：批处理运行期间可选暴露 /metrics（METRICS_ADDR），便于观察磁盘构建失败与判定分布。
func Handler() http.Handler { return promhttp.Handler() }

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager Prometheus 指标集合
// 使用独立 Registry，避免默认注册表携带的 Go 运行时指标干扰压测对比
type Manager struct {
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	anomalyBucketSize    *prometheus.GaugeVec
	staleChatSquads      prometheus.Gauge
	monitorSweeps        prometheus.Counter
	monitorSweepErrors   prometheus.Counter
	monitorSweepDuration prometheus.Histogram
	monitorLastSweepUnix prometheus.Gauge
}

// NewManager 创建并注册全部指标
func NewManager() *Manager {
	registry := prometheus.NewRegistry()
	auto := promauto.With(registry)

	m := &Manager{registry: registry}

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "openclique",
			Subsystem: "admin",
			Name:      "http_requests_total",
			Help:      "HTTP 请求总数（按路径、方法、状态码）",
		},
		[]string{"path", "method", "status"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "openclique",
			Subsystem: "admin",
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP 请求耗时（毫秒）",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)

	m.anomalyBucketSize = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "openclique",
			Subsystem: "admin",
			Name:      "anomaly_bucket_size",
			Help:      "最近一次异常巡检各分类的条目数",
		},
		[]string{"bucket"},
	)

	m.staleChatSquads = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: "openclique",
		Subsystem: "admin",
		Name:      "stale_chat_squads",
		Help:      "最近一次巡检中聊天沉默的活跃小队数",
	})

	m.monitorSweeps = auto.NewCounter(prometheus.CounterOpts{
		Namespace: "openclique",
		Subsystem: "admin",
		Name:      "monitor_sweeps_total",
		Help:      "异常巡检执行总次数",
	})

	m.monitorSweepErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: "openclique",
		Subsystem: "admin",
		Name:      "monitor_sweep_errors_total",
		Help:      "异常巡检失败总次数",
	})

	m.monitorSweepDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "openclique",
		Subsystem: "admin",
		Name:      "monitor_sweep_duration_milliseconds",
		Help:      "单次异常巡检耗时（毫秒）",
		Buckets:   prometheus.DefBuckets,
	})

	m.monitorLastSweepUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: "openclique",
		Subsystem: "admin",
		Name:      "monitor_last_sweep_unix",
		Help:      "最近一次巡检完成的 Unix 时间戳",
	})

	return m
}

// RecordHTTPRequest 记录一次 HTTP 请求及其耗时
func (m *Manager) RecordHTTPRequest(path, method, status string, durationMs float64) {
	m.httpRequests.WithLabelValues(path, method, status).Inc()
	m.httpRequestDuration.WithLabelValues(path, method, status).Observe(durationMs)
}

// SetAnomalyBucketSize 更新某个异常分类的当前条目数
func (m *Manager) SetAnomalyBucketSize(bucket string, size int) {
	m.anomalyBucketSize.WithLabelValues(bucket).Set(float64(size))
}

// SetStaleChatCount 更新聊天沉默的活跃小队数
func (m *Manager) SetStaleChatCount(n int) {
	m.staleChatSquads.Set(float64(n))
}

// RecordSweep 记录一次巡检完成
func (m *Manager) RecordSweep(durationMs float64) {
	m.monitorSweeps.Inc()
	m.monitorSweepDuration.Observe(durationMs)
	m.monitorLastSweepUnix.SetToCurrentTime()
}

// RecordSweepError 记录一次巡检失败
func (m *Manager) RecordSweepError() {
	m.monitorSweepErrors.Inc()
}

// Handler 返回 /metrics 的 HTTP 处理器
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// ClientMetrics 客户端请求/应答交换指标
type ClientMetrics struct {
	ExchangeTotal    *prometheus.CounterVec   // labels: cmd, result=ok|encode_error|transport_error|decode_error
	ExchangeDuration *prometheus.HistogramVec // labels: cmd
	ReplyBytes       prometheus.Counter
}

// NewClientMetrics 注册并返回客户端指标
func NewClientMetrics(reg prometheus.Registerer) *ClientMetrics {
	m := &ClientMetrics{
		ExchangeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "molecube_client_exchange_total",
			Help: "Request/reply exchanges by command and result.",
		}, []string{"cmd", "result"}),
		ExchangeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "molecube_client_exchange_duration_seconds",
			Help:    "Round trip time of one exchange.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}, []string{"cmd"}),
		ReplyBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "molecube_client_reply_bytes_total",
			Help: "Total reply bytes received.",
		}),
	}
	reg.MustRegister(m.ExchangeTotal, m.ExchangeDuration, m.ReplyBytes)
	return m
}

// ControllerMetrics 模拟控制器侧指标
type ControllerMetrics struct {
	RequestTotal  *prometheus.CounterVec // labels: cmd, result=ok|rejected
	RequestBytes  prometheus.Counter
	OverrideGauge *prometheus.GaugeVec // labels: kind=ttl|dds，当前是否存在覆盖
}

// NewControllerMetrics 注册并返回控制器指标
func NewControllerMetrics(reg prometheus.Registerer) *ControllerMetrics {
	m := &ControllerMetrics{
		RequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "molecube_controller_request_total",
			Help: "Handled controller requests by command and result.",
		}, []string{"cmd", "result"}),
		RequestBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "molecube_controller_request_bytes_total",
			Help: "Total request payload bytes received.",
		}),
		OverrideGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "molecube_controller_override_active",
			Help: "Whether a TTL or DDS override is currently active (0/1).",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.RequestTotal, m.RequestBytes, m.OverrideGauge)
	return m
}

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hms_listview"

// FetchSource 列表数据来源
type FetchSource string

const (
	SourceLive     FetchSource = "live"
	SourceSnapshot FetchSource = "snapshot"
	SourceError    FetchSource = "error"
)

// Metrics 列表引擎指标；nil 接收者上的方法均为空操作
type Metrics struct {
	registry *prometheus.Registry
	fetches  *prometheus.CounterVec
	actions  *prometheus.CounterVec
	replayed prometheus.Counter
}

// New 使用独立 registry 注册全部指标
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector())
	reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "List fetches by entity and data source.",
		}, []string{"entity", "source"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Row actions by entity, action and outcome.",
		}, []string{"entity", "action", "outcome"}),
		replayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "offline_replayed_total",
			Help:      "Queued mutations replayed after connectivity returned.",
		}),
	}
	reg.MustRegister(m.fetches, m.actions, m.replayed)
	return m
}

func (m *Metrics) Fetch(entity string, source FetchSource) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(entity, string(source)).Inc()
}

func (m *Metrics) Action(entity, action, outcome string) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(entity, action, outcome).Inc()
}

func (m *Metrics) Replayed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.replayed.Add(float64(n))
}

// Handler /metrics
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry 供测试读取
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

package provider

import "github.com/prometheus/client_golang/prometheus"

const (
	outcomeSuccess   = "success"
	outcomeTransient = "transient_error"
	outcomePermanent = "permanent_error"
	outcomeSkipped   = "circuit_open"
)

// Metrics 后端调用计数；nil 时所有方法都是空操作
type Metrics struct {
	requests *prometheus.CounterVec
	cache    *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wireframe_provider_requests_total",
			Help: "Provider invocation attempts by outcome.",
		}, []string{"provider", "outcome"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wireframe_provider_cache_total",
			Help: "Response cache lookups by result.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.cache)
	}
	return m
}

func (m *Metrics) attempt(provider, outcome string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) cacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cache.WithLabelValues(result).Inc()
}

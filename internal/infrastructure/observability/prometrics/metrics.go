package prometrics

import (
	"sync"

	"github.com/Zhima-Mochi/vending-machine/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
)

// Registry creates Prometheus vectors once and hands them out behind the observability ports.
type Registry struct {
	reg        prometheus.Registerer
	namespace  string
	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
}

// New registers instruments on reg; a nil reg means prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer, namespace string) *Registry {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Registry{
		reg:        reg,
		namespace:  namespace,
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

type counter struct{ v *prometheus.CounterVec }

func (c *counter) Add(d float64, labels ...observability.Label) {
	c.v.With(labelMap(labels)).Add(d)
}

type histogram struct{ v *prometheus.HistogramVec }

func (h *histogram) Observe(v float64, labels ...observability.Label) {
	h.v.With(labelMap(labels)).Observe(v)
}

func labelMap(ls []observability.Label) prometheus.Labels {
	m := make(prometheus.Labels, len(ls))
	for _, l := range ls {
		m[l.Key] = l.Value
	}
	return m
}

func (r *Registry) Counter(name, help string, labelKeys ...string) observability.Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cv, ok := r.counters[name]; ok {
		return &counter{v: cv}
	}
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace, Name: name, Help: help,
	}, labelKeys)
	r.reg.MustRegister(cv)
	r.counters[name] = cv
	return &counter{v: cv}
}

func (r *Registry) Histogram(name, help string, buckets []float64, labelKeys ...string) observability.Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hv, ok := r.histograms[name]; ok {
		return &histogram{v: hv}
	}
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}
	hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace, Name: name, Help: help, Buckets: buckets,
	}, labelKeys)
	r.reg.MustRegister(hv)
	r.histograms[name] = hv
	return &histogram{v: hv}
}

// Instruments registers every metric the service emits and returns them keyed for telemetry.New.
func (r *Registry) Instruments() (map[observability.MetricKey]observability.Counter, map[observability.MetricKey]observability.Histogram) {
	counters := map[observability.MetricKey]observability.Counter{
		observability.MUsecaseRequests: r.Counter(string(observability.MUsecaseRequests),
			"Total number of use case invocations.", "use_case", "outcome"),
		observability.MHTTPRequests: r.Counter(string(observability.MHTTPRequests),
			"Total number of HTTP requests.", "method", "route", "status"),
		observability.MExternalRequests: r.Counter(string(observability.MExternalRequests),
			"Calls to collaborators outside the core (event bus, state store).", "peer", "endpoint", "outcome"),
		observability.MPurchaseCompensations: r.Counter(string(observability.MPurchaseCompensations),
			"Purchases refunded because stock ran out after payment was taken.", "item"),
		observability.MStateSaves: r.Counter(string(observability.MStateSaves),
			"Machine state snapshots written to the state store.", "outcome"),
	}
	histograms := map[observability.MetricKey]observability.Histogram{
		observability.MUsecaseDuration: r.Histogram(string(observability.MUsecaseDuration),
			"Duration of use case execution in seconds.", nil, "use_case"),
		observability.MHTTPRequestDuration: r.Histogram(string(observability.MHTTPRequestDuration),
			"Duration of HTTP requests in seconds.", nil, "method", "route", "status"),
		observability.MExternalRequestDuration: r.Histogram(string(observability.MExternalRequestDuration),
			"Duration of collaborator calls in seconds.", nil, "peer", "endpoint"),
	}
	return counters, histograms
}

// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tamzrod/modbus-mqtt/internal/decode"
	"github.com/tamzrod/modbus-mqtt/internal/status"
)

const namespace = "modbus_mqtt"

// Poll results, used as the "result" label.
const (
	ResultOK          = "ok"
	ResultReadError   = "read_error"
	ResultDecodeError = "decode_error"
)

// Metrics is the bridge's collector set. A nil *Metrics is valid and records nothing.
type Metrics struct {
	reg *prometheus.Registry

	polls         *prometheus.CounterVec
	pollDuration  prometheus.Histogram
	publishErrors *prometheus.CounterVec
	published     *prometheus.CounterVec
	modules       prometheus.Gauge
	health        prometheus.Gauge
	fields        *prometheus.GaugeVec
}

// New registers all collectors on a fresh registry, labelled with the device id.
func New(device string) *Metrics {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"device": device}

	m := &Metrics{
		reg: reg,
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "polls_total",
			Help:        "Poll cycles by result.",
			ConstLabels: labels,
		}, []string{"result"}),
		pollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "poll_duration_seconds",
			Help:        "Duration of the register read of one poll cycle.",
			ConstLabels: labels,
			Buckets:     []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
		publishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "publish_errors_total",
			Help:        "Failed dataset publishes by output.",
			ConstLabels: labels,
		}, []string{"output"}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "published_total",
			Help:        "Datasets handed to each output.",
			ConstLabels: labels,
		}, []string{"output"}),
		modules: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "modules",
			Help:        "Modules decoded in the last successful cycle.",
			ConstLabels: labels,
		}),
		health: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "health",
			Help:        "Device health code (0 unknown, 1 ok, 2 error, 3 offline).",
			ConstLabels: labels,
		}),
		fields: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "field_value",
			Help:        "Last decoded value per module field; idx is the element of repeated fields.",
			ConstLabels: labels,
		}, []string{"module", "field", "idx"}),
	}

	reg.MustRegister(m.polls, m.pollDuration, m.publishErrors, m.published, m.modules, m.health, m.fields)
	return m
}

// Registry exposes the underlying registry (tests, extra collectors).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// ObservePoll counts one cycle; d is the read duration, ignored for failed reads.
func (m *Metrics) ObservePoll(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.polls.WithLabelValues(result).Inc()
	if result != ResultReadError {
		m.pollDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) ObservePublish(output string, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.publishErrors.WithLabelValues(output).Inc()
		return
	}
	m.published.WithLabelValues(output).Inc()
}

func (m *Metrics) SetHealth(h status.Health) {
	if m == nil {
		return
	}
	m.health.Set(float64(h))
}

// SetModules records the decoded values of one cycle.
func (m *Metrics) SetModules(mods []decode.Module) {
	if m == nil {
		return
	}
	m.modules.Set(float64(len(mods)))
	for _, mod := range mods {
		module := strconv.Itoa(mod.Index)
		for _, f := range mod.Fields {
			if n, ok := f.Value.Scalar(); ok {
				m.fields.WithLabelValues(module, f.Name, "").Set(n.Float64())
				continue
			}
			list, _ := f.Value.List()
			for i, n := range list {
				m.fields.WithLabelValues(module, f.Name, strconv.Itoa(i)).Set(n.Float64())
			}
		}
	}
}

// Package metrics exposes the state of the Things and their links as
// Prometheus collectors. A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"aquarium_wot/internal/models"
)

const namespace = "aquarium"

type Metrics struct {
	waterParameter *prometheus.GaugeVec   // by parameter
	paramStatus    *prometheus.GaugeVec   // by parameter: 0 ok, 1 warning, 2 alert
	statusChanges  *prometheus.CounterVec // by parameter and new status
	samples        prometheus.Counter
	sampleFailures prometheus.Counter

	pumpSpeed    *prometheus.GaugeVec // by thing (pump | actuator)
	filterHealth prometheus.Gauge
	cleanings    prometheus.Counter

	peerReachable *prometheus.GaugeVec   // by link
	peerFailures  *prometheus.CounterVec // by link

	events *prometheus.CounterVec // by thing and type
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		waterParameter: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "water",
			Name:      "parameter_value",
			Help:      "Current simulated water parameter value",
		}, []string{"parameter"}),

		paramStatus: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sensor",
			Name:      "parameter_status",
			Help:      "Last classified parameter status (0 ok, 1 warning, 2 alert)",
		}, []string{"parameter"}),

		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sensor",
			Name:      "status_changes_total",
			Help:      "Parameter status transitions observed by the sensor",
		}, []string{"parameter", "status"}),

		samples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sensor",
			Name:      "samples_total",
			Help:      "Completed sampling rounds",
		}),

		sampleFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sensor",
			Name:      "sample_failures_total",
			Help:      "Sampling rounds skipped because the water could not be read",
		}),

		pumpSpeed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pump",
			Name:      "speed_percent",
			Help:      "Current pump speed in percent",
		}, []string{"thing"}),

		filterHealth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pump",
			Name:      "filter_health_percent",
			Help:      "Current filter health in percent",
		}),

		cleanings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pump",
			Name:      "cleaning_cycles_total",
			Help:      "Completed filter cleaning cycles",
		}),

		peerReachable: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "peer",
			Name:      "reachable",
			Help:      "Whether the remote Thing behind a link is reachable (1) or not (0)",
		}, []string{"link"}),

		peerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "peer",
			Name:      "failures_total",
			Help:      "Failed remote operations per link",
		}, []string{"link"}),

		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Thing events emitted",
		}, []string{"thing", "type"}),
	}

	for _, c := range []prometheus.Collector{
		m.waterParameter, m.paramStatus, m.statusChanges, m.samples, m.sampleFailures,
		m.pumpSpeed, m.filterHealth, m.cleanings,
		m.peerReachable, m.peerFailures, m.events,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) ObserveWater(w models.WaterParameterSet) {
	if m == nil {
		return
	}
	for _, p := range models.Parameters {
		v, _ := w.Get(p)
		m.waterParameter.WithLabelValues(p).Set(v)
	}
}

func (m *Metrics) ObserveSample(statuses map[string]models.ParameterStatus) {
	if m == nil {
		return
	}
	m.samples.Inc()
	for p, s := range statuses {
		m.paramStatus.WithLabelValues(p).Set(float64(s.Severity()))
	}
}

func (m *Metrics) SampleFailed() {
	if m == nil {
		return
	}
	m.sampleFailures.Inc()
}

func (m *Metrics) StatusChanged(parameter string, to models.ParameterStatus) {
	if m == nil {
		return
	}
	m.statusChanges.WithLabelValues(parameter, string(to)).Inc()
}

func (m *Metrics) ObservePump(thing string, speed int) {
	if m == nil {
		return
	}
	m.pumpSpeed.WithLabelValues(thing).Set(float64(speed))
}

func (m *Metrics) ObserveFilterHealth(health float64) {
	if m == nil {
		return
	}
	m.filterHealth.Set(health)
}

func (m *Metrics) CleaningCompleted() {
	if m == nil {
		return
	}
	m.cleanings.Inc()
}

// ObservePeer records the outcome of one remote operation on link.
func (m *Metrics) ObservePeer(link string, ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.peerReachable.WithLabelValues(link).Set(1)
		return
	}
	m.peerReachable.WithLabelValues(link).Set(0)
	m.peerFailures.WithLabelValues(link).Inc()
}

func (m *Metrics) EventEmitted(thing, eventType string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(thing, eventType).Inc()
}

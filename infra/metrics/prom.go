package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/robofleet/core/events"
	coremetrics "github.com/kilianp07/robofleet/core/metrics"
	"github.com/kilianp07/robofleet/core/model"
)

// PromSink records fleet mutations and fleet state in Prometheus metrics.
type PromSink struct {
	mutations *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	robots    *prometheus.GaugeVec
	battery   *prometheus.GaugeVec
}

// NewPromSink registers fleet metrics on the default Prometheus registerer.
// The /metrics endpoint is served separately.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered under the same name are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "robofleet_mutations_total",
		Help: "Fleet store operations by outcome",
	}, []string{"op", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "robofleet_mutation_duration_seconds",
		Help:    "Time spent inside fleet store operations",
		Buckets: []float64{.00001, .0001, .001, .01, .1, 1},
	}, []string{"op"})
	robots := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "robofleet_robots",
		Help: "Robots in the fleet per status",
	}, []string{"status"})
	battery := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "robofleet_battery_level",
		Help: "Battery level per robot in percent",
	}, []string{"robot_id"})

	var err error
	if mutations, err = register(reg, mutations); err != nil {
		return nil, err
	}
	if duration, err = register(reg, duration); err != nil {
		return nil, err
	}
	if robots, err = register(reg, robots); err != nil {
		return nil, err
	}
	if battery, err = register(reg, battery); err != nil {
		return nil, err
	}
	return &PromSink{mutations: mutations, duration: duration, robots: robots, battery: battery}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordMutation counts the operation and observes its duration.
func (s *PromSink) RecordMutation(ev events.MutationEvent) error {
	s.mutations.WithLabelValues(string(ev.Op), string(ev.Outcome)).Inc()
	s.duration.WithLabelValues(string(ev.Op)).Observe(ev.Duration.Seconds())
	return nil
}

// RecordFleetState replaces the per-status and per-robot gauges. Robots no
// longer in the fleet disappear from the battery gauge.
func (s *PromSink) RecordFleetState(st coremetrics.FleetState) error {
	counts := make(map[model.Status]int, len(model.Statuses))
	s.battery.Reset()
	for _, r := range st.Robots {
		counts[r.Status]++
		s.battery.WithLabelValues(r.ID).Set(float64(r.BatteryLevel))
	}
	for _, status := range model.Statuses {
		s.robots.WithLabelValues(status.String()).Set(float64(counts[status]))
	}
	return nil
}

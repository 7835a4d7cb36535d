package metrics

import (
	"errors"
	"time"

	"github.com/kilianp07/robofleet/core/events"
	"github.com/kilianp07/robofleet/core/model"
)

// MetricsSink records fleet mutations for observability purposes.
type MetricsSink interface {
	RecordMutation(ev events.MutationEvent) error
}

// FleetState is a point-in-time copy of the whole fleet.
type FleetState struct {
	Robots []model.Robot
	Time   time.Time
}

// Closer is implemented by sinks holding connections or buffers.
type Closer interface {
	Close() error
}

// FleetStateRecorder is implemented by sinks able to record fleet snapshots.
type FleetStateRecorder interface {
	RecordFleetState(st FleetState) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordMutation(events.MutationEvent) error { return nil }
func (NopSink) RecordFleetState(FleetState) error         { return nil }

// MultiSink fans out records to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordMutation forwards the event to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordMutation(ev events.MutationEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordMutation(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordFleetState forwards snapshots to sinks that support them.
func (m *MultiSink) RecordFleetState(st FleetState) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(FleetStateRecorder); ok {
			if err := rec.RecordFleetState(st); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close closes every sink implementing Closer.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.Sinks {
		if c, ok := s.(Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

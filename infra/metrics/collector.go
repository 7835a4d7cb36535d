package metrics

import (
	"context"

	"github.com/kilianp07/robofleet/core/events"
	coremetrics "github.com/kilianp07/robofleet/core/metrics"
	"github.com/kilianp07/robofleet/infra/logger"
	"github.com/kilianp07/robofleet/internal/eventbus"
)

// Record forwards ev to sink. Fleet snapshots attached to the event go to
// sinks that also record fleet state.
func Record(sink coremetrics.MetricsSink, ev events.MutationEvent) error {
	if err := sink.RecordMutation(ev); err != nil {
		return err
	}
	if ev.Fleet == nil {
		return nil
	}
	if rec, ok := sink.(coremetrics.FleetStateRecorder); ok {
		return rec.RecordFleetState(coremetrics.FleetState{Robots: ev.Fleet, Time: ev.Time})
	}
	return nil
}

// StartEventCollector subscribes to the bus and records every mutation on
// sink. It stops when the context is canceled or the bus is closed; the
// returned channel is closed once the collector has exited.
func StartEventCollector(ctx context.Context, bus *eventbus.TypedBus[events.MutationEvent], sink coremetrics.MetricsSink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := Record(sink, ev); err != nil {
					log.Warnw("metrics sink failed", map[string]any{"op": ev.Op, "err": err.Error()})
				}
			}
		}
	}()
	return done
}

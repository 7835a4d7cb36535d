// Package telemetry turns fleet mutation events into logs, error reports,
// metrics, journal entries and MQTT messages.
package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/kilianp07/robofleet/core/events"
	coremetrics "github.com/kilianp07/robofleet/core/metrics"
	coremon "github.com/kilianp07/robofleet/core/monitoring"
	"github.com/kilianp07/robofleet/core/policy"
	"github.com/kilianp07/robofleet/infra/journal"
	"github.com/kilianp07/robofleet/infra/logger"
	inframetrics "github.com/kilianp07/robofleet/infra/metrics"
	infmqtt "github.com/kilianp07/robofleet/infra/mqtt"
	"github.com/kilianp07/robofleet/internal/eventbus"
)

// Sinks are the slow consumers fed from the bus. Nil members are skipped.
type Sinks struct {
	Metrics   coremetrics.MetricsSink
	Journal   journal.Store
	Publisher infmqtt.Publisher
}

// Pipeline is the events.Recorder handed to the fleet store. Logging and
// error reporting happen inline; everything else is published on a bus and
// consumed on separate goroutines, so a slow sink never delays a mutation.
type Pipeline struct {
	bus    *eventbus.TypedBus[events.MutationEvent]
	log    logger.Logger
	cancel context.CancelFunc
	done   []<-chan struct{}
	once   sync.Once
}

var _ events.Recorder = (*Pipeline)(nil)

// NewPipeline creates a pipeline with a bus of the given per-consumer buffer.
func NewPipeline(log logger.Logger, buffer int) *Pipeline {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Pipeline{bus: eventbus.NewTypedBuffered[events.MutationEvent](buffer), log: log}
}

// Start launches one consumer per configured sink.
func (p *Pipeline) Start(ctx context.Context, s Sinks) {
	ctx, p.cancel = context.WithCancel(ctx)
	if s.Metrics != nil {
		p.done = append(p.done, inframetrics.StartEventCollector(ctx, p.bus, s.Metrics, p.log))
	}
	if s.Journal != nil {
		p.done = append(p.done, journal.StartWriter(ctx, p.bus, s.Journal, p.log))
	}
	if s.Publisher != nil {
		p.done = append(p.done, infmqtt.StartForwarder(ctx, p.bus, s.Publisher, p.log))
	}
}

// Bus exposes the event bus for additional consumers.
func (p *Pipeline) Bus() *eventbus.TypedBus[events.MutationEvent] { return p.bus }

// RecordMutation logs ev, reports system failures and publishes it.
func (p *Pipeline) RecordMutation(ev events.MutationEvent) {
	p.logEvent(ev)
	p.report(ev)
	p.bus.Publish(ev)
}

// Dropped returns how many deliveries consumers missed.
func (p *Pipeline) Dropped() uint64 { return p.bus.Dropped() }

// Close stops the consumers and waits up to timeout for them to exit.
func (p *Pipeline) Close(timeout time.Duration) error {
	var err error
	p.once.Do(func() {
		p.bus.Close()
		deadline := time.After(timeout)
		for _, d := range p.done {
			select {
			case <-d:
			case <-deadline:
				err = errors.New("telemetry consumers did not stop in time")
			}
			if err != nil {
				break
			}
		}
		if p.cancel != nil {
			p.cancel()
		}
	})
	return err
}

func fields(ev events.MutationEvent) map[string]any {
	f := map[string]any{
		"event_id":    ev.ID,
		"op":          string(ev.Op),
		"outcome":     string(ev.Outcome),
		"duration_us": ev.Duration.Microseconds(),
	}
	if ev.RobotID != "" {
		f["robot_id"] = ev.RobotID
	}
	if ev.Reason != "" {
		f["reason"] = ev.Reason
	}
	if ev.Err != "" {
		f["err"] = ev.Err
		f["error_kind"] = string(ev.ErrKind)
	}
	return f
}

func (p *Pipeline) logEvent(ev events.MutationEvent) {
	switch ev.Outcome {
	case events.OutcomeFailed:
		if ev.ErrKind.CallerError() {
			p.log.Warnw("fleet mutation failed", fields(ev))
		} else {
			p.log.Errorw("fleet mutation failed", fields(ev))
		}
	case events.OutcomeRejected:
		p.log.Infow("fleet mutation rejected", fields(ev))
	case events.OutcomeNoop:
		p.log.Debugw("fleet mutation had no effect", fields(ev))
	default:
		p.log.Infow("fleet mutation applied", fields(ev))
		p.logBattery(ev)
	}
}

// logBattery warns once when a robot crosses a battery threshold downwards.
func (p *Pipeline) logBattery(ev events.MutationEvent) {
	if ev.After == nil {
		return
	}
	level := ev.After.BatteryLevel
	prev := policy.MaxBattery + 1
	if ev.Before != nil {
		prev = ev.Before.BatteryLevel
	}
	f := map[string]any{"robot_id": ev.After.ID, "battery": level}
	switch {
	case policy.IsCritical(level) && !policy.IsCritical(prev):
		p.log.Errorw("battery critical", f)
	case policy.IsLow(level) && !policy.IsLow(prev):
		p.log.Warnw("battery low", f)
	}
}

func (p *Pipeline) report(ev events.MutationEvent) {
	if ev.Outcome != events.OutcomeFailed || ev.ErrKind.CallerError() {
		return
	}
	coremon.CaptureException(errors.New(ev.Err), map[string]string{
		"module":     "fleet",
		"op":         string(ev.Op),
		"robot_id":   ev.RobotID,
		"error_kind": string(ev.ErrKind),
	})
}

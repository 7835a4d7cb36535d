package mqtt

import (
	"context"
	"sync"

	"github.com/kilianp07/robofleet/core/events"
	coremqtt "github.com/kilianp07/robofleet/core/mqtt"
	"github.com/kilianp07/robofleet/infra/logger"
	"github.com/kilianp07/robofleet/internal/eventbus"
)

// Publisher mirrors the core mqtt.Publisher interface.
type Publisher = coremqtt.Publisher

// StartForwarder publishes every event from bus until ctx is canceled or the
// bus is closed. The returned channel closes on exit.
func StartForwarder(ctx context.Context, bus *eventbus.TypedBus[events.MutationEvent], pub Publisher, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || pub == nil {
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
				if err := pub.PublishMutation(ev); err != nil {
					log.Warnw("mqtt forward failed", map[string]any{"op": ev.Op, "err": err.Error()})
				}
			}
		}
	}()
	return done
}

// MockPublisher records published events, for tests.
type MockPublisher struct {
	mu     sync.Mutex
	Events []events.MutationEvent
	Err    error
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher { return &MockPublisher{} }

func (m *MockPublisher) PublishMutation(ev events.MutationEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, ev)
	return nil
}

func (m *MockPublisher) Disconnect() {}

// Published returns a copy of the recorded events.
func (m *MockPublisher) Published() []events.MutationEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]events.MutationEvent(nil), m.Events...)
}

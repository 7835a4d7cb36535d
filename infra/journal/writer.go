package journal

import (
	"context"
	"time"

	"github.com/kilianp07/robofleet/core/events"
	"github.com/kilianp07/robofleet/infra/logger"
	"github.com/kilianp07/robofleet/internal/eventbus"
)

// appendTimeout bounds a single journal write.
const appendTimeout = 2 * time.Second

// StartWriter appends every event published on bus to store until ctx is
// canceled or the bus is closed. The returned channel closes on exit.
func StartWriter(ctx context.Context, bus *eventbus.TypedBus[events.MutationEvent], store Store, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || store == nil {
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
				wctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
				if err := store.Append(wctx, ev); err != nil {
					log.Errorw("journal append failed", map[string]any{"event_id": ev.ID, "err": err.Error()})
				}
				cancel()
			}
		}
	}()
	return done
}

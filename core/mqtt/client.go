package mqtt

import "github.com/kilianp07/robofleet/core/events"

// Publisher forwards fleet mutations to a message broker.
type Publisher interface {
	// PublishMutation sends the event and, when the fleet changed, the
	// resulting robot state.
	PublishMutation(ev events.MutationEvent) error
	// Disconnect closes the broker session.
	Disconnect()
}

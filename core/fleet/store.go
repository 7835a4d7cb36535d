package fleet

import (
	"context"

	"github.com/kilianp07/robofleet/core/model"
	"github.com/kilianp07/robofleet/core/policy"
)

// Observer is called with the new fleet snapshot after every successful
// mutation. It runs on the mutating goroutine and must not call mutating
// store operations.
type Observer func(fleet []model.Robot)

// Store is the fleet's single writer path.
type Store interface {
	// Add appends a robot built from in under a freshly generated id.
	Add(ctx context.Context, in model.RobotInput) (model.Robot, error)
	// RemoveLast removes the most recently added robot. The boolean is false
	// when the fleet was empty, in which case nothing happens.
	RemoveLast(ctx context.Context) (model.Robot, bool, error)
	// UpdateBattery applies change to the robot's battery, clamped to [0,100].
	UpdateBattery(ctx context.Context, id string, change policy.BatteryChange) (model.Robot, error)
	// UpdateStatus sets the status without transition checks.
	UpdateStatus(ctx context.Context, id string, status model.Status) (model.Robot, error)
	// CycleStatus advances the status to its successor in the cycle.
	CycleStatus(ctx context.Context, id string) (model.Robot, error)
	// ReturnToBase moves the robot to Returning when the policy allows it.
	// A rejection is reported through the Transition, not as an error.
	ReturnToBase(ctx context.Context, id string) (model.Robot, policy.Transition, error)
	// Replace swaps the whole fleet, for instance to load a seed.
	Replace(ctx context.Context, robots []model.Robot) error

	// Snapshot returns a copy of the current fleet in insertion order.
	Snapshot() []model.Robot
	// Get returns a copy of one robot.
	Get(id string) (model.Robot, bool)
	// Subscribe registers an observer and returns a function removing it.
	Subscribe(o Observer) (cancel func())
}

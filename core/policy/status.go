package policy

import "github.com/kilianp07/robofleet/core/model"

// Transition is the outcome of a return-to-base request.
type Transition int

const (
	// Applied means the robot moved to Returning.
	Applied Transition = iota
	// AlreadyReturning means the robot was already Returning; nothing changed.
	AlreadyReturning
	// Rejected means the current status does not allow returning to base.
	Rejected
)

func (t Transition) String() string {
	switch t {
	case Applied:
		return "applied"
	case AlreadyReturning:
		return "already_returning"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Changed reports whether the transition modified the robot.
func (t Transition) Changed() bool { return t == Applied }

// cycle maps every status to its successor when the badge is clicked.
var cycle = map[model.Status]model.Status{
	model.StatusIdle:       model.StatusOnDelivery,
	model.StatusOnDelivery: model.StatusCharging,
	model.StatusCharging:   model.StatusError,
	model.StatusError:      model.StatusReturning,
	model.StatusReturning:  model.StatusIdle,
}

// priority orders statuses for the "All" view.
var priority = map[model.Status]int{
	model.StatusOnDelivery: 0,
	model.StatusIdle:       1,
	model.StatusCharging:   2,
	model.StatusReturning:  3,
	model.StatusError:      4,
}

// Next returns the status following s in the cycle
// Idle -> OnDelivery -> Charging -> Error -> Returning -> Idle.
// Unknown values restart the cycle at Idle.
func Next(s model.Status) model.Status {
	if n, ok := cycle[s]; ok {
		return n
	}
	return model.StatusIdle
}

// CheckReturnToBase decides whether a robot in status s may return to base.
func CheckReturnToBase(s model.Status) Transition {
	switch s {
	case model.StatusIdle, model.StatusOnDelivery:
		return Applied
	case model.StatusReturning:
		return AlreadyReturning
	default:
		return Rejected
	}
}

// Priority returns the sort rank of s in the "All" view. Unknown statuses
// sort last.
func Priority(s model.Status) int {
	if p, ok := priority[s]; ok {
		return p
	}
	return len(priority)
}

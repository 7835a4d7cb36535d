package events

import (
	"time"

	"github.com/kilianp07/robofleet/core/model"
)

// Op names a fleet store operation.
type Op string

const (
	OpAdd          Op = "add_robot"
	OpRemoveLast   Op = "remove_last"
	OpBattery      Op = "update_battery"
	OpStatus       Op = "update_status"
	OpCycleStatus  Op = "cycle_status"
	OpReturnToBase Op = "return_to_base"
	OpReplace      Op = "replace_fleet"
)

// Outcome classifies the result of a mutation attempt.
type Outcome string

const (
	OutcomeApplied  Outcome = "applied"
	OutcomeNoop     Outcome = "noop"
	OutcomeRejected Outcome = "rejected"
	OutcomeFailed   Outcome = "failed"
)

// ErrKind classifies the error of a failed mutation.
type ErrKind string

const (
	ErrKindNotFound  ErrKind = "not_found"
	ErrKindDuplicate ErrKind = "duplicate_id"
	ErrKindInvalid   ErrKind = "invalid"
	ErrKindCanceled  ErrKind = "canceled"
	ErrKindInternal  ErrKind = "internal"
)

// CallerError reports whether the failure was caused by the request rather
// than by the system.
func (k ErrKind) CallerError() bool {
	switch k {
	case ErrKindNotFound, ErrKindInvalid, ErrKindCanceled:
		return true
	}
	return false
}

// MutationEvent describes one store operation. Before and After are nil when
// the robot did not exist on that side of the operation. Fleet holds the
// snapshot after the operation and is only set when the fleet changed.
type MutationEvent struct {
	ID       string        `json:"id"`
	Op       Op            `json:"op"`
	RobotID  string        `json:"robot_id,omitempty"`
	Before   *model.Robot  `json:"before,omitempty"`
	After    *model.Robot  `json:"after,omitempty"`
	Outcome  Outcome       `json:"outcome"`
	Reason   string        `json:"reason,omitempty"`
	Err      string        `json:"error,omitempty"`
	ErrKind  ErrKind       `json:"error_kind,omitempty"`
	Duration time.Duration `json:"duration_ns"`
	Time     time.Time     `json:"time"`
	Fleet    []model.Robot `json:"-"`
}

// Success reports whether the operation completed without error.
func (e MutationEvent) Success() bool {
	return e.Outcome != OutcomeFailed
}

// Recorder receives mutation events. Implementations must not block for long
// and must not call back into the store.
type Recorder interface {
	RecordMutation(ev MutationEvent)
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(MutationEvent)

func (f RecorderFunc) RecordMutation(ev MutationEvent) { f(ev) }

// NopRecorder discards events.
type NopRecorder struct{}

func (NopRecorder) RecordMutation(MutationEvent) {}

// Multi forwards events to every recorder in order.
type Multi []Recorder

func (m Multi) RecordMutation(ev MutationEvent) {
	for _, r := range m {
		r.RecordMutation(ev)
	}
}

package fleet

import (
	"context"
	"errors"

	"github.com/kilianp07/robofleet/core/events"
)

// Classify maps a store error to the kind recorded on mutation events.
func Classify(err error) events.ErrKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return events.ErrKindNotFound
	case errors.Is(err, ErrDuplicateID):
		return events.ErrKindDuplicate
	case errors.Is(err, ErrInvalidRobot):
		return events.ErrKindInvalid
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return events.ErrKindCanceled
	default:
		return events.ErrKindInternal
	}
}

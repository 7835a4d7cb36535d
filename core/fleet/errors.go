package fleet

import "errors"

var (
	// ErrNotFound is returned when an operation references a robot id that
	// is not part of the fleet.
	ErrNotFound = errors.New("robot not found")

	// ErrDuplicateID is returned when a new robot would reuse an id already
	// present in the fleet.
	ErrDuplicateID = errors.New("duplicate robot id")

	// ErrInvalidRobot is returned when a robot record violates the data model,
	// for example an unknown status in a seed file.
	ErrInvalidRobot = errors.New("invalid robot")
)

package model

import (
	"fmt"
	"strings"
)

// Status is the operational phase of a robot.
type Status int

const (
	StatusIdle Status = iota
	StatusOnDelivery
	StatusCharging
	StatusError
	StatusReturning
)

// Statuses lists every status in declaration order.
var Statuses = []Status{StatusIdle, StatusOnDelivery, StatusCharging, StatusError, StatusReturning}

// String returns the display label used on the wire and in the dashboard.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusOnDelivery:
		return "On Delivery"
	case StatusCharging:
		return "Charging"
	case StatusError:
		return "Error"
	case StatusReturning:
		return "Returning"
	default:
		return "unknown"
	}
}

// Valid reports whether s is one of the declared statuses.
func (s Status) Valid() bool {
	return s >= StatusIdle && s <= StatusReturning
}

// ParseStatus converts a label into a Status. Matching ignores case and
// accepts both "On Delivery" and "OnDelivery".
func ParseStatus(v string) (Status, error) {
	key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(v), " ", ""))
	switch key {
	case "idle":
		return StatusIdle, nil
	case "ondelivery":
		return StatusOnDelivery, nil
	case "charging":
		return StatusCharging, nil
	case "error":
		return StatusError, nil
	case "returning":
		return StatusReturning, nil
	}
	return 0, fmt.Errorf("unknown robot status %q", v)
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid robot status %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	v, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

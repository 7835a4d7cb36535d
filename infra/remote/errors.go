package remote

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/kilianp07/robofleet/api"
	"github.com/kilianp07/robofleet/core/fleet"
)

var (
	// ErrNetwork is returned when the server could not be reached or replied
	// with something that is not the API's JSON.
	ErrNetwork = errors.New("fleet server unreachable")

	// ErrTimeout is returned when a request outlived its deadline.
	ErrTimeout = errors.New("fleet server timeout")
)

// APIError is a non-2xx reply decoded from the server's error body.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("fleet api %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("fleet api %d: %s", e.Status, e.Message)
}

// Unwrap maps the error code onto the fleet sentinels so callers can use
// errors.Is(err, fleet.ErrNotFound) regardless of the store behind them.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case api.CodeNotFound:
		return fleet.ErrNotFound
	case api.CodeDuplicateID:
		return fleet.ErrDuplicateID
	case api.CodeInvalidRequest, api.CodeValidation:
		return fleet.ErrInvalidRobot
	default:
		return nil
	}
}

func newAPIError(status int, body api.ErrorResponse) *APIError {
	return &APIError{Status: status, Code: body.Code, Message: body.Message, Details: body.Details}
}

// transportError classifies a failed round trip.
func transportError(op string, err error) error {
	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w: %w", op, ErrTimeout, err)
	case errors.As(err, &ne) && ne.Timeout():
		return fmt.Errorf("%s: %w: %w", op, ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w", op, err)
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s: %w: %w", op, ErrNetwork, ue.Err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrNetwork, err)
}

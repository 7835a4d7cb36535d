// Package api holds the JSON shapes shared by the REST server and its client.
package api

import (
	"github.com/kilianp07/robofleet/core/model"
)

// Response wraps every successful payload.
type Response[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
	Success bool   `json:"success"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Message string         `json:"message"`
	Status  int            `json:"status,omitempty"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// Error codes carried in ErrorResponse.Code.
const (
	CodeNotFound           = "not_found"
	CodeDuplicateID        = "duplicate_id"
	CodeInvalidRequest     = "invalid_request"
	CodeValidation         = "validation_failed"
	CodeTransitionRejected = "transition_rejected"
	CodeInternal           = "internal"
)

// Transition messages returned with return-to-base results.
const (
	MessageApplied          = "returning to base"
	MessageAlreadyReturning = "already_returning"
)

// Health is the payload of GET /api/health.
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Robots    int    `json:"robots"`
}

// StatusRequest is the body of PATCH /api/robots/:id/status.
type StatusRequest struct {
	Status *model.Status `json:"status" validate:"required"`
}

// BatteryRequest is the body of PATCH /api/robots/:id/battery. Exactly one of
// Delta and BatteryLevel must be set. Results are clamped, not rejected.
type BatteryRequest struct {
	Delta        *int `json:"delta,omitempty" validate:"required_without=BatteryLevel,excluded_with=BatteryLevel"`
	BatteryLevel *int `json:"batteryLevel,omitempty" validate:"required_without=Delta"`
}

// CountsResponse is the payload of GET /api/robots/counts, keyed by status
// label plus "All".
type CountsResponse map[string]int

// Removed is the payload of DELETE /api/robots/last.
type Removed struct {
	Robot   *model.Robot `json:"robot,omitempty"`
	Removed bool         `json:"removed"`
}

// Summary mirrors view.Summary on the wire.
type Summary struct {
	Robots      int     `json:"robots"`
	MeanBattery float64 `json:"meanBattery"`
	StdBattery  float64 `json:"stdBattery"`
	MinBattery  int     `json:"minBattery"`
	MaxBattery  int     `json:"maxBattery"`
	Low         int     `json:"low"`
	Critical    int     `json:"critical"`
}

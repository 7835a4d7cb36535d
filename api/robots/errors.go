package robots

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/kilianp07/robofleet/api"
	"github.com/kilianp07/robofleet/core/fleet"
)

func respondError(c echo.Context, status int, code, msg string, details map[string]any) error {
	return c.JSON(status, api.ErrorResponse{Message: msg, Status: status, Code: code, Details: details})
}

// storeError maps a fleet store error to an HTTP reply.
func (h *Handler) storeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, fleet.ErrNotFound):
		return respondError(c, http.StatusNotFound, api.CodeNotFound, err.Error(), nil)
	case errors.Is(err, fleet.ErrDuplicateID):
		return respondError(c, http.StatusConflict, api.CodeDuplicateID, err.Error(), nil)
	case errors.Is(err, fleet.ErrInvalidRobot):
		return respondError(c, http.StatusBadRequest, api.CodeInvalidRequest, err.Error(), nil)
	case errors.Is(err, context.DeadlineExceeded):
		return respondError(c, http.StatusGatewayTimeout, api.CodeInternal, "request timed out", nil)
	default:
		h.log.Errorw("fleet store error", map[string]any{"path": c.Path(), "err": err.Error()})
		return respondError(c, http.StatusInternalServerError, api.CodeInternal, "internal error", nil)
	}
}

func validationError(c echo.Context, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return respondError(c, http.StatusBadRequest, api.CodeValidation, "Validation failed: "+err.Error(), nil)
	}
	details := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	return respondError(c, http.StatusBadRequest, api.CodeValidation, "Validation failed: "+err.Error(), details)
}

func bindError(c echo.Context, err error) error {
	msg := "Invalid request body"
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Internal != nil {
		msg += ": " + he.Internal.Error()
	}
	return respondError(c, http.StatusBadRequest, api.CodeInvalidRequest, msg, nil)
}

// httpErrorHandler renders echo's own errors (unknown route, bad method,
// panics caught by Recover) in the API error shape.
func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	msg := http.StatusText(status)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(status)
		}
	}
	code := api.CodeInternal
	switch status {
	case http.StatusNotFound:
		code = api.CodeNotFound
	case http.StatusBadRequest, http.StatusMethodNotAllowed:
		code = api.CodeInvalidRequest
	}
	_ = respondError(c, status, code, msg, nil)
}

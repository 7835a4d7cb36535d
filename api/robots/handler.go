// Package robots serves the fleet over HTTP.
package robots

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/kilianp07/robofleet/api"
	"github.com/kilianp07/robofleet/core/events"
	"github.com/kilianp07/robofleet/core/fleet"
	"github.com/kilianp07/robofleet/core/model"
	"github.com/kilianp07/robofleet/core/policy"
	"github.com/kilianp07/robofleet/core/view"
	"github.com/kilianp07/robofleet/infra/journal"
	"github.com/kilianp07/robofleet/infra/logger"
)

// Handler exposes a fleet.Store as REST endpoints.
type Handler struct {
	store    fleet.Store
	gen      *fleet.Generator
	journal  journal.Store
	validate *validator.Validate
	log      logger.Logger
	now      func() time.Time
}

// Option customises a Handler.
type Option func(*Handler)

// WithJournal enables GET /api/journal.
func WithJournal(j journal.Store) Option { return func(h *Handler) { h.journal = j } }

// WithGenerator sets the source of random robots for POST /api/robots/random.
func WithGenerator(g *fleet.Generator) Option { return func(h *Handler) { h.gen = g } }

// WithLogger sets the handler logger.
func WithLogger(l logger.Logger) Option { return func(h *Handler) { h.log = l } }

// NewHandler creates a handler serving store.
func NewHandler(store fleet.Store, opts ...Option) *Handler {
	h := &Handler{
		store:    store,
		gen:      fleet.NewGenerator(0),
		validate: validator.New(),
		log:      logger.NopLogger{},
		now:      time.Now,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

func ok[T any](c echo.Context, status int, data T, msg string) error {
	return c.JSON(status, api.Response[T]{Data: data, Message: msg, Success: true})
}

func (h *Handler) Health(c echo.Context) error {
	return ok(c, http.StatusOK, api.Health{
		Status:    "ok",
		Timestamp: h.now().UTC().Format(time.RFC3339),
		Robots:    len(h.store.Snapshot()),
	}, "")
}

// ParseSelection reads the mode, status and q query parameters. Without a
// mode, a non-empty q selects name mode.
func ParseSelection(mode, status, q string) (view.Selection, error) {
	sel := view.DefaultSelection()
	sel.Query = q
	switch strings.ToLower(mode) {
	case "":
		if strings.TrimSpace(q) != "" {
			sel.Mode = view.ModeName
		}
	case string(view.ModeName):
		sel.Mode = view.ModeName
	case string(view.ModeStatus):
		sel.Mode = view.ModeStatus
	default:
		return sel, fmt.Errorf("unknown mode %q", mode)
	}
	f, err := view.ParseStatusFilter(status)
	if err != nil {
		return sel, err
	}
	sel.Status = f
	return sel, nil
}

func (h *Handler) List(c echo.Context) error {
	sel, err := ParseSelection(c.QueryParam("mode"), c.QueryParam("status"), c.QueryParam("q"))
	if err != nil {
		return respondError(c, http.StatusBadRequest, api.CodeInvalidRequest, err.Error(), nil)
	}
	return ok(c, http.StatusOK, view.Filter(h.store.Snapshot(), sel), "")
}

func (h *Handler) Counts(c echo.Context) error {
	return ok(c, http.StatusOK, api.CountsResponse(view.Count(h.store.Snapshot()).Labels()), "")
}

func (h *Handler) Summary(c echo.Context) error {
	s := view.Summarize(h.store.Snapshot())
	return ok(c, http.StatusOK, api.Summary{
		Robots:      s.Robots,
		MeanBattery: s.MeanBattery,
		StdBattery:  s.StdBattery,
		MinBattery:  s.MinBattery,
		MaxBattery:  s.MaxBattery,
		Low:         s.Low,
		Critical:    s.Critical,
	}, "")
}

func (h *Handler) Get(c echo.Context) error {
	id := c.Param("id")
	r, found := h.store.Get(id)
	if !found {
		return h.storeError(c, fmt.Errorf("%w: %s", fleet.ErrNotFound, id))
	}
	return ok(c, http.StatusOK, r, "")
}

func (h *Handler) Create(c echo.Context) error {
	var in model.RobotInput
	if err := c.Bind(&in); err != nil {
		return bindError(c, err)
	}
	if err := h.validate.Struct(in); err != nil {
		return validationError(c, err)
	}
	r, err := h.store.Add(c.Request().Context(), in)
	if err != nil {
		return h.storeError(c, err)
	}
	return ok(c, http.StatusCreated, r, "")
}

// Replace swaps the whole fleet for the robots in the body.
func (h *Handler) Replace(c echo.Context) error {
	var robots []model.Robot
	if err := new(echo.DefaultBinder).BindBody(c, &robots); err != nil {
		return bindError(c, err)
	}
	if err := h.store.Replace(c.Request().Context(), robots); err != nil {
		return h.storeError(c, err)
	}
	return ok(c, http.StatusOK, h.store.Snapshot(), "")
}

// CreateRandom adds a generated robot, like the dashboard's add button.
func (h *Handler) CreateRandom(c echo.Context) error {
	in := h.gen.NewInput(len(h.store.Snapshot()) + 1)
	r, err := h.store.Add(c.Request().Context(), in)
	if err != nil {
		return h.storeError(c, err)
	}
	return ok(c, http.StatusCreated, r, "")
}

func (h *Handler) RemoveLast(c echo.Context) error {
	r, removed, err := h.store.RemoveLast(c.Request().Context())
	if err != nil {
		return h.storeError(c, err)
	}
	out := api.Removed{Removed: removed}
	msg := "fleet empty"
	if removed {
		out.Robot = &r
		msg = ""
	}
	return ok(c, http.StatusOK, out, msg)
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	var req api.StatusRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationError(c, err)
	}
	r, err := h.store.UpdateStatus(c.Request().Context(), c.Param("id"), *req.Status)
	if err != nil {
		return h.storeError(c, err)
	}
	return ok(c, http.StatusOK, r, "")
}

func (h *Handler) CycleStatus(c echo.Context) error {
	r, err := h.store.CycleStatus(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.storeError(c, err)
	}
	return ok(c, http.StatusOK, r, "")
}

func (h *Handler) UpdateBattery(c echo.Context) error {
	var req api.BatteryRequest
	if err := c.Bind(&req); err != nil {
		return bindError(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return validationError(c, err)
	}
	var change policy.BatteryChange
	if req.Delta != nil {
		change = policy.Delta(*req.Delta)
	} else {
		change = policy.Absolute(*req.BatteryLevel)
	}
	r, err := h.store.UpdateBattery(c.Request().Context(), c.Param("id"), change)
	if err != nil {
		return h.storeError(c, err)
	}
	return ok(c, http.StatusOK, r, "")
}

func (h *Handler) ReturnToBase(c echo.Context) error {
	r, tr, err := h.store.ReturnToBase(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.storeError(c, err)
	}
	switch tr {
	case policy.Rejected:
		return respondError(c, http.StatusConflict, api.CodeTransitionRejected,
			fmt.Sprintf("robot %s cannot return to base while %s", r.ID, r.Status),
			map[string]any{"robot": r})
	case policy.AlreadyReturning:
		return ok(c, http.StatusOK, r, api.MessageAlreadyReturning)
	default:
		return ok(c, http.StatusOK, r, api.MessageApplied)
	}
}

// Journal lists recorded mutation events, newest last.
func (h *Handler) Journal(c echo.Context) error {
	if h.journal == nil {
		return respondError(c, http.StatusNotFound, api.CodeNotFound, "journal disabled", nil)
	}
	q := journal.Query{
		RobotID: c.QueryParam("robot_id"),
		Op:      events.Op(c.QueryParam("op")),
		Outcome: events.Outcome(c.QueryParam("outcome")),
		Limit:   100,
	}
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return respondError(c, http.StatusBadRequest, api.CodeInvalidRequest, "limit must be a non-negative integer", nil)
		}
		q.Limit = n
	}
	for name, dst := range map[string]*time.Time{"start": &q.Start, "end": &q.End} {
		if s := c.QueryParam(name); s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return respondError(c, http.StatusBadRequest, api.CodeInvalidRequest, name+" must be RFC3339", nil)
			}
			*dst = t
		}
	}
	evs, err := h.journal.Query(c.Request().Context(), q)
	if err != nil {
		return h.storeError(c, err)
	}
	if evs == nil {
		evs = []events.MutationEvent{}
	}
	return ok(c, http.StatusOK, evs, "")
}

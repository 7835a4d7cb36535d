// Package remote talks to a robofleet server over its REST API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/robofleet/api"
	"github.com/kilianp07/robofleet/core/events"
	"github.com/kilianp07/robofleet/core/model"
	"github.com/kilianp07/robofleet/core/policy"
	"github.com/kilianp07/robofleet/core/view"
	"github.com/kilianp07/robofleet/infra/journal"
	"github.com/kilianp07/robofleet/infra/logger"
)

// DefaultTimeout bounds a request when the caller's context has no deadline.
const DefaultTimeout = 5 * time.Second

// Config holds the client settings.
type Config struct {
	BaseURL   string `json:"base_url"`
	TimeoutMS int    `json:"timeout_ms"`
}

func (c *Config) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:8080"
	}
	if c.TimeoutMS <= 0 {
		c.TimeoutMS = int(DefaultTimeout / time.Millisecond)
	}
}

func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url must be http or https, got %q", c.BaseURL)
	}
	if c.TimeoutMS < 0 {
		return fmt.Errorf("api.timeout_ms must be >= 0")
	}
	return nil
}

// Timeout returns the configured request timeout.
func (c Config) Timeout() time.Duration { return time.Duration(c.TimeoutMS) * time.Millisecond }

// Client is a typed wrapper around the fleet endpoints.
type Client struct {
	base string
	http *http.Client
	log  logger.Logger
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) ClientOption { return func(c *Client) { c.http = hc } }

// WithClientLogger sets the client logger.
func WithClientLogger(l logger.Logger) ClientOption { return func(c *Client) { c.log = l } }

// NewClient returns a client for cfg.
func NewClient(cfg Config, opts ...ClientOption) *Client {
	cfg.SetDefaults()
	c := &Client{
		base: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{Timeout: cfg.Timeout()},
		log:  logger.NopLogger{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// call performs one request and decodes the envelope into a Response[T].
// Non-2xx replies come back as *APIError.
func call[T any](ctx context.Context, c *Client, method, path string, body any) (api.Response[T], error) {
	var out api.Response[T]
	op := method + " " + path

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return out, fmt.Errorf("%s: encode body: %w", op, err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return out, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warnw("fleet request failed", map[string]any{"op": op, "err": err.Error()})
		return out, transportError(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return out, transportError(op, err)
	}
	c.log.Debugw("fleet request", map[string]any{
		"op":          op,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var er api.ErrorResponse
		if err := json.Unmarshal(raw, &er); err != nil || er.Message == "" {
			return out, fmt.Errorf("%s: %w: unexpected status %d: %s", op, ErrNetwork, resp.StatusCode, bytes.TrimSpace(raw))
		}
		return out, newAPIError(resp.StatusCode, er)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("%s: %w: decode response: %w", op, ErrNetwork, err)
	}
	return out, nil
}

// Health reports the server status.
func (c *Client) Health(ctx context.Context) (api.Health, error) {
	r, err := call[api.Health](ctx, c, http.MethodGet, "/api/health", nil)
	return r.Data, err
}

// Fleet returns the whole fleet in insertion order.
func (c *Client) Fleet(ctx context.Context) ([]model.Robot, error) {
	// Name mode with no query leaves the order untouched.
	r, err := call[[]model.Robot](ctx, c, http.MethodGet, "/api/robots?mode=name", nil)
	return r.Data, err
}

// List returns the server-side view for sel.
func (c *Client) List(ctx context.Context, sel view.Selection) ([]model.Robot, error) {
	v := url.Values{}
	v.Set("mode", string(sel.Mode))
	v.Set("status", sel.Status.String())
	if sel.Query != "" {
		v.Set("q", sel.Query)
	}
	r, err := call[[]model.Robot](ctx, c, http.MethodGet, "/api/robots?"+v.Encode(), nil)
	return r.Data, err
}

// Counts returns the per-status counts keyed by label.
func (c *Client) Counts(ctx context.Context) (api.CountsResponse, error) {
	r, err := call[api.CountsResponse](ctx, c, http.MethodGet, "/api/robots/counts", nil)
	return r.Data, err
}

// Summary returns the battery summary.
func (c *Client) Summary(ctx context.Context) (api.Summary, error) {
	r, err := call[api.Summary](ctx, c, http.MethodGet, "/api/robots/summary", nil)
	return r.Data, err
}

func (c *Client) Get(ctx context.Context, id string) (model.Robot, error) {
	r, err := call[model.Robot](ctx, c, http.MethodGet, robotPath(id, ""), nil)
	return r.Data, err
}

func (c *Client) Add(ctx context.Context, in model.RobotInput) (model.Robot, error) {
	r, err := call[model.Robot](ctx, c, http.MethodPost, "/api/robots", in)
	return r.Data, err
}

// AddRandom asks the server to generate and add a robot.
func (c *Client) AddRandom(ctx context.Context) (model.Robot, error) {
	r, err := call[model.Robot](ctx, c, http.MethodPost, "/api/robots/random", nil)
	return r.Data, err
}

func (c *Client) Replace(ctx context.Context, robots []model.Robot) ([]model.Robot, error) {
	if robots == nil {
		robots = []model.Robot{}
	}
	r, err := call[[]model.Robot](ctx, c, http.MethodPut, "/api/robots", robots)
	return r.Data, err
}

func (c *Client) RemoveLast(ctx context.Context) (model.Robot, bool, error) {
	r, err := call[api.Removed](ctx, c, http.MethodDelete, "/api/robots/last", nil)
	if err != nil || !r.Data.Removed || r.Data.Robot == nil {
		return model.Robot{}, false, err
	}
	return *r.Data.Robot, true, nil
}

func (c *Client) UpdateStatus(ctx context.Context, id string, s model.Status) (model.Robot, error) {
	r, err := call[model.Robot](ctx, c, http.MethodPatch, robotPath(id, "/status"), api.StatusRequest{Status: &s})
	return r.Data, err
}

func (c *Client) CycleStatus(ctx context.Context, id string) (model.Robot, error) {
	r, err := call[model.Robot](ctx, c, http.MethodPost, robotPath(id, "/status/cycle"), nil)
	return r.Data, err
}

func (c *Client) UpdateBattery(ctx context.Context, id string, change policy.BatteryChange) (model.Robot, error) {
	v := change.Value
	req := api.BatteryRequest{Delta: &v}
	if change.Absolute {
		req = api.BatteryRequest{BatteryLevel: &v}
	}
	r, err := call[model.Robot](ctx, c, http.MethodPatch, robotPath(id, "/battery"), req)
	return r.Data, err
}

// ReturnToBase maps the server's reply back onto a Transition. A rejection
// is not an error; the robot is recovered from the error details.
func (c *Client) ReturnToBase(ctx context.Context, id string) (model.Robot, policy.Transition, error) {
	r, err := call[model.Robot](ctx, c, http.MethodPost, robotPath(id, "/return-to-base"), nil)
	if err != nil {
		var ae *APIError
		if errors.As(err, &ae) && ae.Code == api.CodeTransitionRejected {
			robot, derr := detailRobot(ae.Details)
			if derr != nil {
				return model.Robot{}, policy.Rejected, fmt.Errorf("return to base %s: %w: %w", id, ErrNetwork, derr)
			}
			return robot, policy.Rejected, nil
		}
		return model.Robot{}, policy.Rejected, err
	}
	if r.Message == api.MessageAlreadyReturning {
		return r.Data, policy.AlreadyReturning, nil
	}
	return r.Data, policy.Applied, nil
}

// Journal queries the server's mutation journal.
func (c *Client) Journal(ctx context.Context, q journal.Query) ([]events.MutationEvent, error) {
	v := url.Values{}
	if q.RobotID != "" {
		v.Set("robot_id", q.RobotID)
	}
	if q.Op != "" {
		v.Set("op", string(q.Op))
	}
	if q.Outcome != "" {
		v.Set("outcome", string(q.Outcome))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if !q.Start.IsZero() {
		v.Set("start", q.Start.Format(time.RFC3339))
	}
	if !q.End.IsZero() {
		v.Set("end", q.End.Format(time.RFC3339))
	}
	path := "/api/journal"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}
	r, err := call[[]events.MutationEvent](ctx, c, http.MethodGet, path, nil)
	return r.Data, err
}

func robotPath(id, suffix string) string {
	return "/api/robots/" + url.PathEscape(id) + suffix
}

func detailRobot(details map[string]any) (model.Robot, error) {
	var r model.Robot
	raw, ok := details["robot"]
	if !ok {
		return r, fmt.Errorf("rejection without robot details")
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return r, err
	}
	err = json.Unmarshal(b, &r)
	return r, err
}

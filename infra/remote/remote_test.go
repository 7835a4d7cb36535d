package remote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/robofleet/api/robots"
	"github.com/kilianp07/robofleet/core/fleet"
	"github.com/kilianp07/robofleet/core/model"
	"github.com/kilianp07/robofleet/core/policy"
	"github.com/kilianp07/robofleet/core/view"
)

func newServer(t *testing.T) (*httptest.Server, *fleet.MemoryStore) {
	t.Helper()
	mem := fleet.NewMemoryStore(fleet.WithIDGenerator(fleet.NewSerialIDGenerator(3)))
	require.NoError(t, mem.Replace(context.Background(), fleet.SampleFleet()))
	srv := httptest.NewServer(robots.NewServer(robots.NewHandler(mem), robots.ServerOptions{}))
	t.Cleanup(srv.Close)
	return srv, mem
}

func newRemote(t *testing.T, url string) *Store {
	t.Helper()
	s := NewStore(NewClient(Config{BaseURL: url, TimeoutMS: 2000}), nil)
	require.NoError(t, s.Refresh(context.Background()))
	return s
}

func ids(rs []model.Robot) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func TestRefreshKeepsInsertionOrder(t *testing.T) {
	srv, _ := newServer(t)
	s := newRemote(t, srv.URL)
	assert.Equal(t, []string{"R2D1", "R2D2", "R1D3"}, ids(s.Snapshot()))
	r, ok := s.Get("R2D2")
	require.True(t, ok)
	assert.Equal(t, 87, r.BatteryLevel)
}

func TestMutationsUpdateMirrorAndNotify(t *testing.T) {
	srv, mem := newServer(t)
	s := newRemote(t, srv.URL)
	ctx := context.Background()

	var seen [][]model.Robot
	cancel := s.Subscribe(func(f []model.Robot) { seen = append(seen, f) })
	defer cancel()

	r, err := s.UpdateBattery(ctx, "R2D2", policy.Delta(-policy.Step))
	require.NoError(t, err)
	assert.Equal(t, 77, r.BatteryLevel)
	got, _ := s.Get("R2D2")
	assert.Equal(t, 77, got.BatteryLevel)
	server, _ := mem.Get("R2D2")
	assert.Equal(t, 77, server.BatteryLevel)

	_, err = s.UpdateStatus(ctx, "R2D1", model.StatusCharging)
	require.NoError(t, err)
	r, err = s.CycleStatus(ctx, "R2D1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusError, r.Status)

	added, err := s.Add(ctx, model.RobotInput{Name: "Robo-4", Model: "V1", BatteryLevel: 50})
	require.NoError(t, err)
	assert.Equal(t, added.ID, s.Snapshot()[3].ID)

	removed, ok, err := s.RemoveLast(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, added.ID, removed.ID)
	assert.Len(t, s.Snapshot(), 3)

	assert.Len(t, seen, 5)
	assert.Equal(t, mem.Snapshot(), s.Snapshot())
}

func TestNoopUpdateDoesNotNotify(t *testing.T) {
	srv, _ := newServer(t)
	s := newRemote(t, srv.URL)
	calls := 0
	defer s.Subscribe(func([]model.Robot) { calls++ })()

	_, err := s.UpdateStatus(context.Background(), "R2D2", model.StatusIdle)
	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestReturnToBaseTransitions(t *testing.T) {
	srv, mem := newServer(t)
	s := newRemote(t, srv.URL)
	ctx := context.Background()

	r, tr, err := s.ReturnToBase(ctx, "R2D2")
	require.NoError(t, err)
	assert.Equal(t, policy.Applied, tr)
	assert.Equal(t, model.StatusReturning, r.Status)

	_, tr, err = s.ReturnToBase(ctx, "R2D2")
	require.NoError(t, err)
	assert.Equal(t, policy.AlreadyReturning, tr)

	_, err = mem.UpdateStatus(ctx, "R1D3", model.StatusError)
	require.NoError(t, err)
	r, tr, err = s.ReturnToBase(ctx, "R1D3")
	require.NoError(t, err)
	assert.Equal(t, policy.Rejected, tr)
	assert.Equal(t, "R1D3", r.ID)
	assert.Equal(t, model.StatusError, r.Status)
	mirrored, _ := s.Get("R1D3")
	assert.Equal(t, model.StatusOnDelivery, mirrored.Status, "rejection leaves the mirror alone")
}

func TestErrorsMapToFleetSentinels(t *testing.T) {
	srv, _ := newServer(t)
	s := newRemote(t, srv.URL)
	ctx := context.Background()
	before := s.Snapshot()

	_, err := s.UpdateBattery(ctx, "ghost", policy.Delta(1))
	require.ErrorIs(t, err, fleet.ErrNotFound)
	var ae *APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusNotFound, ae.Status)

	_, _, err = s.ReturnToBase(ctx, "ghost")
	assert.ErrorIs(t, err, fleet.ErrNotFound)

	err = s.Replace(ctx, []model.Robot{{ID: "A"}, {ID: "A"}})
	assert.ErrorIs(t, err, fleet.ErrDuplicateID)

	_, err = s.Add(ctx, model.RobotInput{BatteryLevel: 500})
	assert.ErrorIs(t, err, fleet.ErrInvalidRobot)

	assert.Equal(t, before, s.Snapshot())
}

func TestReplaceAndEmptyRemove(t *testing.T) {
	srv, _ := newServer(t)
	s := newRemote(t, srv.URL)
	ctx := context.Background()

	require.NoError(t, s.Replace(ctx, nil))
	assert.Empty(t, s.Snapshot())

	_, ok, err := s.RemoveLast(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	r, err := s.AddRandom(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{r.ID}, ids(s.Snapshot()))
}

func TestClientReadEndpoints(t *testing.T) {
	srv, _ := newServer(t)
	c := NewClient(Config{BaseURL: srv.URL + "/"})
	ctx := context.Background()

	h, err := c.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, h.Robots)

	list, err := c.List(ctx, view.DefaultSelection())
	require.NoError(t, err)
	assert.Equal(t, []string{"R2D1", "R1D3", "R2D2"}, ids(list))

	counts, err := c.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts["On Delivery"])

	sum, err := c.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Low)

	r, err := c.Get(ctx, "R1D3")
	require.NoError(t, err)
	assert.Equal(t, "Robo-3", r.Name)
}

func TestTimeoutLeavesMirrorUntouched(t *testing.T) {
	srv, _ := newServer(t)
	s := newRemote(t, srv.URL)
	before := s.Snapshot()

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()
	s.client = NewClient(Config{BaseURL: slow.URL, TimeoutMS: 2000})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := s.CycleStatus(ctx, "R2D2")
	require.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, before, s.Snapshot())
}

func TestUnreachableServerIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewStore(NewClient(Config{BaseURL: url, TimeoutMS: 500}), nil).Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNetwork) || errors.Is(err, ErrTimeout), err.Error())
}

func TestNonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()
	_, err := NewClient(Config{BaseURL: srv.URL}).Get(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestConfig(t *testing.T) {
	var c Config
	c.SetDefaults()
	assert.Equal(t, "http://localhost:8080", c.BaseURL)
	assert.Equal(t, DefaultTimeout, c.Timeout())
	assert.NoError(t, c.Validate())

	c.BaseURL = "ftp://x"
	assert.Error(t, c.Validate())
}

package fleet

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/robofleet/core/events"
	"github.com/kilianp07/robofleet/core/model"
	"github.com/kilianp07/robofleet/core/policy"
)

type fixedIDs struct {
	ids []string
	i   int
}

func (f *fixedIDs) NewID(int) (string, error) {
	id := f.ids[f.i%len(f.ids)]
	f.i++
	return id, nil
}

type failingIDs struct{}

func (failingIDs) NewID(int) (string, error) { return "", errors.New("entropy exhausted") }

type eventLog struct{ evs []events.MutationEvent }

func (l *eventLog) RecordMutation(ev events.MutationEvent) { l.evs = append(l.evs, ev) }

func (l *eventLog) last(t *testing.T) events.MutationEvent {
	t.Helper()
	require.NotEmpty(t, l.evs)
	return l.evs[len(l.evs)-1]
}

func seeded(t *testing.T, opts ...Option) *MemoryStore {
	t.Helper()
	s := NewMemoryStore(opts...)
	require.NoError(t, s.Replace(context.Background(), SampleFleet()))
	return s
}

func TestAddAssignsFreshID(t *testing.T) {
	ctx := context.Background()
	s := seeded(t, WithIDGenerator(NewSerialIDGenerator(3)))
	for i := 0; i < 50; i++ {
		before := s.Snapshot()
		r, err := s.Add(ctx, model.RobotInput{Name: "Robo-x", BatteryLevel: 50})
		require.NoError(t, err)
		for _, existing := range before {
			assert.NotEqual(t, existing.ID, r.ID)
		}
		assert.Len(t, s.Snapshot(), len(before)+1)
	}
}

func TestAddClampsBattery(t *testing.T) {
	s := NewMemoryStore()
	r, err := s.Add(context.Background(), model.RobotInput{Name: "a", BatteryLevel: 180})
	require.NoError(t, err)
	assert.Equal(t, 100, r.BatteryLevel)
}

func TestAddRetriesOnCollision(t *testing.T) {
	ids := &fixedIDs{ids: []string{"R2D1", "R2D2", "R9D9"}}
	s := seeded(t, WithIDGenerator(ids))
	r, err := s.Add(context.Background(), model.RobotInput{Name: "n"})
	require.NoError(t, err)
	assert.Equal(t, "R9D9", r.ID)
}

func TestAddRejectsPersistentCollision(t *testing.T) {
	rec := &eventLog{}
	s := seeded(t, WithIDGenerator(&fixedIDs{ids: []string{"R2D1"}}), WithIDAttempts(3), WithRecorder(rec))
	_, err := s.Add(context.Background(), model.RobotInput{Name: "n"})
	require.ErrorIs(t, err, ErrDuplicateID)
	assert.Len(t, s.Snapshot(), 3)
	r, ok := s.Get("R2D1")
	require.True(t, ok)
	assert.Equal(t, "Robo-1", r.Name, "existing robot must not be overwritten")
	ev := rec.last(t)
	assert.Equal(t, events.OutcomeFailed, ev.Outcome)
	assert.False(t, ev.Success())
}

func TestAddGeneratorFailure(t *testing.T) {
	s := NewMemoryStore(WithIDGenerator(failingIDs{}))
	_, err := s.Add(context.Background(), model.RobotInput{Name: "n"})
	require.Error(t, err)
	assert.Empty(t, s.Snapshot())
}

func TestRemoveLast(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)
	r, ok, err := s.RemoveLast(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "R1D3", r.ID)
	assert.Len(t, s.Snapshot(), 2)
}

func TestRemoveLastOnEmptyFleet(t *testing.T) {
	rec := &eventLog{}
	s := NewMemoryStore(WithRecorder(rec))
	notified := 0
	s.Subscribe(func([]model.Robot) { notified++ })
	r, ok, err := s.RemoveLast(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, model.Robot{}, r)
	assert.Empty(t, s.Snapshot())
	assert.Zero(t, notified)
	assert.Equal(t, events.OutcomeNoop, rec.last(t).Outcome)
}

func TestUpdateBatteryClamps(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Replace(ctx, []model.Robot{
		{ID: "low", BatteryLevel: 5},
		{ID: "high", BatteryLevel: 95},
	}))
	r, err := s.UpdateBattery(ctx, "low", policy.Delta(-policy.Step))
	require.NoError(t, err)
	assert.Equal(t, 0, r.BatteryLevel)
	r, err = s.UpdateBattery(ctx, "high", policy.Delta(policy.Step))
	require.NoError(t, err)
	assert.Equal(t, 100, r.BatteryLevel)
	r, err = s.UpdateBattery(ctx, "high", policy.Absolute(-30))
	require.NoError(t, err)
	assert.Equal(t, 0, r.BatteryLevel)
}

func TestUpdateBatteryAtBoundIsNoop(t *testing.T) {
	ctx := context.Background()
	rec := &eventLog{}
	s := NewMemoryStore(WithRecorder(rec))
	require.NoError(t, s.Replace(ctx, []model.Robot{{ID: "r", BatteryLevel: 100}}))
	notified := 0
	s.Subscribe(func([]model.Robot) { notified++ })
	r, err := s.UpdateBattery(ctx, "r", policy.Delta(10))
	require.NoError(t, err)
	assert.Equal(t, 100, r.BatteryLevel)
	assert.Zero(t, notified)
	assert.Equal(t, events.OutcomeNoop, rec.last(t).Outcome)
}

func TestNotFound(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)
	_, err := s.UpdateBattery(ctx, "nope", policy.Delta(1))
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.UpdateStatus(ctx, "nope", model.StatusIdle)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.CycleStatus(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, _, err = s.ReturnToBase(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateStatusIsUnconditional(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)
	r, err := s.UpdateStatus(ctx, "R2D2", model.StatusError)
	require.NoError(t, err)
	assert.Equal(t, model.StatusError, r.Status)
	r, err = s.UpdateStatus(ctx, "R2D2", model.StatusReturning)
	require.NoError(t, err)
	assert.Equal(t, model.StatusReturning, r.Status)
	_, err = s.UpdateStatus(ctx, "R2D2", model.Status(12))
	assert.ErrorIs(t, err, ErrInvalidRobot)
}

func TestCycleStatus(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)
	want := []model.Status{model.StatusOnDelivery, model.StatusCharging, model.StatusError, model.StatusReturning, model.StatusIdle}
	for _, w := range want {
		r, err := s.CycleStatus(ctx, "R2D2")
		require.NoError(t, err)
		assert.Equal(t, w, r.Status)
	}
}

func TestReturnToBase(t *testing.T) {
	ctx := context.Background()
	rec := &eventLog{}
	s := NewMemoryStore(WithRecorder(rec))
	require.NoError(t, s.Replace(ctx, []model.Robot{
		{ID: "idle", Status: model.StatusIdle},
		{ID: "charging", Status: model.StatusCharging},
		{ID: "busy", Status: model.StatusOnDelivery},
	}))

	r, tr, err := s.ReturnToBase(ctx, "charging")
	require.NoError(t, err)
	assert.Equal(t, policy.Rejected, tr)
	assert.Equal(t, model.StatusCharging, r.Status)
	assert.Equal(t, events.OutcomeRejected, rec.last(t).Outcome)

	r, tr, err = s.ReturnToBase(ctx, "idle")
	require.NoError(t, err)
	assert.Equal(t, policy.Applied, tr)
	assert.Equal(t, model.StatusReturning, r.Status)

	notified := 0
	s.Subscribe(func([]model.Robot) { notified++ })
	_, tr, err = s.ReturnToBase(ctx, "busy")
	require.NoError(t, err)
	assert.Equal(t, policy.Applied, tr)
	_, tr, err = s.ReturnToBase(ctx, "busy")
	require.NoError(t, err)
	assert.Equal(t, policy.AlreadyReturning, tr)
	assert.Equal(t, 1, notified, "second call must be a no-op")
	got, _ := s.Get("busy")
	assert.Equal(t, model.StatusReturning, got.Status)
}

func TestReplaceValidates(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)
	err := s.Replace(ctx, []model.Robot{{ID: "a"}, {ID: "a"}})
	assert.ErrorIs(t, err, ErrDuplicateID)
	err = s.Replace(ctx, []model.Robot{{ID: ""}})
	assert.ErrorIs(t, err, ErrInvalidRobot)
	err = s.Replace(ctx, []model.Robot{{ID: "a", Status: model.Status(-1)}})
	assert.ErrorIs(t, err, ErrInvalidRobot)
	assert.Len(t, s.Snapshot(), 3, "failed replace leaves the fleet untouched")

	require.NoError(t, s.Replace(ctx, []model.Robot{{ID: "z", BatteryLevel: -4}}))
	r, _ := s.Get("z")
	assert.Equal(t, 0, r.BatteryLevel)
}

func TestSnapshotIsACopy(t *testing.T) {
	s := seeded(t)
	snap := s.Snapshot()
	snap[0].BatteryLevel = 1
	r, _ := s.Get(snap[0].ID)
	assert.Equal(t, 34, r.BatteryLevel)
}

func TestObserversNotifiedInOrderAndUnsubscribe(t *testing.T) {
	ctx := context.Background()
	s := seeded(t)
	var calls []string
	cancelA := s.Subscribe(func(f []model.Robot) { calls = append(calls, "a") })
	s.Subscribe(func(f []model.Robot) {
		calls = append(calls, "b")
		assert.Equal(t, s.Snapshot(), f, "observer sees committed state")
	})
	_, err := s.Add(ctx, model.RobotInput{Name: "n"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, calls)

	cancelA()
	calls = nil
	s.Subscribe(func(f []model.Robot) { calls = append(calls, "c") })
	_, _, err = s.RemoveLast(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, calls)
}

func TestFailedMutationDoesNotNotify(t *testing.T) {
	s := seeded(t)
	notified := 0
	s.Subscribe(func([]model.Robot) { notified++ })
	_, err := s.UpdateStatus(context.Background(), "missing", model.StatusIdle)
	require.Error(t, err)
	assert.Zero(t, notified)
}

func TestMutationEventsCarryBeforeAfter(t *testing.T) {
	rec := &eventLog{}
	s := seeded(t, WithRecorder(rec))
	_, err := s.UpdateBattery(context.Background(), "R2D2", policy.Delta(-10))
	require.NoError(t, err)
	ev := rec.last(t)
	assert.Equal(t, events.OpBattery, ev.Op)
	assert.Equal(t, "R2D2", ev.RobotID)
	require.NotNil(t, ev.Before)
	require.NotNil(t, ev.After)
	assert.Equal(t, 87, ev.Before.BatteryLevel)
	assert.Equal(t, 77, ev.After.BatteryLevel)
	assert.Equal(t, events.OutcomeApplied, ev.Outcome)
	assert.Len(t, ev.Fleet, 3)
	assert.NotEmpty(t, ev.ID)
	assert.False(t, ev.Time.IsZero())
}

func TestCancelledContextLeavesFleetUntouched(t *testing.T) {
	s := seeded(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Add(ctx, model.RobotInput{Name: "n"})
	assert.ErrorIs(t, err, context.Canceled)
	_, _, err = s.RemoveLast(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, s.Snapshot(), 3)
}

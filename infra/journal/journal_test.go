package journal

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/robofleet/core/events"
	"github.com/kilianp07/robofleet/core/model"
	"github.com/kilianp07/robofleet/internal/eventbus"
)

var base = time.Date(2025, 4, 3, 10, 0, 0, 0, time.UTC)

func sampleEvents() []events.MutationEvent {
	r := model.Robot{ID: "R2D2", Name: "Robo-2", Status: model.StatusIdle, BatteryLevel: 87}
	after := r
	after.Status = model.StatusReturning
	return []events.MutationEvent{
		{ID: "1", Op: events.OpAdd, RobotID: "R2D2", After: &r, Outcome: events.OutcomeApplied, Time: base},
		{ID: "2", Op: events.OpReturnToBase, RobotID: "R2D2", Before: &r, After: &after, Outcome: events.OutcomeApplied, Time: base.Add(time.Minute)},
		{ID: "3", Op: events.OpBattery, RobotID: "R9D9", Outcome: events.OutcomeFailed, Err: "robot not found: R9D9", Time: base.Add(2 * time.Minute)},
		{ID: "4", Op: events.OpRemoveLast, Outcome: events.OutcomeNoop, Reason: "fleet empty", Time: base.Add(3 * time.Minute)},
	}
}

func openStores(t *testing.T) map[string]Store {
	dir := t.TempDir()
	jsonl, err := NewJSONLStore(filepath.Join(dir, "journal.jsonl"))
	require.NoError(t, err)
	rot, err := NewRotatingJSONLStore(filepath.Join(dir, "rot", "journal.jsonl"), 1, 2, 1)
	require.NoError(t, err)
	sq, err := NewSQLiteStore(filepath.Join(dir, "journal.db"))
	require.NoError(t, err)
	stores := map[string]Store{"jsonl": jsonl, "rotating": rot, "sqlite": sq}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func eventIDs(evs []events.MutationEvent) []string {
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i] = e.ID
	}
	return out
}

func TestStores_AppendQuery(t *testing.T) {
	ctx := context.Background()
	for name, store := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, ev := range sampleEvents() {
				require.NoError(t, store.Append(ctx, ev))
			}

			all, err := store.Query(ctx, Query{})
			require.NoError(t, err)
			assert.Equal(t, []string{"1", "2", "3", "4"}, eventIDs(all))
			assert.Equal(t, model.StatusReturning, all[1].After.Status)
			assert.Equal(t, "Robo-2", all[1].Before.Name)

			byRobot, err := store.Query(ctx, Query{RobotID: "R2D2"})
			require.NoError(t, err)
			assert.Equal(t, []string{"1", "2"}, eventIDs(byRobot))

			failed, err := store.Query(ctx, Query{Outcome: events.OutcomeFailed})
			require.NoError(t, err)
			require.Len(t, failed, 1)
			assert.Equal(t, "robot not found: R9D9", failed[0].Err)

			window, err := store.Query(ctx, Query{Start: base.Add(30 * time.Second), End: base.Add(2 * time.Minute)})
			require.NoError(t, err)
			assert.Equal(t, []string{"2", "3"}, eventIDs(window))

			last, err := store.Query(ctx, Query{Limit: 2})
			require.NoError(t, err)
			assert.Equal(t, []string{"3", "4"}, eventIDs(last))

			ops, err := store.Query(ctx, Query{Op: events.OpRemoveLast})
			require.NoError(t, err)
			assert.Equal(t, []string{"4"}, eventIDs(ops))
		})
	}
}

func TestRotatingJSONLStore_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	store, err := NewRotatingJSONLStore(path, 1, 3, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	ev := events.MutationEvent{ID: "x", Op: events.OpReplace, Outcome: events.OutcomeApplied, Reason: string(make([]byte, 4096)), Time: base}
	for i := 0; i < 100; i++ {
		require.NoError(t, store.Append(context.Background(), ev))
	}
	files, err := store.files()
	require.NoError(t, err)
	assert.Greater(t, len(files), 1, "expected rotated files")

	out, err := store.Query(context.Background(), Query{Limit: 5})
	require.NoError(t, err)
	assert.Len(t, out, 5)
}

func TestJSONLStore_SkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	store, err := NewJSONLStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(context.Background(), sampleEvents()[0]))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{not json\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, store.Append(context.Background(), sampleEvents()[1]))

	out, err := store.Query(context.Background(), Query{})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, eventIDs(out))
}

func TestConfig(t *testing.T) {
	var c Config
	c.SetDefaults()
	assert.Equal(t, BackendNone, c.Backend)
	require.NoError(t, c.Validate())
	s, err := New(c)
	require.NoError(t, err)
	assert.Nil(t, s)

	c = Config{Backend: BackendSQLite}
	c.SetDefaults()
	assert.Equal(t, "robofleet-journal.db", c.Path)

	c = Config{Backend: BackendRotating, Path: filepath.Join(t.TempDir(), "j.jsonl")}
	c.SetDefaults()
	assert.Equal(t, 10, c.MaxSizeMB)
	s, err = New(c)
	require.NoError(t, err)
	assert.IsType(t, &RotatingJSONLStore{}, s)
	require.NoError(t, s.Close())

	assert.Error(t, Config{Backend: "kafka", Path: "x"}.Validate())
	assert.Error(t, Config{Backend: BackendJSONL}.Validate())
}

func TestStartWriter(t *testing.T) {
	store, err := NewJSONLStore(filepath.Join(t.TempDir(), "journal.jsonl"))
	require.NoError(t, err)
	bus := eventbus.NewTyped[events.MutationEvent]()
	done := StartWriter(context.Background(), bus, store, nil)

	for _, ev := range sampleEvents()[:2] {
		bus.Publish(ev)
	}
	require.Eventually(t, func() bool {
		out, err := store.Query(context.Background(), Query{})
		return err == nil && len(out) == 2
	}, time.Second, 5*time.Millisecond)

	bus.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("writer did not stop")
	}
}

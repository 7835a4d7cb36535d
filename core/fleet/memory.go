package fleet

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/robofleet/core/events"
	"github.com/kilianp07/robofleet/core/logger"
	"github.com/kilianp07/robofleet/core/metrics"
	"github.com/kilianp07/robofleet/core/model"
	"github.com/kilianp07/robofleet/core/policy"
)

// DefaultIDAttempts bounds how often Add asks the IDGenerator for a fresh id
// before giving up with ErrDuplicateID.
const DefaultIDAttempts = 16

type subscription struct {
	id int
	fn Observer
}

// MemoryStore keeps the fleet in process memory.
//
// Writers are serialised by writeMu, which also covers observer notification
// so observers see snapshots in commit order. Readers only take mu.
type MemoryStore struct {
	writeMu sync.Mutex

	mu     sync.RWMutex
	robots []model.Robot
	subs   []subscription
	nextID int

	ids        IDGenerator
	idAttempts int
	rec        events.Recorder
	log        logger.Logger
	now        func() time.Time
}

// Option customises a MemoryStore.
type Option func(*MemoryStore)

// WithIDGenerator sets the id source used by Add.
func WithIDGenerator(g IDGenerator) Option { return func(s *MemoryStore) { s.ids = g } }

// WithIDAttempts sets how many ids Add tries before failing.
func WithIDAttempts(n int) Option {
	return func(s *MemoryStore) {
		if n > 0 {
			s.idAttempts = n
		}
	}
}

// WithRecorder sets the telemetry collaborator.
func WithRecorder(r events.Recorder) Option { return func(s *MemoryStore) { s.rec = r } }

// WithLogger sets the store logger.
func WithLogger(l logger.Logger) Option { return func(s *MemoryStore) { s.log = l } }

// WithClock overrides the time source used for event timestamps.
func WithClock(now func() time.Time) Option { return func(s *MemoryStore) { s.now = now } }

// NewMemoryStore returns an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		ids:        NewSerialIDGenerator(0),
		idAttempts: DefaultIDAttempts,
		rec:        events.NopRecorder{},
		log:        logger.NopLogger{},
		now:        time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Snapshot returns a copy of the fleet.
func (s *MemoryStore) Snapshot() []model.Robot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.robots)
}

// Get returns a copy of the robot with the given id.
func (s *MemoryStore) Get(id string) (model.Robot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.robots, id); i >= 0 {
		return s.robots[i], true
	}
	return model.Robot{}, false
}

// Subscribe registers o and returns a function that removes it.
func (s *MemoryStore) Subscribe(o Observer) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscription{id: id, fn: o})
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subs = slices.DeleteFunc(s.subs, func(sub subscription) bool { return sub.id == id })
	}
}

// Add appends a new robot with a unique id.
func (s *MemoryStore) Add(ctx context.Context, in model.RobotInput) (model.Robot, error) {
	m := s.begin(events.OpAdd)
	defer m.finish()
	if err := ctx.Err(); err != nil {
		return model.Robot{}, m.fail(err)
	}
	if !in.Status.Valid() {
		return model.Robot{}, m.fail(fmt.Errorf("%w: status %d", ErrInvalidRobot, int(in.Status)))
	}

	s.mu.RLock()
	current := s.robots
	s.mu.RUnlock()

	id, err := s.uniqueID(current)
	if err != nil {
		return model.Robot{}, m.fail(err)
	}
	r := in.Build(id)
	r.BatteryLevel = policy.Clamp(r.BatteryLevel)

	next := make([]model.Robot, len(current), len(current)+1)
	copy(next, current)
	next = append(next, r)
	s.commit(next)

	m.ev.RobotID = id
	m.ev.After = &r
	m.applied(next)
	return r, nil
}

func (s *MemoryStore) uniqueID(fleet []model.Robot) (string, error) {
	var last string
	for i := 0; i < s.idAttempts; i++ {
		id, err := s.ids.NewID(len(fleet))
		if err != nil {
			return "", fmt.Errorf("generate robot id: %w", err)
		}
		if indexOf(fleet, id) < 0 {
			return id, nil
		}
		last = id
		s.log.Debugf("id %s already taken, retrying", id)
	}
	return "", fmt.Errorf("%w: %s still taken after %d attempts", ErrDuplicateID, last, s.idAttempts)
}

// RemoveLast removes and returns the last robot.
func (s *MemoryStore) RemoveLast(ctx context.Context) (model.Robot, bool, error) {
	m := s.begin(events.OpRemoveLast)
	defer m.finish()
	if err := ctx.Err(); err != nil {
		return model.Robot{}, false, m.fail(err)
	}

	s.mu.RLock()
	current := s.robots
	s.mu.RUnlock()
	if len(current) == 0 {
		m.noop("fleet empty")
		return model.Robot{}, false, nil
	}
	removed := current[len(current)-1]
	next := make([]model.Robot, len(current)-1)
	copy(next, current)
	s.commit(next)

	m.ev.RobotID = removed.ID
	m.ev.Before = &removed
	m.applied(next)
	return removed, true, nil
}

// UpdateBattery applies change to the robot's battery level.
func (s *MemoryStore) UpdateBattery(ctx context.Context, id string, change policy.BatteryChange) (model.Robot, error) {
	m := s.begin(events.OpBattery)
	defer m.finish()
	return s.update(ctx, m, id, func(r *model.Robot) bool {
		level := change.Apply(r.BatteryLevel)
		if level == r.BatteryLevel {
			return false
		}
		r.BatteryLevel = level
		return true
	})
}

// UpdateStatus sets the robot's status unconditionally.
func (s *MemoryStore) UpdateStatus(ctx context.Context, id string, status model.Status) (model.Robot, error) {
	m := s.begin(events.OpStatus)
	defer m.finish()
	if !status.Valid() {
		m.ev.RobotID = id
		return model.Robot{}, m.fail(fmt.Errorf("%w: status %d", ErrInvalidRobot, int(status)))
	}
	return s.update(ctx, m, id, func(r *model.Robot) bool {
		if r.Status == status {
			return false
		}
		r.Status = status
		return true
	})
}

// CycleStatus advances the robot to the next status in the cycle.
func (s *MemoryStore) CycleStatus(ctx context.Context, id string) (model.Robot, error) {
	m := s.begin(events.OpCycleStatus)
	defer m.finish()
	return s.update(ctx, m, id, func(r *model.Robot) bool {
		r.Status = policy.Next(r.Status)
		return true
	})
}

// ReturnToBase moves the robot to Returning if the policy allows it.
func (s *MemoryStore) ReturnToBase(ctx context.Context, id string) (model.Robot, policy.Transition, error) {
	m := s.begin(events.OpReturnToBase)
	defer m.finish()
	tr := policy.Rejected
	r, err := s.update(ctx, m, id, func(r *model.Robot) bool {
		tr = policy.CheckReturnToBase(r.Status)
		if !tr.Changed() {
			return false
		}
		r.Status = model.StatusReturning
		return true
	})
	if err != nil {
		return r, tr, err
	}
	switch tr {
	case policy.Rejected:
		m.reject(fmt.Sprintf("cannot return to base while %s", r.Status))
	case policy.AlreadyReturning:
		m.noop(tr.String())
	}
	return r, tr, nil
}

// Replace swaps the fleet for robots after checking id uniqueness and
// statuses. Battery levels are clamped.
func (s *MemoryStore) Replace(ctx context.Context, robots []model.Robot) error {
	m := s.begin(events.OpReplace)
	defer m.finish()
	if err := ctx.Err(); err != nil {
		return m.fail(err)
	}
	next := make([]model.Robot, 0, len(robots))
	seen := make(map[string]struct{}, len(robots))
	for _, r := range robots {
		if r.ID == "" {
			return m.fail(fmt.Errorf("%w: empty id", ErrInvalidRobot))
		}
		if _, dup := seen[r.ID]; dup {
			return m.fail(fmt.Errorf("%w: %s", ErrDuplicateID, r.ID))
		}
		if !r.Status.Valid() {
			return m.fail(fmt.Errorf("%w: %s has status %d", ErrInvalidRobot, r.ID, int(r.Status)))
		}
		seen[r.ID] = struct{}{}
		r.BatteryLevel = policy.Clamp(r.BatteryLevel)
		next = append(next, r)
	}
	s.commit(next)
	m.applied(next)
	return nil
}

// update runs fn against a copy of robot id. When fn reports a change the
// copy is written back as part of a fresh snapshot.
func (s *MemoryStore) update(ctx context.Context, m *mutation, id string, fn func(*model.Robot) bool) (model.Robot, error) {
	m.ev.RobotID = id
	if err := ctx.Err(); err != nil {
		return model.Robot{}, m.fail(err)
	}
	s.mu.RLock()
	current := s.robots
	s.mu.RUnlock()

	i := indexOf(current, id)
	if i < 0 {
		return model.Robot{}, m.fail(fmt.Errorf("%w: %s", ErrNotFound, id))
	}
	before := current[i]
	after := before
	m.ev.Before = &before
	if !fn(&after) {
		m.ev.After = &after
		m.noop("unchanged")
		return after, nil
	}
	next := slices.Clone(current)
	next[i] = after
	s.commit(next)
	m.ev.After = &after
	m.applied(next)
	return after, nil
}

// commit publishes next as the current snapshot. The caller holds writeMu.
func (s *MemoryStore) commit(next []model.Robot) {
	s.mu.Lock()
	s.robots = next
	s.mu.Unlock()
}

func (s *MemoryStore) notify(fleet []model.Robot) {
	s.mu.RLock()
	subs := slices.Clone(s.subs)
	s.mu.RUnlock()
	for _, sub := range subs {
		sub.fn(slices.Clone(fleet))
	}
}

func indexOf(robots []model.Robot, id string) int {
	return slices.IndexFunc(robots, func(r model.Robot) bool { return r.ID == id })
}

// mutation tracks one store operation from the moment writeMu is taken until
// observers are notified and the event is recorded.
type mutation struct {
	s       *MemoryStore
	ev      events.MutationEvent
	timer   *metrics.Timer
	changed []model.Robot
}

func (s *MemoryStore) begin(op events.Op) *mutation {
	s.writeMu.Lock()
	m := &mutation{s: s, ev: events.MutationEvent{ID: uuid.NewString(), Op: op, Outcome: events.OutcomeApplied}}
	m.timer = metrics.StartTimer(string(op), func(_ string, d time.Duration) { m.ev.Duration = d })
	return m
}

func (m *mutation) applied(fleet []model.Robot) {
	m.ev.Outcome = events.OutcomeApplied
	m.changed = fleet
}

func (m *mutation) noop(reason string) {
	m.ev.Outcome = events.OutcomeNoop
	m.ev.Reason = reason
}

func (m *mutation) reject(reason string) {
	m.ev.Outcome = events.OutcomeRejected
	m.ev.Reason = reason
}

func (m *mutation) fail(err error) error {
	m.ev.Outcome = events.OutcomeFailed
	m.ev.Err = err.Error()
	m.ev.ErrKind = Classify(err)
	return err
}

func (m *mutation) finish() {
	defer m.s.writeMu.Unlock()
	m.timer.Stop()
	if m.changed != nil {
		m.s.notify(m.changed)
		m.ev.Fleet = slices.Clone(m.changed)
	}
	m.ev.Time = m.s.now()
	m.s.rec.RecordMutation(m.ev)
}

package remote

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/kilianp07/robofleet/core/fleet"
	"github.com/kilianp07/robofleet/core/model"
	"github.com/kilianp07/robofleet/core/policy"
	"github.com/kilianp07/robofleet/infra/logger"
)

var _ fleet.Store = (*Store)(nil)

type subscription struct {
	id int
	fn fleet.Observer
}

// Store is a fleet.Store backed by a remote server. It keeps a local mirror
// of the fleet so reads never hit the network. A reply is applied to the
// mirror only once it decoded completely; failed calls leave it untouched.
type Store struct {
	client *Client
	log    logger.Logger

	writeMu sync.Mutex

	mu     sync.RWMutex
	robots []model.Robot
	subs   []subscription
	nextID int
}

// NewStore returns a store with an empty mirror. Call Refresh to load the
// server's fleet.
func NewStore(client *Client, log logger.Logger) *Store {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Store{client: client, log: log}
}

// Client returns the underlying API client.
func (s *Store) Client() *Client { return s.client }

// Refresh replaces the mirror with the server's fleet.
func (s *Store) Refresh(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	robots, err := s.client.Fleet(ctx)
	if err != nil {
		return err
	}
	if slices.EqualFunc(robots, s.Snapshot(), robotEqual) {
		return nil
	}
	s.commit(robots)
	return nil
}

// Poll refreshes the mirror every interval until ctx is done, so changes
// made by other clients show up.
func (s *Store) Poll(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
				s.log.Warnf("refresh fleet: %v", err)
			}
		}
	}
}

func (s *Store) Snapshot() []model.Robot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.robots)
}

func (s *Store) Get(id string) (model.Robot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.robots, id); i >= 0 {
		return s.robots[i], true
	}
	return model.Robot{}, false
}

func (s *Store) Subscribe(o fleet.Observer) func() {
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

func (s *Store) Add(ctx context.Context, in model.RobotInput) (model.Robot, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	r, err := s.client.Add(ctx, in)
	if err != nil {
		return model.Robot{}, err
	}
	s.upsert(r)
	return r, nil
}

// AddRandom lets the server generate the new robot.
func (s *Store) AddRandom(ctx context.Context) (model.Robot, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	r, err := s.client.AddRandom(ctx)
	if err != nil {
		return model.Robot{}, err
	}
	s.upsert(r)
	return r, nil
}

func (s *Store) RemoveLast(ctx context.Context) (model.Robot, bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	r, removed, err := s.client.RemoveLast(ctx)
	if err != nil || !removed {
		return r, removed, err
	}
	next := s.Snapshot()
	if i := indexOf(next, r.ID); i >= 0 {
		next = slices.Delete(next, i, i+1)
		s.commit(next)
	}
	return r, true, nil
}

func (s *Store) UpdateBattery(ctx context.Context, id string, change policy.BatteryChange) (model.Robot, error) {
	return s.apply(func() (model.Robot, error) { return s.client.UpdateBattery(ctx, id, change) })
}

func (s *Store) UpdateStatus(ctx context.Context, id string, status model.Status) (model.Robot, error) {
	return s.apply(func() (model.Robot, error) { return s.client.UpdateStatus(ctx, id, status) })
}

func (s *Store) CycleStatus(ctx context.Context, id string) (model.Robot, error) {
	return s.apply(func() (model.Robot, error) { return s.client.CycleStatus(ctx, id) })
}

func (s *Store) ReturnToBase(ctx context.Context, id string) (model.Robot, policy.Transition, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	r, tr, err := s.client.ReturnToBase(ctx, id)
	if err != nil {
		return r, tr, err
	}
	if tr.Changed() {
		s.upsert(r)
	}
	return r, tr, nil
}

func (s *Store) Replace(ctx context.Context, robots []model.Robot) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	got, err := s.client.Replace(ctx, robots)
	if err != nil {
		return err
	}
	s.commit(got)
	return nil
}

func (s *Store) apply(fn func() (model.Robot, error)) (model.Robot, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	r, err := fn()
	if err != nil {
		return model.Robot{}, err
	}
	if cur, ok := s.Get(r.ID); ok && robotEqual(cur, r) {
		return r, nil
	}
	s.upsert(r)
	return r, nil
}

// upsert writes r into the mirror, appending it when the mirror has not
// seen it yet. The caller holds writeMu.
func (s *Store) upsert(r model.Robot) {
	next := s.Snapshot()
	if i := indexOf(next, r.ID); i >= 0 {
		next[i] = r
	} else {
		next = append(next, r)
	}
	s.commit(next)
}

// commit publishes next and notifies observers. The caller holds writeMu.
func (s *Store) commit(next []model.Robot) {
	s.mu.Lock()
	s.robots = next
	subs := slices.Clone(s.subs)
	s.mu.Unlock()
	for _, sub := range subs {
		sub.fn(slices.Clone(next))
	}
}

func indexOf(robots []model.Robot, id string) int {
	return slices.IndexFunc(robots, func(r model.Robot) bool { return r.ID == id })
}

func robotEqual(a, b model.Robot) bool { return a == b }

// Package journal keeps an append-only record of fleet mutation events.
// The journal is telemetry: it is never read back into the fleet.
package journal

import (
	"context"
	"time"

	"github.com/kilianp07/robofleet/core/events"
)

// Query filters journal entries. Zero fields match everything.
type Query struct {
	Start   time.Time
	End     time.Time
	Op      events.Op
	RobotID string
	Outcome events.Outcome
	// Limit keeps only the most recent entries when positive.
	Limit int
}

// Store persists mutation events.
type Store interface {
	Append(ctx context.Context, ev events.MutationEvent) error
	Query(ctx context.Context, q Query) ([]events.MutationEvent, error)
	Close() error
}

// Match reports whether ev satisfies the filters of q other than Limit.
func (q Query) Match(ev events.MutationEvent) bool {
	if !q.Start.IsZero() && ev.Time.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && ev.Time.After(q.End) {
		return false
	}
	if q.Op != "" && ev.Op != q.Op {
		return false
	}
	if q.RobotID != "" && ev.RobotID != q.RobotID {
		return false
	}
	if q.Outcome != "" && ev.Outcome != q.Outcome {
		return false
	}
	return true
}

func limit(res []events.MutationEvent, n int) []events.MutationEvent {
	if n > 0 && len(res) > n {
		return res[len(res)-n:]
	}
	return res
}

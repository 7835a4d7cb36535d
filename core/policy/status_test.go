package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/robofleet/core/model"
)

func TestNextCycleOrder(t *testing.T) {
	assert.Equal(t, model.StatusOnDelivery, Next(model.StatusIdle))
	assert.Equal(t, model.StatusCharging, Next(model.StatusOnDelivery))
	assert.Equal(t, model.StatusError, Next(model.StatusCharging))
	assert.Equal(t, model.StatusReturning, Next(model.StatusError))
	assert.Equal(t, model.StatusIdle, Next(model.StatusReturning))
}

func TestNextCycleClosure(t *testing.T) {
	for _, s := range model.Statuses {
		cur := s
		for i := 0; i < 5; i++ {
			cur = Next(cur)
		}
		assert.Equal(t, s, cur, "cycle from %s", s)
	}
}

func TestTablesAreExhaustive(t *testing.T) {
	seen := map[int]bool{}
	for _, s := range model.Statuses {
		_, ok := cycle[s]
		assert.True(t, ok, "cycle missing %s", s)
		p, ok := priority[s]
		assert.True(t, ok, "priority missing %s", s)
		assert.False(t, seen[p], "duplicate priority %d", p)
		seen[p] = true
	}
}

func TestCheckReturnToBase(t *testing.T) {
	cases := []struct {
		status model.Status
		want   Transition
	}{
		{model.StatusIdle, Applied},
		{model.StatusOnDelivery, Applied},
		{model.StatusCharging, Rejected},
		{model.StatusError, Rejected},
		{model.StatusReturning, AlreadyReturning},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, CheckReturnToBase(c.status), c.status.String())
	}
	assert.True(t, Applied.Changed())
	assert.False(t, AlreadyReturning.Changed())
	assert.Equal(t, "rejected", Rejected.String())
}

func TestPriorityOrder(t *testing.T) {
	assert.Less(t, Priority(model.StatusOnDelivery), Priority(model.StatusIdle))
	assert.Less(t, Priority(model.StatusIdle), Priority(model.StatusCharging))
	assert.Less(t, Priority(model.StatusCharging), Priority(model.StatusReturning))
	assert.Less(t, Priority(model.StatusReturning), Priority(model.StatusError))
	assert.Equal(t, 5, Priority(model.Status(99)))
}

package view

import (
	"slices"
	"strings"

	"github.com/kilianp07/robofleet/core/model"
	"github.com/kilianp07/robofleet/core/policy"
)

// Filter returns the robots to display for sel. It never modifies fleet.
// A malformed selection yields the unfiltered fleet.
func Filter(fleet []model.Robot, sel Selection) []model.Robot {
	if sel.Validate() != nil {
		return slices.Clone(fleet)
	}
	if sel.Mode == ModeName {
		return ByName(fleet, sel.Query)
	}
	return ByStatus(fleet, sel.Status)
}

// ByName keeps robots whose name or id contains query, ignoring case. A
// blank query keeps everything in the original order.
func ByName(fleet []model.Robot, query string) []model.Robot {
	if strings.TrimSpace(query) == "" {
		return slices.Clone(fleet)
	}
	q := strings.ToLower(query)
	out := make([]model.Robot, 0, len(fleet))
	for _, r := range fleet {
		if strings.Contains(strings.ToLower(r.Name), q) || strings.Contains(strings.ToLower(r.ID), q) {
			out = append(out, r)
		}
	}
	return out
}

// ByStatus keeps robots with the selected status in original order. "All"
// keeps every robot, stably sorted by status priority.
func ByStatus(fleet []model.Robot, f StatusFilter) []model.Robot {
	if f.All {
		out := slices.Clone(fleet)
		slices.SortStableFunc(out, func(a, b model.Robot) int {
			return policy.Priority(a.Status) - policy.Priority(b.Status)
		})
		return out
	}
	out := make([]model.Robot, 0, len(fleet))
	for _, r := range fleet {
		if r.Status == f.Status {
			out = append(out, r)
		}
	}
	return out
}

// Counts holds the number of robots per status plus the total.
type Counts struct {
	All      int
	ByStatus map[model.Status]int
}

// Of returns the count for a status filter.
func (c Counts) Of(f StatusFilter) int {
	if f.All {
		return c.All
	}
	return c.ByStatus[f.Status]
}

// Count tallies the full fleet. Every status has an entry, possibly zero.
func Count(fleet []model.Robot) Counts {
	c := Counts{All: len(fleet), ByStatus: make(map[model.Status]int, len(model.Statuses))}
	for _, s := range model.Statuses {
		c.ByStatus[s] = 0
	}
	for _, r := range fleet {
		c.ByStatus[r.Status]++
	}
	return c
}

// Labels returns the counts keyed by display label, "All" included.
func (c Counts) Labels() map[string]int {
	out := make(map[string]int, len(c.ByStatus)+1)
	out[AllLabel] = c.All
	for s, n := range c.ByStatus {
		out[s.String()] = n
	}
	return out
}

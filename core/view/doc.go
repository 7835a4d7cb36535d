// Package view derives what a dashboard shows from the fleet: the filtered
// and sorted robot list, per-status counts and a battery summary. The
// derivation functions are pure; Projector recomputes them whenever the
// fleet or the selection changes.
package view

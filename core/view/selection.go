package view

import (
	"fmt"
	"strings"

	"github.com/kilianp07/robofleet/core/model"
)

// Mode selects which filter control is active.
type Mode string

const (
	ModeName   Mode = "name"
	ModeStatus Mode = "status"
)

// AllLabel is the status filter value that selects every robot.
const AllLabel = "All"

// StatusFilter is either "All" or one concrete status.
type StatusFilter struct {
	All    bool
	Status model.Status
}

// All selects every status.
var All = StatusFilter{All: true}

// Only selects robots with exactly status s.
func Only(s model.Status) StatusFilter { return StatusFilter{Status: s} }

func (f StatusFilter) String() string {
	if f.All {
		return AllLabel
	}
	return f.Status.String()
}

// ParseStatusFilter accepts "All" (any case, or empty) or a status label.
func ParseStatusFilter(v string) (StatusFilter, error) {
	if v == "" || strings.EqualFold(strings.TrimSpace(v), AllLabel) {
		return All, nil
	}
	s, err := model.ParseStatus(v)
	if err != nil {
		return StatusFilter{}, err
	}
	return Only(s), nil
}

// Selection is the transient filter state owned by a view layer.
type Selection struct {
	Mode   Mode
	Status StatusFilter
	Query  string
}

// DefaultSelection matches the dashboard's initial state.
func DefaultSelection() Selection {
	return Selection{Mode: ModeStatus, Status: All}
}

// Validate reports malformed selections.
func (s Selection) Validate() error {
	switch s.Mode {
	case ModeName:
		return nil
	case ModeStatus:
		if !s.Status.All && !s.Status.Status.Valid() {
			return fmt.Errorf("invalid status filter %d", int(s.Status.Status))
		}
		return nil
	default:
		return fmt.Errorf("unknown filter mode %q", s.Mode)
	}
}

// NextStatusFilter returns the filter after f in the order
// All, On Delivery, Idle, Charging, Error, Returning, All.
func NextStatusFilter(f StatusFilter) StatusFilter {
	order := FilterOptions()
	for i, o := range order {
		if o == f {
			return order[(i+1)%len(order)]
		}
	}
	return All
}

// FilterOptions lists the status filter choices in display order.
func FilterOptions() []StatusFilter {
	return []StatusFilter{
		All,
		Only(model.StatusOnDelivery),
		Only(model.StatusIdle),
		Only(model.StatusCharging),
		Only(model.StatusError),
		Only(model.StatusReturning),
	}
}

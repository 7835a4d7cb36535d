package policy

const (
	MinBattery = 0
	MaxBattery = 100
	// Step is the increment applied by one battery button press.
	Step = 10

	LowBattery      = 20
	CriticalBattery = 5
)

// BatteryChange is either a relative delta or an absolute target level.
type BatteryChange struct {
	Value    int
	Absolute bool
}

// Delta returns a relative change.
func Delta(d int) BatteryChange { return BatteryChange{Value: d} }

// Absolute returns a change that sets the level outright.
func Absolute(level int) BatteryChange { return BatteryChange{Value: level, Absolute: true} }

// Clamp saturates level into [MinBattery, MaxBattery].
func Clamp(level int) int {
	return max(MinBattery, min(MaxBattery, level))
}

// Apply computes the new level for current after change, clamped. Deltas
// saturate before the addition so extreme values cannot overflow.
func (c BatteryChange) Apply(current int) int {
	if c.Absolute {
		return Clamp(c.Value)
	}
	current = Clamp(current)
	switch {
	case c.Value >= MaxBattery-current:
		return MaxBattery
	case c.Value <= MinBattery-current:
		return MinBattery
	}
	return current + c.Value
}

// CanDecrement is advisory: false when a decrement would be a no-op.
func CanDecrement(level int) bool { return level > MinBattery }

// CanIncrement is advisory: false when an increment would be a no-op.
func CanIncrement(level int) bool { return level < MaxBattery }

func IsLow(level int) bool      { return level <= LowBattery }
func IsCritical(level int) bool { return level <= CriticalBattery }

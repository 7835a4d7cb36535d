package view

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/robofleet/core/model"
	"github.com/kilianp07/robofleet/core/policy"
)

// Band classifies a battery level for display.
type Band string

const (
	BandHigh   Band = "high"
	BandMedium Band = "medium"
	BandLow    Band = "low"
)

// BatteryBand returns the display band of level: high above 70, medium
// above 30, low otherwise.
func BatteryBand(level int) Band {
	switch {
	case level > 70:
		return BandHigh
	case level > 30:
		return BandMedium
	default:
		return BandLow
	}
}

// Summary aggregates battery levels over a fleet.
type Summary struct {
	Robots      int
	MeanBattery float64
	StdBattery  float64
	MinBattery  int
	MaxBattery  int
	Low         int
	Critical    int
}

// Summarize computes the battery summary of fleet. The zero Summary is
// returned for an empty fleet.
func Summarize(fleet []model.Robot) Summary {
	if len(fleet) == 0 {
		return Summary{}
	}
	levels := make([]float64, len(fleet))
	sum := Summary{Robots: len(fleet)}
	for i, r := range fleet {
		levels[i] = float64(r.BatteryLevel)
		if policy.IsLow(r.BatteryLevel) {
			sum.Low++
		}
		if policy.IsCritical(r.BatteryLevel) {
			sum.Critical++
		}
	}
	sum.MeanBattery, sum.StdBattery = stat.MeanStdDev(levels, nil)
	if len(levels) == 1 {
		sum.StdBattery = 0
	}
	sum.MinBattery = int(floats.Min(levels))
	sum.MaxBattery = int(floats.Max(levels))
	return sum
}

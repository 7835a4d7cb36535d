package view

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/robofleet/core/model"
)

func TestSummarize(t *testing.T) {
	s := Summarize([]model.Robot{{BatteryLevel: 10}, {BatteryLevel: 30}, {BatteryLevel: 4}, {BatteryLevel: 100}})
	assert.Equal(t, 4, s.Robots)
	assert.InDelta(t, 36.0, s.MeanBattery, 1e-9)
	assert.Equal(t, 4, s.MinBattery)
	assert.Equal(t, 100, s.MaxBattery)
	assert.Equal(t, 2, s.Low)
	assert.Equal(t, 1, s.Critical)
	assert.Greater(t, s.StdBattery, 0.0)
}

func TestSummarizeEdgeCases(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))
	one := Summarize([]model.Robot{{BatteryLevel: 55}})
	assert.Equal(t, 55.0, one.MeanBattery)
	assert.Equal(t, 0.0, one.StdBattery)
}

func TestBatteryBand(t *testing.T) {
	assert.Equal(t, BandHigh, BatteryBand(71))
	assert.Equal(t, BandMedium, BatteryBand(70))
	assert.Equal(t, BandMedium, BatteryBand(31))
	assert.Equal(t, BandLow, BatteryBand(30))
}

package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	l := NewZerologLogger("test")
	require.NotNil(t, l)
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Infow("info", nil)
	l.Warnf("warn")
	l.Warnw("warn", map[string]any{"robot_id": "R1D1"})
	l.Errorf("error")
	l.Errorw("error", map[string]any{"err": "boom"})
}

func TestStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "fleet")
	l.Warnw("battery low", map[string]any{"robot_id": "R2D2", "battery": 4})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "fleet", line["component"])
	assert.Equal(t, "R2D2", line["robot_id"])
	assert.Equal(t, float64(4), line["battery"])
	assert.Equal(t, "battery low", line["message"])
}

func TestSetup(t *testing.T) {
	t.Cleanup(func() { _ = Setup(Options{}) })
	assert.Error(t, Setup(Options{Level: "loud"}))

	file := filepath.Join(t.TempDir(), "robofleet.log")
	require.NoError(t, Setup(Options{Level: "warn", Format: "json", File: file, MaxSizeMB: 1}))
	l := New("setup")
	l.Infof("hidden")
	l.Warnf("shown")
	assert.FileExists(t, file)
}

func TestSetupFileOnly(t *testing.T) {
	t.Cleanup(func() { _ = Setup(Options{}) })
	file := filepath.Join(t.TempDir(), "dash.log")
	require.NoError(t, Setup(Options{Format: "json", File: file, FileOnly: true}))
	New("dashboard").Infow("started", map[string]any{"robots": 3})

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"dashboard"`)
}

package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordMonitor struct {
	errs    []error
	tags    map[string]string
	panics  []any
	flushed bool
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.errs = append(r.errs, err)
	r.tags = tags
}
func (r *recordMonitor) CapturePanic(v any)  { r.panics = append(r.panics, v) }
func (r *recordMonitor) Flush(time.Duration) { r.flushed = true }

func TestCaptureException(t *testing.T) {
	mon := &recordMonitor{}
	Init(mon)
	t.Cleanup(func() { Init(NopMonitor{}) })

	CaptureException(nil, nil)
	assert.Empty(t, mon.errs)

	CaptureException(errors.New("boom"), map[string]string{"module": "fleet"})
	require.Len(t, mon.errs, 1)
	assert.Equal(t, "fleet", mon.tags["module"])

	Init(nil)
	CaptureException(errors.New("again"), nil)
	assert.Len(t, mon.errs, 2, "nil Init keeps the previous monitor")
}

func TestRecoverRepanics(t *testing.T) {
	mon := &recordMonitor{}
	Init(mon)
	t.Cleanup(func() { Init(NopMonitor{}) })

	assert.PanicsWithValue(t, "kaboom", func() {
		defer Recover()
		panic("kaboom")
	})
	assert.Equal(t, []any{"kaboom"}, mon.panics)
	assert.True(t, mon.flushed)
}

func TestPanicError(t *testing.T) {
	base := errors.New("root")
	assert.ErrorIs(t, PanicError(base), base)
	assert.EqualError(t, PanicError(42), "panic: 42")
}

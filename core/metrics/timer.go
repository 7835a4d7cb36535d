package metrics

import "time"

// Timer measures one operation. Start it right before the operation and call
// Stop on every exit path, typically with defer.
type Timer struct {
	op      string
	start   time.Time
	now     func() time.Time
	report  func(op string, d time.Duration)
	stopped bool
	elapsed time.Duration
}

// StartTimer starts a timer for op. report, when non-nil, is called once with
// the measured duration when the timer stops.
func StartTimer(op string, report func(op string, d time.Duration)) *Timer {
	return startTimerWithClock(op, time.Now, report)
}

func startTimerWithClock(op string, now func() time.Time, report func(string, time.Duration)) *Timer {
	return &Timer{op: op, start: now(), now: now, report: report}
}

// Stop ends the measurement and returns the elapsed time. Calling Stop more
// than once returns the first measurement without reporting again.
func (t *Timer) Stop() time.Duration {
	if t.stopped {
		return t.elapsed
	}
	t.stopped = true
	t.elapsed = t.now().Sub(t.start)
	if t.report != nil {
		t.report(t.op, t.elapsed)
	}
	return t.elapsed
}

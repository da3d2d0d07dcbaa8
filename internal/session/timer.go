package session

import (
	"math"
	"time"
)

type stageSample struct {
	name     string
	duration time.Duration
}

// StageTimer records elapsed time across named pipeline stages. One timer is
// created per pipeline run and never reused across flushes.
type StageTimer struct {
	nowFunc func() time.Time
	last    time.Time
	samples []stageSample
}

// NewStageTimer returns a timer whose first mark measures from now.
func NewStageTimer() *StageTimer {
	return newStageTimerAt(time.Now)
}

// newStageTimerAt injects the clock, for tests.
func newStageTimerAt(nowFunc func() time.Time) *StageTimer {
	return &StageTimer{nowFunc: nowFunc, last: nowFunc()}
}

// Mark records the elapsed time since the previous mark (or construction)
// under the given stage name.
func (t *StageTimer) Mark(name string) {
	now := t.nowFunc()
	t.samples = append(t.samples, stageSample{name: name, duration: now.Sub(t.last)})
	t.last = now
}

// durations returns the recorded (stage, duration) samples in mark order.
func (t *StageTimer) durations() []stageSample {
	return t.samples
}

// Metrics returns "<name>_ms" per recorded mark plus "total_ms", each
// rounded to 2 decimal places. With no marks, only total_ms = 0 is present.
func (t *StageTimer) Metrics() map[string]float64 {
	metrics := make(map[string]float64, len(t.samples)+1)
	var total time.Duration
	for _, s := range t.samples {
		metrics[s.name+"_ms"] = roundMS(s.duration)
		total += s.duration
	}
	metrics["total_ms"] = roundMS(total)
	return metrics
}

func roundMS(d time.Duration) float64 {
	ms := float64(d) / float64(time.Millisecond)
	return math.Round(ms*100) / 100
}

package observ

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeClock advances by step on every reading.
func fakeClock(step time.Duration) func() time.Time {
	cur := time.Unix(0, 0)
	return func() time.Time {
		cur = cur.Add(step)
		return cur
	}
}

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	tm.clock = fakeClock(2 * time.Millisecond)

	parse := tm.Begin("parse")
	tm.End(parse, "3 files")
	err := tm.Measure("validate", func() error { return errors.New("boom") })
	require.EqualError(t, err, "boom")
	tm.End(99, "ignored")
	tm.Begin("open")

	r := tm.Report()
	require.Len(t, r.Phases, 3)
	require.Equal(t, PhaseReport{Name: "parse", DurationMS: 2, Note: "3 files"}, r.Phases[0])
	require.Equal(t, "failed: boom", r.Phases[1].Note)
	require.Zero(t, r.Phases[2].DurationMS)
	require.InDelta(t, 4.0, r.TotalMS, 1e-9)

	require.Equal(t, ""+
		"parse        2.00 ms  3 files\n"+
		"validate     2.00 ms  failed: boom\n"+
		"open         0.00 ms\n"+
		"total        4.00 ms\n", r.String())
}

func TestEmptyTimer(t *testing.T) {
	r := NewTimer().Report()
	require.Empty(t, r.Phases)
	require.Empty(t, r.String())
}

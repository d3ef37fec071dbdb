// Package observ records how long each pipeline phase takes.
package observ

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Timer records named phases in the order they began. Phases may be opened
// from several goroutines.
type Timer struct {
	mu    sync.Mutex
	clock func() time.Time
	spans []span
}

type span struct {
	name       string
	note       string
	begin, end time.Time
}

// NewTimer returns an empty Timer reading the wall clock.
func NewTimer() *Timer { return &Timer{clock: time.Now} }

// Begin opens a phase. The result identifies it to End.
func (t *Timer) Begin(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.spans = append(t.spans, span{name: name, begin: t.clock()})
	return len(t.spans) - 1
}

// End closes phase idx with an optional note. Out of range indexes are
// ignored; closing twice keeps the later time.
func (t *Timer) End(idx int, note string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx < 0 || idx >= len(t.spans) {
		return
	}
	t.spans[idx].end = t.clock()
	t.spans[idx].note = note
}

// Measure runs fn as one phase. A failing fn leaves "failed: <err>" as the
// note and its error is returned unchanged.
func (t *Timer) Measure(name string, fn func() error) error {
	idx := t.Begin(name)
	err := fn()
	var note string
	if err != nil {
		note = "failed: " + err.Error()
	}
	t.End(idx, note)
	return err
}

// PhaseReport is one finished phase.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

// Report is a snapshot of a Timer. Phases still open count as zero.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

// Report snapshots the phases recorded so far.
func (t *Timer) Report() Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	var r Report
	for _, s := range t.spans {
		var ms float64
		if !s.end.IsZero() {
			ms = float64(s.end.Sub(s.begin).Microseconds()) / 1000
		}
		r.Phases = append(r.Phases, PhaseReport{Name: s.name, DurationMS: ms, Note: s.note})
		r.TotalMS += ms
	}
	return r
}

// String renders one line per phase followed by the total. An empty report
// renders as "".
func (r Report) String() string {
	if len(r.Phases) == 0 {
		return ""
	}
	width := len("total")
	for _, p := range r.Phases {
		width = max(width, len(p.Name))
	}
	var sb strings.Builder
	for _, p := range r.Phases {
		fmt.Fprintf(&sb, "%-*s %8.2f ms", width, p.Name, p.DurationMS)
		if p.Note != "" {
			sb.WriteString("  " + p.Note)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "%-*s %8.2f ms\n", width, "total", r.TotalMS)
	return sb.String()
}

package trace

import (
	"io"
	"sync"
)

// gate holds the level shared by every tracer implementation.
type gate struct{ level Level }

func (g gate) Level() Level  { return g.level }
func (g gate) Enabled() bool { return g.level > LevelOff }

// admits reports whether ev should be recorded. Heartbeats bypass scopes.
func (g gate) admits(ev *Event) bool {
	return ev.Kind == KindHeartbeat || g.level.ShouldEmit(ev.Scope)
}

func stamp(ev *Event) {
	if ev.Seq == 0 {
		ev.Seq = nextSeq()
	}
}

type nopTracer struct{ gate }

func (nopTracer) Emit(*Event)  {}
func (nopTracer) Flush() error { return nil }
func (nopTracer) Close() error { return nil }

// Nop discards everything.
var Nop Tracer = nopTracer{}

// StreamTracer writes each event as it arrives.
type StreamTracer struct {
	gate
	mu     sync.Mutex
	w      io.Writer
	format Format
}

// NewStreamTracer creates a StreamTracer writing to w.
func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	return &StreamTracer{gate: gate{level}, w: w, format: format}
}

func (t *StreamTracer) Emit(ev *Event) {
	if !t.admits(ev) {
		return
	}
	stamp(ev)
	data := FormatEvent(ev, t.format)
	t.mu.Lock()
	defer t.mu.Unlock()
	// Tracing never fails a run.
	_, _ = t.w.Write(data)
}

func (t *StreamTracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if f, ok := t.w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Close flushes and closes the writer if it is an io.Closer.
func (t *StreamTracer) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}
	if c, ok := t.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// RingTracer keeps the most recent events in memory, to be dumped when a
// run fails.
type RingTracer struct {
	gate
	mu     sync.Mutex
	events []Event
	next   int
	full   bool
}

// NewRingTracer creates a RingTracer holding capacity events (4096 if <= 0).
func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = defaultRingSize
	}
	return &RingTracer{gate: gate{level}, events: make([]Event, capacity)}
}

func (t *RingTracer) Emit(ev *Event) {
	if !t.admits(ev) {
		return
	}
	stamp(ev)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events[t.next] = *ev
	t.next++
	if t.next == len(t.events) {
		t.next, t.full = 0, true
	}
}

// Snapshot returns the stored events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.full {
		return append([]Event(nil), t.events[:t.next]...)
	}
	out := make([]Event, 0, len(t.events))
	out = append(out, t.events[t.next:]...)
	return append(out, t.events[:t.next]...)
}

// Dump writes the stored events to w.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	for _, ev := range t.Snapshot() {
		if _, err := w.Write(FormatEvent(&ev, format)); err != nil {
			return err
		}
	}
	return nil
}

func (t *RingTracer) Flush() error { return nil }
func (t *RingTracer) Close() error { return nil }

// MultiTracer fans events out to several tracers. Every tracer sees the same
// sequence number.
type MultiTracer struct {
	gate
	tracers []Tracer
}

// NewMultiTracer creates a MultiTracer over tracers.
func NewMultiTracer(level Level, tracers ...Tracer) *MultiTracer {
	return &MultiTracer{gate: gate{level}, tracers: tracers}
}

func (t *MultiTracer) Emit(ev *Event) {
	stamp(ev)
	for _, tr := range t.tracers {
		tr.Emit(ev)
	}
}

// Flush flushes every tracer and returns the first error.
func (t *MultiTracer) Flush() error {
	var first error
	for _, tr := range t.tracers {
		if err := tr.Flush(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close closes every tracer and returns the first error.
func (t *MultiTracer) Close() error {
	var first error
	for _, tr := range t.tracers {
		if err := tr.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Rings returns the ring tracers reachable from t.
func Rings(t Tracer) []*RingTracer {
	switch t := t.(type) {
	case *RingTracer:
		return []*RingTracer{t}
	case *MultiTracer:
		var out []*RingTracer
		for _, tr := range t.tracers {
			out = append(out, Rings(tr)...)
		}
		return out
	default:
		return nil
	}
}

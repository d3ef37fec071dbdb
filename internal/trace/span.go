package trace

import (
	"context"
	"sync/atomic"
	"time"
)

var (
	seqCounter  atomic.Uint64
	spanCounter atomic.Uint64
)

func nextSeq() uint64 { return seqCounter.Add(1) }

// Span is an open operation. A disabled span is still safe to use; all of
// its methods do nothing.
type Span struct {
	tracer  Tracer
	id      uint64
	parent  uint64
	scope   Scope
	name    string
	started time.Time
	attrs   []Attr
}

var disabled = &Span{tracer: Nop}

// Begin starts a span under parent (0 for none) and emits its begin event.
func Begin(t Tracer, scope Scope, name string, parent uint64) *Span {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return disabled
	}
	s := &Span{
		tracer:  t,
		id:      spanCounter.Add(1),
		parent:  parent,
		scope:   scope,
		name:    name,
		started: time.Now(),
	}
	t.Emit(&Event{
		Time:     s.started,
		Kind:     KindSpanBegin,
		Scope:    scope,
		SpanID:   s.id,
		ParentID: parent,
		Name:     name,
	})
	return s
}

// Start begins a span using the tracer and current span of ctx, and returns
// a context in which the new span is current.
func Start(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	s := Begin(FromContext(ctx), scope, name, SpanFrom(ctx))
	if s.id == 0 {
		return ctx, s
	}
	return context.WithValue(ctx, spanKey{}, s.id), s
}

// End emits the end event and returns the span's duration.
func (s *Span) End(detail string) time.Duration {
	if s.id == 0 {
		return 0
	}
	dur := time.Since(s.started)
	s.tracer.Emit(&Event{
		Time:     time.Now(),
		Kind:     KindSpanEnd,
		Scope:    s.scope,
		SpanID:   s.id,
		ParentID: s.parent,
		Name:     s.name,
		Detail:   detail,
		Attrs:    s.attrs,
	})
	return dur
}

// WithExtra annotates the end event and returns s for chaining.
func (s *Span) WithExtra(key, value string) *Span {
	if s.id != 0 {
		s.attrs = append(s.attrs, Attr{Key: key, Value: value})
	}
	return s
}

// ID returns the span ID, 0 for a disabled span.
func (s *Span) ID() uint64 { return s.id }

// Point emits an instant event under parent.
func Point(t Tracer, scope Scope, name, detail string, parent uint64) {
	if t == nil || !t.Enabled() || !t.Level().ShouldEmit(scope) {
		return
	}
	t.Emit(&Event{
		Time:     time.Now(),
		Kind:     KindPoint,
		Scope:    scope,
		ParentID: parent,
		Name:     name,
		Detail:   detail,
	})
}

type (
	tracerKey struct{}
	spanKey   struct{}
)

// WithTracer attaches t to ctx. A nil t detaches tracing.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, tracerKey{}, t)
}

// FromContext returns the tracer of ctx, or Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx != nil {
		if t, ok := ctx.Value(tracerKey{}).(Tracer); ok {
			return t
		}
	}
	return Nop
}

// SpanFrom returns the ID of the current span of ctx, or 0.
func SpanFrom(ctx context.Context) uint64 {
	if ctx != nil {
		if id, ok := ctx.Value(spanKey{}).(uint64); ok {
			return id
		}
	}
	return 0
}

package trace

import "time"

// Kind represents the type of trace event.
type Kind uint8

const (
	// KindSpanBegin marks the start of a logical operation.
	KindSpanBegin Kind = iota + 1
	// KindSpanEnd marks the end of a logical operation.
	KindSpanEnd
	// KindPoint represents an instant event.
	KindPoint
	// KindHeartbeat is a periodic liveness signal.
	KindHeartbeat
)

var kindNames = [...]string{
	KindSpanBegin: "begin",
	KindSpanEnd:   "end",
	KindPoint:     "point",
	KindHeartbeat: "heartbeat",
}

func (k Kind) String() string {
	if k != 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Scope indicates the granularity of an event. Lower values are coarser.
type Scope uint8

const (
	// ScopeDriver covers a whole CLI invocation.
	ScopeDriver Scope = iota + 1
	// ScopePass covers one pipeline phase (parse, lower, fold, validate).
	ScopePass
	// ScopeFile covers one input file.
	ScopeFile
	// ScopeNode covers one tree node during lowering.
	ScopeNode
)

var scopeNames = [...]string{
	ScopeDriver: "driver",
	ScopePass:   "pass",
	ScopeFile:   "file",
	ScopeNode:   "node",
}

func (s Scope) String() string {
	if s != 0 && int(s) < len(scopeNames) {
		return scopeNames[s]
	}
	return "unknown"
}

// Attr is one key-value annotation of an event.
type Attr struct {
	Key   string
	Value string
}

// Event represents a single trace event.
type Event struct {
	Time     time.Time
	Seq      uint64 // assigned by the tracer that records the event
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for top-level spans
	Name     string // e.g. "parse", "lower", "lower_node"
	Detail   string
	Attrs    []Attr // in the order they were added
}

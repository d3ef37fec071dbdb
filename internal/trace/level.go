package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	// LevelOff disables tracing.
	LevelOff    Level = iota
	LevelError        // failures only
	LevelPhase        // driver and pass boundaries
	LevelDetail       // per-file events
	LevelDebug        // everything including tree nodes
)

var levelNames = [...]string{
	LevelOff:    "off",
	LevelError:  "error",
	LevelPhase:  "phase",
	LevelDetail: "detail",
	LevelDebug:  "debug",
}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel converts a level name, in any case, to a Level.
func ParseLevel(s string) (Level, error) {
	for l, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(l), nil //nolint:gosec // index of a five-entry table
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|error|phase|detail|debug)", s)
}

// ShouldEmit reports whether events of scope are recorded at this level.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelPhase:
		return scope <= ScopePass
	case LevelDetail:
		return scope <= ScopeFile
	case LevelDebug:
		return true
	default:
		// LevelError records nothing through spans; failures reach the
		// user through the returned error and the ring dump.
		return false
	}
}

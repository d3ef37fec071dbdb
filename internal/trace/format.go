package trace

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Format selects how events are rendered.
type Format uint8

const (
	FormatAuto   Format = iota // pick from the output path
	FormatText                 // one human-readable line per event
	FormatNDJSON               // one JSON object per line
)

// ParseFormat converts a format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "text":
		return FormatText, nil
	case "ndjson", "json":
		return FormatNDJSON, nil
	default:
		return FormatAuto, fmt.Errorf("invalid trace format: %q (expected: auto|text|ndjson)", s)
	}
}

// FormatEvent renders ev, newline included.
func FormatEvent(ev *Event, format Format) []byte {
	if format == FormatNDJSON {
		return formatNDJSON(ev)
	}
	return formatText(ev)
}

type jsonEvent struct {
	Time     string            `json:"time"`
	Seq      uint64            `json:"seq"`
	Kind     string            `json:"kind"`
	Scope    string            `json:"scope"`
	SpanID   uint64            `json:"span_id,omitempty"`
	ParentID uint64            `json:"parent_id,omitempty"`
	Name     string            `json:"name"`
	Detail   string            `json:"detail,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
}

func formatNDJSON(ev *Event) []byte {
	j := jsonEvent{
		Time:     ev.Time.Format("2006-01-02T15:04:05.000000Z07:00"),
		Seq:      ev.Seq,
		Kind:     ev.Kind.String(),
		Scope:    ev.Scope.String(),
		SpanID:   ev.SpanID,
		ParentID: ev.ParentID,
		Name:     ev.Name,
		Detail:   ev.Detail,
	}
	if len(ev.Attrs) > 0 {
		j.Attrs = make(map[string]string, len(ev.Attrs))
		for _, a := range ev.Attrs {
			j.Attrs[a.Key] = a.Value
		}
	}
	data, _ := json.Marshal(j) //nolint:errchkjson // only strings and integers
	return append(data, '\n')
}

var kindGlyphs = [...]string{
	KindSpanBegin: "→ ",
	KindSpanEnd:   "← ",
	KindPoint:     "• ",
	KindHeartbeat: "♡ ",
}

// formatText renders "#seq scope →/← name (detail) {k=v, ...}". Nested
// events are indented by two spaces.
func formatText(ev *Event) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "#%-6d %-6s ", ev.Seq, ev.Scope)
	if ev.ParentID > 0 {
		sb.WriteString("  ")
	}
	if int(ev.Kind) < len(kindGlyphs) {
		sb.WriteString(kindGlyphs[ev.Kind])
	}
	sb.WriteString(ev.Name)
	if ev.Detail != "" {
		sb.WriteString(" (" + ev.Detail + ")")
	}
	if len(ev.Attrs) > 0 {
		sb.WriteString(" {")
		for i, a := range ev.Attrs {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(a.Key + "=" + a.Value)
		}
		sb.WriteString("}")
	}
	sb.WriteByte('\n')
	return []byte(sb.String())
}

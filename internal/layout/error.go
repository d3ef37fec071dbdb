package layout

import (
	"fmt"

	"ilgraph/internal/types"
)

// LayoutErrorKind enumerates types of layout description errors.
type LayoutErrorKind uint8

const (
	// LayoutErrUnsized indicates a type whose size is not known to the engine.
	LayoutErrUnsized LayoutErrorKind = iota + 1
	LayoutErrBadTag
	LayoutErrTagField
	LayoutErrVariantRange
	LayoutErrNicheRange
)

// LayoutError represents an inconsistent layout or an unsupported query.
type LayoutError struct {
	Kind    LayoutErrorKind
	Enum    string
	Type    types.Type
	Variant uint32
	Detail  string
}

func (e *LayoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case LayoutErrUnsized:
		return fmt.Sprintf("type of kind %s has no known size", e.Type.Kind)
	case LayoutErrBadTag:
		return fmt.Sprintf("enum %s: tag must be an integer or pointer, got %s", e.Enum, e.Type.Kind)
	case LayoutErrTagField:
		return fmt.Sprintf("enum %s: %s", e.Enum, e.Detail)
	case LayoutErrVariantRange:
		return fmt.Sprintf("enum %s: variant %d out of range", e.Enum, e.Variant)
	case LayoutErrNicheRange:
		return fmt.Sprintf("enum %s: invalid niche: %s", e.Enum, e.Detail)
	default:
		return fmt.Sprintf("layout error kind=%d enum %s", e.Kind, e.Enum)
	}
}

package adt

import (
	"fmt"
	"strings"

	"ilgraph/internal/ir"
	"ilgraph/internal/layout"
)

// Describe renders the layout facts of en as seen through oracle: tag type,
// tag offset, encoding and the offset of each top-level field.
func Describe(m *ir.Module, oracle Oracle, en *layout.Enum) string {
	var sb strings.Builder
	tag, off := oracle.TagInfo(en)
	fmt.Fprintf(&sb, "enum %s: %s variants", en.Name, en.Variants.Kind)
	if n := en.VariantCount(); n > 0 {
		fmt.Fprintf(&sb, " (%d)", n)
	}
	sb.WriteByte('\n')
	fmt.Fprintf(&sb, "  tag %s at +%d\n", m.Types.Format(tag), off)
	if en.Variants.Kind == layout.VariantsMultiple {
		enc := en.Variants.Encoding
		if enc.Kind == layout.EncodingNiche {
			fmt.Fprintf(&sb, "  niche %d..=%d from %d, untagged %d\n", enc.NicheFirst, enc.NicheLast, enc.NicheStart, enc.UntaggedVariant)
		} else {
			sb.WriteString("  direct\n")
		}
	}
	i := 0
	for range en.Fields.FieldOffsets() {
		fmt.Fprintf(&sb, "  field %d at +%d\n", i, oracle.FieldOffset(en, i))
		i++
	}
	return sb.String()
}

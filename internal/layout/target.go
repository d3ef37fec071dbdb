package layout

import "github.com/cockroachdb/errors"

// Target describes the ABI target triple and its pointer properties.
type Target struct {
	Triple   string // e.g. "x86_64-linux-gnu"
	PtrSize  int    // bytes
	PtrAlign int    // bytes
}

func X86_64LinuxGNU() Target {
	return Target{
		Triple:   "x86_64-linux-gnu",
		PtrSize:  8,
		PtrAlign: 8,
	}
}

var knownTargets = []Target{
	X86_64LinuxGNU(),
	{Triple: "aarch64-linux-gnu", PtrSize: 8, PtrAlign: 8},
	{Triple: "x86_64-pc-windows-msvc", PtrSize: 8, PtrAlign: 8},
	{Triple: "i686-linux-gnu", PtrSize: 4, PtrAlign: 4},
	{Triple: "wasm32-unknown-unknown", PtrSize: 4, PtrAlign: 4},
}

// Full spellings accepted for the short triples above.
var tripleAliases = map[string]string{
	"x86_64-unknown-linux-gnu":  "x86_64-linux-gnu",
	"aarch64-unknown-linux-gnu": "aarch64-linux-gnu",
	"i686-unknown-linux-gnu":    "i686-linux-gnu",
}

// TargetByTriple resolves a known triple. ptrSize, when non-zero, overrides
// the pointer size and alignment.
func TargetByTriple(triple string, ptrSize int) (Target, error) {
	if triple == "" {
		triple = X86_64LinuxGNU().Triple
	}
	if short, ok := tripleAliases[triple]; ok {
		triple = short
	}
	for _, t := range knownTargets {
		if t.Triple != triple {
			continue
		}
		switch ptrSize {
		case 0:
		case 4, 8:
			t.PtrSize, t.PtrAlign = ptrSize, ptrSize
		default:
			return Target{}, errors.Newf("unsupported pointer size %d", ptrSize)
		}
		return t, nil
	}
	return Target{}, errors.Newf("unknown target %q", triple)
}

// PtrBits returns the pointer width in bits.
func (t Target) PtrBits() int { return t.PtrSize * 8 }

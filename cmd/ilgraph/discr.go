package main

import (
	"io"
	"strconv"

	"fortio.org/safecast"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"ilgraph/internal/adt"
	"ilgraph/internal/ir"
	"ilgraph/internal/layout"
	"ilgraph/internal/lower"
	"ilgraph/internal/tree"
)

func newDiscrCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discr LAYOUT.toml",
		Short: "Show the code that sets and reads an enum's discriminant",
		Long: `discr loads an enum layout described in TOML and prints, for each variant,
the statement that stores its discriminant into the enum at argument 0, followed
by the expression that reads it back.`,
		Args: cobra.ExactArgs(1),
		RunE: runDiscr,
	}
	cmd.Flags().UintSlice("variant", nil, "variants to show (default: all)")
	cmd.Flags().String("target", "", "target triple (default from ilgraph.toml)")
	cmd.Flags().Int("ptr-size", 0, "override the target pointer size (4 or 8)")
	cmd.Flags().String("format", "text", "output format (text|json|yaml)")
	return cmd
}

func runDiscr(cmd *cobra.Command, args []string) error {
	cfg, err := loadSettings()
	if err != nil {
		return err
	}
	if cfg.Target.Triple, err = stringSetting(cmd, "target", cfg.Target.Triple); err != nil {
		return err
	}
	if cfg.Target.PtrSize, err = intSetting(cmd, "ptr-size", cfg.Target.PtrSize); err != nil {
		return err
	}
	target, err := cfg.LayoutTarget()
	if err != nil {
		return err
	}
	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	format, err := readOutputFormat(formatStr)
	if err != nil {
		return err
	}
	variants, err := cmd.Flags().GetUintSlice("variant")
	if err != nil {
		return err
	}

	m := ir.NewModule(nil)
	en, err := layout.LoadEnumFile(args[0], m.Types)
	if err != nil {
		return err
	}
	engine := layout.New(target, m.Types)
	if err := engine.Check(en); err != nil {
		return err
	}

	picked, err := pickVariants(en, variants)
	if err != nil {
		return err
	}
	named, err := discrCode(m, engine, en, picked)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == formatText {
		if _, err := io.WriteString(out, adt.Describe(m, engine, en)+"\n"); err != nil {
			return err
		}
	}
	return writeModule(out, m, named, format)
}

func pickVariants(en *layout.Enum, requested []uint) ([]uint32, error) {
	if len(requested) == 0 {
		switch en.Variants.Kind {
		case layout.VariantsSingle:
			return []uint32{en.Variants.Index}, nil
		case layout.VariantsMultiple:
			out := make([]uint32, 0, len(en.Variants.Layouts))
			for i := range en.Variants.Layouts {
				idx, err := safecast.Conv[uint32](i)
				if err != nil {
					return nil, err
				}
				out = append(out, idx)
			}
			return out, nil
		default:
			return nil, nil
		}
	}
	out := make([]uint32, 0, len(requested))
	for _, v := range requested {
		idx, err := safecast.Conv[uint32](v)
		if err != nil {
			return nil, errors.Newf("enum %s has no variant %d", en.Name, v)
		}
		if _, ok := en.VariantAt(idx); !ok {
			return nil, errors.Newf("enum %s has no variant %d", en.Name, v)
		}
		out = append(out, idx)
	}
	return out, nil
}

// discrCode lowers one SetDiscr per variant and a single GetDiscr.
func discrCode(m *ir.Module, oracle adt.Oracle, en *layout.Enum, variants []uint32) ([]ir.Named, error) {
	class := m.Types.NewClass(en.Name, "", true)
	addr := tree.LdArg(0)
	l := lower.New(m, nil)

	named := make([]ir.Named, 0, len(variants)+1)
	for _, v := range variants {
		r, err := adt.SetDiscr(m, oracle, en, v, addr, class)
		if err != nil {
			return nil, err
		}
		id, err := l.LowerRoot(r)
		if err != nil {
			return nil, err
		}
		named = append(named, ir.Named{Name: "set " + strconv.FormatUint(uint64(v), 10), Root: id})
	}
	if en.Uninhabited {
		return named, nil
	}
	get, err := adt.GetDiscr(m, oracle, en, addr, class)
	if err != nil {
		return nil, err
	}
	id, err := l.Lower(get)
	if err != nil {
		return nil, err
	}
	return append(named, ir.Named{Name: "get", Node: id}), nil
}

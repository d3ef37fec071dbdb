package main

import (
	"encoding/json"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"
	"sigs.k8s.io/yaml"

	"ilgraph/internal/ir"
	"ilgraph/internal/observ"
)

type outputFormat string

const (
	formatText outputFormat = "text"
	formatJSON outputFormat = "json"
	formatYAML outputFormat = "yaml"
)

func readOutputFormat(value string) (outputFormat, error) {
	switch f := outputFormat(value); f {
	case formatText, formatJSON, formatYAML:
		return f, nil
	default:
		return "", errors.Newf("unsupported format %q (expected text|json|yaml)", value)
	}
}

// writeModule prints the graph reachable from named.
func writeModule(w io.Writer, m *ir.Module, named []ir.Named, format outputFormat) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(ir.ExportNamed(m, named))
	case formatYAML:
		data, err := yaml.Marshal(ir.ExportNamed(m, named))
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return ir.Dump(w, m, named)
	}
}

var timingsColor = color.New(color.Faint)

func printTimings(w io.Writer, report observ.Report) {
	timingsColor.Fprint(w, report.String())
}

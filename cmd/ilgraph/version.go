package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"ilgraph/internal/irpack"
	"ilgraph/internal/version"
)

type versionPayload struct {
	Tool           string `json:"tool"`
	Version        string `json:"version"`
	SnapshotFormat string `json:"snapshot_format"`
	GitCommit      string `json:"git_commit,omitempty"`
	GitMessage     string `json:"git_message,omitempty"`
	BuildDate      string `json:"build_date,omitempty"`
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch strings.ToLower(format) {
			case "pretty":
				for _, line := range version.Lines() {
					fmt.Fprintln(out, line)
				}
				fmt.Fprintf(out, "snapshot format %s\n", irpack.FormatVersion)
				return nil
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(versionPayload{
					Tool:           "ilgraph",
					Version:        strings.TrimSpace(version.Version),
					SnapshotFormat: irpack.FormatVersion,
					GitCommit:      strings.TrimSpace(version.GitCommit),
					GitMessage:     strings.TrimSpace(version.GitMessage),
					BuildDate:      strings.TrimSpace(version.BuildDate),
				})
			default:
				return errors.Newf("unsupported format %q (must be pretty or json)", format)
			}
		},
	}
	cmd.Flags().String("format", "pretty", "output format (pretty|json)")
	return cmd
}

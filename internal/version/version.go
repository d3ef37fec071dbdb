// Package version holds build metadata for the ilgraph CLI.
package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/fatih/color"
)

// These variables can be overridden at build time via -ldflags.
var (
	// Version is the semantic version of the CLI.
	Version = "0.1.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// GitMessage is an optional git commit message.
	GitMessage = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	versionMajorColor = color.New(color.FgYellow, color.Bold)
	versionMinorColor = color.New(color.FgGreen, color.Bold)
	versionPatchColor = color.New(color.FgBlue, color.Bold)
)

// Colored renders Version with each numeric component in its own colour.
// A Version that is not semver is returned unchanged.
func Colored() string {
	v, err := semver.NewVersion(Version)
	if err != nil {
		return Version
	}
	out := versionMajorColor.Sprint(v.Major()) + "." +
		versionMinorColor.Sprint(v.Minor()) + "." +
		versionPatchColor.Sprint(v.Patch())
	if pre := v.Prerelease(); pre != "" {
		out += "-" + pre
	}
	if meta := v.Metadata(); meta != "" {
		out += "+" + meta
	}
	return out
}

// Lines returns the report printed by `ilgraph version`.
func Lines() []string {
	lines := []string{"ilgraph " + Colored()}
	if GitCommit != "" {
		commit := "commit " + GitCommit
		if msg := strings.TrimSpace(GitMessage); msg != "" {
			first, _, _ := strings.Cut(msg, "\n")
			commit += " (" + first + ")"
		}
		lines = append(lines, commit)
	}
	if BuildDate != "" {
		lines = append(lines, "built "+BuildDate)
	}
	return lines
}

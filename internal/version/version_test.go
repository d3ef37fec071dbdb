package version

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func withVersion(t *testing.T, v, commit, msg, date string) {
	t.Helper()
	old := [4]string{Version, GitCommit, GitMessage, BuildDate}
	Version, GitCommit, GitMessage, BuildDate = v, commit, msg, date
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() {
		Version, GitCommit, GitMessage, BuildDate = old[0], old[1], old[2], old[3]
		color.NoColor = noColor
	})
}

func TestColoredKeepsSuffixes(t *testing.T) {
	withVersion(t, "1.2.3-rc.1+build.123", "", "", "")
	require.Equal(t, "1.2.3-rc.1+build.123", Colored())

	Version = "not a version"
	require.Equal(t, "not a version", Colored())
}

func TestLines(t *testing.T) {
	withVersion(t, "0.1.0-dev", "", "", "")
	require.Equal(t, []string{"ilgraph 0.1.0-dev"}, Lines())

	withVersion(t, "1.0.0", "abc123", "fix niche range\n\nlong body", "2026-01-15T10:30:00Z")
	require.Equal(t, []string{
		"ilgraph 1.0.0",
		"commit abc123 (fix niche range)",
		"built 2026-01-15T10:30:00Z",
	}, Lines())
}

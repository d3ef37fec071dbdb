package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"ilgraph/internal/ir"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{"--color=off"}, args...))
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// workspace makes a temporary working directory holding files.
func workspace(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	t.Chdir(dir)
	return dir
}

const product = "(expr k (mul (const i32 3) (const i32 4)))\n"

func TestLowerText(t *testing.T) {
	workspace(t, map[string]string{"k.ilt": product})

	out, _, err := execute(t, "lower", "k.ilt")
	require.NoError(t, err)
	require.Equal(t, "%1 = const 3i32\n%2 = const 4i32\n%3 = mul %1, %2\n\nk  %3\n", out)

	out, _, err = execute(t, "lower", "--fold", "k.ilt")
	require.NoError(t, err)
	require.Equal(t, "%4 = const 12i32\n\nk  %4\n", out)
}

func TestLowerFoldFromConfig(t *testing.T) {
	workspace(t, map[string]string{
		"k.ilt":        product,
		"ilgraph.toml": "[lower]\nfold = true\n",
	})

	out, _, err := execute(t, "lower", ".")
	require.NoError(t, err)
	require.Contains(t, out, "const 12i32")

	out, _, err = execute(t, "lower", "--fold=false", ".")
	require.NoError(t, err)
	require.Contains(t, out, "mul %1, %2")
}

func TestLowerStructuredFormats(t *testing.T) {
	workspace(t, map[string]string{"k.ilt": product})

	out, _, err := execute(t, "lower", "--format", "json", "k.ilt")
	require.NoError(t, err)
	var ex ir.Export
	require.NoError(t, json.Unmarshal([]byte(out), &ex))
	require.Len(t, ex.Nodes, 3)
	require.Equal(t, "k", ex.Names[0].Name)
	require.Equal(t, uint32(3), ex.Names[0].Node)

	out, _, err = execute(t, "lower", "--format", "yaml", "k.ilt")
	require.NoError(t, err)
	require.Contains(t, out, "names:\n- name: k\n  node: 3\n")

	_, _, err = execute(t, "lower", "--format", "xml", "k.ilt")
	require.EqualError(t, err, `unsupported format "xml" (expected text|json|yaml)`)
}

func TestSnapshotThenDump(t *testing.T) {
	workspace(t, map[string]string{"k.ilt": product + "(stmt drop (pop (ldloc 0)))\n"})

	lowered, stderr, err := execute(t, "--timings", "lower", "-o", "out/k.ilg", "k.ilt")
	require.NoError(t, err)
	require.Contains(t, stderr, "validate")

	dumped, stderr, err := execute(t, "dump", "--stats", "out/k.ilg")
	require.NoError(t, err)
	require.Equal(t, lowered, dumped)
	require.True(t, strings.HasPrefix(stderr, "nodes 4, node lists "), stderr)
}

func TestLowerReportsErrors(t *testing.T) {
	workspace(t, map[string]string{"bad.ilt": "(expr k (frobnicate))"})
	_, _, err := execute(t, "lower", "bad.ilt")
	require.EqualError(t, err, `bad.ilt:1:9: unknown expression "frobnicate"`)

	_, _, err = execute(t, "--color=sometimes", "lower", "bad.ilt")
	require.ErrorContains(t, err, "invalid --color value")
}

func TestLowerDumpsRingOnFailure(t *testing.T) {
	workspace(t, map[string]string{"bad.ilt": "(expr k (frobnicate))"})
	_, stderr, err := execute(t, "lower", "--trace-level", "phase", "--trace-mode", "ring", "bad.ilt")
	require.Error(t, err)
	require.Contains(t, stderr, "-- last trace events --")
	require.Contains(t, stderr, "→ run")
	require.Contains(t, stderr, "← run")

	workspace(t, map[string]string{"k.ilt": product})
	_, stderr, err = execute(t, "lower", "--trace-level", "phase", "--trace-mode", "ring", "k.ilt")
	require.NoError(t, err)
	require.Empty(t, stderr)
}

const flagLayout = `
name = "Flag"

[fields]
kind = "arbitrary"
offsets = [0]

[variants]
kind = "multiple"
tag = "u8"
tag_field = 0

[[variants.layouts]]
[[variants.layouts]]
`

func TestDiscr(t *testing.T) {
	workspace(t, map[string]string{"flag.toml": flagLayout})

	out, _, err := execute(t, "discr", "flag.toml")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "enum Flag: multiple variants (2)\n  tag u8 at +0\n  direct\n"), out)
	require.Contains(t, out, "set 0  stfld")
	require.Contains(t, out, "set 1  stfld")
	require.Contains(t, out, "get    %")

	out, _, err = execute(t, "discr", "--variant", "1", "--format", "json", "flag.toml")
	require.NoError(t, err)
	var ex ir.Export
	require.NoError(t, json.Unmarshal([]byte(out), &ex))
	require.Len(t, ex.Names, 2)
	require.Equal(t, "set 1", ex.Names[0].Name)

	_, _, err = execute(t, "discr", "--variant", "5", "flag.toml")
	require.EqualError(t, err, "enum Flag has no variant 5")

	_, _, err = execute(t, "discr", "--target", "mips-none", "flag.toml")
	require.ErrorContains(t, err, `unknown target "mips-none"`)
}

func TestVersionJSON(t *testing.T) {
	out, _, err := execute(t, "version", "--format", "json")
	require.NoError(t, err)
	var payload versionPayload
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	require.Equal(t, "ilgraph", payload.Tool)
	require.Equal(t, "1.0.0", payload.SnapshotFormat)
}

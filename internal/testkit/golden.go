// Package testkit holds helpers shared by package tests.
package testkit

import (
	"flag"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
)

var update = flag.Bool("update", false, "rewrite golden files with the current output")

// UpdateEnv forces golden rewrites without the -update flag.
const UpdateEnv = "ILGRAPH_UPDATE_GOLDEN"

func updating() bool {
	if *update {
		return true
	}
	v, _ := strconv.ParseBool(os.Getenv(UpdateEnv))
	return v
}

// LineDiff renders the difference between want and got one line per entry,
// prefixed with the line number and "-" or "+". Equal inputs yield "".
func LineDiff(want, got string) string {
	if want == got {
		return ""
	}
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(want, got)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	lineNumber := 0
	for _, d := range diffs {
		parts := strings.Split(d.Text, "\n")
		if parts[len(parts)-1] == "" {
			parts = parts[:len(parts)-1]
		}
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		default:
			lineNumber += len(parts)
			continue
		}
		for _, line := range parts {
			if d.Type != diffmatchpatch.DiffInsert {
				lineNumber++
			}
			sb.WriteString(strconv.Itoa(lineNumber) + "\t" + prefix + line + "\n")
		}
	}
	return sb.String()
}

// Golden compares got with testdata/<name>.golden, rewriting the file instead
// when -update is set.
func Golden(t testing.TB, name, got string) {
	t.Helper()
	path := filepath.Join("testdata", name+".golden")
	if updating() {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(got), 0o600); err != nil {
			t.Fatal(err)
		}
		return
	}
	want, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v (run with -update to create it)", err)
	}
	if d := LineDiff(string(want), got); d != "" {
		t.Errorf("%s mismatch:\n%s", path, d)
	}
}

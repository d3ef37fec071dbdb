package driver

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"

	"ilgraph/internal/project"
)

// SourceExt is the extension of tree text files picked up from directories.
const SourceExt = ".ilt"

// Source is one input file held in memory.
type Source struct {
	Path string
	Data []byte
}

// listSources returns every *.ilt file under dir, sorted.
func listSources(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, SourceExt) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// ExpandPaths replaces directories with the sources they contain. Explicit
// files are kept whatever their extension; duplicates are dropped.
func ExpandPaths(paths []string) ([]string, error) {
	seen := make(map[string]bool, len(paths))
	out := make([]string, 0, len(paths))
	add := func(p string) {
		clean := filepath.Clean(p)
		if !seen[clean] {
			seen[clean] = true
			out = append(out, clean)
		}
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		files, err := listSources(p)
		if err != nil {
			return nil, errors.Wrapf(err, "scan %s", p)
		}
		for _, f := range files {
			add(f)
		}
	}
	return out, nil
}

// ReadSources expands paths and reads every file.
func ReadSources(paths []string) ([]Source, error) {
	files, err := ExpandPaths(paths)
	if err != nil {
		return nil, err
	}
	srcs := make([]Source, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		srcs = append(srcs, Source{Path: path, Data: data})
	}
	return srcs, nil
}

// Digest identifies an input set by path and content, in order.
func Digest(srcs []Source) project.Digest {
	var acc project.Digest
	for _, s := range srcs {
		acc = project.Combine(acc, project.Sum([]byte(s.Path)), project.Sum(s.Data))
	}
	return acc
}

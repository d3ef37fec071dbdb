package irpack

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"ilgraph/internal/ir"
)

// WriteFile stores a snapshot at path. The file is written to a temporary
// sibling and renamed into place, so readers never see a partial snapshot.
func WriteFile(path string, m *ir.Module, named []ir.Named) (err error) {
	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".ilgraph-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if err = Encode(f, m, named); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), path)
}

// ReadFile loads a snapshot written by WriteFile.
func ReadFile(path string) (*ir.Module, []ir.Named, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	m, named, err := Decode(f)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "%s", path)
	}
	return m, named, nil
}

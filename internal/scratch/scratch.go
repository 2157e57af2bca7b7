// Package scratch manages the temporary workspace of a run.
package scratch

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const prefix = "drihop-scratch-"

// Workspace is a directory holding intermediate artifacts.
type Workspace struct {
	dir string
}

// New creates a uniquely named workspace inside dir.
func New(dir string) (*Workspace, error) {
	path, err := os.MkdirTemp(dir, prefix)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to create scratch workspace in %s", dir)
	}

	return &Workspace{dir: path}, nil
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// Path returns the path of artifact name inside the workspace.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, filepath.Base(name))
}

// Close removes the workspace and everything in it. It is safe to call more than once.
func (w *Workspace) Close() error {
	if w.dir == "" {
		return nil
	}
	dir := w.dir
	w.dir = ""

	return errors.Wrapf(os.RemoveAll(dir), "unable to remove scratch workspace %s", dir)
}

// Package workspace manages the temporary directory holding the downloaded
// external test sources: creation, tarball fetch/extraction, and scoped
// cleanup.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Workspace is the directory the test sources are extracted into. It lives
// for the duration of one run unless retention was requested.
type Workspace struct {
	Dir  string
	keep bool
}

// New creates a fresh workspace directory under baseDir (os.TempDir() when
// empty). The uuid suffix keeps concurrent CI jobs on the same host apart.
func New(baseDir string, keep bool) (*Workspace, error) {
	if baseDir == "" {
		baseDir = os.TempDir()
	}
	dir := filepath.Join(baseDir, fmt.Sprintf("e2e-tests-%s", uuid.NewString()[:8]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace %s: %w", dir, err)
	}
	zap.S().Infow("workspace created", "dir", dir, "keep", keep)
	return &Workspace{Dir: dir, keep: keep}, nil
}

// Path resolves a workspace-relative path.
func (w *Workspace) Path(elem ...string) string {
	return filepath.Join(append([]string{w.Dir}, elem...)...)
}

// Cleanup removes the workspace directory. It is a no-op when the caller
// asked to keep it, so it can be deferred unconditionally.
func (w *Workspace) Cleanup() error {
	if w.keep {
		zap.S().Infow("keeping workspace", "dir", w.Dir)
		return nil
	}
	zap.S().Debugw("removing workspace", "dir", w.Dir)
	return os.RemoveAll(w.Dir)
}

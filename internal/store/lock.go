package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// RunLock serializes digest runs sharing one state dir. Acquire creates
// an exclusive lockfile; the returned release removes it. A lockfile left
// behind by a crashed run must be cleared by hand, matching the recovery
// story for any other corrupted state file.
type RunLock struct {
	Path string
}

func NewRunLock(stateDir string) *RunLock {
	return &RunLock{Path: filepath.Join(stateDir, "run.lock")}
}

func (l *RunLock) Acquire() (func(), error) {
	if err := os.MkdirAll(filepath.Dir(l.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	f, err := os.OpenFile(l.Path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("lockfile %s: %w", l.Path, err)
	}
	fmt.Fprintf(f, "pid %d\n", os.Getpid())
	f.Close()

	return func() { os.Remove(l.Path) }, nil
}

// Package workspace owns the scratch directory where intermediate videos are
// written before export.
package workspace

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/ivlev/slides2video/internal/logging"
)

const lockName = ".slides2video.lock"

// FileSystem hands out temp paths and clears leftovers of earlier runs.
type FileSystem interface {
	TempPath(name string) string
	CleanupStale()
}

// Dir is a FileSystem rooted at one directory shared by all runs. Every run
// gets its own file prefix. Stale cleanup takes the directory lock
// exclusively and is skipped while another run holds it.
type Dir struct {
	root  string
	runID string
	lock  *flock.Flock
	log   *logging.Logger
}

// New prepares root (os.TempDir()/slides2video when empty). Directory creation
// is best effort: failures surface later when files are written.
func New(root string, log *logging.Logger) *Dir {
	if root == "" {
		root = filepath.Join(os.TempDir(), "slides2video")
	}
	if log == nil {
		log = logging.Nop()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		log.Debug().Err(err).Str("dir", root).Msg("workspace mkdir")
	}
	return &Dir{
		root:  root,
		runID: uuid.NewString(),
		lock:  flock.New(filepath.Join(root, lockName)),
		log:   log,
	}
}

func (d *Dir) Root() string  { return d.root }
func (d *Dir) RunID() string { return d.runID }

// TempPath returns a run scoped path for name inside the workspace.
func (d *Dir) TempPath(name string) string {
	return filepath.Join(d.root, d.runID+"_"+filepath.Base(name))
}

// CleanupStale removes files left behind by earlier runs. Errors are logged
// and swallowed.
func (d *Dir) CleanupStale() {
	ok, err := d.lock.TryLock()
	if err != nil {
		d.log.Debug().Err(err).Msg("workspace lock")
		return
	}
	if !ok {
		d.log.Debug().Msg("workspace busy, skipping cleanup")
		return
	}
	defer func() {
		if err := d.lock.Unlock(); err != nil {
			d.log.Debug().Err(err).Msg("workspace unlock")
		}
	}()

	entries, err := os.ReadDir(d.root)
	if err != nil {
		d.log.Debug().Err(err).Msg("workspace read")
		return
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == lockName || strings.HasPrefix(name, d.runID) {
			continue
		}
		if err := os.Remove(filepath.Join(d.root, name)); err != nil {
			d.log.Debug().Err(err).Str("file", name).Msg("stale file")
			continue
		}
		d.log.Debug().Str("file", name).Msg("removed stale file")
	}
}

// Acquire marks the workspace as in use until Release. Other runs skip their
// stale cleanup meanwhile.
func (d *Dir) Acquire() {
	ok, err := d.lock.TryRLock()
	if err != nil || !ok {
		d.log.Debug().Err(err).Bool("ok", ok).Msg("workspace shared lock")
	}
}

// Release removes this run's files and drops the shared lock.
func (d *Dir) Release() {
	matches, _ := filepath.Glob(filepath.Join(d.root, d.runID+"_*"))
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			d.log.Debug().Err(err).Str("file", m).Msg("workspace release")
		}
	}
	if d.lock.Locked() || d.lock.RLocked() {
		if err := d.lock.Unlock(); err != nil {
			d.log.Debug().Err(err).Msg("workspace unlock")
		}
	}
}

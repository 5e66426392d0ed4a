package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestTempPathIsRunScoped(t *testing.T) {
	root := t.TempDir()
	a, b := New(root, nil), New(root, nil)

	pa, pb := a.TempPath("video.mp4"), b.TempPath("video.mp4")
	if pa == pb {
		t.Fatalf("runs share temp path %s", pa)
	}
	if filepath.Dir(pa) != root || !strings.HasSuffix(pa, "_video.mp4") {
		t.Errorf("unexpected temp path %s", pa)
	}
	if got := a.TempPath("../../escape.mp4"); filepath.Dir(got) != root {
		t.Errorf("temp path escaped the workspace: %s", got)
	}
}

func TestCleanupStaleKeepsOwnFiles(t *testing.T) {
	root := t.TempDir()
	old := filepath.Join(root, "0000_video.mp4")
	touch(t, old)
	if err := os.Mkdir(filepath.Join(root, "keepdir"), 0o755); err != nil {
		t.Fatal(err)
	}

	d := New(root, nil)
	mine := d.TempPath("video.mp4")
	touch(t, mine)

	d.CleanupStale()

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Error("stale file should be removed")
	}
	if _, err := os.Stat(mine); err != nil {
		t.Errorf("own file removed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "keepdir")); err != nil {
		t.Errorf("directories must be kept: %v", err)
	}
}

func TestCleanupSkippedWhileAnotherRunIsActive(t *testing.T) {
	root := t.TempDir()
	active := New(root, nil)
	active.Acquire()
	file := active.TempPath("video.mp4")
	touch(t, file)

	New(root, nil).CleanupStale()
	if _, err := os.Stat(file); err != nil {
		t.Fatalf("active run's file removed: %v", err)
	}

	active.Release()
	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Error("Release should remove the run's files")
	}
}

func TestMissingRootIsNotFatal(t *testing.T) {
	root := filepath.Join(t.TempDir(), "file")
	touch(t, root)
	d := New(filepath.Join(root, "sub"), nil)
	d.CleanupStale()
	d.Release()
}

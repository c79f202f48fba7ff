package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"mixdown/internal/engine"
	"mixdown/internal/logging"
	"mixdown/internal/testsupport"
)

func TestCleanStaleInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := CleanStale(context.Background(), dir, time.Hour, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 || result.Skipped {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func TestCleanStaleRemovesOldEntries(t *testing.T) {
	dir := t.TempDir()
	oldFile := filepath.Join(dir, "abc-input1")
	recentFile := filepath.Join(dir, "def-input1")
	testsupport.WriteFile(t, oldFile, 16, 2*time.Hour)
	testsupport.WriteFile(t, recentFile, 16, 0)

	result := CleanStale(context.Background(), dir, time.Hour, logging.NewNop())

	if result.Skipped {
		t.Fatal("sweep should not be skipped without a live engine")
	}
	if len(result.Removed) != 1 || result.Removed[0] != oldFile {
		t.Fatalf("expected only %s removed, got %v", oldFile, result.Removed)
	}
	if _, err := os.Stat(oldFile); !os.IsNotExist(err) {
		t.Error("old entry should have been removed")
	}
	if _, err := os.Stat(recentFile); err != nil {
		t.Error("recent entry should still exist")
	}
}

func TestCleanStaleKeepsLockFile(t *testing.T) {
	dir := t.TempDir()
	lockPath := filepath.Join(dir, engine.LockFileName)
	testsupport.WriteFile(t, lockPath, 1, 48*time.Hour)

	result := CleanStale(context.Background(), dir, time.Hour, logging.NewNop())
	if len(result.Removed) != 0 {
		t.Fatalf("lock file must not be swept, removed %v", result.Removed)
	}
	if _, err := os.Stat(lockPath); err != nil {
		t.Fatalf("lock file missing: %v", err)
	}
}

func TestCleanStaleSkipsWhileEngineHoldsLock(t *testing.T) {
	dir := t.TempDir()
	stale := filepath.Join(dir, "abc-output.mp3")
	testsupport.WriteFile(t, stale, 16, 2*time.Hour)

	held := flock.New(filepath.Join(dir, engine.LockFileName))
	ok, err := held.TryRLock()
	if err != nil || !ok {
		t.Fatalf("take shared lock: ok=%v err=%v", ok, err)
	}
	t.Cleanup(func() { _ = held.Unlock() })

	result := CleanStale(context.Background(), dir, time.Hour, logging.NewNop())
	if !result.Skipped {
		t.Fatal("expected sweep to be skipped")
	}
	if _, err := os.Stat(stale); err != nil {
		t.Fatal("stale entry should survive a skipped sweep")
	}
}

func TestCleanStaleStopsOnCancelledContext(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "abc-input1"), 16, 2*time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := CleanStale(ctx, dir, time.Hour, logging.NewNop())
	if len(result.Removed) != 0 {
		t.Fatalf("expected nothing removed, got %v", result.Removed)
	}
	if len(result.Errors) == 0 {
		t.Fatal("expected context error to be reported")
	}
}

func TestListEntries(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(dir, "a-input1"), 10, 0)
	testsupport.WriteFile(t, filepath.Join(dir, "a-input2"), 20, 0)
	testsupport.WriteFile(t, filepath.Join(dir, engine.LockFileName), 1, 0)

	entries, err := ListEntries(dir)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	var total int64
	for _, e := range entries {
		total += e.Size
	}
	if total != 30 {
		t.Fatalf("unexpected total size %d", total)
	}

	missing, err := ListEntries(filepath.Join(dir, "nope"))
	if err != nil || missing != nil {
		t.Fatalf("missing dir should yield nil, nil; got %v %v", missing, err)
	}
}

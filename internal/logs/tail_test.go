package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"mixdown/internal/logs"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mixdown.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestLastReturnsTrailingLines(t *testing.T) {
	content := "a\nb\nc\n"
	path := writeLog(t, content)

	lines, offset, err := logs.Last(path, 2, nil)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if len(lines) != 2 || lines[0] != "b" || lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
	if offset != int64(len(content)) {
		t.Fatalf("offset = %d, want %d", offset, len(content))
	}
}

func TestLastAppliesFilter(t *testing.T) {
	path := writeLog(t, "job=1 start\njob=2 start\njob=1 done\n")

	lines, _, err := logs.Last(path, 10, logs.Contains("job=1"))
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if len(lines) != 2 || lines[0] != "job=1 start" || lines[1] != "job=1 done" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
}

func TestLastMissingFile(t *testing.T) {
	lines, offset, err := logs.Last(filepath.Join(t.TempDir(), "absent.log"), 5, nil)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if len(lines) != 0 || offset != 0 {
		t.Fatalf("expected empty result, got %#v at %d", lines, offset)
	}
}

func TestLastRejectsDirectory(t *testing.T) {
	if _, _, err := logs.Last(t.TempDir(), 5, nil); err == nil {
		t.Fatal("expected error for directory")
	}
}

func TestContainsWithoutNeedlesKeepsAll(t *testing.T) {
	if logs.Contains("", "  ") != nil {
		t.Fatal("expected nil filter")
	}
}

func TestFollowEmitsAppendedLines(t *testing.T) {
	path := writeLog(t, "old\n")
	_, offset, err := logs.Last(path, 0, nil)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}

	var (
		mu  sync.Mutex
		got []string
	)
	seen := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- logs.Follow(ctx, path, offset, 10*time.Millisecond, nil, func(line string) {
			mu.Lock()
			got = append(got, line)
			if len(got) == 1 {
				close(seen)
			}
			mu.Unlock()
		})
	}()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	if _, err := f.WriteString("new\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	_ = f.Close()

	select {
	case <-seen:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for appended line")
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Follow: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != "new" {
		t.Fatalf("unexpected lines: %#v", got)
	}
}

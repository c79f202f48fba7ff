package engine_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"mixdown/internal/engine"
)

type stubExecutor struct {
	calls  [][]string
	dirs   []string
	output []byte
	err    error
}

func (s *stubExecutor) Run(_ context.Context, dir, binary string, args []string) ([]byte, error) {
	s.calls = append(s.calls, append([]string{binary}, args...))
	s.dirs = append(s.dirs, dir)
	if len(args) > 0 && args[len(args)-1] == "-version" {
		return []byte("ffmpeg version 7.1 Copyright (c) 2000-2024\nbuilt with gcc"), nil
	}
	return s.output, s.err
}

func newLoadedEngine(t *testing.T, exec *stubExecutor) *engine.FFmpeg {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "workspace")
	eng, err := engine.NewFFmpeg("ffmpeg", dir, engine.WithExecutor(exec))
	if err != nil {
		t.Fatalf("NewFFmpeg: %v", err)
	}
	if err := eng.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func TestLoadPreparesWorkspace(t *testing.T) {
	exec := &stubExecutor{}
	eng := newLoadedEngine(t, exec)

	if info, err := os.Stat(eng.Dir()); err != nil || !info.IsDir() {
		t.Fatalf("expected workspace directory, err=%v", err)
	}
	if eng.Version() != "ffmpeg version 7.1 Copyright (c) 2000-2024" {
		t.Fatalf("unexpected version: %q", eng.Version())
	}
	if err := eng.Load(context.Background()); err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if len(exec.calls) != 1 {
		t.Fatalf("expected a single version probe, got %d", len(exec.calls))
	}
}

func TestLoadFailsWhenBinaryFails(t *testing.T) {
	exec := failingVersion{}
	eng, err := engine.NewFFmpeg("ffmpeg", t.TempDir(), engine.WithExecutor(exec))
	if err != nil {
		t.Fatalf("NewFFmpeg: %v", err)
	}
	if err := eng.Load(context.Background()); err == nil {
		t.Fatal("expected load error")
	}
	if err := eng.WriteFile(context.Background(), "a", []byte("x")); !errors.Is(err, engine.ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
}

type failingVersion struct{}

func (failingVersion) Run(context.Context, string, string, []string) ([]byte, error) {
	return []byte("not found"), errors.New("exit status 127")
}

func TestLoadRefusesSweptWorkspace(t *testing.T) {
	dir := t.TempDir()
	sweeper := flock.New(filepath.Join(dir, engine.LockFileName))
	ok, err := sweeper.TryLock()
	if err != nil || !ok {
		t.Fatalf("take exclusive lock: ok=%v err=%v", ok, err)
	}
	defer sweeper.Unlock()

	eng, err := engine.NewFFmpeg("ffmpeg", dir, engine.WithExecutor(&stubExecutor{}))
	if err != nil {
		t.Fatalf("NewFFmpeg: %v", err)
	}
	if err := eng.Load(context.Background()); err == nil {
		t.Fatal("expected lock conflict")
	}
}

func TestEntryLifecycle(t *testing.T) {
	eng := newLoadedEngine(t, &stubExecutor{})
	ctx := context.Background()

	if err := eng.WriteFile(ctx, "job-input1", []byte("abc")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := eng.WriteFile(ctx, "job-input1", []byte("xyz")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	data, err := eng.ReadFile(ctx, "job-input1")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "xyz" {
		t.Fatalf("unexpected content: %q", data)
	}
	if err := eng.DeleteFile(ctx, "job-input1"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if err := eng.DeleteFile(ctx, "job-input1"); err != nil {
		t.Fatalf("deleting a missing entry should succeed: %v", err)
	}
	if _, err := eng.ReadFile(ctx, "job-input1"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist after delete, got %v", err)
	}
}

func TestEntryNamesAreConfined(t *testing.T) {
	eng := newLoadedEngine(t, &stubExecutor{})
	for _, name := range []string{"", "..", "../escape", "a/b", engine.LockFileName} {
		if err := eng.WriteFile(context.Background(), name, nil); err == nil {
			t.Fatalf("expected %q to be rejected", name)
		}
	}
}

func TestExecRunsInWorkspace(t *testing.T) {
	exec := &stubExecutor{}
	eng := newLoadedEngine(t, exec)

	args := []string{"-i", "in", "-ac", "1", "-y", "out.wav"}
	if err := eng.Exec(context.Background(), args); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	last := exec.calls[len(exec.calls)-1]
	want := append([]string{"ffmpeg", "-hide_banner", "-loglevel", "error", "-nostdin"}, args...)
	if !reflect.DeepEqual(last, want) {
		t.Fatalf("unexpected argv:\n got %v\nwant %v", last, want)
	}
	if exec.dirs[len(exec.dirs)-1] != eng.Dir() {
		t.Fatalf("expected exec in workspace, got %q", exec.dirs[len(exec.dirs)-1])
	}

	exec.err = errors.New("exit status 1")
	exec.output = []byte("Invalid data found when processing input\n")
	err := eng.Exec(context.Background(), args)
	if err == nil {
		t.Fatal("expected exec error")
	}
	if want := "Invalid data found when processing input"; !strings.Contains(err.Error(), want) {
		t.Fatalf("expected ffmpeg stderr in error, got %v", err)
	}
}

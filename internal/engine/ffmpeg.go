package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"

	"mixdown/internal/fileutil"
	"mixdown/internal/logging"
)

// Option configures the ffmpeg engine.
type Option func(*FFmpeg)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(f *FFmpeg) {
		if exec != nil {
			f.exec = exec
		}
	}
}

// WithLogger attaches a logger to the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(f *FFmpeg) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// FFmpeg is an Engine backed by a native ffmpeg binary and a workspace
// directory.
type FFmpeg struct {
	binary string
	dir    string
	exec   Executor
	logger *slog.Logger

	mu      sync.RWMutex
	lock    *flock.Flock
	version string
	loaded  bool
}

// NewFFmpeg constructs an unloaded engine rooted at dir.
func NewFFmpeg(binary, dir string, opts ...Option) (*FFmpeg, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("engine workspace directory required")
	}
	f := &FFmpeg{
		binary: binary,
		dir:    dir,
		exec:   commandExecutor{},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = logging.NewComponentLogger(f.logger, "engine")
	return f, nil
}

// Dir returns the workspace directory.
func (f *FFmpeg) Dir() string { return f.dir }

// Version returns the first line of `ffmpeg -version` once loaded.
func (f *FFmpeg) Version() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.version
}

// Load verifies the binary runs, prepares the workspace and takes a shared
// lock on it. Loading an already loaded engine is a no-op.
func (f *FFmpeg) Load(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loaded {
		return nil
	}

	output, err := f.exec.Run(ctx, "", f.binary, []string{"-hide_banner", "-version"})
	if err != nil {
		return fmt.Errorf("probe %s: %w: %s", f.binary, err, strings.TrimSpace(string(output)))
	}
	version, _, _ := strings.Cut(strings.TrimSpace(string(output)), "\n")

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}

	lock := flock.New(filepath.Join(f.dir, LockFileName))
	ok, err := lock.TryRLock()
	if err != nil {
		return fmt.Errorf("lock workspace: %w", err)
	}
	if !ok {
		return fmt.Errorf("workspace %s is locked by a sweep in progress", f.dir)
	}

	f.lock = lock
	f.version = strings.TrimSpace(version)
	f.loaded = true
	f.logger.Info("transcoding engine loaded",
		logging.String(logging.FieldEventType, "engine_loaded"),
		logging.String("binary", f.binary),
		logging.String("version", f.version),
		logging.String("workspace", f.dir),
	)
	return nil
}

// Close releases the workspace lock. The engine must be loaded again before reuse.
func (f *FFmpeg) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.loaded {
		return nil
	}
	f.loaded = false
	if f.lock != nil {
		if err := f.lock.Unlock(); err != nil {
			return fmt.Errorf("release workspace lock: %w", err)
		}
	}
	return nil
}

// WriteFile stores data under name, replacing any existing entry.
func (f *FFmpeg) WriteFile(ctx context.Context, name string, data []byte) error {
	path, err := f.entryPath(ctx, name)
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(path, data, 0o644)
}

// Exec runs ffmpeg with args inside the workspace directory.
func (f *FFmpeg) Exec(ctx context.Context, args []string) error {
	if err := f.ready(ctx); err != nil {
		return err
	}
	full := make([]string, 0, len(args)+5)
	full = append(full, "-hide_banner", "-loglevel", "error", "-nostdin")
	full = append(full, args...)

	f.logger.Debug("ffmpeg exec", logging.String("args", strings.Join(args, " ")))
	output, err := f.exec.Run(ctx, f.dir, f.binary, full)
	if err != nil {
		detail := strings.TrimSpace(string(output))
		if detail == "" {
			return fmt.Errorf("ffmpeg: %w", err)
		}
		return fmt.Errorf("ffmpeg: %w: %s", err, detail)
	}
	return nil
}

// ReadFile returns a copy of the entry's bytes.
func (f *FFmpeg) ReadFile(ctx context.Context, name string) ([]byte, error) {
	path, err := f.entryPath(ctx, name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// DeleteFile removes the entry. Deleting an entry that does not exist succeeds.
func (f *FFmpeg) DeleteFile(ctx context.Context, name string) error {
	path, err := f.entryPath(ctx, name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (f *FFmpeg) entryPath(ctx context.Context, name string) (string, error) {
	if err := f.ready(ctx); err != nil {
		return "", err
	}
	if err := ValidateEntryName(name); err != nil {
		return "", err
	}
	return filepath.Join(f.dir, name), nil
}

func (f *FFmpeg) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.loaded {
		return ErrNotLoaded
	}
	return nil
}

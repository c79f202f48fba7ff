package staging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"mixdown/internal/engine"
	"mixdown/internal/logging"
)

// CleanStaleResult contains the outcome of a workspace sweep.
type CleanStaleResult struct {
	Removed []string
	Errors  []CleanupError
	// Skipped is set when a live engine held the workspace lock.
	Skipped bool
}

// CleanupError pairs a workspace path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes workspace files older than maxAge. It does nothing
// while any engine has the workspace loaded.
func CleanStale(ctx context.Context, workspaceDir string, maxAge time.Duration, logger *slog.Logger) CleanStaleResult {
	result := CleanStaleResult{}
	if logger == nil {
		logger = logging.NewNop()
	}

	workspaceDir = strings.TrimSpace(workspaceDir)
	if workspaceDir == "" {
		return result
	}
	if _, err := os.Stat(workspaceDir); err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: workspaceDir, Error: err})
		}
		return result
	}

	lock := flock.New(filepath.Join(workspaceDir, engine.LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: lock.Path(), Error: fmt.Errorf("lock workspace: %w", err)})
		return result
	}
	if !locked {
		result.Skipped = true
		logger.Info("workspace in use, skipping sweep",
			logging.String("path", workspaceDir),
			logging.String(logging.FieldEventType, "workspace_sweep_skipped"),
		)
		return result
	}
	defer func() { _ = lock.Unlock() }()

	entries, err := os.ReadDir(workspaceDir)
	if err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: workspaceDir, Error: err})
		return result
	}

	cutoff := time.Now().Add(-maxAge)

	for _, entry := range entries {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, CleanupError{Path: workspaceDir, Error: ctx.Err()})
			return result
		}
		if entry.Name() == engine.LockFileName {
			continue
		}

		entryPath := filepath.Join(workspaceDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: entryPath, Error: err})
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.RemoveAll(entryPath); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: entryPath, Error: err})
			logger.Warn("failed to remove stale workspace entry",
				logging.String("path", entryPath),
				logging.Error(err),
				logging.String(logging.FieldEventType, "workspace_sweep_failed"),
				logging.String(logging.FieldErrorHint, "check workspace_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
			continue
		}
		result.Removed = append(result.Removed, entryPath)
		logger.Info("removed stale workspace entry",
			logging.String("path", entryPath),
			logging.Duration("age", time.Since(info.ModTime())),
			logging.String(logging.FieldEventType, "workspace_sweep"),
		)
	}

	return result
}

// EntryInfo contains metadata about a workspace entry.
type EntryInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

// ListEntries returns the workspace entries with their metadata, excluding
// the lock file.
func ListEntries(workspaceDir string) ([]EntryInfo, error) {
	workspaceDir = strings.TrimSpace(workspaceDir)
	if workspaceDir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(workspaceDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []EntryInfo
	for _, entry := range entries {
		if entry.Name() == engine.LockFileName {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, EntryInfo{
			Name:    entry.Name(),
			Path:    filepath.Join(workspaceDir, entry.Name()),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}
	return out, nil
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Engine is the capability set the combiner depends on. Entry names are
// plain file names inside the engine workspace.
type Engine interface {
	Load(ctx context.Context) error
	WriteFile(ctx context.Context, name string, data []byte) error
	Exec(ctx context.Context, args []string) error
	ReadFile(ctx context.Context, name string) ([]byte, error)
	DeleteFile(ctx context.Context, name string) error
}

// ErrNotLoaded is returned by entry operations issued before Load succeeded.
var ErrNotLoaded = errors.New("engine not loaded")

// LockFileName is the advisory lock held by every loaded engine on its
// workspace. The stale-entry sweeper only runs while nobody holds it.
const LockFileName = ".engine.lock"

// ValidateEntryName rejects names that would escape the workspace.
func ValidateEntryName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return errors.New("entry name required")
	case name == "." || name == "..":
		return fmt.Errorf("invalid entry name %q", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("entry name %q must not contain path separators", name)
	case name == LockFileName:
		return fmt.Errorf("entry name %q is reserved", name)
	}
	return nil
}

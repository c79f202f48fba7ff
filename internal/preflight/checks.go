package preflight

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"mixdown/internal/config"
	"mixdown/internal/deps"
)

const encoderCheckTimeout = 10 * time.Second

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckEncoder verifies that the configured ffmpeg can produce the
// configured output codec.
func CheckEncoder(ctx context.Context, cfg *config.Config) Result {
	name := "Encoder " + cfg.Mix.Codec
	checkCtx, cancel := context.WithTimeout(ctx, encoderCheckTimeout)
	defer cancel()

	status := deps.CheckEncoder(checkCtx, cfg.Engine.FFmpegBinary, cfg.Mix.Codec)
	if !status.Available {
		return Result{Name: name, Detail: status.Detail}
	}
	return Result{Name: name, Passed: true, Detail: "available"}
}

// CheckSystemDeps evaluates all binary dependencies for the given config.
// Both the serve command and the CLI deps command use this to avoid
// duplicating the requirements list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(deps.Requirements(cfg))
}

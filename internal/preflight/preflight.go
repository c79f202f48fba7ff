package preflight

import (
	"context"

	"mixdown/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// RunAll executes the directory and encoder checks for the given config.
// Binary presence is reported separately by CheckSystemDeps.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Workspace directory", cfg.Paths.WorkspaceDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}
	results = append(results, CheckEncoder(ctx, cfg))
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

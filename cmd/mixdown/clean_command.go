package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mixdown/internal/history"
	"mixdown/internal/staging"
)

type cleanReport struct {
	WorkspaceDir  string   `json:"workspace_dir"`
	Skipped       bool     `json:"skipped"`
	Removed       []string `json:"removed"`
	Errors        []string `json:"errors,omitempty"`
	JobsPruned    int64    `json:"jobs_pruned"`
	HistoryCutoff string   `json:"history_cutoff,omitempty"`
}

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var maxAge time.Duration
	var historyAge time.Duration
	var list bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove stale workspace entries and old history",
		Long: `Remove workspace entries older than --max-age that a crashed process left
behind. The sweep is skipped while a running mixdown holds the workspace.
With --history-age, finished jobs older than that age are pruned as well.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			out := cmd.OutOrStdout()

			if list {
				entries, err := staging.ListEntries(cfg.Paths.WorkspaceDir)
				if err != nil {
					return fmt.Errorf("list workspace: %w", err)
				}
				if ctx.JSONMode() {
					if entries == nil {
						entries = []staging.EntryInfo{}
					}
					return writeJSON(cmd, entries)
				}
				if len(entries) == 0 {
					fmt.Fprintln(out, "Workspace is empty")
					return nil
				}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{
						e.Name,
						formatBytes(e.Size),
						time.Since(e.ModTime).Round(time.Second).String(),
					})
				}
				fmt.Fprintln(out, renderTable([]string{"Entry", "Size", "Age"}, rows,
					[]columnAlignment{alignLeft, alignRight, alignRight}))
				return nil
			}

			age := maxAge
			if age <= 0 {
				age = cfg.WorkspaceMaxAge()
			}
			result := staging.CleanStale(cmd.Context(), cfg.Paths.WorkspaceDir, age, logger)
			report := cleanReport{
				WorkspaceDir: cfg.Paths.WorkspaceDir,
				Skipped:      result.Skipped,
				Removed:      result.Removed,
			}
			if report.Removed == nil {
				report.Removed = []string{}
			}
			for _, cerr := range result.Errors {
				report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", cerr.Path, cerr.Error))
			}

			if historyAge > 0 {
				store, err := history.Open(cfg)
				if err != nil {
					return fmt.Errorf("open history: %w", err)
				}
				cutoff := time.Now().Add(-historyAge)
				pruned, err := store.Prune(cmd.Context(), cutoff)
				_ = store.Close()
				if err != nil {
					return fmt.Errorf("prune history: %w", err)
				}
				report.JobsPruned = pruned
				report.HistoryCutoff = cutoff.UTC().Format(time.RFC3339)
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, report)
			}
			switch {
			case report.Skipped:
				fmt.Fprintln(out, "Workspace in use by a running mixdown; sweep skipped")
			case len(report.Removed) == 0:
				fmt.Fprintln(out, "No stale workspace entries")
			default:
				fmt.Fprintf(out, "Removed %d stale workspace entries\n", len(report.Removed))
			}
			for _, e := range report.Errors {
				fmt.Fprintf(out, "  error: %s\n", e)
			}
			if historyAge > 0 {
				fmt.Fprintf(out, "Pruned %d jobs finished before %s\n", report.JobsPruned, report.HistoryCutoff)
			}
			if len(report.Errors) > 0 {
				return fmt.Errorf("%d workspace entries could not be removed", len(report.Errors))
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "Remove entries older than this (defaults to engine.workspace_max_age)")
	cmd.Flags().DurationVar(&historyAge, "history-age", 0, "Also prune finished jobs older than this")
	cmd.Flags().BoolVar(&list, "list", false, "List workspace entries instead of removing them")
	return cmd
}

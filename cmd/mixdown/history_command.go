package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mixdown/internal/api"
	"mixdown/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var statusFilter []string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent mix jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}

			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			statuses := make([]history.Status, 0, len(statusFilter))
			for _, s := range statusFilter {
				if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
					statuses = append(statuses, history.Status(s))
				}
			}
			jobs, err := store.List(cmd.Context(), limit, statuses...)
			if err != nil {
				return fmt.Errorf("list history: %w", err)
			}

			if ctx.JSONMode() {
				dtos := api.FromJobs(jobs)
				if dtos == nil {
					dtos = []api.Job{}
				}
				return writeJSON(cmd, api.JobListResponse{Jobs: dtos})
			}

			out := cmd.OutOrStdout()
			if len(jobs) == 0 {
				fmt.Fprintln(out, "No jobs recorded")
				return nil
			}
			fmt.Fprintln(out, renderJobTable(jobs, shouldColorize(out)))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of jobs to show")
	cmd.Flags().StringSliceVar(&statusFilter, "status", nil, "Only show jobs with these statuses (running, completed, failed)")
	return cmd
}

func renderJobTable(jobs []*history.Job, colorize bool) string {
	headers := []string{"Job", "Created", "Status", "Mode", "Duration", "Size", "Elapsed", "Error"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft}
	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		duration := ""
		if job.Duration > 0 {
			duration = fmt.Sprintf("%.1fs", job.Duration)
		}
		size := ""
		if job.OutputBytes > 0 {
			size = formatBytes(job.OutputBytes)
		}
		elapsed := ""
		if d := job.Elapsed(); d > 0 {
			elapsed = d.Round(10 * time.Millisecond).String()
		}
		errText := ""
		if job.ErrorKind != "" {
			errText = job.ErrorKind
		}
		rows = append(rows, []string{
			shortID(job.ID),
			job.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			jobStatusLabel(job.Status, colorize),
			job.Mode,
			duration,
			size,
			elapsed,
			errText,
		})
	}
	return renderTable(headers, rows, aligns)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

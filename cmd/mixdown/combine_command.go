package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mixdown/internal/combiner"
	"mixdown/internal/fileutil"
	"mixdown/internal/services"
	"mixdown/internal/workflow"
)

type combineSummary struct {
	JobID           string  `json:"job_id"`
	Output          string  `json:"output"`
	Bytes           int     `json:"bytes"`
	DurationA       float64 `json:"duration_a"`
	DurationB       float64 `json:"duration_b"`
	Duration        float64 `json:"duration"`
	CleanupWarnings int     `json:"cleanup_warnings"`
	ElapsedMillis   int64   `json:"elapsed_ms"`
}

func newCombineCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	var mode string
	var bitrate string

	cmd := &cobra.Command{
		Use:   "combine <source-a> <source-b>",
		Short: "Combine two audio sources into one stereo file",
		Long: `Combine two audio sources (URLs or local paths) into one stereo file.

Both inputs are trimmed to the shorter duration by dropping the leading
part of the longer one, downmixed to mono, and merged so source A is the
left channel and source B the right (or summed with --mode sum).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			effective := *cfg
			if m := strings.ToLower(strings.TrimSpace(mode)); m != "" {
				effective.Mix.Mode = m
			}
			if b := strings.ToLower(strings.TrimSpace(bitrate)); b != "" {
				effective.Mix.Bitrate = b
			}
			if err := effective.Validate(); err != nil {
				return err
			}
			settings := settingsFromConfig(&effective)

			p, err := buildPipeline(cfg, logger, pipelineOptions{settings: settings, localFiles: true})
			if err != nil {
				return err
			}
			defer p.Close()

			out, err := p.runner.Run(cmd.Context(), workflow.Request{SourceA: args[0], SourceB: args[1]})
			if err != nil {
				if out.JobID != "" {
					return fmt.Errorf("job %s: %w", out.JobID, err)
				}
				return err
			}

			res := out.Result
			target := strings.TrimSpace(outputPath)
			if target == "" {
				target = fmt.Sprintf("mixdown-%s.%s", out.JobID, combiner.Extension(p.settings.Codec))
			}
			if target == "-" {
				_, err := cmd.OutOrStdout().Write(res.Audio)
				return err
			}
			if err := fileutil.WriteFileAtomic(target, res.Audio, 0o644); err != nil {
				return fmt.Errorf("write output: %w", err)
			}

			summary := combineSummary{
				JobID:           out.JobID,
				Output:          target,
				Bytes:           len(res.Audio),
				DurationA:       res.DurationA,
				DurationB:       res.DurationB,
				Duration:        res.Duration,
				CleanupWarnings: len(res.Warnings),
				ElapsedMillis:   res.Elapsed.Milliseconds(),
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, summary)
			}

			printCombineSummary(cmd, summary, res.Warnings)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file (\"-\" for stdout)")
	cmd.Flags().StringVar(&mode, "mode", "", "Mix mode: split or sum (defaults to config)")
	cmd.Flags().StringVar(&bitrate, "bitrate", "", "Output bitrate such as 192k (defaults to config)")
	return cmd
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func printCombineSummary(cmd *cobra.Command, summary combineSummary, warnings []services.CleanupWarning) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Wrote %s (%s, %.3fs)\n", summary.Output, formatBytes(int64(summary.Bytes)), summary.Duration)
	fmt.Fprintf(w, "  source A: %.3fs\n", summary.DurationA)
	fmt.Fprintf(w, "  source B: %.3fs\n", summary.DurationB)
	for _, warn := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warn: workspace entry not removed: %s\n", warn.String())
	}
}

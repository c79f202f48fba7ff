package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"mixdown/internal/history"
	"mixdown/internal/services"
)

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"only"}}, []columnAlignment{alignLeft, alignRight})
	if !strings.Contains(out, "only") || !strings.Contains(out, "A") {
		t.Fatalf("unexpected table:\n%s", out)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("expected empty output without headers")
	}
}

func TestJobStatusLabel(t *testing.T) {
	if got := jobStatusLabel(history.StatusFailed, false); got != "Failed" {
		t.Fatalf("unexpected label %q", got)
	}
	colored := jobStatusLabel(history.StatusCompleted, true)
	if !strings.HasPrefix(colored, ansiGreen) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected green label, got %q", colored)
	}
}

func TestRenderStatusLine(t *testing.T) {
	line := renderStatusLine("FFmpeg", statusError, "binary not found", false)
	if !strings.Contains(line, "FFmpeg:") || !strings.Contains(line, "[ERROR] binary not found") {
		t.Fatalf("unexpected line %q", line)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		512:     "512 B",
		2048:    "2.0 KiB",
		5 << 20: "5.0 MiB",
	}
	for in, want := range tests {
		if got := formatBytes(in); got != want {
			t.Fatalf("formatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderSectionHeaderUnderlines(t *testing.T) {
	lines := renderSectionHeader(" Checks ", false)
	if len(lines) != 2 || lines[0] != "Checks" || lines[1] != "======" {
		t.Fatalf("unexpected header %#v", lines)
	}
}

func TestCombineSummaryWarningsGoToCommandStderr(t *testing.T) {
	cmd := &cobra.Command{}
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	summary := combineSummary{Output: "out.mp3", Bytes: 2048, Duration: 6, DurationA: 10, DurationB: 6}
	warnings := []services.CleanupWarning{{Entry: "job-a.in", Err: errors.New("busy")}}
	printCombineSummary(cmd, summary, warnings)

	if !strings.Contains(stdout.String(), "Wrote out.mp3 (2.0 KiB, 6.000s)") {
		t.Fatalf("unexpected stdout %q", stdout.String())
	}
	if strings.Contains(stdout.String(), "warn:") {
		t.Fatalf("warnings leaked to stdout: %q", stdout.String())
	}
	if got := stderr.String(); got != "warn: workspace entry not removed: job-a.in: busy\n" {
		t.Fatalf("unexpected stderr %q", got)
	}
}

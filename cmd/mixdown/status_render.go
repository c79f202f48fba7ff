package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"mixdown/internal/history"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

var statusStyles = map[statusKind]struct{ label, color string }{
	statusInfo:  {"INFO", ansiBlue},
	statusOK:    {"OK", ansiGreen},
	statusWarn:  {"WARN", ansiYellow},
	statusError: {"ERROR", ansiRed},
}

var jobStatusColors = map[history.Status]string{
	history.StatusCompleted: ansiGreen,
	history.StatusFailed:    ansiRed,
	history.StatusRunning:   ansiYellow,
}

var titleCaser = cases.Title(language.Und)

func paint(text, color string, colorize bool) string {
	if !colorize || color == "" {
		return text
	}
	return color + text + ansiReset
}

// renderStatusLine formats "  label:   [KIND] message" for dependency and
// check reports.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style, ok := statusStyles[kind]
	if !ok {
		style = statusStyles[statusInfo]
	}
	badge := "[" + style.label + "]"
	if message != "" {
		badge += " " + message
	}
	return paint(fmt.Sprintf("  %-24s %s", label+":", badge), style.color, colorize)
}

func renderSectionHeader(title string, colorize bool) []string {
	title = strings.TrimSpace(title)
	return []string{
		paint(title, ansiBlue, colorize),
		paint(strings.Repeat("=", len(title)), ansiBlue, colorize),
	}
}

func jobStatusLabel(status history.Status, colorize bool) string {
	return paint(titleCaser.String(string(status)), jobStatusColors[status], colorize)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

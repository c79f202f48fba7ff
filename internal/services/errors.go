package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrFetch      = errors.New("fetch error")
	ErrLoad       = errors.New("engine load error")
	ErrWrite      = errors.New("workspace write error")
	ErrDecode     = errors.New("decode error")
	ErrExec       = errors.New("transcode error")
	ErrRead       = errors.New("workspace read error")
	ErrValidation = errors.New("validation error")
)

// Kind names the pipeline stage an error originated from.
type Kind string

const (
	KindFetch      Kind = "fetch"
	KindLoad       Kind = "load"
	KindWrite      Kind = "write"
	KindDecode     Kind = "decode"
	KindExec       Kind = "exec"
	KindRead       Kind = "read"
	KindValidation Kind = "validation"
	KindUnknown    Kind = "unknown"
)

var kindMarkers = []struct {
	marker error
	kind   Kind
}{
	{ErrFetch, KindFetch},
	{ErrLoad, KindLoad},
	{ErrWrite, KindWrite},
	{ErrDecode, KindDecode},
	{ErrExec, KindExec},
	{ErrRead, KindRead},
	{ErrValidation, KindValidation},
}

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExec
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// KindOf reports the stage kind carried by err. The first matching marker in
// pipeline order wins, so an error wrapped twice keeps its original kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, km := range kindMarkers {
		if errors.Is(err, km.marker) {
			return km.kind
		}
	}
	return KindUnknown
}

// CleanupWarning records a workspace entry that could not be deleted. It is
// reported alongside a result and never replaces the invocation's outcome.
type CleanupWarning struct {
	Entry string
	Err   error
}

func (w CleanupWarning) String() string {
	if w.Err == nil {
		return w.Entry
	}
	return fmt.Sprintf("%s: %v", w.Entry, w.Err)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

package probe

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"strings"

	"mixdown/internal/media/ffprobe"
)

// InspectFunc runs ffprobe against a payload.
type InspectFunc func(ctx context.Context, binary string, src io.Reader) (ffprobe.Result, error)

// FFprobe measures duration by piping the payload through ffprobe.
type FFprobe struct {
	binary  string
	inspect InspectFunc
}

// NewFFprobe constructs an ffprobe-backed prober.
func NewFFprobe(binary string) *FFprobe {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	return &FFprobe{binary: binary, inspect: ffprobe.InspectReader}
}

func (f *FFprobe) Duration(ctx context.Context, data []byte) (float64, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("%w: empty buffer", ErrInvalidDuration)
	}
	result, err := f.inspect(ctx, f.binary, bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	if result.AudioStreamCount() == 0 {
		return 0, fmt.Errorf("ffprobe: no audio stream")
	}
	seconds := result.DurationSeconds()
	if math.IsNaN(seconds) {
		return 0, fmt.Errorf("%w: ffprobe reported %q", ErrInvalidDuration, result.Format.Duration)
	}
	return checkDuration(seconds)
}

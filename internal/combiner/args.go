package combiner

import (
	"math"
	"strconv"
)

const (
	ModeSplit = "split"
	ModeSum   = "sum"
)

// Settings controls the encoding of the combined output.
type Settings struct {
	Mode       string
	Codec      string
	Bitrate    string
	SampleRate int
}

// DefaultSettings returns the channel-preserving 192k MP3 configuration.
func DefaultSettings() Settings {
	return Settings{Mode: ModeSplit, Codec: "libmp3lame", Bitrate: "192k", SampleRate: 44100}
}

// FilterSpec returns the filter graph joining input 0 and input 1 into [mix].
func FilterSpec(mode string) string {
	if mode == ModeSum {
		return "[0:a][1:a]amix=inputs=2:duration=longest[mix]"
	}
	return "[0:a][1:a]amerge=inputs=2[mix]"
}

// TrimArgs builds the normalize step for one input. When own exceeds shorter
// the leading own-shorter seconds are skipped and shorter seconds kept;
// otherwise the input is copied whole. Either way it is downmixed to mono at
// sampleRate.
func TrimArgs(in, out string, own, shorter float64, sampleRate int) []string {
	args := []string{"-i", in}
	if own > shorter {
		args = append(args, "-ss", formatSeconds(own-shorter), "-t", formatSeconds(shorter))
	}
	args = append(args, "-ac", "1")
	if sampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(sampleRate))
	}
	return append(args, "-y", out)
}

// MergeArgs builds the merge-and-encode step.
func MergeArgs(first, second, out string, s Settings) []string {
	return []string{
		"-i", first,
		"-i", second,
		"-filter_complex", FilterSpec(s.Mode),
		"-map", "[mix]",
		"-ac", "2",
		"-c:a", s.Codec,
		"-b:a", s.Bitrate,
		"-y", out,
	}
}

// formatSeconds renders seconds with microsecond precision and no trailing zeros.
func formatSeconds(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e6)/1e6, 'f', -1, 64)
}

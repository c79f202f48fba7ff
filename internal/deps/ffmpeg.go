package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"mixdown/internal/config"
)

// Requirements lists the binaries the configuration needs. ffprobe is only
// required when it is the sole probe method.
func Requirements(cfg *config.Config) []Requirement {
	if cfg == nil {
		return nil
	}
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Engine.FFmpegBinary,
			Description: "Transcoding engine that trims, merges and encodes",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Engine.FFprobeBinary,
			Description: "Duration probe for formats the native decoders cannot read",
			Optional:    cfg.Probe.Method != config.ProbeMethodFFprobe,
		},
	}
}

// CheckEncoder reports whether the ffmpeg binary was built with encoder.
func CheckEncoder(ctx context.Context, binary, encoder string) Status {
	status := Status{
		Name:        "Encoder " + encoder,
		Command:     binary,
		Description: "Audio codec used for the combined output",
	}
	output, err := exec.CommandContext(ctx, binary, "-hide_banner", "-encoders").Output()
	if err != nil {
		status.Detail = fmt.Sprintf("list encoders: %v", err)
		return status
	}
	if hasEncoder(output, encoder) {
		status.Available = true
		return status
	}
	status.Detail = fmt.Sprintf("ffmpeg built without %s", encoder)
	return status
}

// hasEncoder scans `ffmpeg -encoders` output, whose rows look like
// " A....D libmp3lame           libmp3lame MP3 (MPEG audio layer 3)".
func hasEncoder(listing []byte, encoder string) bool {
	scanner := bufio.NewScanner(bytes.NewReader(listing))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) >= 2 && strings.HasPrefix(fields[0], "A") && fields[1] == encoder {
			return true
		}
	}
	return false
}

package deps

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"mixdown/internal/config"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset", Command: "  ", Optional: true},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for unset command: %q", results[2].Detail)
	}

	missing := MissingRequired(results)
	if len(missing) != 1 || missing[0].Name != "Missing" {
		t.Fatalf("unexpected missing set: %#v", missing)
	}
}

func TestRequirementsFFprobeOptionality(t *testing.T) {
	cfg := config.Default()
	reqs := Requirements(&cfg)
	if len(reqs) != 2 || reqs[0].Optional || !reqs[1].Optional {
		t.Fatalf("unexpected requirements for auto probing: %#v", reqs)
	}

	cfg.Probe.Method = config.ProbeMethodFFprobe
	reqs = Requirements(&cfg)
	if reqs[1].Optional {
		t.Fatal("ffprobe must be required when it is the only probe")
	}
}

func TestHasEncoder(t *testing.T) {
	listing := []byte(`Encoders:
 V..... = Video
 ------
 V....D libx264              libx264 H.264 / AVC / MPEG-4 AVC
 A....D libmp3lame           libmp3lame MP3 (MPEG audio layer 3) (codec mp3)
 A....D aac                  AAC (Advanced Audio Coding)
`)
	if !hasEncoder(listing, "libmp3lame") || !hasEncoder(listing, "aac") {
		t.Fatal("expected audio encoders to be found")
	}
	if hasEncoder(listing, "libx264") || hasEncoder(listing, "libopus") {
		t.Fatal("video or absent encoders must not match")
	}
}

func TestCheckEncoderWithStub(t *testing.T) {
	binDir := t.TempDir()
	stub := filepath.Join(binDir, "ffmpeg")
	script := []byte("#!/bin/sh\necho ' A....D libmp3lame           libmp3lame MP3'\n")
	if err := os.WriteFile(stub, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	if st := CheckEncoder(context.Background(), stub, "libmp3lame"); !st.Available {
		t.Fatalf("expected encoder available: %#v", st)
	}
	if st := CheckEncoder(context.Background(), stub, "flac"); st.Available || st.Detail == "" {
		t.Fatalf("expected flac to be reported missing: %#v", st)
	}
}

package testsupport

import (
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAV renders a 16-bit PCM sine tone of the requested length and layout.
func WAV(t testing.TB, seconds float64, sampleRate, channels int) []byte {
	t.Helper()
	return WAVAfterSilence(t, 0, seconds, sampleRate, channels)
}

// WAVAfterSilence renders silence seconds of digital silence followed by
// tone seconds of a 440 Hz sine on every channel.
func WAVAfterSilence(t testing.TB, silence, tone float64, sampleRate, channels int) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}

	quiet := int(silence * float64(sampleRate))
	frames := quiet + int(tone*float64(sampleRate))
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           make([]int, frames*channels),
		SourceBitDepth: 16,
	}
	for i := quiet; i < frames; i++ {
		sample := int(8000 * math.Sin(2*math.Pi*440*float64(i-quiet)/float64(sampleRate)))
		for ch := range channels {
			buf.Data[i*channels+ch] = sample
		}
	}

	enc := wav.NewEncoder(f, sampleRate, 16, channels, 1)
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("finalize wav: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close wav: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read wav: %v", err)
	}
	return data
}

// RequireBinary skips the test when name is not on PATH and returns its path.
func RequireBinary(t testing.TB, name string) string {
	t.Helper()
	path, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
	return path
}

package probe

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
)

// Container identifies a sniffed audio container.
type Container string

const (
	ContainerUnknown Container = ""
	ContainerWAV     Container = "wav"
	ContainerAIFF    Container = "aiff"
	ContainerOgg     Container = "ogg"
	ContainerMP3     Container = "mp3"
)

// Sniff inspects the leading bytes of data.
func Sniff(data []byte) Container {
	switch {
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WAVE")):
		return ContainerWAV
	case len(data) >= 12 && bytes.Equal(data[:4], []byte("FORM")) &&
		(bytes.Equal(data[8:12], []byte("AIFF")) || bytes.Equal(data[8:12], []byte("AIFC"))):
		return ContainerAIFF
	case bytes.HasPrefix(data, []byte("OggS")):
		return ContainerOgg
	case bytes.HasPrefix(data, []byte("ID3")):
		return ContainerMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return ContainerMP3
	}
	return ContainerUnknown
}

// Native decodes container headers in process.
type Native struct{}

func (Native) Duration(ctx context.Context, data []byte) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var (
		seconds float64
		err     error
	)
	switch container := Sniff(data); container {
	case ContainerWAV:
		seconds, err = wavDuration(data)
	case ContainerAIFF:
		seconds, err = aiffDuration(data)
	case ContainerOgg:
		seconds, err = oggDuration(data)
	case ContainerMP3:
		seconds, err = mp3Duration(data)
	default:
		return 0, ErrUnsupportedFormat
	}
	if err != nil {
		return 0, err
	}
	return checkDuration(seconds)
}

// Format returns the sample layout of a WAV or AIFF payload.
func Format(data []byte) (*audio.Format, error) {
	switch Sniff(data) {
	case ContainerWAV:
		dec := wav.NewDecoder(bytes.NewReader(data))
		dec.ReadInfo()
		if err := dec.Err(); err != nil {
			return nil, fmt.Errorf("wav: %w", err)
		}
		return dec.Format(), nil
	case ContainerAIFF:
		dec := aiff.NewDecoder(bytes.NewReader(data))
		dec.ReadInfo()
		if err := dec.Err(); err != nil {
			return nil, fmt.Errorf("aiff: %w", err)
		}
		return dec.Format(), nil
	}
	return nil, ErrUnsupportedFormat
}

func wavDuration(data []byte) (float64, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	dec.ReadInfo()
	if err := dec.Err(); err != nil {
		return 0, fmt.Errorf("wav: %w", err)
	}
	if dec.NumChans < 1 || dec.BitDepth < 8 || dec.SampleRate == 0 {
		return 0, fmt.Errorf("wav: invalid file")
	}
	// The RIFF size also counts fmt and LIST chunks, so only the data chunk
	// is measured.
	if err := dec.FwdToPCM(); err != nil {
		return 0, fmt.Errorf("wav: %w", err)
	}
	if err := dec.Err(); err != nil {
		return 0, fmt.Errorf("wav: %w", err)
	}
	frameBytes := int(dec.NumChans) * int(dec.BitDepth) / 8
	return float64(dec.PCMLen()) / float64(frameBytes) / float64(dec.SampleRate), nil
}

func aiffDuration(data []byte) (float64, error) {
	dec := aiff.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return 0, fmt.Errorf("aiff: invalid file")
	}
	d, err := dec.Duration()
	if err != nil {
		return 0, fmt.Errorf("aiff: %w", err)
	}
	return d.Seconds(), nil
}

func oggDuration(data []byte) (float64, error) {
	samples, format, err := oggvorbis.GetLength(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("ogg: %w", err)
	}
	if format == nil || format.SampleRate <= 0 {
		return 0, fmt.Errorf("ogg: missing sample rate")
	}
	return float64(samples) / float64(format.SampleRate), nil
}

// go-mp3 always decodes to 16-bit stereo, so one frame is four bytes.
const mp3BytesPerFrame = 4

func mp3Duration(data []byte) (float64, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("mp3: %w", err)
	}
	length := dec.Length()
	if length < 0 {
		return 0, fmt.Errorf("mp3: length unavailable")
	}
	if dec.SampleRate() <= 0 {
		return 0, fmt.Errorf("mp3: missing sample rate")
	}
	return float64(length) / mp3BytesPerFrame / float64(dec.SampleRate()), nil
}

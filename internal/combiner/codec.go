package combiner

import "strings"

type container struct {
	ext         string
	contentType string
}

var containers = map[string]container{
	"libmp3lame": {ext: "mp3", contentType: "audio/mpeg"},
	"mp3":        {ext: "mp3", contentType: "audio/mpeg"},
	"libvorbis":  {ext: "ogg", contentType: "audio/ogg"},
	"libopus":    {ext: "ogg", contentType: "audio/ogg"},
	"aac":        {ext: "m4a", contentType: "audio/mp4"},
	"flac":       {ext: "flac", contentType: "audio/flac"},
}

func lookupContainer(codec string) container {
	if c, ok := containers[strings.ToLower(strings.TrimSpace(codec))]; ok {
		return c
	}
	return containers["libmp3lame"]
}

// Extension returns the output file extension for codec.
func Extension(codec string) string { return lookupContainer(codec).ext }

// ContentType returns the MIME type of output encoded with codec.
func ContentType(codec string) string { return lookupContainer(codec).contentType }

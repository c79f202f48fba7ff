package config

const (
	defaultWorkspaceDir    = "~/.local/share/mixdown/workspace"
	defaultLogDir          = "~/.local/share/mixdown/logs"
	defaultAPIBind         = "127.0.0.1:7490"
	defaultFFmpegBinary    = "ffmpeg"
	defaultFFprobeBinary   = "ffprobe"
	defaultLoadTimeout     = 30
	defaultWorkspaceMaxAge = 24
	defaultMixCodec        = "libmp3lame"
	defaultMixBitrate      = "192k"
	defaultMixSampleRate   = 44100
	defaultProbeCacheSize  = 128
	defaultFetchTimeout    = 60
	defaultFetchMaxBytes   = 100 << 20
	defaultFetchUserAgent  = "mixdown/dev"
	defaultNtfyTimeout     = 10
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Mix modes.
const (
	MixModeSplit = "split"
	MixModeSum   = "sum"
)

// Probe methods.
const (
	ProbeMethodNative  = "native"
	ProbeMethodFFprobe = "ffprobe"
	ProbeMethodAuto    = "auto"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkspaceDir: defaultWorkspaceDir,
			LogDir:       defaultLogDir,
			APIBind:      defaultAPIBind,
		},
		Engine: Engine{
			FFmpegBinary:    defaultFFmpegBinary,
			FFprobeBinary:   defaultFFprobeBinary,
			LoadTimeout:     defaultLoadTimeout,
			WorkspaceMaxAge: defaultWorkspaceMaxAge,
		},
		Mix: Mix{
			Mode:       MixModeSplit,
			Codec:      defaultMixCodec,
			Bitrate:    defaultMixBitrate,
			SampleRate: defaultMixSampleRate,
		},
		Probe: Probe{
			Method:    ProbeMethodAuto,
			CacheSize: defaultProbeCacheSize,
		},
		Fetch: Fetch{
			Timeout:   defaultFetchTimeout,
			MaxBytes:  defaultFetchMaxBytes,
			UserAgent: defaultFetchUserAgent,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

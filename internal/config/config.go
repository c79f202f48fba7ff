package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	WorkspaceDir string `toml:"workspace_dir"`
	LogDir       string `toml:"log_dir"`
	APIBind      string `toml:"api_bind"`
	APIToken     string `toml:"api_token"`
}

// Engine contains configuration for the ffmpeg transcoding engine.
type Engine struct {
	FFmpegBinary    string `toml:"ffmpeg_binary"`
	FFprobeBinary   string `toml:"ffprobe_binary"`
	LoadTimeout     int    `toml:"load_timeout"`
	WorkspaceMaxAge int    `toml:"workspace_max_age"`
}

// Mix contains the encoding parameters of the combined output.
type Mix struct {
	// Mode selects how the two sources are combined: "split" places source A
	// on the left channel and source B on the right; "sum" mixes both into
	// every channel.
	Mode       string `toml:"mode"`
	Codec      string `toml:"codec"`
	Bitrate    string `toml:"bitrate"`
	SampleRate int    `toml:"sample_rate"`
}

// Probe contains configuration for duration probing.
type Probe struct {
	// Method is "native", "ffprobe", or "auto" (native decoders first,
	// ffprobe for anything they cannot read).
	Method    string `toml:"method"`
	CacheSize int    `toml:"cache_size"`
}

// Fetch contains configuration for retrieving source audio.
type Fetch struct {
	Timeout   int    `toml:"timeout"`
	MaxBytes  int64  `toml:"max_bytes"`
	UserAgent string `toml:"user_agent"`
}

// Notifications contains configuration for ntfy job notifications.
type Notifications struct {
	// NtfyTopic is the full topic URL, e.g. https://ntfy.sh/my-mixes. Empty
	// disables notifications.
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	// NotifySuccess also publishes completed jobs; failures always publish.
	NotifySuccess bool `toml:"notify_success"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for mixdown.
//
// Configuration sections by subsystem:
//   - Paths: workspace and log directories, API bind address and token
//   - Engine: ffmpeg/ffprobe binaries, load timeout, stale workspace age
//   - Mix: mixing mode, codec, bitrate, intermediate sample rate
//   - Probe: duration probe strategy and cache size
//   - Fetch: source download limits
//   - Notifications: ntfy topic for job outcomes
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Engine        Engine        `toml:"engine"`
	Mix           Mix           `toml:"mix"`
	Probe         Probe         `toml:"probe"`
	Fetch         Fetch         `toml:"fetch"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/mixdown/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if os.IsNotExist(err) {
				return "", false, fmt.Errorf("config file %q not found", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path %q is a directory", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mixdown.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the workspace and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkspaceDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HistoryPath returns the SQLite database path holding the job history.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.LogDir, "history.db")
}

// LoadTimeout returns the engine load timeout as a duration.
func (c *Config) LoadTimeout() time.Duration {
	return time.Duration(c.Engine.LoadTimeout) * time.Second
}

// WorkspaceMaxAge returns how old a workspace file must be before it is swept.
func (c *Config) WorkspaceMaxAge() time.Duration {
	return time.Duration(c.Engine.WorkspaceMaxAge) * time.Hour
}

// FetchTimeout returns the per-source download timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.Timeout) * time.Second
}

// NotificationTimeout returns the per-request ntfy timeout.
func (c *Config) NotificationTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeout) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

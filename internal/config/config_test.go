package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"mixdown/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("MIXDOWN_API_TOKEN", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantWorkspace := filepath.Join(tempHome, ".local", "share", "mixdown", "workspace")
	if cfg.Paths.WorkspaceDir != wantWorkspace {
		t.Fatalf("unexpected workspace dir: got %q want %q", cfg.Paths.WorkspaceDir, wantWorkspace)
	}
	if cfg.Paths.APIBind != "127.0.0.1:7490" {
		t.Fatalf("unexpected api bind: %q", cfg.Paths.APIBind)
	}
	if cfg.Mix.Mode != config.MixModeSplit {
		t.Fatalf("expected split mix mode by default, got %q", cfg.Mix.Mode)
	}
	if cfg.Mix.Codec != "libmp3lame" || cfg.Mix.Bitrate != "192k" {
		t.Fatalf("unexpected mix encoding defaults: %q %q", cfg.Mix.Codec, cfg.Mix.Bitrate)
	}
	if cfg.Probe.Method != config.ProbeMethodAuto {
		t.Fatalf("expected auto probe method, got %q", cfg.Probe.Method)
	}
	if cfg.LoadTimeout() != 30*time.Second {
		t.Fatalf("unexpected load timeout: %v", cfg.LoadTimeout())
	}
	if cfg.HistoryPath() != filepath.Join(tempHome, ".local", "share", "mixdown", "logs", "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.HistoryPath())
	}
}

func TestLoadCustomConfigOverrides(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(tempHome, "config.toml")
	payload := `
[paths]
workspace_dir = "~/ws"
log_dir = "~/logs"
api_bind = " 0.0.0.0:9000 "

[mix]
mode = "SUM"
bitrate = "128K"

[probe]
method = "native"
cache_size = 0

[logging]
format = "JSON"
`
	if err := os.WriteFile(configPath, []byte(payload), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution: %q %v", resolved, exists)
	}
	if cfg.Paths.WorkspaceDir != filepath.Join(tempHome, "ws") {
		t.Fatalf("unexpected workspace dir: %q", cfg.Paths.WorkspaceDir)
	}
	if cfg.Paths.APIBind != "0.0.0.0:9000" {
		t.Fatalf("expected trimmed api bind, got %q", cfg.Paths.APIBind)
	}
	if cfg.Mix.Mode != config.MixModeSum {
		t.Fatalf("expected lowercased mode, got %q", cfg.Mix.Mode)
	}
	if cfg.Mix.Bitrate != "128k" {
		t.Fatalf("expected lowercased bitrate, got %q", cfg.Mix.Bitrate)
	}
	if cfg.Probe.CacheSize != 0 {
		t.Fatalf("expected probe cache disabled, got %d", cfg.Probe.CacheSize)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}
}

func TestLoadUsesEnvAPIToken(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("MIXDOWN_API_TOKEN", " secret ")
	t.Chdir(t.TempDir())

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.APIToken != "secret" {
		t.Fatalf("expected token from env, got %q", cfg.Paths.APIToken)
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	_, _, _, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config path")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := map[string]struct {
		mutate func(*config.Config)
		want   string
	}{
		"unknown mix mode": {
			mutate: func(c *config.Config) { c.Mix.Mode = "average" },
			want:   "mix.mode",
		},
		"bad bitrate": {
			mutate: func(c *config.Config) { c.Mix.Bitrate = "loud" },
			want:   "mix.bitrate",
		},
		"sample rate": {
			mutate: func(c *config.Config) { c.Mix.SampleRate = 100 },
			want:   "mix.sample_rate",
		},
		"probe method": {
			mutate: func(c *config.Config) { c.Probe.Method = "guess" },
			want:   "probe.method",
		},
		"fetch timeout": {
			mutate: func(c *config.Config) { c.Fetch.Timeout = 0 },
			want:   "fetch.timeout",
		},
		"load timeout": {
			mutate: func(c *config.Config) { c.Engine.LoadTimeout = -1 },
			want:   "engine.load_timeout",
		},
		"ntfy topic": {
			mutate: func(c *config.Config) { c.Notifications.NtfyTopic = "ftp://example.com/topic" },
			want:   "notifications.ntfy_topic",
		},
		"ntfy timeout": {
			mutate: func(c *config.Config) { c.Notifications.RequestTimeout = 0 },
			want:   "notifications.request_timeout",
		},
		"log level": {
			mutate: func(c *config.Config) { c.Logging.Level = "chatty" },
			want:   "logging.level",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in error, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample config is not valid TOML: %v", err)
	}
	if decoded.Mix.Mode != config.MixModeSplit {
		t.Fatalf("sample mix mode = %q", decoded.Mix.Mode)
	}

	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkspaceDir = filepath.Join(base, "ws")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.Paths.WorkspaceDir, cfg.Paths.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q, err=%v", dir, err)
		}
	}
}

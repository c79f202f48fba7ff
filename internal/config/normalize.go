package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeEngine()
	c.normalizeMix()
	c.normalizeProbe()
	c.normalizeFetch()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkspaceDir) == "" {
		c.Paths.WorkspaceDir = defaultWorkspaceDir
	}
	if c.Paths.WorkspaceDir, err = expandPath(c.Paths.WorkspaceDir); err != nil {
		return fmt.Errorf("paths.workspace_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("MIXDOWN_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeEngine() {
	c.Engine.FFmpegBinary = strings.TrimSpace(c.Engine.FFmpegBinary)
	if c.Engine.FFmpegBinary == "" {
		c.Engine.FFmpegBinary = defaultFFmpegBinary
	}
	c.Engine.FFprobeBinary = strings.TrimSpace(c.Engine.FFprobeBinary)
	if c.Engine.FFprobeBinary == "" {
		c.Engine.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeMix() {
	c.Mix.Mode = strings.ToLower(strings.TrimSpace(c.Mix.Mode))
	if c.Mix.Mode == "" {
		c.Mix.Mode = MixModeSplit
	}
	c.Mix.Codec = strings.TrimSpace(c.Mix.Codec)
	if c.Mix.Codec == "" {
		c.Mix.Codec = defaultMixCodec
	}
	c.Mix.Bitrate = strings.ToLower(strings.TrimSpace(c.Mix.Bitrate))
	if c.Mix.Bitrate == "" {
		c.Mix.Bitrate = defaultMixBitrate
	}
}

func (c *Config) normalizeProbe() {
	c.Probe.Method = strings.ToLower(strings.TrimSpace(c.Probe.Method))
	if c.Probe.Method == "" {
		c.Probe.Method = ProbeMethodAuto
	}
}

func (c *Config) normalizeFetch() {
	c.Fetch.UserAgent = strings.TrimSpace(c.Fetch.UserAgent)
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = defaultFetchUserAgent
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout == 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

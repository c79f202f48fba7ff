package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
)

var bitratePattern = regexp.MustCompile(`^[0-9]+[km]?$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateMix(); err != nil {
		return err
	}
	if err := c.validateProbe(); err != nil {
		return err
	}
	if err := c.validateFetch(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateEngine() error {
	if err := ensurePositiveMap(map[string]int{
		"engine.load_timeout":      c.Engine.LoadTimeout,
		"engine.workspace_max_age": c.Engine.WorkspaceMaxAge,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateMix() error {
	switch c.Mix.Mode {
	case MixModeSplit, MixModeSum:
	default:
		return fmt.Errorf("mix.mode: unsupported value %q (expected %q or %q)", c.Mix.Mode, MixModeSplit, MixModeSum)
	}
	if !bitratePattern.MatchString(c.Mix.Bitrate) {
		return fmt.Errorf("mix.bitrate: invalid value %q (expected e.g. 192k)", c.Mix.Bitrate)
	}
	if c.Mix.SampleRate < 8000 || c.Mix.SampleRate > 192000 {
		return errors.New("mix.sample_rate must be between 8000 and 192000")
	}
	return nil
}

func (c *Config) validateProbe() error {
	switch c.Probe.Method {
	case ProbeMethodNative, ProbeMethodFFprobe, ProbeMethodAuto:
	default:
		return fmt.Errorf("probe.method: unsupported value %q", c.Probe.Method)
	}
	if c.Probe.CacheSize < 0 {
		return errors.New("probe.cache_size must be zero (disabled) or positive")
	}
	return nil
}

func (c *Config) validateFetch() error {
	if c.Fetch.Timeout <= 0 {
		return errors.New("fetch.timeout must be positive (seconds)")
	}
	if c.Fetch.MaxBytes <= 0 {
		return errors.New("fetch.max_bytes must be positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive (seconds)")
	}
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	u, err := url.Parse(topic)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic: expected an http(s) topic URL, got %q", topic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

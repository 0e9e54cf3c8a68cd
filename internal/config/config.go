// Package config handles TOML-based configuration loading and validation.
// TOML is parsed as data only — no code execution is possible.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"framegrab/internal/ratelimit"
)

// Config holds all application configuration.
type Config struct {
	CookieFile     string `toml:"cookie_file"`
	DownloadDir    string `toml:"download_dir"`
	FramesDir      string `toml:"frames_dir"`
	Quality        string `toml:"quality"`
	MaxDurationSec int    `toml:"max_duration"`
	AttemptTimeout int    `toml:"attempt_timeout"`
	RateValidate   int    `toml:"rate_validate"`
	RateExtract    int    `toml:"rate_extract"`
	RateUpload     int    `toml:"rate_upload"`
	CleanupAgeHrs  int    `toml:"cleanup_age_hours"`
	Debug          bool   `toml:"debug"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		CookieFile:     "",
		DownloadDir:    "~/Videos/framegrab",
		FramesDir:      "~/Pictures/framegrab",
		Quality:        "720",
		MaxDurationSec: 3600,
		AttemptTimeout: 120,
		RateValidate:   30,
		RateExtract:    10,
		RateUpload:     5,
		CleanupAgeHrs:  1,
		Debug:          false,
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "framegrab"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "framegrab"), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file and merges with defaults.
// If the config file doesn't exist, defaults are returned.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err != nil {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	validQualities := map[string]bool{
		"360": true, "480": true, "720": true, "1080": true, "best": true,
	}
	if !validQualities[strings.ToLower(c.Quality)] {
		return fmt.Errorf("unsupported quality %q (valid: 360, 480, 720, 1080, best)", c.Quality)
	}

	if c.MaxDurationSec <= 0 {
		return fmt.Errorf("max_duration must be positive, got %d", c.MaxDurationSec)
	}
	if c.AttemptTimeout <= 0 {
		return fmt.Errorf("attempt_timeout must be positive, got %d", c.AttemptTimeout)
	}

	for name, n := range map[string]int{
		"rate_validate": c.RateValidate,
		"rate_extract":  c.RateExtract,
		"rate_upload":   c.RateUpload,
	} {
		if n <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, n)
		}
	}

	if c.DownloadDir == "" {
		return fmt.Errorf("download_dir cannot be empty")
	}
	if c.FramesDir == "" {
		return fmt.Errorf("frames_dir cannot be empty")
	}

	return nil
}

// Budgets maps the configured per-minute limits onto the operation classes.
func (c *Config) Budgets() map[ratelimit.Op]ratelimit.Budget {
	return map[ratelimit.Op]ratelimit.Budget{
		ratelimit.OpValidate: {Max: c.RateValidate, Window: time.Minute},
		ratelimit.OpExtract:  {Max: c.RateExtract, Window: time.Minute},
		ratelimit.OpUpload:   {Max: c.RateUpload, Window: time.Minute},
	}
}

// MaxDuration returns the longest video the tool will process.
func (c *Config) MaxDuration() time.Duration {
	return time.Duration(c.MaxDurationSec) * time.Second
}

// Timeout returns the per-attempt acquisition deadline.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.AttemptTimeout) * time.Second
}

// CleanupAge returns how old an artifact must be before cleanup removes it.
func (c *Config) CleanupAge() time.Duration {
	return time.Duration(c.CleanupAgeHrs) * time.Hour
}

// expandHome resolves a leading ~ in a path.
func expandHome(dir string) (string, error) {
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding home dir: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}
	return filepath.Abs(dir)
}

// ExpandDownloadDir resolves ~ in the download directory path.
func (c *Config) ExpandDownloadDir() (string, error) {
	return expandHome(c.DownloadDir)
}

// ExpandFramesDir resolves ~ in the frames directory path.
func (c *Config) ExpandFramesDir() (string, error) {
	return expandHome(c.FramesDir)
}

// ExpandCookieFile resolves ~ in the cookie file path. Empty stays empty.
func (c *Config) ExpandCookieFile() (string, error) {
	if c.CookieFile == "" {
		return "", nil
	}
	return expandHome(c.CookieFile)
}

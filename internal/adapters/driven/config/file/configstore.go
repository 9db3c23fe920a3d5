// Package file loads the velosync configuration from a TOML file in the
// config directory, with environment variables taking precedence for
// credentials. The result is an explicit domain.Config handed to the
// services at construction.
package file

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/velosync/velosync-cli/internal/core/domain"
)

// configFile is the file name within the config directory.
const configFile = "config.toml"

// Environment variables override the file-based credentials so the tool
// drops into CI schedulers without a config file.
const (
	EnvSourceUsername = "IGPSPORT_USERNAME"
	EnvSourcePassword = "IGPSPORT_PASSWORD"
	EnvDestEmail      = "GARMIN_EMAIL"
	EnvDestPassword   = "GARMIN_PASSWORD"
	EnvDestDomain     = "GARMIN_DOMAIN"
)

// fileConfig is the on-disk TOML shape.
type fileConfig struct {
	Source struct {
		Username string `toml:"username"`
		Password string `toml:"password"`
	} `toml:"source"`

	Destination struct {
		Email    string `toml:"email"`
		Password string `toml:"password"`
		Domain   string `toml:"domain"`
	} `toml:"destination"`

	Sync struct {
		MaxRetries          int `toml:"max_retries"`
		RetryBaseDelaySecs  int `toml:"retry_base_delay_secs"`
		TransferDelaySecs   int `toml:"transfer_delay_secs"`
		OverlapBufferMins   int `toml:"overlap_buffer_mins"`
		LookbackDays        int `toml:"lookback_days"`
		PageSize            int `toml:"page_size"`
		DestinationListSize int `toml:"destination_list_size"`
	} `toml:"sync"`
}

// DefaultDir returns the default config directory, ~/.velosync.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".velosync"), nil
}

// Load builds the run configuration: defaults, overlaid with the TOML
// file if present, overlaid with environment variables. A missing file
// is not an error; a malformed one is.
func Load(configDir string) (domain.Config, error) {
	cfg := domain.DefaultConfig()

	if configDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return cfg, err
		}
		configDir = dir
	}

	data, err := os.ReadFile(filepath.Join(configDir, configFile))
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Fine - environment variables may carry everything.
	case err != nil:
		return cfg, err
	default:
		var fc fileConfig
		if err := toml.Unmarshal(data, &fc); err != nil {
			return cfg, err
		}
		applyFile(&cfg, fc)
	}

	applyEnv(&cfg)
	return cfg, nil
}

// Save writes credentials and the destination domain to the TOML file.
// Tunables already in the file are preserved.
func Save(configDir string, cfg domain.Config) error {
	if configDir == "" {
		dir, err := DefaultDir()
		if err != nil {
			return err
		}
		configDir = dir
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}

	path := filepath.Join(configDir, configFile)

	var fc fileConfig
	if data, err := os.ReadFile(path); err == nil {
		// Best effort: a malformed existing file is replaced.
		_ = toml.Unmarshal(data, &fc)
	}

	fc.Source.Username = cfg.SourceUsername
	fc.Source.Password = cfg.SourcePassword
	fc.Destination.Email = cfg.DestEmail
	fc.Destination.Password = cfg.DestPassword
	fc.Destination.Domain = cfg.DestDomain

	data, err := toml.Marshal(fc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// applyFile overlays non-zero file values onto the config.
func applyFile(cfg *domain.Config, fc fileConfig) {
	if fc.Source.Username != "" {
		cfg.SourceUsername = fc.Source.Username
	}
	if fc.Source.Password != "" {
		cfg.SourcePassword = fc.Source.Password
	}
	if fc.Destination.Email != "" {
		cfg.DestEmail = fc.Destination.Email
	}
	if fc.Destination.Password != "" {
		cfg.DestPassword = fc.Destination.Password
	}
	if fc.Destination.Domain != "" {
		cfg.DestDomain = fc.Destination.Domain
	}

	if fc.Sync.MaxRetries > 0 {
		cfg.MaxRetries = fc.Sync.MaxRetries
	}
	if fc.Sync.RetryBaseDelaySecs > 0 {
		cfg.RetryBaseDelay = time.Duration(fc.Sync.RetryBaseDelaySecs) * time.Second
	}
	if fc.Sync.TransferDelaySecs > 0 {
		cfg.TransferDelay = time.Duration(fc.Sync.TransferDelaySecs) * time.Second
	}
	if fc.Sync.OverlapBufferMins > 0 {
		cfg.OverlapBuffer = time.Duration(fc.Sync.OverlapBufferMins) * time.Minute
	}
	if fc.Sync.LookbackDays > 0 {
		cfg.Lookback = time.Duration(fc.Sync.LookbackDays) * 24 * time.Hour
	}
	if fc.Sync.PageSize > 0 {
		cfg.PageSize = fc.Sync.PageSize
	}
	if fc.Sync.DestinationListSize > 0 {
		cfg.DestListLimit = fc.Sync.DestinationListSize
	}
}

// applyEnv overlays environment variables onto the config.
func applyEnv(cfg *domain.Config) {
	if v := os.Getenv(EnvSourceUsername); v != "" {
		cfg.SourceUsername = v
	}
	if v := os.Getenv(EnvSourcePassword); v != "" {
		cfg.SourcePassword = v
	}
	if v := os.Getenv(EnvDestEmail); v != "" {
		cfg.DestEmail = v
	}
	if v := os.Getenv(EnvDestPassword); v != "" {
		cfg.DestPassword = v
	}
	if v := os.Getenv(EnvDestDomain); v != "" {
		cfg.DestDomain = v
	}
}

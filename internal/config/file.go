package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrConfigExists is returned by WriteFile when the target exists and
// overwrite was not requested.
var ErrConfigExists = errors.New("config file already exists")

// Document renders cfg as a nested map suitable for YAML output. Durations
// are written in Go duration syntax so the file round-trips through Load.
func (c *Config) Document() map[string]any {
	return map[string]any{
		"global": map[string]any{
			"data_dir":   c.Global.DataDir,
			"config_dir": c.Global.ConfigDir,
		},
		"database": map[string]any{
			"path":            c.Database.Path,
			"busy_timeout_ms": c.Database.BusyTimeoutMs,
		},
		"logging": map[string]any{
			"level":         c.Logging.Level,
			"format":        c.Logging.Format,
			"file":          c.Logging.File,
			"enable_caller": c.Logging.EnableCaller,
		},
		"api": map[string]any{
			"base_url":      c.API.BaseURL,
			"taxonomy_name": c.API.TaxonomyName,
			"taxon_id":      c.API.TaxonID,
			"timeout":       c.API.Timeout.String(),
			"user_agent":    c.API.UserAgent,
		},
		"poller": map[string]any{
			"refresh_interval": c.Poller.RefreshInterval.String(),
			"retry_interval":   c.Poller.RetryInterval.String(),
		},
		"statusbar": map[string]any{
			"sink":              c.StatusBar.Sink,
			"label":             c.StatusBar.Label,
			"icon":              c.StatusBar.Icon,
			"category":          c.StatusBar.Category,
			"tmux_option":       c.StatusBar.TmuxOption,
			"tmux_status_right": c.StatusBar.TmuxStatusRight,
			"tmux_click_key":    c.StatusBar.TmuxClickKey,
		},
		"tui": map[string]any{
			"theme": c.TUI.Theme,
		},
		"history": map[string]any{
			"enabled":    c.History.Enabled,
			"max_events": c.History.MaxEvents,
		},
	}
}

// YAML renders cfg as a YAML document.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c.Document())
	if err != nil {
		return nil, fmt.Errorf("failed to serialize config: %w", err)
	}
	return data, nil
}

// WriteFile writes cfg to path, creating parent directories.
func WriteFile(path string, cfg *Config, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrConfigExists, path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := cfg.YAML()
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Package config handles devtime configuration loading and validation.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/tOgg1/devtime/internal/models"
)

// Status bar sinks.
const (
	SinkTmux   = "tmux"
	SinkStdout = "stdout"
	SinkNone   = "none"
)

// Config is the root configuration structure for devtime.
type Config struct {
	// Global settings
	Global GlobalConfig `yaml:"global" mapstructure:"global"`

	// Database settings
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// API is the RescueTime endpoint configuration.
	API APIConfig `yaml:"api" mapstructure:"api"`

	// Poller timing
	Poller PollerConfig `yaml:"poller" mapstructure:"poller"`

	// StatusBar controls where and how the status item is rendered.
	StatusBar StatusBarConfig `yaml:"statusbar" mapstructure:"statusbar"`

	// TUI settings
	TUI TUIConfig `yaml:"tui" mapstructure:"tui"`

	// History controls the persisted event log.
	History HistoryConfig `yaml:"history" mapstructure:"history"`
}

// GlobalConfig contains global settings.
type GlobalConfig struct {
	// DataDir is where devtime stores its data (default: ~/.local/share/devtime).
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	// ConfigDir is where config files are stored (default: ~/.config/devtime).
	ConfigDir string `yaml:"config_dir" mapstructure:"config_dir"`
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	// Path is the SQLite database file path.
	Path string `yaml:"path" mapstructure:"path"`

	// BusyTimeoutMs is how long to wait for a locked database (milliseconds).
	BusyTimeoutMs int `yaml:"busy_timeout_ms" mapstructure:"busy_timeout_ms"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path.
	File string `yaml:"file" mapstructure:"file"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// APIConfig points at the summary endpoint.
type APIConfig struct {
	// BaseURL is the RescueTime origin.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// TaxonomyName and TaxonID select the category rollup to summarize.
	TaxonomyName string `yaml:"taxonomy_name" mapstructure:"taxonomy_name"`
	TaxonID      int    `yaml:"taxon_id" mapstructure:"taxon_id"`

	// Timeout bounds each request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
}

// PollerConfig contains poll timing.
type PollerConfig struct {
	// RefreshInterval is the delay between successful polls.
	RefreshInterval time.Duration `yaml:"refresh_interval" mapstructure:"refresh_interval"`

	// RetryInterval is the delay before retrying a failed poll.
	RetryInterval time.Duration `yaml:"retry_interval" mapstructure:"retry_interval"`
}

// StatusBarConfig controls the status item.
type StatusBarConfig struct {
	// Sink selects the widget: tmux, stdout, none.
	Sink string `yaml:"sink" mapstructure:"sink"`

	// Label, Icon prefix the status text; Category names the tracked
	// activity in click notifications.
	Label    string `yaml:"label" mapstructure:"label"`
	Icon     string `yaml:"icon" mapstructure:"icon"`
	Category string `yaml:"category" mapstructure:"category"`

	// TmuxOption is the tmux user option holding the status text.
	TmuxOption string `yaml:"tmux_option" mapstructure:"tmux_option"`

	// TmuxStatusRight also writes the text straight into status-right.
	TmuxStatusRight bool `yaml:"tmux_status_right" mapstructure:"tmux_status_right"`

	// TmuxClickKey, when set, binds prefix+key to the click command.
	TmuxClickKey string `yaml:"tmux_click_key" mapstructure:"tmux_click_key"`
}

// TUIConfig contains TUI settings.
type TUIConfig struct {
	// Theme is the color theme (default, high-contrast).
	Theme string `yaml:"theme" mapstructure:"theme"`
}

// HistoryConfig controls the event history kept in the database.
type HistoryConfig struct {
	// Enabled records poller events while 'devtime run' is active.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// MaxEvents is the number of events kept; older ones are pruned.
	MaxEvents int `yaml:"max_events" mapstructure:"max_events"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Global: GlobalConfig{
			DataDir:   filepath.Join(homeDir, ".local", "share", "devtime"),
			ConfigDir: filepath.Join(homeDir, ".config", "devtime"),
		},
		Database: DatabaseConfig{
			Path:          "", // Will be set to DataDir/devtime.db
			BusyTimeoutMs: 5000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		API: APIConfig{
			BaseURL:      "https://www.rescuetime.com",
			TaxonomyName: "overview",
			TaxonID:      10,
			Timeout:      15 * time.Second,
			UserAgent:    "devtime",
		},
		Poller: PollerConfig{
			RefreshInterval: 60 * time.Second,
			RetryInterval:   30 * time.Second,
		},
		StatusBar: StatusBarConfig{
			Sink:       SinkStdout,
			Label:      "Dev Time",
			Icon:       "⏱",
			Category:   "Software Development",
			TmuxOption: "@devtime",
		},
		TUI: TUIConfig{
			Theme: "default",
		},
		History: HistoryConfig{
			Enabled:   true,
			MaxEvents: 500,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	validation := &models.ValidationErrors{}

	if c.Database.BusyTimeoutMs < 0 {
		validation.AddMessage("database.busy_timeout_ms", "must not be negative")
	}

	if u, err := url.Parse(c.API.BaseURL); err != nil {
		validation.Add("api.base_url", err)
	} else if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		validation.AddMessage("api.base_url", "must be an absolute http(s) URL")
	}
	if c.API.TaxonomyName == "" {
		validation.AddMessage("api.taxonomy_name", "is required")
	}
	if c.API.Timeout < time.Second {
		validation.AddMessage("api.timeout", "must be at least 1s")
	}

	if c.Poller.RefreshInterval < time.Second {
		validation.AddMessage("poller.refresh_interval", "must be at least 1s")
	}
	if c.Poller.RetryInterval < time.Second {
		validation.AddMessage("poller.retry_interval", "must be at least 1s")
	}

	if c.History.MaxEvents < 0 {
		validation.AddMessage("history.max_events", "must not be negative")
	}

	switch c.StatusBar.Sink {
	case SinkTmux, SinkStdout, SinkNone:
	default:
		validation.AddMessage("statusbar.sink", fmt.Sprintf("must be one of %s, %s, %s", SinkTmux, SinkStdout, SinkNone))
	}
	if c.StatusBar.Sink == SinkTmux && c.StatusBar.TmuxOption == "" && !c.StatusBar.TmuxStatusRight {
		validation.AddMessage("statusbar.tmux_option", "is required unless tmux_status_right is set")
	}

	return validation.Err()
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Global.DataDir,
		c.Global.ConfigDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// DatabasePath returns the full database path.
func (c *Config) DatabasePath() string {
	if c.Database.Path != "" {
		return c.Database.Path
	}
	return filepath.Join(c.Global.DataDir, "devtime.db")
}

// PIDFilePath is where 'devtime run' records its process ID.
func (c *Config) PIDFilePath() string {
	return filepath.Join(c.Global.DataDir, "devtime.pid")
}

// ConfigFilePath returns the default config file location.
func (c *Config) ConfigFilePath() string {
	return filepath.Join(c.Global.ConfigDir, "config.yaml")
}

// Package cli implements the devtime command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tOgg1/devtime/internal/config"
	"github.com/tOgg1/devtime/internal/credential"
	"github.com/tOgg1/devtime/internal/db"
	"github.com/tOgg1/devtime/internal/logging"
	"github.com/tOgg1/devtime/internal/rescuetime"
	"github.com/tOgg1/devtime/internal/state"
	"github.com/tOgg1/devtime/internal/statusbar"
)

// Execute runs the root command.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

// app carries state shared by subcommands once PersistentPreRunE has run.
type app struct {
	version string

	configFile string
	logLevel   string
	logFormat  string

	loader    *config.Loader
	cfg       *config.Config
	logCloser io.Closer
}

func newRootCmd(version string) *cobra.Command {
	a := &app{version: version}

	cmd := &cobra.Command{
		Use:   "devtime",
		Short: "Show today's RescueTime development time in your status line",
		Long: "devtime polls the RescueTime taxonomy presence summary and renders today's\n" +
			"software development time and focus score as a status item for tmux,\n" +
			"status bar programs, or an interactive terminal UI.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default: $XDG_CONFIG_HOME/devtime/config.yaml)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level override (trace, debug, info, warn, error)")
	flags.StringVar(&a.logFormat, "log-format", "", "log format override (console, json)")

	cmd.AddCommand(
		newRunCmd(a),
		newUICmd(a),
		newStatusCmd(a),
		newKeyCmd(a),
		newSignalCmd(a, "click", "Show today's details in the running devtime", syscall.SIGUSR1),
		newSignalCmd(a, "refresh", "Make the running devtime poll now", syscall.SIGUSR2),
		newHistoryCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return cmd
}

func (a *app) init(cmd *cobra.Command) error {
	a.loader = config.NewLoader()
	if a.configFile != "" {
		a.loader.SetConfigFile(a.configFile)
	}

	cfg, err := a.loader.Load()
	if err != nil {
		return Exitf(ExitCodeUsage, "%v", err)
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Logging.Format = a.logFormat
	}
	a.cfg = cfg

	closer, err := logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		File:         cfg.Logging.File,
		EnableCaller: cfg.Logging.EnableCaller,
		Output:       cmd.ErrOrStderr(),
	})
	if err != nil {
		return Exitf(ExitCodeFailure, "init logging: %v", err)
	}
	a.logCloser = closer

	logging.Logger.Debug().
		Str("config_file", a.loader.ConfigFileUsed()).
		Str("sink", cfg.StatusBar.Sink).
		Msg("configuration loaded")
	return nil
}

func (a *app) close() error {
	if a.logCloser == nil {
		return nil
	}
	err := a.logCloser.Close()
	a.logCloser = nil
	return err
}

// openDatabase opens and migrates the settings database. The returned func
// closes it.
func (a *app) openDatabase(ctx context.Context) (*db.DB, func(), error) {
	if err := a.cfg.EnsureDirectories(); err != nil {
		return nil, nil, Exitf(ExitCodeFailure, "%v", err)
	}

	database, err := db.Open(a.cfg.DatabasePath(), db.Options{BusyTimeoutMs: a.cfg.Database.BusyTimeoutMs})
	if err != nil {
		return nil, nil, Exitf(ExitCodeFailure, "open database: %v", err)
	}
	if err := database.Migrate(ctx); err != nil {
		_ = database.Close()
		return nil, nil, Exitf(ExitCodeFailure, "migrate database: %v", err)
	}

	closeFn := func() {
		if err := database.Close(); err != nil {
			logging.Logger.Warn().Err(err).Msg("failed to close database")
		}
	}
	return database, closeFn, nil
}

// openCredentials opens the database and wraps it in a credential store.
func (a *app) openCredentials(ctx context.Context) (*credential.Store, func(), error) {
	database, closeFn, err := a.openDatabase(ctx)
	if err != nil {
		return nil, nil, err
	}
	return credentialStore(database), closeFn, nil
}

func credentialStore(database *db.DB) *credential.Store {
	return credential.NewStore(db.NewSettingRepository(database))
}

func (a *app) newClient() *rescuetime.Client {
	userAgent := a.cfg.API.UserAgent
	if userAgent != "" && !strings.Contains(userAgent, "/") {
		userAgent = fmt.Sprintf("%s/%s", userAgent, a.version)
	}
	return rescuetime.NewClient(rescuetime.Options{
		BaseURL:      a.cfg.API.BaseURL,
		TaxonomyName: a.cfg.API.TaxonomyName,
		TaxonID:      a.cfg.API.TaxonID,
		Timeout:      a.cfg.API.Timeout,
		UserAgent:    userAgent,
	})
}

func (a *app) pollerConfig() state.PollerConfig {
	return state.PollerConfig{
		RefreshInterval: a.cfg.Poller.RefreshInterval,
		RetryInterval:   a.cfg.Poller.RetryInterval,
	}
}

func (a *app) presenterOptions() statusbar.Options {
	return statusbar.Options{
		Label:    a.cfg.StatusBar.Label,
		Icon:     a.cfg.StatusBar.Icon,
		Category: a.cfg.StatusBar.Category,
	}
}

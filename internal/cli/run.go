package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tOgg1/devtime/internal/config"
	"github.com/tOgg1/devtime/internal/events"
	"github.com/tOgg1/devtime/internal/logging"
	"github.com/tOgg1/devtime/internal/procutil"
	"github.com/tOgg1/devtime/internal/prompt"
	"github.com/tOgg1/devtime/internal/state"
	"github.com/tOgg1/devtime/internal/statusbar"
	"github.com/tOgg1/devtime/internal/tmux"
)

type runOptions struct {
	sink   string
	format string
	events bool
}

func newRunCmd(a *app) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Poll RescueTime and keep the status item updated",
		Long: "Run polls RescueTime every refresh interval and writes the status item to\n" +
			"the configured sink. Send SIGUSR1 to show details (the click action) and\n" +
			"SIGUSR2 to refresh immediately.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.sink != "" {
				a.cfg.StatusBar.Sink = opts.sink
				if err := a.cfg.Validate(); err != nil {
					return Exitf(ExitCodeUsage, "%v", err)
				}
			}
			return a.run(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.sink, "sink", "", "status sink override (tmux, stdout, none)")
	cmd.Flags().StringVar(&opts.format, "format", statusbar.FormatText, "stdout sink format (text, json)")
	cmd.Flags().BoolVar(&opts.events, "events", false, "write poller events to stderr as JSON lines")
	return cmd
}

func (a *app) run(cmd *cobra.Command, opts *runOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, closeDB, err := a.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	pidFile := a.cfg.PIDFilePath()
	if err := procutil.WritePIDFile(pidFile); err != nil {
		if errors.Is(err, procutil.ErrAlreadyRunning) {
			return Exitf(ExitCodeUsage, "%v", err)
		}
		return Exitf(ExitCodeFailure, "%v", err)
	}
	defer func() {
		if err := procutil.RemovePIDFile(pidFile); err != nil {
			logging.Logger.Warn().Err(err).Msg("failed to remove pid file")
		}
	}()

	widget, cleanup, err := a.newWidget(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), opts.format)
	if err != nil {
		return err
	}
	defer cleanup()

	publisherOpts := a.historySinks(database)
	if opts.events {
		publisherOpts = append(publisherOpts, events.WithSink(events.NewJSONLSink(cmd.ErrOrStderr())))
	}
	publisher := events.NewInMemoryPublisher(publisherOpts...)
	defer publisher.Close()

	poller := state.NewPoller(
		a.pollerConfig(),
		a.newClient(),
		credentialStore(database),
		statusbar.NewPresenter(widget, a.presenterOptions()),
		prompt.NewTerminal(int(os.Stdin.Fd()), cmd.ErrOrStderr()),
		state.WithPublisher(publisher),
	)

	go forwardSignals(ctx, poller)

	if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return Exitf(ExitCodeFailure, "poller: %v", err)
	}
	logging.Logger.Info().Msg("devtime stopped")
	return nil
}

// forwardSignals maps SIGUSR1 to a click and SIGUSR2 to a refresh.
func forwardSignals(ctx context.Context, poller *state.Poller) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(sigs)

	logger := logging.Component("signals")
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigs:
			var err error
			switch sig {
			case syscall.SIGUSR1:
				err = poller.Click()
			case syscall.SIGUSR2:
				err = poller.Refresh()
			}
			if err != nil {
				logger.Debug().Err(err).Str("signal", sig.String()).Msg("signal ignored")
			}
		}
	}
}

// newWidget builds the widget for the configured sink. cleanup undoes any
// tmux changes and is always non-nil on success.
func (a *app) newWidget(ctx context.Context, stdout, stderr io.Writer, format string) (statusbar.Widget, func(), error) {
	switch a.cfg.StatusBar.Sink {
	case config.SinkTmux:
		return a.newTmuxWidget(ctx)
	case config.SinkNone:
		return statusbar.NopWidget{}, func() {}, nil
	default:
		return statusbar.NewWriterWidget(stdout, stderr, format), func() {}, nil
	}
}

func (a *app) newTmuxWidget(ctx context.Context) (statusbar.Widget, func(), error) {
	client := tmux.NewLocalClient()

	version, err := client.Version(ctx)
	if err != nil {
		return nil, nil, Exitf(ExitCodeFailure, "tmux: %v", err)
	}
	if !version.Supported() {
		return nil, nil, Exitf(ExitCodeFailure, "tmux %s is too old (need %s or newer)", version, tmux.MinVersion)
	}

	widget := statusbar.NewTmuxWidget(client, statusbar.TmuxOptions{
		Option:       a.cfg.StatusBar.TmuxOption,
		StatusRight:  a.cfg.StatusBar.TmuxStatusRight,
		ClickKey:     a.cfg.StatusBar.TmuxClickKey,
		ClickCommand: fmt.Sprintf("kill -USR1 %d", os.Getpid()),
	})
	if err := widget.Setup(ctx); err != nil {
		return nil, nil, Exitf(ExitCodeFailure, "tmux setup: %v", err)
	}

	cleanup := func() {
		if err := widget.Close(context.Background()); err != nil {
			logging.Logger.Warn().Err(err).Msg("failed to restore tmux options")
		}
	}
	return widget, cleanup, nil
}

package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tOgg1/devtime/internal/events"
	"github.com/tOgg1/devtime/internal/logging"
	"github.com/tOgg1/devtime/internal/state"
	"github.com/tOgg1/devtime/internal/statusbar"
	"github.com/tOgg1/devtime/internal/tui"
)

func newUICmd(a *app) *cobra.Command {
	var theme string
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Launch the devtime TUI",
		Long:  "Launch the status item in an interactive terminal UI with an activity log.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if theme != "" {
				a.cfg.TUI.Theme = theme
			}
			return a.runTUI(cmd)
		},
	}
	cmd.Flags().StringVar(&theme, "theme", "", "color theme (default, high-contrast, ocean, sunset)")
	return cmd
}

func hasTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func (a *app) runTUI(cmd *cobra.Command) error {
	if !hasTTY() {
		return Exitf(ExitCodeUsage, "TUI requires an interactive terminal; use 'devtime run' instead")
	}

	// Console logs would draw over the alt screen.
	if a.cfg.Logging.File == "" {
		if err := a.close(); err != nil {
			return Exitf(ExitCodeFailure, "%v", err)
		}
		closer, err := logging.Init(logging.Config{
			Level:  a.cfg.Logging.Level,
			Format: a.cfg.Logging.Format,
			Output: io.Discard,
		})
		if err != nil {
			return Exitf(ExitCodeFailure, "init logging: %v", err)
		}
		a.logCloser = closer
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	database, closeDB, err := a.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	bridge := tui.NewBridge()
	publisher := events.NewInMemoryPublisher(a.historySinks(database)...)
	defer publisher.Close()
	if err := publisher.Subscribe("tui", events.Filter{}, bridge.HandleEvent); err != nil {
		return Exitf(ExitCodeFailure, "subscribe: %v", err)
	}

	opts := a.presenterOptions()
	poller := state.NewPoller(
		a.pollerConfig(),
		a.newClient(),
		credentialStore(database),
		statusbar.NewPresenter(bridge, opts),
		bridge,
		state.WithPublisher(publisher),
	)

	var (
		once    sync.Once
		wg      sync.WaitGroup
		pollErr error
	)
	start := func() {
		once.Do(func() {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					pollErr = err
				}
			}()
		})
	}

	err = tui.Run(poller, bridge, tui.Config{
		Theme:   a.cfg.TUI.Theme,
		Initial: statusbar.AwaitingKeyItem(opts),
		OnStart: start,
	})

	// The program has exited; stop the poller before the database closes.
	cancel()
	once.Do(func() {})
	wg.Wait()

	if err != nil {
		return Exitf(ExitCodeFailure, "tui: %v", err)
	}
	if pollErr != nil {
		return Exitf(ExitCodeFailure, "poller: %v", pollErr)
	}
	logging.Logger.Debug().Msg("tui closed")
	return nil
}

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tOgg1/devtime/internal/db"
	"github.com/tOgg1/devtime/internal/events"
	"github.com/tOgg1/devtime/internal/models"
)

type historyOptions struct {
	limit     int
	eventType string
	since     time.Duration
	asJSON    bool
	clear     bool
}

func newHistoryCmd(a *app) *cobra.Command {
	opts := &historyOptions{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded poller events",
		Long: "History lists the events recorded by 'devtime run' and 'devtime ui', newest\n" +
			"first. Recording is controlled by history.enabled and history.max_events.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.history(cmd, opts)
		},
	}
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 20, "maximum number of events")
	cmd.Flags().StringVar(&opts.eventType, "type", "", "only show this event type (e.g. poll.failed)")
	cmd.Flags().DurationVar(&opts.since, "since", 0, "only show events newer than this (e.g. 2h)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print events as JSON")
	cmd.Flags().BoolVar(&opts.clear, "clear", false, "delete the recorded history")
	return cmd
}

func (a *app) history(cmd *cobra.Command, opts *historyOptions) error {
	ctx := cmd.Context()
	database, closeDB, err := a.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	repo := db.NewEventRepository(database)
	out := cmd.OutOrStdout()

	if opts.clear {
		deleted, err := repo.DeleteAll(ctx)
		if err != nil {
			return Exitf(ExitCodeFailure, "%v", err)
		}
		fmt.Fprintf(out, "Deleted %d events\n", deleted)
		return nil
	}

	query := db.EventQuery{Limit: opts.limit}
	if opts.eventType != "" {
		eventType := models.EventType(opts.eventType)
		query.Type = &eventType
	}
	if opts.since > 0 {
		since := time.Now().Add(-opts.since)
		query.Since = &since
	}

	events, err := repo.Query(ctx, query)
	if err != nil {
		return Exitf(ExitCodeFailure, "%v", err)
	}

	if opts.asJSON {
		if events == nil {
			events = []*models.Event{}
		}
		return writeJSON(out, events)
	}
	if len(events) == 0 {
		fmt.Fprintln(out, "No events recorded.")
		return nil
	}

	rows := make([][]string, 0, len(events))
	for _, event := range events {
		rows = append(rows, []string{
			event.Timestamp.Local().Format("2006-01-02 15:04:05"),
			string(event.Type),
			event.Message,
		})
	}
	return writeTable(out, []string{"TIME", "TYPE", "MESSAGE"}, rows)
}

// historySinks records published events in the database when history is enabled.
func (a *app) historySinks(database *db.DB) []events.PublisherOption {
	if !a.cfg.History.Enabled {
		return nil
	}
	history := db.NewEventRepository(database)
	history.MaxEvents = a.cfg.History.MaxEvents
	return []events.PublisherOption{events.WithSink(history)}
}

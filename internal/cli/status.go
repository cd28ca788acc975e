package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/tOgg1/devtime/internal/logging"
	"github.com/tOgg1/devtime/internal/rescuetime"
	"github.com/tOgg1/devtime/internal/state"
	"github.com/tOgg1/devtime/internal/statusbar"
)

type statusJSON struct {
	Text            string   `json:"text"`
	Tooltip         string   `json:"tooltip,omitempty"`
	Duration        string   `json:"duration"`
	DurationSeconds int64    `json:"duration_seconds"`
	FocusPercentage *float64 `json:"focus_percentage,omitempty"`
	FocusLabel      string   `json:"focus_label,omitempty"`
	FocusDots       string   `json:"focus_dots,omitempty"`
}

func newStatusCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Fetch today's summary once and print the status item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.status(cmd, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the item as JSON")
	return cmd
}

func (a *app) status(cmd *cobra.Command, asJSON bool) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	opts := a.presenterOptions()

	creds, closeDB, err := a.openCredentials(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	key, ok, err := creds.Get(ctx)
	if err != nil {
		return Exitf(ExitCodeFailure, "load api key: %v", err)
	}
	if !ok {
		item := statusbar.AwaitingKeyItem(opts)
		if asJSON {
			_ = writeJSON(out, statusJSON{Text: item.Text, Tooltip: item.Tooltip, Duration: state.InitialDuration})
		} else {
			fmt.Fprintln(out, item.Text)
		}
		return &ExitError{Code: ExitCodeNoKey, Err: fmt.Errorf("no API key set; run 'devtime key set'")}
	}

	summary, err := a.newClient().PresenceSummary(ctx, key)
	if err != nil {
		if rescuetime.IsInvalidKey(err) {
			if clearErr := creds.Clear(ctx); clearErr != nil {
				logging.Logger.Warn().Err(clearErr).Msg("failed to clear api key")
			}
			return &ExitError{Code: ExitCodeInvalidKey, Err: fmt.Errorf("%s (stored key cleared)", logging.Redact(err.Error()))}
		}
		return Exitf(ExitCodeFailure, "%s", logging.Redact(err.Error()))
	}

	session := state.NewSession()
	session.Apply(summary, time.Now())
	snap := session.Snapshot()
	item := statusbar.SummaryItem(opts, snap)

	if asJSON {
		return writeJSON(out, statusJSON{
			Text:            item.Text,
			Tooltip:         item.Tooltip,
			Duration:        snap.Duration,
			DurationSeconds: summary.Duration,
			FocusPercentage: snap.FocusPercentage,
			FocusLabel:      snap.FocusLabel,
			FocusDots:       snap.FocusDots,
		})
	}
	fmt.Fprintln(out, item.Text)
	if item.Tooltip != "" {
		fmt.Fprintln(out, item.Tooltip)
	}
	return nil
}

func writeJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

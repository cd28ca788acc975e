package cli

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tOgg1/devtime/internal/procutil"
)

// newSignalCmd builds a command that pokes the process started by 'devtime run'.
func newSignalCmd(a *app, use, short string, sig syscall.Signal) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := procutil.SignalRunning(a.cfg.PIDFilePath(), sig)
			if err != nil {
				if errors.Is(err, procutil.ErrNotRunning) {
					return Exitf(ExitCodeFailure, "%v; start it with 'devtime run'", err)
				}
				return Exitf(ExitCodeFailure, "%v", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sent %s to devtime (pid %d)\n", use, pid)
			return nil
		},
	}
}

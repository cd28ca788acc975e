package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tOgg1/devtime/internal/credential"
	"github.com/tOgg1/devtime/internal/logging"
	"github.com/tOgg1/devtime/internal/prompt"
)

func newKeyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the stored RescueTime API key",
	}
	cmd.AddCommand(newKeySetCmd(a), newKeyShowCmd(a), newKeyClearCmd(a))
	return cmd
}

func newKeySetCmd(a *app) *cobra.Command {
	var fromStdin bool
	cmd := &cobra.Command{
		Use:   "set [key]",
		Short: "Store the API key",
		Long: "Store the API key. With no argument the key is read from the terminal\n" +
			"without echo, or from the first line of stdin with --stdin.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := readKey(cmd, args, fromStdin)
			if err != nil {
				return err
			}

			creds, closeDB, err := a.openCredentials(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			if err := creds.Set(cmd.Context(), key); err != nil {
				if errors.Is(err, credential.ErrEmptyKey) {
					return Exitf(ExitCodeUsage, "%v", err)
				}
				return Exitf(ExitCodeFailure, "store api key: %v", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved API key %s\n", logging.MaskSecret(strings.TrimSpace(key)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "read the key from stdin")
	return cmd
}

func readKey(cmd *cobra.Command, args []string, fromStdin bool) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if fromStdin {
		return readFirstLine(cmd.InOrStdin())
	}

	key, err := prompt.NewTerminal(int(os.Stdin.Fd()), cmd.ErrOrStderr()).ReadKey()
	if errors.Is(err, prompt.ErrNotTerminal) {
		return "", Exitf(ExitCodeUsage, "no key given; pass it as an argument or use --stdin")
	}
	if err != nil {
		return "", Exitf(ExitCodeFailure, "read key: %v", err)
	}
	return key, nil
}

func readFirstLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", Exitf(ExitCodeFailure, "read stdin: %v", err)
	}
	return strings.TrimSpace(line), nil
}

func newKeyShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the stored API key, masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, closeDB, err := a.openCredentials(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			key, ok, err := creds.Get(cmd.Context())
			if err != nil {
				return Exitf(ExitCodeFailure, "load api key: %v", err)
			}
			if !ok {
				return Exitf(ExitCodeNoKey, "no API key set")
			}
			fmt.Fprintln(cmd.OutOrStdout(), logging.MaskSecret(key))
			return nil
		},
	}
}

func newKeyClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, closeDB, err := a.openCredentials(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			if err := creds.Clear(cmd.Context()); err != nil {
				return Exitf(ExitCodeFailure, "clear api key: %v", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "API key cleared")
			return nil
		},
	}
}

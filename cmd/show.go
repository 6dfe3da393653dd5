package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newShowCmd creates the 'show' subcommand, which prints the stored record
// file verbatim without touching the network.
func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the current record file",
		Args:  cobra.NoArgs,
		RunE:  runShowCommand,
	}
	cmd.Flags().String("output", "", "record file path (overrides output.path)")
	return cmd
}

func runShowCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	store := appInstance.Store()
	data, ok := store.LoadRaw(cmd.Context())
	if !ok {
		return fmt.Errorf("no readable record at %s", store.Path())
	}

	_, err = cmd.OutOrStdout().Write(data)
	return err
}

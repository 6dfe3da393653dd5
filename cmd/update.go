package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newUpdateCmd creates the 'update' subcommand, which performs one scrape and
// rewrites the record file.
func newUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Fetch the analytics page and write the record file",
		Args:  cobra.NoArgs,
		RunE:  runUpdateCommand,
	}
	cmd.Flags().String("url", "", "analytics page to scrape (overrides source.url)")
	cmd.Flags().String("output", "", "record file path (overrides output.path)")
	return cmd
}

func runUpdateCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}

	result, err := appInstance.Updater().Run(cmd.Context())
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), result.Summary())
	return err
}

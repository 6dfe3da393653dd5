// Package cmd defines and implements the CLI commands for the pageviews executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JakeFAU/pageviews/internal/app"
	"github.com/JakeFAU/pageviews/internal/config"
	"github.com/JakeFAU/pageviews/internal/logging"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// newRootCmd creates and configures the root command.
func newRootCmd(opts app.Options) *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "pageviews",
		Short: "Records the public pageview counter of a ClustrMaps analytics page.",
		Long: `pageviews scrapes the "Total Pageviews ... Since" counter from a
ClustrMaps site page and keeps the latest value in a small JSON file that
a static site can serve. The file is rewritten on every successful run.`,
		SilenceErrors: true,
		SilenceUsage:  true,

		// Runs after flag parsing and before the subcommand's RunE.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.New(cfg.Logging)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			appInstance, err := app.New(cmd.Context(), cfg, logger, opts)
			if err != nil {
				_ = logger.Sync()
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (YAML, JSON or TOML)")
	flags.Bool("development", false, "human-readable development logging")
	flags.String("log-level", "", "minimum log level (debug, info, warn, error)")
	flags.String("metrics", "", "write Prometheus metrics to this textfile after each run")

	cmd.AddCommand(newUpdateCmd(), newShowCmd())
	return cmd
}

func resolveApp(ctx context.Context) (*app.App, error) {
	appInstance, ok := ctx.Value(appKey).(*app.App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// run executes the CLI with args and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, opts app.Options) int {
	root := newRootCmd(opts)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	executed, err := root.ExecuteContextC(ctx)
	if appInstance, aerr := resolveApp(executed.Context()); aerr == nil {
		appInstance.Close()
	}
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// Execute is the main entry point.
func Execute() {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, app.Options{})
	stop()
	os.Exit(code)
}

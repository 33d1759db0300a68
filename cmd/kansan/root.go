package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spboyer/kansan/internal/projectconfig"
	"github.com/spboyer/kansan/internal/schemeclient"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var version = "dev"

// globalOptions holds persistent flags shared by every subcommand.
type globalOptions struct {
	serviceURL string
	debug      bool
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "kansan",
		Short: "Kansan - convert raw exam scores with a grading scheme",
		Long: `Kansan converts raw subject scores into a weighted total.

Pick a grading scheme offered by a scheme service, enter the raw score
for each subject (and the maximum score, if your paper was marked out of
something other than the scheme's default), and kansan asks the service
for the per-subject breakdown and total.

Run "kansan serve" to host a scheme service locally.`,
		Version:      version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.serviceURL, "service", "",
		fmt.Sprintf("Scheme service base URL (default from %s or %s)", projectconfig.FileName, projectconfig.DefaultServiceURL))
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if opts.debug {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	cmd.AddCommand(newSchemesCommand(opts))
	cmd.AddCommand(newConvertCommand(opts))
	cmd.AddCommand(newServeCommand())

	return cmd
}

func execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := newRootCommand()
	return rootCmd.ExecuteContext(ctx)
}

// loadProjectConfig loads .kansan.yaml from the working directory upwards.
func loadProjectConfig() (*projectconfig.ProjectConfig, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	return projectconfig.Load(wd)
}

// newClient builds a scheme service client, preferring --service over the
// configured URL.
func (o *globalOptions) newClient() (*schemeclient.Client, error) {
	url := o.serviceURL
	if url == "" {
		cfg, err := loadProjectConfig()
		if err != nil {
			return nil, err
		}
		url = cfg.Service.URL
	}
	return schemeclient.New(url, schemeclient.WithLogger(slog.Default())), nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

package main

import (
	"github.com/spboyer/kansan/internal/render"
	"github.com/spboyer/kansan/internal/scheme"
	"github.com/spboyer/kansan/internal/spinner"
	"github.com/spf13/cobra"
)

func newSchemesCommand(opts *globalOptions) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "schemes",
		Short: "List the grading schemes offered by the scheme service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.newClient()
			if err != nil {
				return err
			}

			cat, err := spinner.While(cmd.ErrOrStderr(), isTerminal(cmd.ErrOrStderr()), "Loading schemes",
				func() (*scheme.Catalog, error) {
					return client.LoadCatalog(cmd.Context())
				})
			if err != nil {
				return err
			}

			if jsonOutput {
				return render.JSON(cmd.OutOrStdout(), map[string]any{"schemes": cat.Schemes()})
			}
			return render.Catalog(cmd.OutOrStdout(), cat)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the catalog as JSON")
	return cmd
}

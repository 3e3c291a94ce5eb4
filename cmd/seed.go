package cmd

import (
	"context"
	"fmt"

	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/fixtures"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/param"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/persistence"
	"github.com/spf13/cobra"
)

func SeedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "seed <fixture.yaml>",
		Short:         "Load a project fixture into the database",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// we always init params without aws,
			// b/c fixtures only go into local databases
			if err := param.Init(nil); err != nil {
				return fmt.Errorf("failed to init params: %w", err)
			}
			if param.Get().PGURI == "" {
				return fmt.Errorf("missing required params: ENGINEO_PG_URI")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := fixtures.Load(args[0])
			if err != nil {
				return err
			}

			if err := persistence.InitPostgres(persistence.PostgresOpts{
				URI:                  param.Get().PGURI,
				MaxConns:             2,
				DisableHealthMonitor: true,
			}); err != nil {
				return fmt.Errorf("failed to initialize postgres connection: %w", err)
			}
			defer persistence.Close()

			if err := fixtures.Seed(context.Background(), f); err != nil {
				return fmt.Errorf("failed to seed fixture: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Seeded project %s with %d bundle(s)\n", f.Project.ID, len(f.Bundles))
			return nil
		},
	}

	return cmd
}

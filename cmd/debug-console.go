package cmd

import (
	"fmt"

	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/debugcli"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/param"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/persistence"
	"github.com/spf13/cobra"
)

func DebugConsoleCmd() *cobra.Command {
	var projectID string
	var userID string
	var role string
	var nonInteractive bool

	cmd := &cobra.Command{
		Use:   "debug-console [command] [flags]",
		Short: "Interactive debug console for the work queue",
		Long: `A development tool for inspecting how work queue bundles resolve for each
role, previewing drafts and queueing worker actions without going through the app.

When run without arguments, it launches an interactive console mode.
When run with a command, it executes that command and exits, suitable for scripting.

Examples:
  # Interactive mode
  debug-console

  # Run a single command (non-interactive mode)
  debug-console list --project-id proj-demo --role VIEWER
  debug-console diff 1 --project-id proj-demo
  debug-console enqueue generate 1 --project-id proj-demo --user-id u-ed`,
		Args: cobra.ArbitraryArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// we always init params without aws,
			// b/c the console runs against a local database
			if err := param.Init(nil); err != nil {
				return fmt.Errorf("failed to init params: %w", err)
			}

			pgOpts := persistence.PostgresOpts{
				URI:                  param.Get().PGURI,
				MaxConns:             4,
				DisableHealthMonitor: true,
			}
			if err := persistence.InitPostgres(pgOpts); err != nil {
				return fmt.Errorf("failed to initialize postgres connection: %w", err)
			}

			if len(args) > 0 {
				nonInteractive = true
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			defer persistence.Close()

			opts := debugcli.ConsoleOptions{
				ProjectID:      projectID,
				UserID:         userID,
				Role:           role,
				NonInteractive: nonInteractive,
				Command:        args,
			}
			return debugcli.RunConsole(opts)
		},
	}

	cmd.Flags().StringVar(&projectID, "project-id", "", "Project ID to use for commands")
	cmd.Flags().StringVar(&userID, "user-id", "", "Resolve and act as this project member")
	cmd.Flags().StringVar(&role, "role", "", "Resolve as OWNER, EDITOR or VIEWER")

	return cmd
}

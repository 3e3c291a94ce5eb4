package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/listener"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/logger"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/param"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/persistence"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/realtime"
	realtimetypes "github.com/narasimhan-me/SEOEngine.io-sub014/pkg/realtime/types"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/slack"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func RunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the worker",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.GetViper()
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}

			var sess *session.Session
			if os.Getenv("USE_EC2_PARAMETERS") == "true" {
				s, err := session.NewSession(aws.NewConfig().WithCredentialsChainVerboseErrors(true))
				if err != nil {
					// logging is not configured yet
					fmt.Printf("Failed to create aws session: %v\n", err)
				}
				sess = s
			}

			if err := param.Init(sess); err != nil {
				return fmt.Errorf("failed to init params: %w", err)
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := runWorker(ctx, param.Get()); err != nil {
				return fmt.Errorf("worker error: %w", err)
			}
			return nil
		},
	}

	return runCmd
}

func runWorker(ctx context.Context, p param.Params) error {
	pgOpts := persistence.PostgresOpts{
		URI: p.PGURI,
	}
	if err := persistence.InitPostgres(pgOpts); err != nil {
		return fmt.Errorf("failed to initialize postgres connection: %w", err)
	}
	defer persistence.Close()

	realtime.Init(ctx, &realtimetypes.Config{
		Address: p.CentrifugoAddress,
		APIKey:  p.CentrifugoAPIKey,
	})

	if p.SlackToken == "" {
		logger.Warn("ENGINEO_SLACK_TOKEN is not set, approval requests will not be posted")
	}
	slack.Init(p.SlackToken, p.SlackChannel)

	// Start the connection heartbeat before starting the listeners
	listener.StartHeartbeat(ctx)

	if err := listener.StartListeners(ctx); err != nil {
		return fmt.Errorf("failed to start listeners: %w", err)
	}

	return nil
}

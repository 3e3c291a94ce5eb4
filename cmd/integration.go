package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/integration"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/llm"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/param"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/persistence"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/testhelpers"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func IntegrationCmd() *cobra.Command {
	integrationCmd := &cobra.Command{
		Use:           "integration",
		Short:         "Run the draft lifecycle against a throwaway database and the live model",
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.GetViper()
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}

			// we always init params without aws,
			// b/c we always use os env for tests
			if err := param.Init(nil); err != nil {
				return fmt.Errorf("failed to init params: %w", err)
			}

			missingParams := []string{}

			if param.Get().AnthropicAPIKey == "" {
				missingParams = append(missingParams, "ANTHROPIC_API_KEY")
			}

			if len(missingParams) > 0 {
				return fmt.Errorf("missing required params: %s", strings.Join(missingParams, ", "))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := runIntegrationTests(ctx, viper.GetString("model")); err != nil {
				return fmt.Errorf("failed to run integration tests: %w", err)
			}

			fmt.Println("integration tests passed")
			return nil
		},
	}

	integrationCmd.Flags().String("model", "", "Anthropic model to draft with")

	return integrationCmd
}

func runIntegrationTests(ctx context.Context, model string) error {
	opts := testhelpers.CreatePostgresContainerOpts{
		CreateSchema: true,
	}

	pgTestContainer, err := testhelpers.CreatePostgresContainer(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to create postgres container: %w", err)
	}
	defer pgTestContainer.Terminate(ctx)

	if err := persistence.InitPostgres(persistence.PostgresOpts{
		URI:                  pgTestContainer.ConnectionString,
		DisableHealthMonitor: true,
	}); err != nil {
		return fmt.Errorf("failed to init postgres: %w", err)
	}
	defer persistence.Close()

	completer, err := llm.NewAnthropicCompleter(model)
	if err != nil {
		return fmt.Errorf("failed to create completer: %w", err)
	}

	if err := integration.IntegrationTest_DraftLifecycle(ctx, completer); err != nil {
		return fmt.Errorf("draft lifecycle: %w", err)
	}

	return nil
}

package cmd

import (
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func RootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "engineo-worker",
		Short: "Work queue worker for EngineO",
		Long:  `Worker that resolves work queue bundles, generates metadata drafts and applies approved changes`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetLevel(viper.GetString("log-level"))
		},
	}

	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(RunCmd())
	rootCmd.AddCommand(ResolveCmd())
	rootCmd.AddCommand(SeedCmd())
	rootCmd.AddCommand(IntegrationCmd())
	rootCmd.AddCommand(DebugConsoleCmd())

	return rootCmd
}

package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/seokit/gsc-indexer/internal/app"
	"github.com/seokit/gsc-indexer/internal/auth"
	"github.com/seokit/gsc-indexer/internal/gsc"
	"github.com/seokit/gsc-indexer/pkg/config"
)

var cfgFile string

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the application interface that commands will use.
// This allows us to inject a mock app during tests.
type App interface {
	Close()
	GetLogger() *zap.Logger
	GetTokenSource() auth.TokenSource
	GetAPI() *gsc.Client
}

// newApp is the application factory. It's a variable so we can
// replace it with a mock factory in our tests.
var newApp func() (App, error) = func() (App, error) {
	return app.NewApp()
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gsc-indexer",
		Short: "Bulk indexing-status checks and indexing requests for a verified site.",
		Long: `gsc-indexer drives bulk "check indexing status, then request indexing"
workflows against the Google Search Console and Indexing APIs. It rotates
between multiple service-account credentials when the active one is rate
limited, caches per-page statuses between runs, and checks statuses with
bounded concurrency.`,

		// This hook runs AFTER config is loaded but BEFORE the subcommand's
		// RunE, so services can be built from the final configuration.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp()
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		// This hook ensures services are shut down gracefully.
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	// Initialize Viper configuration. An explicit --config takes
	// precedence over the default search paths.
	cobra.OnInitialize(func() {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		}
		config.InitConfig()
	})

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.gsc-indexer/config.yaml)")

	cmd.AddCommand(newIndexCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

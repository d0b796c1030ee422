// Package cmd defines and implements the CLI commands for the gsc-indexer
// executable.
package cmd

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/seokit/gsc-indexer/internal/auth"
	"github.com/seokit/gsc-indexer/internal/cache"
	"github.com/seokit/gsc-indexer/internal/clock/system"
	"github.com/seokit/gsc-indexer/internal/orchestrator"
	"github.com/seokit/gsc-indexer/internal/pool"
)

type indexOptions struct {
	credentialsPath string
	clientEmail     string
	privateKey      string
	urls            []string
	noRetry         bool
}

// newIndexCmd creates and configures the 'index' subcommand, which runs the
// full status-check and indexing-request workflow for one site.
func newIndexCmd() *cobra.Command {
	opts := &indexOptions{}

	cmd := &cobra.Command{
		Use:   "index <site>",
		Short: "Check indexing status and request indexing for a site's pages",
		Long: `Checks the indexing status of every page of the site (from its registered
sitemaps, or from an explicit URL list) and requests indexing for the pages
not yet confirmed indexed. The site may be a bare domain, a URL prefix, or
an sc-domain: property.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndexCommand(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.credentialsPath, "credentials", "", "service account key file, or a directory of key files for rotation")
	cmd.Flags().StringVar(&opts.clientEmail, "client-email", "", "service account client email (overrides --credentials)")
	cmd.Flags().StringVar(&opts.privateKey, "private-key", "", "service account private key (overrides --credentials)")
	cmd.Flags().StringSliceVar(&opts.urls, "urls", nil, "explicit page URLs to process instead of the site's sitemaps")
	cmd.Flags().BoolVar(&opts.noRetry, "no-retry", false, "disable credential rotation on rate-limited responses")

	return cmd
}

func runIndexCommand(cmd *cobra.Command, site string, opts *indexOptions) error {
	appInstance, err := resolveApp(cmd)
	if err != nil {
		return err
	}
	runID := uuid.NewString()
	logger := appInstance.GetLogger().With(zap.String("run_id", runID))
	ctx := cmd.Context()

	creds, err := resolveCredentials(opts)
	if err != nil {
		return err
	}

	sessions, err := pool.Build(ctx, creds, site, appInstance.GetTokenSource(), appInstance.GetAPI(), logger.Named("pool"))
	if err != nil {
		return fmt.Errorf("build credential pool: %w", err)
	}

	store := cache.NewStore(
		viper.GetString("indexer.cache_dir"),
		sessions.Site(),
		viper.GetDuration("indexer.freshness_window"),
		system.New(),
		logger.Named("cache"),
	)

	orch := orchestrator.New(
		appInstance.GetAPI(),
		sessions,
		store,
		orchestrator.Config{
			Concurrency:     viper.GetInt("indexer.concurrency"),
			RetryOnThrottle: viper.GetBool("indexer.retry_on_throttle") && !opts.noRetry,
		},
		logger.Named("orchestrator"),
	)

	result, err := orch.Run(ctx, explicitURLs(cmd, opts))
	if err != nil {
		return fmt.Errorf("run indexing workflow: %w", err)
	}

	result.Render(cmd.OutOrStdout())
	logger.Info("run finished",
		zap.Int("pages", result.Pages),
		zap.Int("submitted", len(result.Submitted)),
		zap.Int("failed", len(result.Failed)),
	)
	return nil
}

// explicitURLs distinguishes "flag not given" (nil, fall back to sitemaps)
// from an explicitly supplied list.
func explicitURLs(cmd *cobra.Command, opts *indexOptions) []string {
	if !cmd.Flags().Changed("urls") {
		return nil
	}
	if opts.urls == nil {
		return []string{}
	}
	return opts.urls
}

// resolveCredentials picks the credential source by precedence: an explicit
// email/key override pair, then the --credentials path, then the configured
// path from file or environment.
func resolveCredentials(opts *indexOptions) ([]auth.Credential, error) {
	if opts.clientEmail != "" || opts.privateKey != "" {
		cred, err := auth.FromPair(opts.clientEmail, opts.privateKey)
		if err != nil {
			return nil, err
		}
		return []auth.Credential{cred}, nil
	}
	if email, key := viper.GetString("credentials.client_email"), viper.GetString("credentials.private_key"); email != "" || key != "" {
		cred, err := auth.FromPair(email, key)
		if err != nil {
			return nil, err
		}
		return []auth.Credential{cred}, nil
	}
	path := opts.credentialsPath
	if path == "" {
		path = viper.GetString("credentials.path")
	}
	if path == "" {
		return nil, errors.New("no credentials configured: pass --credentials or --client-email/--private-key")
	}
	return auth.Load(path)
}

func resolveApp(cmd *cobra.Command) (App, error) {
	appInstance, ok := cmd.Context().Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

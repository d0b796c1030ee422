// Package app initializes and holds long-lived application services, acting
// as a dependency injection container.
package app

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/seokit/gsc-indexer/internal/auth"
	"github.com/seokit/gsc-indexer/internal/gsc"
	"github.com/seokit/gsc-indexer/internal/logging"
	"github.com/seokit/gsc-indexer/internal/quota"
)

// App holds the shared, long-lived services for one invocation: the logger,
// the token source, and the API client with its quota pacer. Per-run state
// (the credential pool, the cache store, the orchestrator) is built by the
// command once the target site is known.
type App struct {
	logger *zap.Logger
	tokens auth.TokenSource
	api    *gsc.Client
}

// GetLogger returns the shared zap logger instance.
func (a *App) GetLogger() *zap.Logger {
	return a.logger
}

// GetTokenSource returns the service-account token exchanger.
func (a *App) GetTokenSource() auth.TokenSource {
	return a.tokens
}

// GetAPI returns the Search Console / Indexing API client.
func (a *App) GetAPI() *gsc.Client {
	return a.api
}

// Close flushes buffered log output.
func (a *App) Close() {
	_ = a.logger.Sync()
}

// NewApp creates and initializes a new App from the application's
// configuration. It is the central point for service initialization and
// fails fast if any critical service cannot be built.
func NewApp() (*App, error) {
	logger, err := logging.New(viper.GetBool("logging.development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	limiter := quota.New(quota.Config{
		RequestsPerSecond: viper.GetFloat64("quota.requests_per_second"),
		Burst:             viper.GetInt("quota.burst"),
	})

	api := gsc.NewClient(gsc.Config{
		RequestTimeout: viper.GetDuration("http.request_timeout"),
	}, limiter, logger.Named("gsc"))

	return &App{
		logger: logger,
		tokens: auth.NewJWTTokenSource(),
		api:    api,
	}, nil
}

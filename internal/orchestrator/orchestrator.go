// Package orchestrator drives the two-phase bulk indexing workflow: a
// bounded-concurrency status check over the page set, then a serial
// indexing-request pass over the pages still eligible for indexing. Both
// phases share a rotate-on-throttle retry protocol over the credential
// pool.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/seokit/gsc-indexer/internal/batch"
	"github.com/seokit/gsc-indexer/internal/cache"
	"github.com/seokit/gsc-indexer/internal/gsc"
)

// ErrNoSitemaps is returned when no explicit URLs were supplied and the
// site has no registered sitemaps, leaving no page source to operate on.
var ErrNoSitemaps = errors.New("no sitemaps registered for site")

// API is the remote surface the orchestrator drives. Implemented by
// *gsc.Client.
type API interface {
	ListSitemapsAndPages(ctx context.Context, tok gsc.AccessToken, siteForm string) (sitemaps, pages []string, err error)
	FetchPageStatus(ctx context.Context, tok gsc.AccessToken, siteForm, pageURL string) gsc.StatusKind
	ProbePublishMetadata(ctx context.Context, tok gsc.AccessToken, pageURL string) (int, error)
	RequestIndexing(ctx context.Context, tok gsc.AccessToken, pageURL string) (int, error)
}

// SessionPool is the credential rotation surface. Implemented by
// *pool.Pool.
type SessionPool interface {
	Size() int
	Site() string
	Active() gsc.AccessToken
	Rotate(ctx context.Context) gsc.AccessToken
}

// Config controls orchestrator behavior.
type Config struct {
	// Concurrency caps simultaneously in-flight status checks.
	Concurrency int
	// RetryOnThrottle enables credential rotation on RateLimited and
	// Forbidden responses. When false the first throttled result stands.
	RetryOnThrottle bool
}

// Orchestrator executes one full run against a verified site.
type Orchestrator struct {
	api    API
	pool   SessionPool
	store  *cache.Store
	cfg    Config
	logger *zap.Logger
}

// New constructs an Orchestrator.
func New(api API, sessions SessionPool, store *cache.Store, cfg Config, logger *zap.Logger) *Orchestrator {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 50
	}
	return &Orchestrator{
		api:    api,
		pool:   sessions,
		store:  store,
		cfg:    cfg,
		logger: logger,
	}
}

// Run resolves the page set, checks the indexing status of every page, and
// requests indexing for the pages still eligible. The returned Result is
// complete even when individual pages failed; only a missing page source
// aborts the run.
func (o *Orchestrator) Run(ctx context.Context, explicitURLs []string) (*Result, error) {
	pages, err := o.resolvePages(ctx, explicitURLs)
	if err != nil {
		return nil, err
	}
	o.logger.Info("page set resolved",
		zap.String("site", o.pool.Site()),
		zap.Int("pages", len(pages)),
	)

	if err := o.store.Load(); err != nil {
		return nil, err
	}

	partition, err := o.checkStatuses(ctx, pages)
	if err != nil {
		return nil, err
	}
	if err := o.store.Persist(); err != nil {
		return nil, err
	}

	result := &Result{Pages: len(pages), Partition: partition}
	o.requestIndexingAll(ctx, partition.Indexable(), result)
	return result, nil
}

// resolvePages is the page-set resolution phase. Explicit URLs are
// validated against the verified site form and used directly; otherwise
// every registered sitemap's page list is flattened. An explicit list that
// is empty yields an empty (but valid) run; a site with no sitemaps and no
// explicit list is fatal.
func (o *Orchestrator) resolvePages(ctx context.Context, explicitURLs []string) ([]string, error) {
	if explicitURLs != nil {
		pages, err := gsc.ValidatePageURLs(o.pool.Site(), explicitURLs)
		if err != nil {
			return nil, fmt.Errorf("validate explicit urls: %w", err)
		}
		return pages, nil
	}
	sitemaps, pages, err := o.api.ListSitemapsAndPages(ctx, o.pool.Active(), o.pool.Site())
	if err != nil {
		return nil, fmt.Errorf("list sitemaps: %w", err)
	}
	if len(sitemaps) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSitemaps, o.pool.Site())
	}
	o.logger.Info("sitemaps discovered", zap.Int("sitemaps", len(sitemaps)))
	return pages, nil
}

// checkStatuses is the batch status-check phase. Each page consults the
// cache first and only fetches live on a miss or a stale indexable record.
func (o *Orchestrator) checkStatuses(ctx context.Context, pages []string) (*Partition, error) {
	partition := NewPartition()
	err := batch.Run(ctx, pages, o.cfg.Concurrency,
		func(ctx context.Context, page string) {
			if rec, ok := o.store.Fresh(page); ok {
				partition.Add(rec.Status, page)
				return
			}
			status := o.fetchStatusRotating(ctx, page)
			o.store.Put(page, status)
			partition.Add(status, page)
		},
		func(current, total int) {
			o.logger.Info("status batch done",
				zap.Int("batch", current),
				zap.Int("batches", total),
			)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("status check phase: %w", err)
	}
	return partition, nil
}

// fetchStatusRotating applies the rotation sub-protocol to the status
// fetch: throttled results advance the pool, bounded by the pool size so a
// fully throttled pool cannot loop forever. The last observed result is
// surfaced on exhaustion.
func (o *Orchestrator) fetchStatusRotating(ctx context.Context, page string) gsc.StatusKind {
	tok := o.pool.Active()
	attempts := 0
	for {
		status := o.api.FetchPageStatus(ctx, tok, o.pool.Site(), page)
		if !status.IsThrottle() || !o.cfg.RetryOnThrottle {
			return status
		}
		attempts++
		if attempts >= o.pool.Size() {
			return status
		}
		o.logger.Debug("rotating after throttled status check",
			zap.String("url", page),
			zap.String("status", string(status)),
		)
		tok = o.pool.Rotate(ctx)
	}
}

// requestIndexingAll is the indexing-request phase. It is deliberately
// serial: each call is already rotated on throttle, and submission side
// effects against one site should not be parallelized. A page exhausting
// its rotation budget is recorded and the loop continues.
func (o *Orchestrator) requestIndexingAll(ctx context.Context, pages []string, result *Result) {
	for _, page := range pages {
		outcome := o.requestIndexingOne(ctx, page)
		switch outcome {
		case outcomeSubmitted:
			result.Submitted = append(result.Submitted, page)
			o.logger.Info("indexing requested", zap.String("url", page))
		case outcomeAlreadySubmitted:
			result.AlreadySubmitted = append(result.AlreadySubmitted, page)
			o.logger.Debug("already submitted", zap.String("url", page))
		case outcomeFailed:
			result.Failed = append(result.Failed, page)
			o.logger.Warn("indexing request failed", zap.String("url", page))
		}
	}
}

type indexingOutcome int

const (
	outcomeSubmitted indexingOutcome = iota
	outcomeAlreadySubmitted
	outcomeFailed
)

// requestIndexingOne probes the publish metadata for one page and submits
// an indexing request when the probe says the page was never submitted.
// The rotation budget resets for every page, so a systemically throttled
// pool retries the full cycle per URL.
func (o *Orchestrator) requestIndexingOne(ctx context.Context, page string) indexingOutcome {
	code := o.callRotating(ctx, func(tok gsc.AccessToken) int {
		c, err := o.api.ProbePublishMetadata(ctx, tok, page)
		if err != nil {
			o.logger.Warn("publish metadata probe failed", zap.String("url", page), zap.Error(err))
			return http.StatusInternalServerError
		}
		return c
	})
	switch {
	case code == http.StatusNotFound:
		return o.submit(ctx, page)
	case code < http.StatusBadRequest:
		return outcomeAlreadySubmitted
	default:
		return outcomeFailed
	}
}

func (o *Orchestrator) submit(ctx context.Context, page string) indexingOutcome {
	code := o.callRotating(ctx, func(tok gsc.AccessToken) int {
		c, err := o.api.RequestIndexing(ctx, tok, page)
		if err != nil {
			o.logger.Warn("indexing submission failed", zap.String("url", page), zap.Error(err))
			return http.StatusInternalServerError
		}
		return c
	})
	if code < http.StatusBadRequest {
		return outcomeSubmitted
	}
	return outcomeFailed
}

// callRotating runs one remote call under the rotation sub-protocol, with
// HTTP 429 and 403 as the throttle signals.
func (o *Orchestrator) callRotating(ctx context.Context, call func(tok gsc.AccessToken) int) int {
	tok := o.pool.Active()
	attempts := 0
	for {
		code := call(tok)
		throttled := code == http.StatusTooManyRequests || code == http.StatusForbidden
		if !throttled || !o.cfg.RetryOnThrottle {
			return code
		}
		attempts++
		if attempts >= o.pool.Size() {
			return code
		}
		tok = o.pool.Rotate(ctx)
	}
}

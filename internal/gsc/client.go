package gsc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/seokit/gsc-indexer/internal/quota"
)

// Default API endpoints. Overridable in tests.
const (
	defaultWebmastersBase    = "https://www.googleapis.com/webmasters/v3"
	defaultSearchConsoleBase = "https://searchconsole.googleapis.com/v1"
	defaultIndexingBase      = "https://indexing.googleapis.com/v3"
)

// Config captures the parameters for the API client.
type Config struct {
	RequestTimeout    time.Duration
	WebmastersBase    string
	SearchConsoleBase string
	IndexingBase      string
}

// Client speaks to the Search Console and Indexing APIs over plain HTTP
// with bearer tokens supplied per call, so a credential rotation is visible
// to in-flight callers immediately.
type Client struct {
	httpClient        *http.Client
	limiter           *quota.Limiter
	logger            *zap.Logger
	webmastersBase    string
	searchConsoleBase string
	indexingBase      string
}

// NewClient constructs a Client.
func NewClient(cfg Config, limiter *quota.Limiter, logger *zap.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		httpClient:        &http.Client{Timeout: timeout},
		limiter:           limiter,
		logger:            logger,
		webmastersBase:    cfg.WebmastersBase,
		searchConsoleBase: cfg.SearchConsoleBase,
		indexingBase:      cfg.IndexingBase,
	}
	if c.webmastersBase == "" {
		c.webmastersBase = defaultWebmastersBase
	}
	if c.searchConsoleBase == "" {
		c.searchConsoleBase = defaultSearchConsoleBase
	}
	if c.indexingBase == "" {
		c.indexingBase = defaultIndexingBase
	}
	return c
}

// VerifySiteOwnership checks which of the candidate property forms the
// token's credential can read and returns the first accessible canonical
// form. Access to none of the forms is an error.
func (c *Client) VerifySiteOwnership(ctx context.Context, tok AccessToken, site string) (string, error) {
	forms := SiteForms(site)
	if len(forms) == 0 {
		return "", fmt.Errorf("empty site identifier")
	}
	var lastStatus int
	for _, form := range forms {
		endpoint := fmt.Sprintf("%s/sites/%s", c.webmastersBase, url.PathEscape(form))
		status, _, err := c.do(ctx, tok, http.MethodGet, endpoint, nil)
		if err != nil {
			return "", err
		}
		if status == http.StatusOK {
			return form, nil
		}
		lastStatus = status
		c.logger.Debug("site form not accessible",
			zap.String("site_form", form),
			zap.Int("status", status),
		)
	}
	return "", fmt.Errorf("no access to site %q (last status %d)", site, lastStatus)
}

type sitemapEntry struct {
	Path string `json:"path"`
}

type sitemapListResponse struct {
	Sitemap []sitemapEntry `json:"sitemap"`
}

// ListSitemapsAndPages lists the sitemaps registered for the site and
// flattens their page URLs into a single list, preserving sitemap order.
func (c *Client) ListSitemapsAndPages(ctx context.Context, tok AccessToken, siteForm string) ([]string, []string, error) {
	endpoint := fmt.Sprintf("%s/sites/%s/sitemaps", c.webmastersBase, url.PathEscape(siteForm))
	status, body, err := c.do(ctx, tok, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil, err
	}
	if status != http.StatusOK {
		return nil, nil, fmt.Errorf("list sitemaps for %q: status %d", siteForm, status)
	}
	var resp sitemapListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, nil, fmt.Errorf("decode sitemap list: %w", err)
	}

	sitemaps := make([]string, 0, len(resp.Sitemap))
	var pages []string
	seen := make(map[string]struct{})
	for _, entry := range resp.Sitemap {
		sitemaps = append(sitemaps, entry.Path)
		urls, err := c.fetchSitemapPages(ctx, entry.Path, 0)
		if err != nil {
			c.logger.Warn("fetch sitemap failed",
				zap.String("sitemap", entry.Path),
				zap.Error(err),
			)
			continue
		}
		for _, u := range urls {
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			pages = append(pages, u)
		}
	}
	return sitemaps, pages, nil
}

type inspectRequest struct {
	InspectionURL string `json:"inspectionUrl"`
	SiteURL       string `json:"siteUrl"`
}

type inspectResponse struct {
	InspectionResult struct {
		IndexStatusResult struct {
			CoverageState string `json:"coverageState"`
		} `json:"indexStatusResult"`
	} `json:"inspectionResult"`
}

// FetchPageStatus inspects a single URL and maps the coverage verdict onto
// a StatusKind. Transport-level throttling and denial are folded into the
// status space rather than returned as errors, since the caller reacts to
// them by rotating credentials.
func (c *Client) FetchPageStatus(ctx context.Context, tok AccessToken, siteForm, pageURL string) StatusKind {
	endpoint := c.searchConsoleBase + "/urlInspection/index:inspect"
	payload, err := json.Marshal(inspectRequest{InspectionURL: pageURL, SiteURL: siteForm})
	if err != nil {
		return StatusError
	}
	status, body, err := c.do(ctx, tok, http.MethodPost, endpoint, payload)
	if err != nil {
		c.logger.Warn("inspect request failed", zap.String("url", pageURL), zap.Error(err))
		return StatusError
	}
	switch status {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return StatusRateLimited
	case http.StatusForbidden:
		return StatusForbidden
	default:
		c.logger.Warn("inspect returned unexpected status",
			zap.String("url", pageURL),
			zap.Int("status", status),
		)
		return StatusError
	}
	var resp inspectResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return StatusError
	}
	return coverageToStatus(resp.InspectionResult.IndexStatusResult.CoverageState)
}

// ProbePublishMetadata asks the Indexing API whether a notification exists
// for the URL and returns the raw HTTP status code; 404 means the URL was
// never submitted.
func (c *Client) ProbePublishMetadata(ctx context.Context, tok AccessToken, pageURL string) (int, error) {
	endpoint := fmt.Sprintf("%s/urlNotifications/metadata?url=%s", c.indexingBase, url.QueryEscape(pageURL))
	status, _, err := c.do(ctx, tok, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("publish metadata for %q: %w", pageURL, err)
	}
	return status, nil
}

type publishRequest struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

// RequestIndexing notifies the Indexing API that the URL was updated and
// returns the raw HTTP status code.
func (c *Client) RequestIndexing(ctx context.Context, tok AccessToken, pageURL string) (int, error) {
	endpoint := c.indexingBase + "/urlNotifications:publish"
	payload, err := json.Marshal(publishRequest{URL: pageURL, Type: "URL_UPDATED"})
	if err != nil {
		return 0, fmt.Errorf("encode publish request: %w", err)
	}
	status, _, err := c.do(ctx, tok, http.MethodPost, endpoint, payload)
	if err != nil {
		return 0, fmt.Errorf("request indexing for %q: %w", pageURL, err)
	}
	return status, nil
}

func coverageToStatus(coverage string) StatusKind {
	switch StatusKind(coverage) {
	case StatusSubmittedAndIndexed,
		StatusDuplicateWithoutUserSelectedCanonical,
		StatusCrawledCurrentlyNotIndexed,
		StatusDiscoveredCurrentlyNotIndexed,
		StatusPageWithRedirect,
		StatusURLIsUnknownToGoogle:
		return StatusKind(coverage)
	default:
		return StatusError
	}
}

func (c *Client) do(ctx context.Context, tok AccessToken, method, endpoint string, payload []byte) (int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, tok.Identity); err != nil {
			return 0, nil, err
		}
	}
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok.Bearer)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return 0, nil, fmt.Errorf("read response body: %w", err)
	}
	return resp.StatusCode, body, nil
}

package gsc

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
)

// maxSitemapDepth bounds recursion through nested sitemap index files.
const maxSitemapDepth = 2

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	URLs    []sitemapLoc `xml:"url"`
}

type sitemapIndex struct {
	XMLName  xml.Name     `xml:"sitemapindex"`
	Sitemaps []sitemapLoc `xml:"sitemap"`
}

type sitemapLoc struct {
	Loc string `xml:"loc"`
}

// fetchSitemapPages downloads a sitemap document and returns the page URLs
// it lists. Sitemap index files are followed one level down.
func (c *Client) fetchSitemapPages(ctx context.Context, sitemapURL string, depth int) ([]string, error) {
	if depth >= maxSitemapDepth {
		return nil, fmt.Errorf("sitemap nesting too deep at %q", sitemapURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sitemapURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build sitemap request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sitemap %q: %w", sitemapURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch sitemap %q: status %d", sitemapURL, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("read sitemap %q: %w", sitemapURL, err)
	}

	var set sitemapURLSet
	if err := xml.Unmarshal(body, &set); err == nil && len(set.URLs) > 0 {
		pages := make([]string, 0, len(set.URLs))
		for _, u := range set.URLs {
			if u.Loc != "" {
				pages = append(pages, u.Loc)
			}
		}
		return pages, nil
	}

	var index sitemapIndex
	if err := xml.Unmarshal(body, &index); err != nil || len(index.Sitemaps) == 0 {
		return nil, fmt.Errorf("sitemap %q: not a urlset or sitemapindex", sitemapURL)
	}
	var pages []string
	for _, child := range index.Sitemaps {
		if child.Loc == "" {
			continue
		}
		childPages, err := c.fetchSitemapPages(ctx, child.Loc, depth+1)
		if err != nil {
			return nil, err
		}
		pages = append(pages, childPages...)
	}
	return pages, nil
}

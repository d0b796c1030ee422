// Package main hosts the gsc-indexer CLI entrypoint.
//
// The binary runs once to completion per invocation: it verifies which of
// the configured service-account credentials can read the target site,
// resolves the page set from explicit URLs or the site's sitemaps, checks
// every page's indexing status with bounded concurrency (consulting the
// per-site cache first), then requests indexing serially for the pages not
// yet confirmed indexed. Rate-limited credentials are rotated round-robin,
// bounded by the pool size.
package main

import "github.com/seokit/gsc-indexer/cmd"

func main() {
	cmd.Execute()
}

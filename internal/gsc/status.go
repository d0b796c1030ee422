// Package gsc implements a thin client for the Google Search Console and
// Indexing APIs: site ownership checks, sitemap listing, URL inspection,
// and indexing notifications.
package gsc

// StatusKind is the closed set of per-page indexing outcomes the
// orchestrator reacts to. The first seven mirror the coverage verdicts the
// URL inspection API reports; RateLimited, Forbidden and Error are transport
// outcomes folded into the same space so every processed URL lands in
// exactly one bucket.
type StatusKind string

const (
	StatusSubmittedAndIndexed                   StatusKind = "Submitted and indexed"
	StatusDuplicateWithoutUserSelectedCanonical StatusKind = "Duplicate without user-selected canonical"
	StatusCrawledCurrentlyNotIndexed            StatusKind = "Crawled - currently not indexed"
	StatusDiscoveredCurrentlyNotIndexed         StatusKind = "Discovered - currently not indexed"
	StatusPageWithRedirect                      StatusKind = "Page with redirect"
	StatusURLIsUnknownToGoogle                  StatusKind = "URL is unknown to Google"
	StatusRateLimited                           StatusKind = "RateLimited"
	StatusForbidden                             StatusKind = "Forbidden"
	StatusError                                 StatusKind = "Error"
)

// AllStatuses lists every StatusKind in display order. The orchestrator's
// partition map is initialized from this so no status is left unhandled.
var AllStatuses = []StatusKind{
	StatusSubmittedAndIndexed,
	StatusDuplicateWithoutUserSelectedCanonical,
	StatusCrawledCurrentlyNotIndexed,
	StatusDiscoveredCurrentlyNotIndexed,
	StatusPageWithRedirect,
	StatusURLIsUnknownToGoogle,
	StatusRateLimited,
	StatusForbidden,
	StatusError,
}

// indexableStatuses are the outcomes for which a page is still a candidate
// for an indexing request.
var indexableStatuses = map[StatusKind]struct{}{
	StatusDiscoveredCurrentlyNotIndexed: {},
	StatusCrawledCurrentlyNotIndexed:    {},
	StatusURLIsUnknownToGoogle:          {},
	StatusForbidden:                     {},
	StatusError:                         {},
	StatusRateLimited:                   {},
}

// IsIndexable reports whether a page with this status should still be
// submitted for indexing.
func (s StatusKind) IsIndexable() bool {
	_, ok := indexableStatuses[s]
	return ok
}

// IsThrottle reports whether the status signals the active credential is
// being rate limited or denied, which drives credential rotation.
func (s StatusKind) IsThrottle() bool {
	return s == StatusRateLimited || s == StatusForbidden
}

package gsc

import (
	"fmt"
	"net/url"
	"strings"
)

const domainPropertyPrefix = "sc-domain:"

// SiteForms expands raw user input into the candidate property forms the
// Search Console API may know the site under. A bare domain can be
// registered either as a domain property ("sc-domain:example.com") or as a
// URL-prefix property ("https://example.com/"); an input that is already in
// one of those forms is used as-is.
func SiteForms(input string) []string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil
	}
	if strings.HasPrefix(trimmed, domainPropertyPrefix) {
		return []string{trimmed}
	}
	if strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://") {
		if !strings.HasSuffix(trimmed, "/") {
			trimmed += "/"
		}
		return []string{trimmed}
	}
	host := strings.TrimSuffix(trimmed, "/")
	return []string{
		domainPropertyPrefix + host,
		"https://" + host + "/",
	}
}

// IsDomainProperty reports whether the canonical site form is a domain
// property rather than a URL-prefix property.
func IsDomainProperty(siteForm string) bool {
	return strings.HasPrefix(siteForm, domainPropertyPrefix)
}

// ValidatePageURLs checks that every explicitly supplied page URL belongs to
// the verified site and returns the list unchanged on success. Domain
// properties match the apex domain and any subdomain; URL-prefix properties
// require the page URL to start with the verified prefix.
func ValidatePageURLs(siteForm string, pages []string) ([]string, error) {
	for _, page := range pages {
		if err := validatePageURL(siteForm, page); err != nil {
			return nil, err
		}
	}
	return pages, nil
}

func validatePageURL(siteForm, page string) error {
	u, err := url.Parse(page)
	if err != nil {
		return fmt.Errorf("parse page url %q: %w", page, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("page url %q: unsupported scheme %q", page, u.Scheme)
	}
	if IsDomainProperty(siteForm) {
		domain := strings.TrimPrefix(siteForm, domainPropertyPrefix)
		host := u.Hostname()
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return nil
		}
		return fmt.Errorf("page url %q does not belong to property %q", page, siteForm)
	}
	if !strings.HasPrefix(page, siteForm) {
		return fmt.Errorf("page url %q is outside the verified prefix %q", page, siteForm)
	}
	return nil
}

// CacheKey derives a filesystem-safe identifier from the canonical site
// form, used to name the per-site status cache document. The property kind
// stays part of the key: the domain-property and URL-prefix forms of one
// host are distinct SiteTargets and must not share a document.
func CacheKey(siteForm string) string {
	isDomain := IsDomainProperty(siteForm)
	key := strings.TrimPrefix(siteForm, domainPropertyPrefix)
	key = strings.TrimPrefix(key, "https://")
	key = strings.TrimPrefix(key, "http://")
	key = strings.NewReplacer("/", "_", ":", "_").Replace(key)
	key = strings.Trim(key, "_")
	if isDomain {
		return "domain_" + key
	}
	return key
}

package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// NormalizeURL accepts only absolute http(s) URLs with a host.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("url is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("invalid url %q: scheme must be http or https", raw)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("invalid url %q: missing host", raw)
	}
	u.Scheme = scheme
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	return u.String(), nil
}

// Discover loads rawURL as a feed. When the response is not a feed (or is a
// non-2xx status) it tries the well-known feed path for the host. A
// transport failure stops discovery. Every failure wraps ErrNoFeed.
func (f *Fetcher) Discover(ctx context.Context, rawURL string) (Document, error) {
	normalized, err := NormalizeURL(rawURL)
	if err != nil {
		return Document{}, err
	}

	candidates := append([]string{normalized}, fallbackCandidates(normalized)...)
	var lastErr error
	for _, candidate := range candidates {
		doc, err := f.Load(ctx, candidate)
		if err == nil {
			if candidate != normalized {
				f.log.Debug("feed found at fallback path", "url", normalized, "feed_url", candidate)
			}
			return doc, nil
		}

		var statusErr *StatusError
		if !errors.Is(err, ErrNotFeed) && !errors.As(err, &statusErr) {
			return Document{}, fmt.Errorf("%w at %s: %w", ErrNoFeed, normalized, err)
		}
		f.log.Debug("candidate is not a feed", "url", candidate, "err", err)
		lastErr = err
	}
	return Document{}, fmt.Errorf("%w at %s: %w", ErrNoFeed, normalized, lastErr)
}

// fallbackCandidates returns the conventional feed location for the URL's
// host, or nothing when the URL already ends with it.
func fallbackCandidates(normalized string) []string {
	u, err := url.Parse(normalized)
	if err != nil {
		return nil
	}

	suffix := "/feed"
	host := strings.ToLower(u.Hostname())
	switch {
	case hostWithin(host, "tumblr.com"):
		suffix = "/rss"
	case hostWithin(host, "blogspot.com"):
		suffix = "/feeds/posts/default"
	}

	base := strings.TrimRight(u.Path, "/")
	if strings.HasSuffix(strings.ToLower(base), suffix) {
		return nil
	}

	candidate := *u
	candidate.Path = base + suffix
	candidate.RawPath = ""
	candidate.RawQuery = ""
	candidate.Fragment = ""
	return []string{candidate.String()}
}

func hostWithin(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	maxBodyBytes     = 8 << 20
	defaultUserAgent = "reader/0.1"
	acceptHeader     = "application/rss+xml, application/rdf+xml, application/xml, text/xml, */*;q=0.8"
)

var defaultRetryDelays = []time.Duration{
	100 * time.Millisecond,
	250 * time.Millisecond,
	500 * time.Millisecond,
}

// Document is a feed body that parsed successfully, together with the URL
// it was read from.
type Document struct {
	URL     string
	Channel Channel
}

type Fetcher struct {
	client      *http.Client
	userAgent   string
	retryDelays []time.Duration
	log         *slog.Logger
}

func NewFetcher(cfg Config, logger *slog.Logger) *Fetcher {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
	}
	return NewFetcherWithClient(&http.Client{Timeout: cfg.HTTPTimeout, Transport: transport}, cfg, logger)
}

// NewFetcherWithClient uses client as-is. A nil RetryDelays in cfg selects
// the default 100ms/250ms/500ms policy; an empty non-nil slice disables
// retries.
func NewFetcherWithClient(client *http.Client, cfg Config, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	delays := cfg.RetryDelays
	if delays == nil {
		delays = defaultRetryDelays
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Fetcher{
		client:      client,
		userAgent:   userAgent,
		retryDelays: delays,
		log:         logger,
	}
}

// Fetch GETs rawURL and returns the body. Transport failures are retried
// after each configured delay; a non-2xx status is returned immediately as
// a *StatusError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	attempts := len(f.retryDelays) + 1
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := f.retryDelays[attempt-2]
			f.log.Debug("retrying fetch", "url", rawURL, "attempt", attempt, "delay", delay, "err", lastErr)
			if err := sleepContext(ctx, delay); err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrFetch, rawURL, err)
			}
		}

		body, err := f.fetchOnce(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		var statusErr *StatusError
		if errors.As(err, &statusErr) || errors.Is(err, ErrNotFeed) {
			return nil, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrFetch, rawURL, ctxErr)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %s after %d attempts: %w", ErrFetch, rawURL, attempts, lastErr)
}

// Load fetches rawURL once (with retries) and parses it, without trying any
// fallback paths.
func (f *Fetcher) Load(ctx context.Context, rawURL string) (Document, error) {
	body, err := f.Fetch(ctx, rawURL)
	if err != nil {
		return Document{}, err
	}
	channel, err := Parse(body)
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w", rawURL, err)
	}
	return Document{URL: rawURL, Channel: channel}, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", acceptHeader)

	f.log.Debug("fetching", "url", rawURL)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxBodyBytes {
		return nil, fmt.Errorf("%w: %s: response exceeds %d bytes", ErrNotFeed, rawURL, maxBodyBytes)
	}
	return body, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

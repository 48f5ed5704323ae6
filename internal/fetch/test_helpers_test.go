package fetch

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"
)

func newTestFetcher(t *testing.T) *Fetcher {
	t.Helper()
	return NewFetcherWithClient(&http.Client{Timeout: 5 * time.Second}, Config{
		UserAgent:   "reader-test/1.0",
		RetryDelays: []time.Duration{0, 0, 0},
	}, nil)
}

// hostRewriter sends every request to srv while recording the URL the
// fetcher asked for, so tests can use real-looking hosts.
type hostRewriter struct {
	target *url.URL

	mu        sync.Mutex
	requested []string
}

func newHostRewriter(t *testing.T, srv *httptest.Server) *hostRewriter {
	t.Helper()
	target, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	return &hostRewriter{target: target}
}

func (h *hostRewriter) RoundTrip(req *http.Request) (*http.Response, error) {
	h.mu.Lock()
	h.requested = append(h.requested, req.URL.String())
	h.mu.Unlock()

	out := req.Clone(req.Context())
	out.URL.Scheme = h.target.Scheme
	out.URL.Host = h.target.Host
	out.Host = req.URL.Host
	return http.DefaultTransport.RoundTrip(out)
}

func (h *hostRewriter) Requested() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.requested...)
}

func newRewritingFetcher(t *testing.T, srv *httptest.Server) (*Fetcher, *hostRewriter) {
	t.Helper()
	rw := newHostRewriter(t, srv)
	f := NewFetcherWithClient(&http.Client{Timeout: 5 * time.Second, Transport: rw}, Config{
		RetryDelays: []time.Duration{},
	}, nil)
	return f, rw
}

const sampleRSS = `<?xml version="1.0"?>
<rss version="2.0"><channel>
<title>Sample Feed</title><link>https://example.com</link><description>about</description>
<item>
  <title>First</title>
  <link>https://example.com/first</link>
  <description><![CDATA[<p>Hello</p>]]></description>
  <author>alice@example.com</author>
  <pubDate>Tue, 02 Jan 2024 10:00:00 +0000</pubDate>
</item>
<item>
  <description>bare item</description>
</item>
</channel></rss>`

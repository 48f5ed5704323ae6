package reader

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tengjizhang/reader/internal/fetch"
	"github.com/tengjizhang/reader/internal/model"
	"github.com/tengjizhang/reader/internal/store"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := store.OpenDB(store.DriverSQLite, filepath.Join(t.TempDir(), "reader.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return store.NewStore(db, store.DriverSQLite)
}

func newTestEngine(t *testing.T, src Source) (*Engine, *store.Store) {
	t.Helper()
	s := newTestStore(t)
	e := NewEngine(store.NewHandle(s), src, Options{
		Concurrency: 2,
		Now:         func() time.Time { return fixedNow },
	})
	return e, s
}

// fakeSource serves canned documents keyed by URL.
type fakeSource struct {
	mu    sync.Mutex
	docs  map[string]fetch.Document
	errs  map[string]error
	calls []string
}

func newFakeSource() *fakeSource {
	return &fakeSource{docs: map[string]fetch.Document{}, errs: map[string]error{}}
}

func (f *fakeSource) set(feedURL string, channel model.Channel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.errs, feedURL)
	f.docs[feedURL] = fetch.Document{URL: feedURL, Channel: channel}
}

func (f *fakeSource) fail(feedURL string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[feedURL] = err
}

func (f *fakeSource) Discover(ctx context.Context, rawURL string) (fetch.Document, error) {
	return f.Load(ctx, rawURL)
}

func (f *fakeSource) Load(_ context.Context, feedURL string) (fetch.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, feedURL)
	if err, ok := f.errs[feedURL]; ok {
		return fetch.Document{}, err
	}
	doc, ok := f.docs[feedURL]
	if !ok {
		return fetch.Document{}, fmt.Errorf("%w at %s", fetch.ErrNoFeed, feedURL)
	}
	return doc, nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func makeItems(base string, from, to int) []model.ChannelItem {
	items := make([]model.ChannelItem, 0, to-from)
	for i := from; i < to; i++ {
		items = append(items, model.ChannelItem{
			Title:   fmt.Sprintf("Item %d", i),
			Link:    fmt.Sprintf("%s/%d", base, i),
			PubDate: fmt.Sprintf("Mon, %02d Jan 2024 10:00:00 +0000", i+1),
		})
	}
	return items
}

func channel(title string, items []model.ChannelItem) model.Channel {
	return model.Channel{Title: title, Link: "https://site.example", Items: items}
}

// hostRewriter routes every request to srv, keeping the requested URL.
type hostRewriter struct {
	target *url.URL

	mu        sync.Mutex
	requested []string
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

func newRewritingFetcher(t *testing.T, srv *httptest.Server) (*fetch.Fetcher, *hostRewriter) {
	t.Helper()
	target, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	rw := &hostRewriter{target: target}
	f := fetch.NewFetcherWithClient(&http.Client{Timeout: 5 * time.Second, Transport: rw}, fetch.Config{
		RetryDelays: []time.Duration{},
	}, nil)
	return f, rw
}

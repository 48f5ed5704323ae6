package reader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tengjizhang/reader/internal/fetch"
	"github.com/tengjizhang/reader/internal/model"
	"github.com/tengjizhang/reader/internal/store"
)

const defaultConcurrency = 4

// Source yields parsed feed documents. *fetch.Fetcher implements it.
type Source interface {
	Discover(ctx context.Context, rawURL string) (fetch.Document, error)
	Load(ctx context.Context, feedURL string) (fetch.Document, error)
}

type Options struct {
	// Concurrency bounds the network fetches of RefreshAll.
	Concurrency int
	// ArticleLimit caps the all-feeds view; 0 keeps every article.
	ArticleLimit int
	Logger       *slog.Logger
	Now          func() time.Time
}

// Engine is the only writer of feeds and items. It also holds the current
// feed list and view, which readers observe through State.
type Engine struct {
	handle       *store.Handle
	source       Source
	log          *slog.Logger
	now          func() time.Time
	concurrency  int
	articleLimit int

	mu    sync.RWMutex
	feeds []model.Feed
	view  *model.View
}

func NewEngine(handle *store.Handle, source Source, opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}
	limit := opts.ArticleLimit
	if limit < 0 {
		limit = 0
	}
	return &Engine{
		handle:       handle,
		source:       source,
		log:          logger,
		now:          now,
		concurrency:  concurrency,
		articleLimit: limit,
		feeds:        []model.Feed{},
	}
}

// State returns a copy of the feed list and current view. View is nil
// before the first load and while LoadAll is running.
func (e *Engine) State() model.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	st := model.State{Feeds: append([]model.Feed(nil), e.feeds...)}
	if e.view != nil {
		v := *e.view
		st.View = &v
	}
	return st
}

func (e *Engine) setState(feeds []model.Feed, view *model.View) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.feeds = feeds
	e.view = view
}

func (e *Engine) currentView() *model.View {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.view == nil {
		return nil
	}
	v := *e.view
	return &v
}

// AddFeed discovers a feed at rawURL, stores it with all of its items and
// selects it. Nothing is written unless a feed document was found; a feed
// URL that is already stored fails with store.ErrConflict.
func (e *Engine) AddFeed(ctx context.Context, rawURL string) (model.SyncResult, error) {
	normalized, err := fetch.NormalizeURL(rawURL)
	if err != nil {
		return model.SyncResult{}, fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
	}

	doc, err := e.source.Discover(ctx, normalized)
	if err != nil {
		return model.SyncResult{}, fmt.Errorf("add feed %s: %w", normalized, err)
	}

	now := e.now()
	var (
		result model.SyncResult
		feeds  []model.Feed
	)
	err = e.handle.With(ctx, func(s *store.Store) error {
		var feed model.Feed
		err := s.InTx(ctx, func(tx *store.Store) error {
			created, err := tx.CreateFeed(ctx, model.NewFeed{
				URL:     siteURL(doc),
				FeedURL: doc.URL,
				Name:    feedName(doc),
				Now:     now,
			})
			if err != nil {
				return err
			}
			feed = created
			result.NewItems, result.Skipped, err = e.insertItems(ctx, tx, Normalize(created.ID, doc.Channel.Items, now))
			return err
		})
		if err != nil {
			return err
		}

		feeds, result.View, err = e.loadSelected(ctx, s, feed.ID)
		if err != nil {
			return err
		}
		result.Feed = findFeed(feeds, feed.ID, feed)
		return nil
	})
	if err != nil {
		return model.SyncResult{}, fmt.Errorf("add feed %s: %w", doc.URL, err)
	}

	result.FetchedURL = doc.URL
	view := result.View
	e.setState(feeds, &view)
	e.log.Info("feed added", "feed_id", result.Feed.ID, "feed_url", doc.URL, "new_items", result.NewItems, "skipped", result.Skipped)
	return result, nil
}

// RefreshFeed fetches a stored feed again, inserts the items it does not
// hold yet and selects it. Fetch and parse failures leave the store and the
// current state untouched.
func (e *Engine) RefreshFeed(ctx context.Context, feedID int64) (model.SyncResult, error) {
	if feedID <= 0 {
		return model.SyncResult{}, fmt.Errorf("%w: feed id must be positive", store.ErrInvalidInput)
	}

	var feed model.Feed
	if err := e.handle.With(ctx, func(s *store.Store) error {
		var err error
		feed, err = s.GetFeedByID(ctx, feedID)
		return err
	}); err != nil {
		return model.SyncResult{}, fmt.Errorf("refresh feed %d: %w", feedID, err)
	}

	doc, err := e.source.Load(ctx, feed.FeedURL)
	if err != nil {
		return model.SyncResult{}, fmt.Errorf("refresh feed %d: %w", feedID, err)
	}

	now := e.now()
	result := model.SyncResult{FetchedURL: doc.URL}
	var feeds []model.Feed
	err = e.handle.With(ctx, func(s *store.Store) error {
		var err error
		result.NewItems, result.Skipped, err = e.persistRefresh(ctx, s, feed.ID, doc, now)
		if err != nil {
			return err
		}
		feeds, result.View, err = e.loadSelected(ctx, s, feed.ID)
		return err
	})
	if err != nil {
		return model.SyncResult{}, fmt.Errorf("refresh feed %d: %w", feedID, err)
	}

	result.Feed = findFeed(feeds, feed.ID, feed)
	view := result.View
	e.setState(feeds, &view)
	e.log.Info("feed refreshed", "feed_id", feed.ID, "new_items", result.NewItems, "skipped", result.Skipped)
	return result, nil
}

// RefreshAll fetches every stored feed concurrently and persists the
// results one feed at a time. A failing feed is reported in its result and
// does not stop the others. The current view is reloaded afterwards.
func (e *Engine) RefreshAll(ctx context.Context) (model.RefreshReport, error) {
	report := model.RefreshReport{StartedAt: e.now()}

	var feeds []model.Feed
	if err := e.handle.With(ctx, func(s *store.Store) error {
		var err error
		feeds, err = s.ListFeeds(ctx)
		return err
	}); err != nil {
		return model.RefreshReport{}, fmt.Errorf("refresh all: %w", err)
	}

	docs := make([]fetch.Document, len(feeds))
	fetchErrs := make([]error, len(feeds))
	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, feed := range feeds {
		i, feed := i, feed
		g.Go(func() error {
			docs[i], fetchErrs[i] = e.source.Load(ctx, feed.FeedURL)
			return nil
		})
	}
	_ = g.Wait()

	now := e.now()
	report.Results = make([]model.RefreshResult, 0, len(feeds))
	for i, feed := range feeds {
		res := model.RefreshResult{FeedID: feed.ID, FeedName: feed.Name, FeedURL: feed.FeedURL}
		err := fetchErrs[i]
		if err == nil {
			err = e.handle.With(ctx, func(s *store.Store) error {
				var err error
				res.NewItems, res.Skipped, err = e.persistRefresh(ctx, s, feed.ID, docs[i], now)
				return err
			})
		}
		if err != nil {
			res.Error = err.Error()
			e.log.Warn("feed refresh failed", "feed_id", feed.ID, "feed_url", feed.FeedURL, "err", err)
		}
		report.Results = append(report.Results, res)
	}

	if err := e.handle.With(ctx, func(s *store.Store) error {
		reloaded, view, err := e.reloadView(ctx, s, e.currentView())
		if err != nil {
			return err
		}
		e.setState(reloaded, view)
		return nil
	}); err != nil {
		return report, fmt.Errorf("refresh all: reload: %w", err)
	}

	report.EndedAt = e.now()
	return report, nil
}

// LoadAll rebuilds the all-feeds view from the store. The view reads as
// absent while the load runs and is restored if the load fails.
func (e *Engine) LoadAll(ctx context.Context) (model.State, error) {
	e.mu.Lock()
	prev := e.view
	e.view = nil
	e.mu.Unlock()

	var (
		feeds    []model.Feed
		articles []model.AggregatedArticle
	)
	err := e.handle.With(ctx, func(s *store.Store) error {
		var err error
		feeds, articles, err = e.loadAggregated(ctx, s)
		return err
	})
	if err != nil {
		e.mu.Lock()
		if e.view == nil {
			e.view = prev
		}
		e.mu.Unlock()
		return model.State{}, fmt.Errorf("load articles: %w", err)
	}

	view := model.AllFeedsView(articles)
	e.setState(feeds, &view)
	return e.State(), nil
}

// SelectFeed switches the current view to one feed's items.
func (e *Engine) SelectFeed(ctx context.Context, feedID int64) (model.View, error) {
	if feedID <= 0 {
		return model.View{}, fmt.Errorf("%w: feed id must be positive", store.ErrInvalidInput)
	}
	var (
		feeds []model.Feed
		view  model.View
	)
	err := e.handle.With(ctx, func(s *store.Store) error {
		if _, err := s.GetFeedByID(ctx, feedID); err != nil {
			return err
		}
		var err error
		feeds, view, err = e.loadSelected(ctx, s, feedID)
		return err
	})
	if err != nil {
		return model.View{}, fmt.Errorf("select feed %d: %w", feedID, err)
	}
	e.setState(feeds, &view)
	return view, nil
}

func (e *Engine) persistRefresh(ctx context.Context, s *store.Store, feedID int64, doc fetch.Document, now time.Time) (inserted, skipped int, err error) {
	err = s.InTx(ctx, func(tx *store.Store) error {
		var err error
		inserted, skipped, err = e.insertItems(ctx, tx, Normalize(feedID, doc.Channel.Items, now))
		if err != nil {
			return err
		}
		return tx.TouchFeed(ctx, feedID, now)
	})
	return inserted, skipped, err
}

// insertItems writes rows one at a time. A row the feed already holds is
// counted as skipped; any other store error stops the batch.
func (e *Engine) insertItems(ctx context.Context, s *store.Store, rows []model.NewFeedItem) (inserted, skipped int, err error) {
	for _, row := range rows {
		err := s.InsertFeedItem(ctx, row)
		switch {
		case err == nil:
			inserted++
		case errors.Is(err, store.ErrConflict):
			skipped++
			e.log.Debug("skipping known item", "feed_id", row.FeedID, "key", row.Key)
		default:
			return inserted, skipped, err
		}
	}
	return inserted, skipped, nil
}

func (e *Engine) loadSelected(ctx context.Context, s *store.Store, feedID int64) ([]model.Feed, model.View, error) {
	feeds, err := s.ListFeeds(ctx)
	if err != nil {
		return nil, model.View{}, err
	}
	items, err := s.ListFeedItems(ctx, feedID, 0)
	if err != nil {
		return nil, model.View{}, err
	}
	idx := feedPosition(feeds, feedID)
	if idx < 0 {
		return nil, model.View{}, fmt.Errorf("feed %d: %w", feedID, store.ErrNotFound)
	}
	return feeds, model.SelectedFeedView(feeds[idx], items, idx), nil
}

func (e *Engine) loadAggregated(ctx context.Context, s *store.Store) ([]model.Feed, []model.AggregatedArticle, error) {
	feeds, err := s.ListFeeds(ctx)
	if err != nil {
		return nil, nil, err
	}
	rows, err := s.ListArticleRows(ctx)
	if err != nil {
		return nil, nil, err
	}
	articles := Aggregate(rows)
	if e.articleLimit > 0 && len(articles) > e.articleLimit {
		articles = articles[:e.articleLimit]
	}
	return feeds, articles, nil
}

// reloadView rebuilds current from the store, keeping its kind. A nil view
// stays nil, and a selected feed that no longer exists falls back to nil.
func (e *Engine) reloadView(ctx context.Context, s *store.Store, current *model.View) ([]model.Feed, *model.View, error) {
	if current == nil {
		feeds, err := s.ListFeeds(ctx)
		return feeds, nil, err
	}
	switch current.Kind {
	case model.ViewSelectedFeed:
		feeds, view, err := e.loadSelected(ctx, s, current.FeedID)
		if errors.Is(err, store.ErrNotFound) {
			feeds, err = s.ListFeeds(ctx)
			return feeds, nil, err
		}
		if err != nil {
			return nil, nil, err
		}
		return feeds, &view, nil
	default:
		feeds, articles, err := e.loadAggregated(ctx, s)
		if err != nil {
			return nil, nil, err
		}
		view := model.AllFeedsView(articles)
		return feeds, &view, nil
	}
}

func feedPosition(feeds []model.Feed, id int64) int {
	for i, f := range feeds {
		if f.ID == id {
			return i
		}
	}
	return -1
}

func findFeed(feeds []model.Feed, id int64, fb model.Feed) model.Feed {
	if idx := feedPosition(feeds, id); idx >= 0 {
		return feeds[idx]
	}
	return fb
}

func siteURL(doc fetch.Document) string {
	if link := strings.TrimSpace(doc.Channel.Link); link != "" {
		return link
	}
	return doc.URL
}

func feedName(doc fetch.Document) string {
	if title := strings.TrimSpace(doc.Channel.Title); title != "" {
		return title
	}
	return siteURL(doc)
}

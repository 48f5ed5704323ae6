package model

import "time"

type OutputFormat string

const (
	OutputTable OutputFormat = "table"
	OutputJSON  OutputFormat = "json"
	OutputWide  OutputFormat = "wide"
)

type Feed struct {
	ID        int64     `json:"id"`
	URL       string    `json:"url"`
	FeedURL   string    `json:"feed_url"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"create_date"`
	UpdatedAt time.Time `json:"update_date"`
	ItemCount int       `json:"item_count"`
}

// FeedItem is a stored article. Optional fields are empty when the feed
// document did not carry them. PubDate keeps the text exactly as published.
type FeedItem struct {
	ID          int64      `json:"id"`
	FeedID      int64      `json:"feed_id"`
	Title       string     `json:"title,omitempty"`
	URL         string     `json:"url,omitempty"`
	Description string     `json:"description,omitempty"`
	Author      string     `json:"author,omitempty"`
	PubDate     string     `json:"pub_date,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"create_date"`
	UpdatedAt   time.Time  `json:"update_date"`
}

type NewFeed struct {
	URL     string
	FeedURL string
	Name    string
	Now     time.Time
}

type NewFeedItem struct {
	FeedID      int64
	Key         string
	Title       string
	URL         string
	Description string
	Author      string
	PubDate     string
	Now         time.Time
}

// AggregatedArticle is a FeedItem joined with its parent feed for the
// all-feeds view. It is never persisted.
type AggregatedArticle struct {
	FeedItem
	FeedName string `json:"feed_name"`
	FeedLink string `json:"feed_link"`
}

type Channel struct {
	Title       string        `json:"title"`
	Link        string        `json:"link"`
	Description string        `json:"description,omitempty"`
	Items       []ChannelItem `json:"items"`
}

type ChannelItem struct {
	Title       string `json:"title,omitempty"`
	Link        string `json:"link,omitempty"`
	Description string `json:"description,omitempty"`
	Author      string `json:"author,omitempty"`
	PubDate     string `json:"pub_date,omitempty"`
}

type ViewKind string

const (
	ViewAllFeeds     ViewKind = "all_feeds"
	ViewSelectedFeed ViewKind = "selected_feed"
)

// View is the current presentation state. Kind selects which fields are
// meaningful: Articles for ViewAllFeeds; FeedID, FeedName, Items and
// Selected for ViewSelectedFeed.
type View struct {
	Kind     ViewKind            `json:"kind"`
	Articles []AggregatedArticle `json:"articles,omitempty"`
	FeedID   int64               `json:"feed_id,omitempty"`
	FeedName string              `json:"feed_name,omitempty"`
	Items    []FeedItem          `json:"items,omitempty"`
	Selected int                 `json:"selected"`
}

func AllFeedsView(articles []AggregatedArticle) View {
	return View{Kind: ViewAllFeeds, Articles: articles}
}

func SelectedFeedView(feed Feed, items []FeedItem, selected int) View {
	return View{
		Kind:     ViewSelectedFeed,
		FeedID:   feed.ID,
		FeedName: feed.Name,
		Items:    items,
		Selected: selected,
	}
}

// State is a snapshot for readers. View is nil while a load is in flight
// or before the first load.
type State struct {
	Feeds []Feed `json:"feeds"`
	View  *View  `json:"view"`
}

type SyncResult struct {
	Feed       Feed   `json:"feed"`
	FetchedURL string `json:"fetched_url"`
	NewItems   int    `json:"new_items"`
	Skipped    int    `json:"skipped_items"`
	View       View   `json:"view"`
}

type RefreshResult struct {
	FeedID   int64  `json:"feed_id"`
	FeedName string `json:"feed_name"`
	FeedURL  string `json:"feed_url"`
	NewItems int    `json:"new_items"`
	Skipped  int    `json:"skipped_items"`
	Error    string `json:"error,omitempty"`
}

type RefreshReport struct {
	StartedAt time.Time       `json:"started_at"`
	EndedAt   time.Time       `json:"ended_at"`
	Results   []RefreshResult `json:"results"`
}

type Stats struct {
	Feeds int `json:"feeds"`
	Items int `json:"items"`
}

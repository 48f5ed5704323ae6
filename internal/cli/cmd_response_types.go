package cli

import "github.com/tengjizhang/reader/internal/model"

type AddFeedResponse struct {
	Feed       model.Feed `json:"feed"`
	FetchedURL string     `json:"fetched_url"`
	NewItems   int        `json:"new_items"`
	Skipped    int        `json:"skipped_items"`
	View       model.View `json:"view"`
}

type RefreshFeedResponse struct {
	Feed     model.Feed `json:"feed"`
	NewItems int        `json:"new_items"`
	Skipped  int        `json:"skipped_items"`
}

type ArticleResponse struct {
	Item     model.FeedItem `json:"item"`
	FeedName string         `json:"feed_name"`
	Markdown string         `json:"markdown"`
}

type ImportRow struct {
	URL    string `json:"url"`
	FeedID int64  `json:"feed_id,omitempty"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type ImportReport struct {
	Source   string      `json:"source"`
	Added    int         `json:"added"`
	Existing int         `json:"existing"`
	Failed   int         `json:"failed"`
	Rows     []ImportRow `json:"rows"`
}

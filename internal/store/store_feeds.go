package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const feedBaseColumns = `id, url, feed_url, name, create_date, update_date`

// CreateFeed inserts a feed row. A feed_url that is already stored yields
// ErrConflict and leaves the existing row untouched.
func (s *Store) CreateFeed(ctx context.Context, in NewFeed) (Feed, error) {
	feedURL := strings.TrimSpace(in.FeedURL)
	if feedURL == "" {
		return Feed{}, fmt.Errorf("%w: feed url is required", ErrInvalidInput)
	}
	siteURL := strings.TrimSpace(in.URL)
	if siteURL == "" {
		siteURL = feedURL
	}
	stamp := FormatRFC2822(in.Now)

	var id int64
	err := s.queryRow(ctx, `
		INSERT INTO feeds(url, feed_url, name, create_date, update_date)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`, siteURL, feedURL, in.Name, stamp, stamp).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return Feed{}, fmt.Errorf("feed %s: %w", feedURL, ErrConflict)
		}
		return Feed{}, err
	}
	return s.GetFeedByID(ctx, id)
}

func (s *Store) GetFeedByID(ctx context.Context, id int64) (Feed, error) {
	row := s.queryRow(ctx, `SELECT `+feedBaseColumns+` FROM feeds WHERE id = ?`, id)
	feed, err := scanFeedRow(row, false)
	if err != nil {
		return Feed{}, wrapNotFound("feed", err)
	}
	return feed, nil
}

func (s *Store) GetFeedByURL(ctx context.Context, feedURL string) (Feed, error) {
	row := s.queryRow(ctx, `SELECT `+feedBaseColumns+` FROM feeds WHERE feed_url = ?`, feedURL)
	feed, err := scanFeedRow(row, false)
	if err != nil {
		return Feed{}, wrapNotFound("feed", err)
	}
	return feed, nil
}

// ListFeeds returns every feed in creation order with its stored item count.
func (s *Store) ListFeeds(ctx context.Context) ([]Feed, error) {
	rows, err := s.query(ctx, `
		SELECT
			f.id,
			f.url,
			f.feed_url,
			f.name,
			f.create_date,
			f.update_date,
			COUNT(i.id) AS item_count
		FROM feeds f
		LEFT JOIN feed_items i ON i.channel_id = f.id
		GROUP BY f.id, f.url, f.feed_url, f.name, f.create_date, f.update_date
		ORDER BY f.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	feeds := make([]Feed, 0)
	for rows.Next() {
		feed, err := scanFeedRow(rows, true)
		if err != nil {
			return nil, err
		}
		feeds = append(feeds, feed)
	}
	return feeds, rows.Err()
}

// TouchFeed records a refresh by moving update_date forward.
func (s *Store) TouchFeed(ctx context.Context, id int64, now time.Time) error {
	res, err := s.exec(ctx, `UPDATE feeds SET update_date = ? WHERE id = ?`, FormatRFC2822(now), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("feed %d: %w", id, ErrNotFound)
	}
	return nil
}

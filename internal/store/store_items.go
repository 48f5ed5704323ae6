package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const itemSelectColumns = `
	i.id, i.channel_id, i.title, i.url, i.description, i.author,
	i.pub_date, i.create_date, i.update_date
`

// InsertFeedItem stores one item. When the feed already holds an item with
// the same key nothing is written and ErrConflict is returned; callers
// treat that as a skip.
func (s *Store) InsertFeedItem(ctx context.Context, in NewFeedItem) error {
	if in.FeedID <= 0 {
		return fmt.Errorf("%w: feed id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Key) == "" {
		return fmt.Errorf("%w: item key is required", ErrInvalidInput)
	}
	stamp := FormatRFC2822(in.Now)

	res, err := s.exec(ctx, `
		INSERT INTO feed_items (
			channel_id, item_key, title, url, description, author,
			pub_date, create_date, update_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(channel_id, item_key) DO NOTHING
	`,
		in.FeedID,
		in.Key,
		nullString(in.Title),
		nullString(in.URL),
		nullString(in.Description),
		nullString(in.Author),
		nullString(in.PubDate),
		stamp,
		stamp,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("item %s: %w", in.Key, ErrConflict)
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("item %s: %w", in.Key, ErrConflict)
	}
	return nil
}

// ListFeedItems returns a feed's items in insertion order. limit <= 0
// returns all of them.
func (s *Store) ListFeedItems(ctx context.Context, feedID int64, limit int) ([]FeedItem, error) {
	query := `SELECT ` + itemSelectColumns + ` FROM feed_items i WHERE i.channel_id = ? ORDER BY i.id`
	args := []any{feedID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]FeedItem, 0)
	for rows.Next() {
		item, err := scanFeedItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *Store) GetFeedItem(ctx context.Context, id int64) (FeedItem, error) {
	row := s.queryRow(ctx, `SELECT `+itemSelectColumns+` FROM feed_items i WHERE i.id = ?`, id)
	item, err := scanFeedItem(row)
	if err != nil {
		return FeedItem{}, wrapNotFound("feed item", err)
	}
	return item, nil
}

// ListArticleRows loads every item joined with its parent feed, in
// insertion order. Items whose parent feed row is missing are dropped.
func (s *Store) ListArticleRows(ctx context.Context) ([]AggregatedArticle, error) {
	rows, err := s.query(ctx, `
		SELECT `+itemSelectColumns+`, f.name, f.url
		FROM feed_items i
		LEFT JOIN feeds f ON f.id = i.channel_id
		ORDER BY i.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]AggregatedArticle, 0)
	for rows.Next() {
		var name, link sql.NullString
		item, err := scanFeedItem(rows, &name, &link)
		if err != nil {
			return nil, err
		}
		if !name.Valid {
			continue
		}
		out = append(out, AggregatedArticle{
			FeedItem: item,
			FeedName: name.String,
			FeedLink: link.String,
		})
	}
	return out, rows.Err()
}

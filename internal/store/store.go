package store

import (
	"context"
	"database/sql"
	"fmt"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db      *sql.DB
	q       querier
	dialect dialect
	inTx    bool
}

// NewStore wraps a database opened by OpenDB with the same driver name.
// An unknown driver falls back to SQLite.
func NewStore(db *sql.DB, driver string) *Store {
	d, err := dialectFor(driver)
	if err != nil {
		d = sqliteDialect
	}
	return &Store{db: db, q: db, dialect: d}
}

func (s *Store) Driver() string {
	return s.dialect.driver
}

// InTx runs fn against a Store bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
// Nested calls reuse the outer transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) (err error) {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&Store{db: s.db, q: tx, dialect: s.dialect, inTx: true}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.q.ExecContext(ctx, rebind(s.dialect, query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.q.QueryContext(ctx, rebind(s.dialect, query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.q.QueryRowContext(ctx, rebind(s.dialect, query), args...)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFeedRow(scanner rowScanner, withCount bool) (Feed, error) {
	var f Feed
	var createDate, updateDate string
	dest := []any{&f.ID, &f.URL, &f.FeedURL, &f.Name, &createDate, &updateDate}
	if withCount {
		dest = append(dest, &f.ItemCount)
	}
	if err := scanner.Scan(dest...); err != nil {
		return Feed{}, err
	}
	if t, ok := ParseRFC2822(createDate); ok {
		f.CreatedAt = t
	}
	if t, ok := ParseRFC2822(updateDate); ok {
		f.UpdatedAt = t
	}
	return f, nil
}

func scanFeedItem(scanner rowScanner, extra ...any) (FeedItem, error) {
	var it FeedItem
	var title, url, desc, author, pubDate sql.NullString
	var createDate, updateDate string
	dest := []any{
		&it.ID,
		&it.FeedID,
		&title,
		&url,
		&desc,
		&author,
		&pubDate,
		&createDate,
		&updateDate,
	}
	if err := scanner.Scan(append(dest, extra...)...); err != nil {
		return FeedItem{}, err
	}
	it.Title = title.String
	it.URL = url.String
	it.Description = desc.String
	it.Author = author.String
	it.PubDate = pubDate.String
	if t, ok := ParseRFC2822(it.PubDate); ok {
		it.PublishedAt = &t
	}
	if t, ok := ParseRFC2822(createDate); ok {
		it.CreatedAt = t
	}
	if t, ok := ParseRFC2822(updateDate); ok {
		it.UpdatedAt = t
	}
	return it, nil
}

func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	var stats Stats
	if err := s.queryRow(ctx, `SELECT COUNT(*) FROM feeds`).Scan(&stats.Feeds); err != nil {
		return Stats{}, err
	}
	if err := s.queryRow(ctx, `SELECT COUNT(*) FROM feed_items`).Scan(&stats.Items); err != nil {
		return Stats{}, err
	}
	return stats, nil
}

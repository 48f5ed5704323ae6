package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "reader.db")
	db, err := OpenDB(DriverSQLite, dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})
	return NewStore(db, DriverSQLite)
}

func mustCreateFeed(t *testing.T, store *Store, feedURL string) Feed {
	t.Helper()
	feed, err := store.CreateFeed(context.Background(), NewFeed{
		URL:     feedURL,
		FeedURL: feedURL,
		Name:    "feed " + feedURL,
		Now:     time.Now(),
	})
	if err != nil {
		t.Fatalf("create feed: %v", err)
	}
	return feed
}

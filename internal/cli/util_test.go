package cli

import (
	"errors"
	"testing"
	"time"

	"github.com/tengjizhang/reader/internal/store"
)

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	if err != nil {
		t.Fatalf("parseID: %v", err)
	}
	if id != 42 {
		t.Fatalf("unexpected id: %d", id)
	}
	if _, err := parseID("0"); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected invalid input for zero, got %v", err)
	}
}

func TestFallback(t *testing.T) {
	if got := fallback("value", "x"); got != "value" {
		t.Fatalf("fallback non-empty: %q", got)
	}
	if got := fallback("   ", "x"); got != "x" {
		t.Fatalf("fallback empty: %q", got)
	}
}

func TestItemDate(t *testing.T) {
	published := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		item FeedItem
		want string
	}{
		{FeedItem{PublishedAt: &published}, "2024-01-02"},
		{FeedItem{PubDate: "Mon, 01 Jan 2024 10:00:00 +0000"}, "2024-01-01"},
		{FeedItem{PubDate: "yesterday"}, "yesterday"},
		{FeedItem{}, "-"},
	}
	for _, tc := range cases {
		if got := itemDate(tc.item); got != tc.want {
			t.Fatalf("itemDate(%+v) = %q, want %q", tc.item, got, tc.want)
		}
	}
}

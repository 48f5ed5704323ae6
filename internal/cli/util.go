package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tengjizhang/reader/internal/render"
	"github.com/tengjizhang/reader/internal/store"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", store.ErrInvalidInput, s)
	}
	return id, nil
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

// itemDate prefers the parsed publish date and falls back to the raw text.
func itemDate(item FeedItem) string {
	if item.PublishedAt != nil {
		return formatDate(item.PublishedAt)
	}
	if t, ok := store.ParseRFC2822(item.PubDate); ok {
		return formatDate(&t)
	}
	return fallback(compactText(item.PubDate, 20), "-")
}

func compactText(v string, max int) string {
	return render.CompactText(v, max)
}

func fallback(v, fb string) string {
	if strings.TrimSpace(v) == "" {
		return fb
	}
	return v
}

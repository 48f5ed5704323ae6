package reader

import (
	"sort"
	"strings"
	"time"

	"github.com/tengjizhang/reader/internal/model"
	"github.com/tengjizhang/reader/internal/store"
)

// Aggregate orders rows newest first by RFC-2822 pubDate, with undated rows
// after every dated one, then drops entries whose link matches the previous
// kept entry case-insensitively. Rows without a link are always kept.
func Aggregate(rows []model.AggregatedArticle) []model.AggregatedArticle {
	type keyed struct {
		article model.AggregatedArticle
		at      time.Time
		dated   bool
	}

	sorted := make([]keyed, 0, len(rows))
	for _, row := range rows {
		at, ok := store.ParseRFC2822(row.PubDate)
		if ok {
			t := at
			row.PublishedAt = &t
		} else {
			row.PublishedAt = nil
		}
		sorted = append(sorted, keyed{article: row, at: at, dated: ok})
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.dated != b.dated {
			return a.dated
		}
		return a.at.After(b.at)
	})

	out := make([]model.AggregatedArticle, 0, len(sorted))
	for _, k := range sorted {
		if n := len(out); n > 0 && sameLink(out[n-1].URL, k.article.URL) {
			continue
		}
		out = append(out, k.article)
	}
	return out
}

func sameLink(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}

package reader

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"

	"github.com/tengjizhang/reader/internal/model"
)

// Normalize maps parsed items 1:1 to insertable rows for feedID. Optional
// fields are carried as-is and every row shares the batch timestamp now.
func Normalize(feedID int64, items []model.ChannelItem, now time.Time) []model.NewFeedItem {
	out := make([]model.NewFeedItem, 0, len(items))
	for _, item := range items {
		out = append(out, model.NewFeedItem{
			FeedID:      feedID,
			Key:         ItemKey(item),
			Title:       item.Title,
			URL:         item.Link,
			Description: item.Description,
			Author:      item.Author,
			PubDate:     item.PubDate,
			Now:         now,
		})
	}
	return out
}

// ItemKey identifies an item within its feed across refreshes: the link
// when there is one, otherwise a hash of title, pubDate and description.
func ItemKey(item model.ChannelItem) string {
	if link := strings.TrimSpace(item.Link); link != "" {
		return link
	}
	h := sha1.Sum([]byte(strings.TrimSpace(item.Title) + "|" + strings.TrimSpace(item.PubDate) + "|" + strings.TrimSpace(item.Description)))
	return "sha1:" + hex.EncodeToString(h[:])
}

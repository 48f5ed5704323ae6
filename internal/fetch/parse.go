package fetch

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/rss"
)

// Parse decodes an RSS 2.0 (or RSS 1.0/RDF) channel. Item fields missing
// from the document are left empty; pubDate keeps its original text.
func Parse(data []byte) (Channel, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Channel{}, fmt.Errorf("%w: empty document", ErrNotFeed)
	}
	if kind := gofeed.DetectFeedType(bytes.NewReader(data)); kind != gofeed.FeedTypeRSS {
		return Channel{}, fmt.Errorf("%w: detected %s", ErrNotFeed, describeFeedType(kind))
	}

	parser := &rss.Parser{}
	feed, err := parser.Parse(bytes.NewReader(data))
	if err != nil {
		return Channel{}, fmt.Errorf("%w: %v", ErrNotFeed, err)
	}

	channel := Channel{
		Title:       strings.TrimSpace(feed.Title),
		Link:        strings.TrimSpace(feed.Link),
		Description: strings.TrimSpace(feed.Description),
		Items:       make([]ChannelItem, 0, len(feed.Items)),
	}
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		channel.Items = append(channel.Items, channelItem(item))
	}
	return channel, nil
}

func channelItem(item *rss.Item) ChannelItem {
	description := strings.TrimSpace(item.Description)
	if description == "" {
		description = strings.TrimSpace(item.Content)
	}
	author := strings.TrimSpace(item.Author)
	if author == "" && item.DublinCoreExt != nil && len(item.DublinCoreExt.Creator) > 0 {
		author = strings.TrimSpace(item.DublinCoreExt.Creator[0])
	}
	return ChannelItem{
		Title:       strings.TrimSpace(item.Title),
		Link:        strings.TrimSpace(item.Link),
		Description: description,
		Author:      author,
		PubDate:     strings.TrimSpace(item.PubDate),
	}
}

func describeFeedType(kind gofeed.FeedType) string {
	switch kind {
	case gofeed.FeedTypeAtom:
		return "atom document"
	case gofeed.FeedTypeJSON:
		return "json feed"
	default:
		return "unknown document type"
	}
}

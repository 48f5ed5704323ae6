package store

import "github.com/tengjizhang/reader/internal/model"

type Feed = model.Feed
type FeedItem = model.FeedItem
type NewFeed = model.NewFeed
type NewFeedItem = model.NewFeedItem
type AggregatedArticle = model.AggregatedArticle
type Stats = model.Stats

package cli

import "github.com/tengjizhang/reader/internal/model"

type OutputFormat = model.OutputFormat
type Feed = model.Feed
type FeedItem = model.FeedItem
type AggregatedArticle = model.AggregatedArticle
type View = model.View
type Stats = model.Stats
type RefreshReport = model.RefreshReport

const (
	OutputTable = model.OutputTable
	OutputJSON  = model.OutputJSON
	OutputWide  = model.OutputWide
)

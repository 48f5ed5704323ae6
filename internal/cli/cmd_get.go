package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tengjizhang/reader/internal/store"
)

func newGetCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get feeds, articles, and stats",
	}

	cmd.AddCommand(newGetArticlesCmd(getApp, getOutput))
	cmd.AddCommand(newGetArticleCmd(getApp, getOutput))
	cmd.AddCommand(newGetFeedsCmd(getApp, getOutput))
	cmd.AddCommand(newGetFeedCmd(getApp, getOutput))
	cmd.AddCommand(newGetStatsCmd(getApp, getOutput))
	return cmd
}

func newGetArticlesCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "articles",
		Short: "List articles from every feed, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			if limit < 0 {
				return fmt.Errorf("%w: limit must be >= 0", store.ErrInvalidInput)
			}

			state, err := app.engine.LoadAll(cmd.Context())
			if err != nil {
				return err
			}
			var articles []AggregatedArticle
			if state.View != nil {
				articles = state.View.Articles
			}
			if limit > 0 && len(articles) > limit {
				articles = articles[:limit]
			}

			out := cmd.OutOrStdout()
			switch getOutput() {
			case OutputJSON:
				return writeJSON(out, articles)
			case OutputWide:
				writeArticlesTable(out, app.renderer, articles, true)
			default:
				writeArticlesTable(out, app.renderer, articles, false)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Result limit (0 for all)")
	return cmd
}

func newGetArticleCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "article <id>",
		Short: "Show one article rendered as Markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var item FeedItem
			var feed Feed
			err = app.handle.With(cmd.Context(), func(s *store.Store) error {
				var err error
				if item, err = s.GetFeedItem(cmd.Context(), id); err != nil {
					return err
				}
				feed, err = s.GetFeedByID(cmd.Context(), item.FeedID)
				return err
			})
			if err != nil {
				return fmt.Errorf("get article: %w", err)
			}

			body := app.renderer.Markdown(item.Description)
			out := cmd.OutOrStdout()
			if getOutput() == OutputJSON {
				return writeJSON(out, ArticleResponse{Item: item, FeedName: feed.Name, Markdown: body})
			}

			url := fallback(item.URL, "-")
			fmt.Fprintf(out, "# %s\n", displayTitle(item))
			fmt.Fprintf(out, "source: %s | author: %s | date: %s | url: %s\n\n",
				fallback(feed.Name, feed.FeedURL), fallback(item.Author, "-"), itemDate(item), url)
			if strings.TrimSpace(body) == "" {
				body = url
			}
			fmt.Fprintln(out, body)
			return nil
		},
	}
	return cmd
}

func newGetFeedsCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feeds",
		Short: "List subscribed feeds",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			var feeds []Feed
			err = app.handle.With(cmd.Context(), func(s *store.Store) error {
				var err error
				feeds, err = s.ListFeeds(cmd.Context())
				return err
			})
			if err != nil {
				return fmt.Errorf("list feeds: %w", err)
			}

			out := cmd.OutOrStdout()
			switch getOutput() {
			case OutputJSON:
				return writeJSON(out, feeds)
			case OutputWide:
				writeFeedsTable(out, feeds, true)
			default:
				writeFeedsTable(out, feeds, false)
			}
			return nil
		},
	}
	return cmd
}

func newGetFeedCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feed <id>",
		Short: "Select one feed and list its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			view, err := app.engine.SelectFeed(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if getOutput() == OutputJSON {
				return writeJSON(out, view)
			}
			writeView(out, app.renderer, view, getOutput() == OutputWide)
			return nil
		},
	}
	return cmd
}

func newGetStatsCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Get aggregate stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			var stats Stats
			err = app.handle.With(cmd.Context(), func(s *store.Store) error {
				var err error
				stats, err = s.GetStats(cmd.Context())
				return err
			})
			if err != nil {
				return fmt.Errorf("get stats: %w", err)
			}
			if getOutput() == OutputJSON {
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			writeStatsTable(cmd.OutOrStdout(), stats)
			return nil
		},
	}
	return cmd
}

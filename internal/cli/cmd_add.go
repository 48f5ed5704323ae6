package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAddCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add resources",
	}
	cmd.AddCommand(newAddFeedCmd(getApp, getOutput))
	return cmd
}

func newAddFeedCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	return &cobra.Command{
		Use:   "feed <url>",
		Short: "Subscribe to a feed and load its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}

			res, err := app.engine.AddFeed(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if getOutput() == OutputJSON {
				return writeJSON(out, AddFeedResponse{
					Feed:       res.Feed,
					FetchedURL: res.FetchedURL,
					NewItems:   res.NewItems,
					Skipped:    res.Skipped,
					View:       res.View,
				})
			}

			if res.FetchedURL != args[0] {
				fmt.Fprintf(cmd.ErrOrStderr(), "Fetched feed from %s\n", res.FetchedURL)
			}
			fmt.Fprintf(out, "Added feed %d: %s\n", res.Feed.ID, fallback(res.Feed.Name, res.Feed.FeedURL))
			fmt.Fprintf(out, "Items: %d new, %d skipped\n\n", res.NewItems, res.Skipped)
			writeView(out, app.renderer, res.View, getOutput() == OutputWide)
			return nil
		},
	}
}

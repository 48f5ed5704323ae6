package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRefreshCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh [feed-id]",
		Short: "Fetch new items for one feed, or for every feed when no id is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				rep, err := app.engine.RefreshAll(cmd.Context())
				if err != nil {
					return err
				}
				if getOutput() == OutputJSON {
					return writeJSON(out, rep)
				}
				writeRefreshReportTable(out, rep)
				failed := 0
				for _, r := range rep.Results {
					if r.Error != "" {
						failed++
					}
				}
				if failed > 0 {
					fmt.Fprintf(cmd.ErrOrStderr(), "Refresh completed with %d error(s).\n", failed)
				}
				return nil
			}

			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			res, err := app.engine.RefreshFeed(cmd.Context(), id)
			if err != nil {
				return err
			}
			if getOutput() == OutputJSON {
				return writeJSON(out, RefreshFeedResponse{
					Feed:     res.Feed,
					NewItems: res.NewItems,
					Skipped:  res.Skipped,
				})
			}
			fmt.Fprintf(out, "Refreshed feed %d: %s\n", res.Feed.ID, fallback(res.Feed.Name, res.Feed.FeedURL))
			fmt.Fprintf(out, "Items: %d new, %d skipped\n\n", res.NewItems, res.Skipped)
			writeView(out, app.renderer, res.View, getOutput() == OutputWide)
			return nil
		},
	}
	return cmd
}

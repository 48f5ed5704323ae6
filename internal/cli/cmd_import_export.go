package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tengjizhang/reader/internal/opml"
	"github.com/tengjizhang/reader/internal/store"
)

func newImportCmd(getApp func() *App, getOutput func() OutputFormat) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.opml|url>",
		Short: "Subscribe to every feed listed in an OPML document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := requireApp(getApp)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			src := strings.TrimSpace(args[0])

			urls, err := readOPML(ctx, app, src)
			if err != nil {
				return err
			}

			rep := ImportReport{Source: src, Rows: make([]ImportRow, 0, len(urls))}
			for _, u := range urls {
				row := ImportRow{URL: u}
				res, err := app.engine.AddFeed(ctx, u)
				switch {
				case err == nil:
					row.Status = "added"
					row.FeedID = res.Feed.ID
					rep.Added++
				case errors.Is(err, store.ErrConflict):
					row.Status = "existing"
					rep.Existing++
				case ctx.Err() != nil:
					return ctx.Err()
				default:
					row.Status = "failed"
					row.Error = err.Error()
					rep.Failed++
					app.log.Warn("import feed failed", "url", u, "err", err)
				}
				rep.Rows = append(rep.Rows, row)
			}

			out := cmd.OutOrStdout()
			switch getOutput() {
			case OutputJSON:
				return writeJSON(out, rep)
			case OutputWide:
				writeImportTable(out, rep)
			}
			fmt.Fprintf(out, "Imported %d feed(s): %d added, %d existing, %d failed\n", len(urls), rep.Added, rep.Existing, rep.Failed)
			return nil
		},
	}
}

// readOPML loads subscriptions from a local file, or through the fetcher
// when src is an http(s) URL.
func readOPML(ctx context.Context, app *App, src string) ([]string, error) {
	lower := strings.ToLower(src)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		body, err := app.fetcher.Fetch(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("fetch opml: %w", err)
		}
		urls, err := opml.Parse(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
		}
		return urls, nil
	}
	urls, err := opml.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("%w: read opml: %v", store.ErrInvalidInput, err)
	}
	return urls, nil
}

func writeImportTable(out io.Writer, rep ImportReport) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "URL\tSTATUS\tFEED_ID\tERROR")
	for _, r := range rep.Rows {
		id := "-"
		if r.FeedID > 0 {
			id = fmt.Sprintf("%d", r.FeedID)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", compactText(r.URL, 56), r.Status, id, compactText(r.Error, 70))
	}
	_ = tw.Flush()
}

func newExportCmd(getApp func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write subscriptions as OPML to stdout",
		Args:  cobra.NoArgs,
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
			return opml.Write(cmd.OutOrStdout(), "reader subscriptions", feeds)
		},
	}
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/tengjizhang/reader/internal/model"
	"github.com/tengjizhang/reader/internal/render"
)

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeFeedsTable(out io.Writer, feeds []Feed, wide bool) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if wide {
		fmt.Fprintln(tw, "ID\tNAME\tITEMS\tUPDATED\tFEED_URL\tSITE_URL")
		for _, f := range feeds {
			fmt.Fprintf(
				tw,
				"%d\t%s\t%d\t%s\t%s\t%s\n",
				f.ID,
				compactText(fallback(f.Name, f.FeedURL), 30),
				f.ItemCount,
				formatDate(&f.UpdatedAt),
				compactText(f.FeedURL, 56),
				compactText(f.URL, 46),
			)
		}
	} else {
		fmt.Fprintln(tw, "ID\tNAME\tITEMS\tFEED_URL")
		for _, f := range feeds {
			fmt.Fprintf(
				tw,
				"%d\t%s\t%d\t%s\n",
				f.ID,
				compactText(fallback(f.Name, f.FeedURL), 30),
				f.ItemCount,
				compactText(f.FeedURL, 56),
			)
		}
	}
	_ = tw.Flush()
}

func writeArticlesTable(out io.Writer, r *render.Renderer, articles []AggregatedArticle, wide bool) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if wide {
		fmt.Fprintln(tw, "ID\tFEED\tTITLE\tDATE\tAUTHOR\tURL\tSUMMARY")
		for _, a := range articles {
			fmt.Fprintf(
				tw,
				"%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
				a.ID,
				compactText(a.FeedName, 24),
				compactText(displayTitle(a.FeedItem), 56),
				itemDate(a.FeedItem),
				compactText(fallback(a.Author, "-"), 20),
				compactText(a.URL, 48),
				r.PlainText(a.Description, 90),
			)
		}
	} else {
		fmt.Fprintln(tw, "ID\tFEED\tTITLE\tDATE")
		for _, a := range articles {
			fmt.Fprintf(
				tw,
				"%d\t%s\t%s\t%s\n",
				a.ID,
				compactText(a.FeedName, 24),
				compactText(displayTitle(a.FeedItem), 56),
				itemDate(a.FeedItem),
			)
		}
	}
	_ = tw.Flush()
}

func writeItemsTable(out io.Writer, r *render.Renderer, items []FeedItem, wide bool) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if wide {
		fmt.Fprintln(tw, "ID\tTITLE\tDATE\tAUTHOR\tURL\tSUMMARY")
		for _, item := range items {
			fmt.Fprintf(
				tw,
				"%d\t%s\t%s\t%s\t%s\t%s\n",
				item.ID,
				compactText(displayTitle(item), 56),
				itemDate(item),
				compactText(fallback(item.Author, "-"), 20),
				compactText(item.URL, 48),
				r.PlainText(item.Description, 90),
			)
		}
	} else {
		fmt.Fprintln(tw, "ID\tTITLE\tDATE")
		for _, item := range items {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", item.ID, compactText(displayTitle(item), 56), itemDate(item))
		}
	}
	_ = tw.Flush()
}

func writeView(out io.Writer, r *render.Renderer, view View, wide bool) {
	switch view.Kind {
	case model.ViewSelectedFeed:
		// Selected is the feed's position in the feed list.
		fmt.Fprintf(out, "Feed %d: %s (%d items, position %d)\n", view.FeedID, fallback(view.FeedName, "(unnamed)"), len(view.Items), view.Selected)
		writeItemsTable(out, r, view.Items, wide)
	default:
		writeArticlesTable(out, r, view.Articles, wide)
	}
}

func writeStatsTable(out io.Writer, st Stats) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tVALUE")
	fmt.Fprintf(tw, "feeds\t%d\n", st.Feeds)
	fmt.Fprintf(tw, "items\t%d\n", st.Items)
	_ = tw.Flush()
}

func writeRefreshReportTable(out io.Writer, rep RefreshReport) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FEED_ID\tFEED\tNEW\tSKIPPED\tERROR")
	for _, r := range rep.Results {
		fmt.Fprintf(
			tw,
			"%d\t%s\t%d\t%d\t%s\n",
			r.FeedID,
			compactText(fallback(r.FeedName, r.FeedURL), 30),
			r.NewItems,
			r.Skipped,
			compactText(r.Error, 70),
		)
	}
	_ = tw.Flush()
}

func displayTitle(item FeedItem) string {
	if strings.TrimSpace(item.Title) != "" {
		return item.Title
	}
	if strings.TrimSpace(item.URL) != "" {
		return item.URL
	}
	return "(untitled)"
}

package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tengjizhang/reader/internal/config"
	"github.com/tengjizhang/reader/internal/model"
)

const testFeedXML = `<?xml version="1.0"?>
<rss version="2.0"><channel>
<title>Test Feed</title><link>https://example.com</link><description>desc</description>
<item>
  <title>Entry One</title>
  <link>https://example.com/entry-1</link>
  <description><![CDATA[<p><b>hello</b> world</p><script>alert(1)</script>]]></description>
  <author>ann@example.com</author>
  <pubDate>Mon, 01 Jan 2024 10:00:00 +0000</pubDate>
</item>
<item>
  <title>Entry Two</title>
  <link>https://example.com/entry-2</link>
  <pubDate>Tue, 02 Jan 2024 10:00:00 +0000</pubDate>
</item>
</channel></rss>`

func runCLI(t *testing.T, dbPath string, args ...string) string {
	t.Helper()
	out, err := runCLIErr(t, dbPath, args...)
	if err != nil {
		t.Fatalf("command failed (%v): %v", args, err)
	}
	return out
}

func runCLIErr(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd(testConfig(dbPath))
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--db", dbPath}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func decodeJSON(t *testing.T, raw string, v any) {
	t.Helper()
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		t.Fatalf("decode json: %v\n%s", err, raw)
	}
}

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/feed.xml" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(testFeedXML))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCLICommandFlowSmoke(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reader.db")
	srv := newFeedServer(t)
	feedURL := srv.URL + "/feed.xml"

	out := runCLI(t, dbPath, "add", "feed", feedURL)
	if !strings.Contains(out, "Added feed 1: Test Feed") || !strings.Contains(out, "Items: 2 new, 0 skipped") {
		t.Fatalf("unexpected add output:\n%s", out)
	}

	_, err := runCLIErr(t, dbPath, "add", "feed", feedURL)
	if code := ErrorExitCode(err); code != exitConflict {
		t.Fatalf("duplicate add exit code = %d, want %d (err: %v)", code, exitConflict, err)
	}

	var feeds []model.Feed
	decodeJSON(t, runCLI(t, dbPath, "get", "feeds", "-o", "json"), &feeds)
	if len(feeds) != 1 || feeds[0].ItemCount != 2 || feeds[0].FeedURL != feedURL {
		t.Fatalf("unexpected feeds: %+v", feeds)
	}

	var articles []model.AggregatedArticle
	decodeJSON(t, runCLI(t, dbPath, "get", "articles", "-o", "json"), &articles)
	if len(articles) != 2 || articles[0].Title != "Entry Two" || articles[1].Title != "Entry One" {
		t.Fatalf("unexpected articles: %+v", articles)
	}
	if articles[0].FeedName != "Test Feed" {
		t.Fatalf("expected feed name on article, got %q", articles[0].FeedName)
	}

	decodeJSON(t, runCLI(t, dbPath, "get", "articles", "--limit", "1", "-o", "json"), &articles)
	if len(articles) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(articles))
	}
	runCLI(t, dbPath, "get", "articles", "-o", "wide")

	out = runCLI(t, dbPath, "get", "feed", "1")
	if !strings.Contains(out, "Feed 1: Test Feed") || !strings.Contains(out, "Entry One") {
		t.Fatalf("unexpected feed output:\n%s", out)
	}

	var one model.View
	decodeJSON(t, runCLI(t, dbPath, "get", "feed", "1", "-o", "json"), &one)
	if one.Kind != model.ViewSelectedFeed || one.FeedID != 1 || len(one.Items) != 2 || one.Selected != 0 {
		t.Fatalf("unexpected view: %+v", one)
	}

	var entryID int64
	for _, item := range one.Items {
		if item.Title == "Entry One" {
			entryID = item.ID
		}
	}
	out = runCLI(t, dbPath, "get", "article", fmt.Sprintf("%d", entryID))
	if !strings.Contains(out, "# Entry One") || !strings.Contains(out, "**hello**") {
		t.Fatalf("unexpected article output:\n%s", out)
	}
	if strings.Contains(out, "alert") {
		t.Fatalf("expected script to be sanitized:\n%s", out)
	}

	var refreshed RefreshFeedResponse
	decodeJSON(t, runCLI(t, dbPath, "refresh", "1", "-o", "json"), &refreshed)
	if refreshed.NewItems != 0 || refreshed.Skipped != 2 {
		t.Fatalf("unexpected refresh: %+v", refreshed)
	}

	out = runCLI(t, dbPath, "refresh")
	if !strings.Contains(out, "FEED_ID") || !strings.Contains(out, "Test Feed") {
		t.Fatalf("unexpected refresh report:\n%s", out)
	}

	var stats model.Stats
	decodeJSON(t, runCLI(t, dbPath, "get", "stats", "-o", "json"), &stats)
	if stats.Feeds != 1 || stats.Items != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	out = runCLI(t, dbPath, "export")
	if !strings.Contains(out, `xmlUrl="`+feedURL+`"`) {
		t.Fatalf("export missing feed url:\n%s", out)
	}
}

func TestCLIImportReportsEachRow(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reader.db")
	srv := newFeedServer(t)
	runCLI(t, dbPath, "add", "feed", srv.URL+"/feed.xml")

	opmlFile := filepath.Join(t.TempDir(), "in.opml")
	if err := os.WriteFile(opmlFile, []byte(`<?xml version="1.0" encoding="UTF-8"?>
<opml version="2.0">
  <body>
    <outline text="A" xmlUrl="`+srv.URL+`/feed.xml" />
    <outline text="Missing" xmlUrl="`+srv.URL+`/missing" />
    <outline text="Bad" xmlUrl="  " />
  </body>
</opml>`), 0o644); err != nil {
		t.Fatalf("write opml: %v", err)
	}

	var rep ImportReport
	decodeJSON(t, runCLI(t, dbPath, "import", opmlFile, "-o", "json"), &rep)
	if rep.Added != 0 || rep.Existing != 1 || rep.Failed != 1 || len(rep.Rows) != 2 {
		t.Fatalf("unexpected import report: %+v", rep)
	}
	if rep.Rows[1].Status != "failed" || rep.Rows[1].Error == "" {
		t.Fatalf("expected failed row with error: %+v", rep.Rows[1])
	}

	out := runCLI(t, dbPath, "import", opmlFile, "-o", "wide")
	if !strings.Contains(out, "0 added, 1 existing, 1 failed") {
		t.Fatalf("unexpected import summary:\n%s", out)
	}
}

func TestCLIImportFromURL(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reader.db")
	feeds := newFeedServer(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<opml version="2.0"><body><outline xmlUrl="` + feeds.URL + `/feed.xml"/></body></opml>`))
	}))
	t.Cleanup(srv.Close)

	out := runCLI(t, dbPath, "import", srv.URL+"/subs.opml")
	if !strings.Contains(out, "1 added, 0 existing, 0 failed") {
		t.Fatalf("unexpected import output:\n%s", out)
	}
}

func TestCLIErrorClassification(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reader.db")
	srv := newFeedServer(t)

	cases := []struct {
		args []string
		code int
	}{
		{[]string{"get", "feed", "abc"}, exitInvalidInput},
		{[]string{"get", "feed", "99"}, exitNotFound},
		{[]string{"get", "article", "99"}, exitNotFound},
		{[]string{"refresh", "99"}, exitNotFound},
		{[]string{"add", "feed", "not a url"}, exitInvalidInput},
		{[]string{"add", "feed", srv.URL + "/nothing-here"}, exitFetch},
		{[]string{"import", filepath.Join(t.TempDir(), "missing.opml")}, exitInvalidInput},
	}
	for _, tc := range cases {
		_, err := runCLIErr(t, dbPath, tc.args...)
		if code := ErrorExitCode(err); code != tc.code {
			t.Fatalf("%v: exit code = %d, want %d (err: %v)", tc.args, code, tc.code, err)
		}
	}
}

func TestExecuteHelpPath(t *testing.T) {
	clearConfigEnv(t)
	setEnvForTest(t, "HOME", t.TempDir())
	oldArgs := os.Args
	os.Args = []string{"reader", "--help"}
	t.Cleanup(func() {
		os.Args = oldArgs
	})
	if code := run(); code != 0 {
		t.Fatalf("expected exit code 0 for --help, got %d", code)
	}
}

func run() int {
	err := Execute()
	PrintError(err)
	return ErrorExitCode(err)
}

func testConfig(dbPath string) config.Config {
	return config.Config{
		DBDriver:         config.DriverSQLite,
		DBPath:           dbPath,
		FetchConcurrency: 2,
		HTTPTimeout:      10 * time.Second,
		UserAgent:        "reader-test/1.0",
		RetryDelays:      []time.Duration{},
		LogLevel:         "error",
	}
}

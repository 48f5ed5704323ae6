package opml

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tengjizhang/reader/internal/model"
)

func TestReadFile_ParsesNestedAndDedupes(t *testing.T) {
	tmp := filepath.Join(t.TempDir(), "in.opml")
	content := `<?xml version="1.0" encoding="UTF-8"?>
<opml version="2.0">
  <body>
    <outline text="Top">
      <outline text="A" xmlUrl="https://a.example/feed.xml" />
      <outline text="B" xmlurl="https://b.example/feed.xml" />
      <outline text="A-dup" xmlUrl="https://a.example/feed.xml" />
      <outline text="folder only" />
    </outline>
  </body>
</opml>`
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		t.Fatalf("write opml: %v", err)
	}

	urls, err := ReadFile(tmp)
	if err != nil {
		t.Fatalf("read opml: %v", err)
	}
	if strings.Join(urls, ",") != "https://a.example/feed.xml,https://b.example/feed.xml" {
		t.Fatalf("unexpected urls: %v", urls)
	}
}

func TestParse_DecodesDeclaredCharset(t *testing.T) {
	content := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n" +
		"<opml version=\"1.0\"><body><outline text=\"caf\xe9\" xmlUrl=\"https://caf.example/rss\"/></body></opml>"
	urls, err := Parse(strings.NewReader(content))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(urls) != 1 || urls[0] != "https://caf.example/rss" {
		t.Fatalf("unexpected urls: %v", urls)
	}
}

func TestParse_RejectsGarbage(t *testing.T) {
	if _, err := Parse(strings.NewReader("definitely not xml")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestWrite_RoundTripsFeedURLs(t *testing.T) {
	var b strings.Builder
	feeds := []model.Feed{
		{Name: "A", FeedURL: "https://a.example/feed.xml", URL: "https://a.example"},
		{Name: " ", FeedURL: "https://b.example/feed.xml", URL: "https://b.example"},
	}
	if err := Write(&b, "reader export", feeds); err != nil {
		t.Fatalf("write opml: %v", err)
	}
	out := b.String()
	for _, want := range []string{
		`xmlUrl="https://a.example/feed.xml"`,
		`htmlUrl="https://a.example"`,
		`title="https://b.example/feed.xml"`,
		`<title>reader export</title>`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in output:\n%s", want, out)
		}
	}

	urls, err := Parse(strings.NewReader(out))
	if err != nil {
		t.Fatalf("Parse exported: %v", err)
	}
	if len(urls) != 2 {
		t.Fatalf("expected 2 urls after round trip, got %v", urls)
	}
}

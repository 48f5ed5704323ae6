package opml

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/tengjizhang/reader/internal/model"
)

type opmlDoc struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr,omitempty"`
	Head    opmlHead `xml:"head"`
	Body    opmlBody `xml:"body"`
}

type opmlHead struct {
	Title       string `xml:"title,omitempty"`
	DateCreated string `xml:"dateCreated,omitempty"`
}

type opmlBody struct {
	Outlines []opmlOutline `xml:"outline"`
}

type opmlOutline struct {
	Text         string        `xml:"text,attr,omitempty"`
	Title        string        `xml:"title,attr,omitempty"`
	Type         string        `xml:"type,attr,omitempty"`
	XMLURL       string        `xml:"xmlUrl,attr,omitempty"`
	XMLURLLower  string        `xml:"xmlurl,attr,omitempty"`
	HTMLURL      string        `xml:"htmlUrl,attr,omitempty"`
	HTMLURLLower string        `xml:"htmlurl,attr,omitempty"`
	Outlines     []opmlOutline `xml:"outline,omitempty"`
}

func (o opmlOutline) feedURL() string {
	if v := strings.TrimSpace(o.XMLURL); v != "" {
		return v
	}
	return strings.TrimSpace(o.XMLURLLower)
}

// ReadFile parses the OPML document at path.
func ReadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse returns the distinct feed URLs of every outline, nested ones
// included, in document order.
func Parse(r io.Reader) ([]string, error) {
	var doc opmlDoc
	decoder := xml.NewDecoder(r)
	decoder.Strict = false
	decoder.Entity = xml.HTMLEntity
	decoder.CharsetReader = charset.NewReaderLabel
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid opml: %w", err)
	}

	var urls []string
	var walk func([]opmlOutline)
	walk = func(outlines []opmlOutline) {
		for _, o := range outlines {
			if u := o.feedURL(); u != "" {
				urls = append(urls, u)
			}
			if len(o.Outlines) > 0 {
				walk(o.Outlines)
			}
		}
	}
	walk(doc.Body.Outlines)

	return uniqueStrings(urls), nil
}

// Write encodes feeds as an OPML 2.0 subscription list.
func Write(w io.Writer, title string, feeds []model.Feed) error {
	outlines := make([]opmlOutline, 0, len(feeds))
	for _, f := range feeds {
		name := fallback(strings.TrimSpace(f.Name), f.FeedURL)
		outlines = append(outlines, opmlOutline{
			Text:    name,
			Title:   name,
			Type:    "rss",
			XMLURL:  f.FeedURL,
			HTMLURL: f.URL,
		})
	}

	doc := opmlDoc{
		Version: "2.0",
		Head:    opmlHead{Title: title},
		Body: opmlBody{
			Outlines: []opmlOutline{{
				Text:     "Subscriptions",
				Title:    "Subscriptions",
				Outlines: outlines,
			}},
		},
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func fallback(v, fb string) string {
	if strings.TrimSpace(v) == "" {
		return fb
	}
	return v
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

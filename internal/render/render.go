package render

import (
	"html"
	"regexp"
	"strings"

	markdown "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/microcosm-cc/bluemonday"
)

var wsRegexp = regexp.MustCompile(`\s+`)

// Renderer turns item descriptions into safe HTML, Markdown or one-line
// summaries. It is safe for concurrent use.
type Renderer struct {
	converter *markdown.Converter
	ugc       *bluemonday.Policy
	strict    *bluemonday.Policy
}

func NewRenderer() *Renderer {
	return &Renderer{
		converter: markdown.NewConverter("", true, nil),
		ugc:       bluemonday.UGCPolicy(),
		strict:    bluemonday.StrictPolicy(),
	}
}

// SanitizeHTML drops scripts, event handlers and unsafe URLs while keeping
// ordinary formatting.
func (r *Renderer) SanitizeHTML(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(r.ugc.Sanitize(raw))
}

// Markdown sanitizes raw and converts it. If conversion fails the plain
// text is returned instead.
func (r *Renderer) Markdown(raw string) string {
	clean := r.SanitizeHTML(raw)
	if clean == "" {
		return ""
	}
	out, err := r.converter.ConvertString(clean)
	if err != nil {
		return r.PlainText(clean, 4000)
	}
	return strings.TrimSpace(out)
}

// PlainText strips all markup, unescapes entities and collapses whitespace.
// max <= 0 disables truncation.
func (r *Renderer) PlainText(raw string, max int) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	return CompactText(html.UnescapeString(r.strict.Sanitize(raw)), max)
}

func CompactText(v string, max int) string {
	v = strings.TrimSpace(wsRegexp.ReplaceAllString(v, " "))
	if max <= 0 || len(v) <= max {
		return v
	}
	cut := max - 3
	if cut < 0 {
		cut = 0
	}
	for cut > 0 && !isRuneStart(v[cut]) {
		cut--
	}
	return v[:cut] + "..."
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

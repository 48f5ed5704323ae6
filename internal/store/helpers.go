package store

import (
	"strconv"
	"strings"
	"time"
)

var rfc2822Layouts = []string{
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"Mon, 2 Jan 2006 15:04 -0700",
	"Mon, 2 Jan 2006 15:04 MST",
	"2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04 -0700",
	"2 Jan 2006 15:04 MST",
}

// obsoleteZones are the named zones RFC 2822 still requires parsers to
// accept, in seconds east of UTC.
var obsoleteZones = map[string]int{
	"UT":  0,
	"GMT": 0,
	"EST": -5 * 3600,
	"EDT": -4 * 3600,
	"CST": -6 * 3600,
	"CDT": -5 * 3600,
	"MST": -7 * 3600,
	"MDT": -6 * 3600,
	"PST": -8 * 3600,
	"PDT": -7 * 3600,
}

// ParseRFC2822 parses the date format used by RSS pubDate and by the
// create_date/update_date columns. The weekday and seconds are optional.
func ParseRFC2822(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	// time.Parse rejects two-letter zones.
	if strings.HasSuffix(v, " UT") {
		v = strings.TrimSuffix(v, " UT") + " +0000"
	}
	for _, layout := range rfc2822Layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return withObsoleteZone(t), true
		}
	}
	return time.Time{}, false
}

// withObsoleteZone replaces the offset time.Parse guessed for a zone
// abbreviation with the fixed RFC 2822 offset, keeping the wall clock.
func withObsoleteZone(t time.Time) time.Time {
	name := t.Location().String()
	offset, ok := obsoleteZones[name]
	if !ok {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.FixedZone(name, offset))
}

func FormatRFC2822(t time.Time) string {
	return t.UTC().Format(time.RFC1123Z)
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

// rebind rewrites ? placeholders to $1..$n for drivers that need it.
// Queries in this package never contain a literal '?'.
func rebind(d dialect, query string) string {
	if !d.numberedParams {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

package fetch

import (
	"errors"
	"fmt"
)

var (
	// ErrFetch marks a transport failure after retries or a non-2xx response.
	ErrFetch = errors.New("fetch failed")
	// ErrNotFeed marks a response body that is not an RSS channel document.
	ErrNotFeed = errors.New("not an rss feed")
	// ErrNoFeed is returned by Discover when no candidate URL yielded a feed.
	ErrNoFeed = errors.New("no feed found")
)

// StatusError is a completed request that returned a non-2xx status. It is
// never retried.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: http %d", e.URL, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return ErrFetch
}

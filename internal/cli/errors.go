package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/tengjizhang/reader/internal/fetch"
	"github.com/tengjizhang/reader/internal/store"
)

const (
	exitInternal     = 1
	exitInvalidInput = 2
	exitNotFound     = 3
	exitConflict     = 4
	exitFetch        = 5
)

func errorKind(err error) (string, int) {
	switch {
	case errors.Is(err, store.ErrInvalidInput):
		return "invalid-input", exitInvalidInput
	case errors.Is(err, store.ErrNotFound):
		return "not-found", exitNotFound
	case errors.Is(err, store.ErrConflict):
		return "conflict", exitConflict
	case isFetchError(err):
		return "fetch", exitFetch
	default:
		return "internal", exitInternal
	}
}

func isFetchError(err error) bool {
	return errors.Is(err, fetch.ErrFetch) || errors.Is(err, fetch.ErrNotFeed) || errors.Is(err, fetch.ErrNoFeed)
}

func ErrorExitCode(err error) int {
	if err == nil {
		return 0
	}
	_, code := errorKind(err)
	return code
}

func FormatError(err error) string {
	if err == nil {
		return ""
	}
	kind, _ := errorKind(err)
	return fmt.Sprintf("Error [%s]: %v", kind, err)
}

func PrintError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, FormatError(err))
}

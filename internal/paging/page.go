package paging

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrRecordNotFound reports that every page was scanned without a match.
	ErrRecordNotFound = errors.New("record not found")
	// ErrCursorLoop reports a next cursor pointing at a page already visited.
	ErrCursorLoop = errors.New("pagination cursor loop")
)

// Page is one page of a listing endpoint.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// NextPage returns the page number the next cursor points at.
func (p Page[T]) NextPage() (int, bool) {
	if p.Next == nil {
		return 0, false
	}
	return PageNumber(*p.Next)
}

// Fetcher retrieves a single page by number, starting at 1.
type Fetcher[T any] func(ctx context.Context, page int) (Page[T], error)

var pageParam = regexp.MustCompile(`[?&]page=(\d+)`)

// PageNumber extracts the page query parameter from an absolute or relative
// cursor URL. It reports false when the cursor carries no positive page
// number.
func PageNumber(cursor string) (int, bool) {
	cursor = strings.TrimSpace(cursor)
	if cursor == "" {
		return 0, false
	}

	raw := ""
	if parsed, err := url.Parse(cursor); err == nil {
		raw = parsed.Query().Get("page")
	} else if match := pageParam.FindStringSubmatch(cursor); match != nil {
		raw = match[1]
	}
	if raw == "" {
		return 0, false
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

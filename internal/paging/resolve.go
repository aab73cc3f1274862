package paging

import (
	"context"
	"fmt"
)

// FindByID fetches pages from 1 onward and returns the first record whose
// identifier equals id. Pages after the match are never fetched. A fetch
// failure aborts the scan and is returned wrapped with the page number; it is
// never reported as ErrRecordNotFound.
func FindByID[T any, K comparable](ctx context.Context, fetch Fetcher[T], id K, idOf func(T) K) (T, error) {
	var zero T
	var found *T

	err := walk(ctx, fetch, func(page Page[T]) bool {
		for i := range page.Results {
			if idOf(page.Results[i]) == id {
				found = &page.Results[i]
				return false
			}
		}
		return true
	})
	if err != nil {
		return zero, err
	}
	if found == nil {
		return zero, fmt.Errorf("%w: %v", ErrRecordNotFound, id)
	}
	return *found, nil
}

// Walk fetches every page in cursor order and hands each to visit. Returning
// false from visit stops the walk without error.
func Walk[T any](ctx context.Context, fetch Fetcher[T], visit func(Page[T]) bool) error {
	return walk(ctx, fetch, visit)
}

func walk[T any](ctx context.Context, fetch Fetcher[T], visit func(Page[T]) bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	visited := make(map[int]struct{})
	pageNumber := 1

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		visited[pageNumber] = struct{}{}

		page, err := fetch(ctx, pageNumber)
		if err != nil {
			return fmt.Errorf("fetch page %d: %w", pageNumber, err)
		}
		if !visit(page) {
			return nil
		}

		next, ok := page.NextPage()
		if !ok {
			return nil
		}
		if _, seen := visited[next]; seen {
			return fmt.Errorf("%w: page %d follows page %d", ErrCursorLoop, next, pageNumber)
		}
		pageNumber = next
	}
}

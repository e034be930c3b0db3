package httpx

import (
	"context"
	"net/http"
)

// pageOpts are the pagination bounds parsed from a list request.
type pageOpts struct {
	Limit  int
	Offset int
}

// Page is the data payload of a paginated list response.
type Page[T any] struct {
	Items   []T  `json:"items"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// ListFetcher fetches up to pg.Limit items starting at pg.Offset.
type ListFetcher[T any] func(ctx context.Context, pg pageOpts) ([]T, error)

// ListHandlerOpts contains all options needed for HandleList.
type ListHandlerOpts[T any] struct {
	W        http.ResponseWriter
	R        *http.Request
	Fetcher  ListFetcher[T]
	Respond  Responder
	Message  string
	DefLimit int
	MaxLimit int
}

// HandleList parses pagination, fetches one extra row to detect further pages and
// writes the page envelope.
func HandleList[T any](opts ListHandlerOpts[T]) {
	limit, offset := ParseLimitOffset(opts.R, opts.DefLimit, opts.MaxLimit)

	items, err := opts.Fetcher(opts.R.Context(), pageOpts{Limit: limit + 1, Offset: offset})
	if err != nil {
		opts.Respond.fail(opts.W, opts.R, err)
		return
	}

	page := Page[T]{Items: items, Limit: limit, Offset: offset}
	if len(items) > limit {
		page.Items = items[:limit]
		page.HasMore = true
	}
	if page.Items == nil {
		page.Items = []T{}
	}
	WriteSuccess(opts.W, http.StatusOK, opts.Message, page)
}

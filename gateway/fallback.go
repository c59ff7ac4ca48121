// ABOUTME: Degrades ordered queries the backend cannot index into client-side sorting
// ABOUTME: Wraps any Gateway; all other calls pass straight through
package gateway

import (
	"context"
	"errors"
)

type sortFallback struct {
	Gateway
}

// WithSortFallback retries queries rejected with ErrIndexRequired as an
// unordered fetch, then sorts and pages the results locally. Cursors from
// both paths share one encoding, so callers cannot tell them apart.
func WithSortFallback(gw Gateway) Gateway {
	return &sortFallback{Gateway: gw}
}

func (s *sortFallback) Query(ctx context.Context, collection string, q Query) (Page, error) {
	page, err := s.Gateway.Query(ctx, collection, q)
	if err == nil || !errors.Is(err, ErrIndexRequired) {
		return page, err
	}

	logger.Debug("ordered query needs an index, sorting locally", "collection", collection, "err", err)

	docs, err := QueryAll(ctx, s.Gateway, collection, Query{Filters: q.Filters})
	if err != nil {
		return Page{}, err
	}
	SortDocs(docs, q.Order)
	return PageDocs(docs, q.Order, q.Cursor, q.Limit)
}

// ABOUTME: Turns change pings into streams of full result sets
// ABOUTME: Shared Subscribe implementation for every gateway backend
package gateway

import (
	"context"
)

// Watch emits the current matching documents, then a fresh full result set
// after every change ping, until ctx is done. Re-query failures are logged
// and the previous result set stays current.
func Watch(ctx context.Context, gw Gateway, n Notifier, collection string, filters []Filter) (<-chan []Document, error) {
	if err := ValidateQuery(Query{Filters: filters}); err != nil {
		return nil, err
	}

	// The listener lives as long as the stream, not the caller's ctx.
	ctx, cancel := context.WithCancel(ctx)
	pings, err := n.Listen(ctx, collection)
	if err != nil {
		cancel()
		return nil, err
	}

	initial, err := QueryAll(ctx, gw, collection, Query{Filters: filters})
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan []Document, 1)
	out <- initial

	go func() {
		defer cancel()
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-pings:
				if !ok {
					return
				}
				docs, err := QueryAll(ctx, gw, collection, Query{Filters: filters})
				if err != nil {
					if ctx.Err() == nil {
						logger.Warn("subscription re-query failed", "collection", collection, "err", err)
					}
					continue
				}
				select {
				case out <- docs:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

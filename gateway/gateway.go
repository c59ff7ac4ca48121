// ABOUTME: Document store gateway contract over named collections
// ABOUTME: Defines Document, Query, Page, and the Gateway interface shared by all backends
package gateway

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrIndexRequired = errors.New("query requires an index")
	ErrBadCursor     = errors.New("invalid cursor")
	ErrInvalidQuery  = errors.New("invalid query")
)

// Document is a schemaless record. Fields never contain the id.
type Document struct {
	ID     string
	Fields map[string]any
}

// Op is a filter comparison.
type Op string

const (
	OpEq Op = "=="
	OpNe Op = "!="
)

type Filter struct {
	Field string
	Op    Op
	Value any
}

// Eq is shorthand for an equality filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Op: OpEq, Value: value}
}

type Order struct {
	Field string
	Desc  bool
}

// Query selects documents from one collection.
// A zero Limit returns every match. Cursor continues a previous page.
type Query struct {
	Filters []Filter
	Order   *Order
	Cursor  string
	Limit   int
}

// Page is one slice of query results.
type Page struct {
	Docs       []Document
	NextCursor string
	HasMore    bool
}

// Gateway is the backing document store.
type Gateway interface {
	// Create stores doc, assigning an id when doc.ID is empty.
	Create(ctx context.Context, collection string, doc Document) (Document, error)
	// Get returns ErrNotFound when the document does not exist.
	Get(ctx context.Context, collection, id string) (Document, error)
	// Update merges partial into the stored top-level fields.
	Update(ctx context.Context, collection, id string, partial map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, collection string, q Query) (Page, error)
	// Subscribe streams the full matching result set after every change until ctx ends.
	Subscribe(ctx context.Context, collection string, filters []Filter) (<-chan []Document, error)
}

// QueryAll drains every page of q.
func QueryAll(ctx context.Context, gw Gateway, collection string, q Query) ([]Document, error) {
	var out []Document
	for {
		page, err := gw.Query(ctx, collection, q)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Docs...)
		if !page.HasMore || page.NextCursor == "" {
			return out, nil
		}
		q.Cursor = page.NextCursor
	}
}

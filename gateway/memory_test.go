// ABOUTME: Tests for the in-memory gateway and shared query helpers
// ABOUTME: Covers CRUD, filtering, keyset paging, strict indexes, and the sort fallback
package gateway

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID    string  `json:"id,omitempty"`
	Name  string  `json:"name"`
	Stage string  `json:"stage"`
	Value float64 `json:"value"`
}

func seed(t *testing.T, gw Gateway, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		doc, err := Encode(record{
			ID:    fmt.Sprintf("r%02d", i),
			Name:  fmt.Sprintf("Deal %d", i),
			Stage: []string{"1", "2"}[i%2],
			Value: float64(i * 100),
		})
		require.NoError(t, err)
		_, err = gw.Create(ctx, "opportunities", doc)
		require.NoError(t, err)
	}
}

func TestMemoryCRUD(t *testing.T) {
	ctx := context.Background()
	gw := NewMemory()

	created, err := gw.Create(ctx, "contacts", Document{Fields: map[string]any{"name": "Ada"}})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	got, err := gw.Get(ctx, "contacts", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Fields["name"])

	require.NoError(t, gw.Update(ctx, "contacts", created.ID, map[string]any{"email": "ada@x.com"}))
	got, err = gw.Get(ctx, "contacts", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Fields["name"], "partial update keeps other fields")
	assert.Equal(t, "ada@x.com", got.Fields["email"])

	require.NoError(t, gw.Delete(ctx, "contacts", created.ID))
	_, err = gw.Get(ctx, "contacts", created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, gw.Update(ctx, "contacts", "missing", map[string]any{"x": 1}), ErrNotFound)
	assert.ErrorIs(t, gw.Delete(ctx, "contacts", "missing"), ErrNotFound)
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	gw := NewMemory()

	_, err := gw.Create(ctx, "c", Document{ID: "a", Fields: map[string]any{"tags": []string{"x"}}})
	require.NoError(t, err)

	got, err := gw.Get(ctx, "c", "a")
	require.NoError(t, err)
	got.Fields["tags"].([]any)[0] = "mutated"

	again, err := gw.Get(ctx, "c", "a")
	require.NoError(t, err)
	assert.Equal(t, []any{"x"}, again.Fields["tags"])
}

func TestMemoryRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	gw := NewMemory()

	_, err := gw.Create(ctx, "c", Document{ID: "a"})
	require.NoError(t, err)
	_, err = gw.Create(ctx, "c", Document{ID: "a"})
	assert.Error(t, err)
}

func TestQueryFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	gw := NewMemory()
	seed(t, gw, 7)

	q := Query{
		Filters: []Filter{Eq("stage", "1")},
		Order:   &Order{Field: "value", Desc: true},
		Limit:   3,
	}

	page1, err := gw.Query(ctx, "opportunities", q)
	require.NoError(t, err)
	require.Len(t, page1.Docs, 3)
	assert.True(t, page1.HasMore)
	assert.Equal(t, []string{"r06", "r04", "r02"}, ids(page1.Docs))

	q.Cursor = page1.NextCursor
	page2, err := gw.Query(ctx, "opportunities", q)
	require.NoError(t, err)
	assert.Equal(t, []string{"r00"}, ids(page2.Docs))
	assert.False(t, page2.HasMore)
	assert.Empty(t, page2.NextCursor)
}

func TestQueryNotEqual(t *testing.T) {
	gw := NewMemory()
	seed(t, gw, 4)

	page, err := gw.Query(context.Background(), "opportunities", Query{Filters: []Filter{{Field: "stage", Op: OpNe, Value: "1"}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"r01", "r03"}, ids(page.Docs))
}

func TestQueryAllDrainsPages(t *testing.T) {
	gw := NewMemory()
	seed(t, gw, 5)

	docs, err := QueryAll(context.Background(), gw, "opportunities", Query{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, docs, 5)
}

func TestQueryRejectsBadInput(t *testing.T) {
	gw := NewMemory()
	ctx := context.Background()

	_, err := gw.Query(ctx, "opportunities", Query{Cursor: "not base64!"})
	assert.ErrorIs(t, err, ErrBadCursor)

	_, err = gw.Query(ctx, "opportunities", Query{Filters: []Filter{{Field: "x", Op: ">"}}})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestStrictIndexesAndFallback(t *testing.T) {
	ctx := context.Background()
	strict := NewMemory(WithStrictIndexes("opportunities/stage/name"))
	seed(t, strict, 6)

	q := Query{Filters: []Filter{Eq("stage", "2")}, Order: &Order{Field: "value"}, Limit: 2}

	_, err := strict.Query(ctx, "opportunities", q)
	require.ErrorIs(t, err, ErrIndexRequired)

	indexed := Query{Filters: []Filter{Eq("stage", "2")}, Order: &Order{Field: "name"}}
	_, err = strict.Query(ctx, "opportunities", indexed)
	require.NoError(t, err)

	gw := WithSortFallback(strict)
	page1, err := gw.Query(ctx, "opportunities", q)
	require.NoError(t, err)
	assert.Equal(t, []string{"r01", "r03"}, ids(page1.Docs))
	assert.True(t, page1.HasMore)

	q.Cursor = page1.NextCursor
	page2, err := gw.Query(ctx, "opportunities", q)
	require.NoError(t, err)
	assert.Equal(t, []string{"r05"}, ids(page2.Docs))
}

func TestCompareTimestamps(t *testing.T) {
	earlier := "2024-01-02T03:04:05Z"
	later := "2024-01-02T03:04:05.5Z"
	assert.Negative(t, compareValues(earlier, later))
	assert.Positive(t, compareValues(2.0, 1))
	assert.Negative(t, compareValues(nil, "a"))
}

func TestEncodeDecodeKeepsID(t *testing.T) {
	doc, err := Encode(record{ID: "x1", Name: "n", Value: 5})
	require.NoError(t, err)
	assert.Equal(t, "x1", doc.ID)
	_, hasID := doc.Fields["id"]
	assert.False(t, hasID)

	var out record
	require.NoError(t, Decode(doc, &out))
	assert.Equal(t, record{ID: "x1", Name: "n", Value: 5}, out)
}

func ids(docs []Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

// ABOUTME: Tests for the SQLite document store
// ABOUTME: Exercises CRUD, SQL filters, ordering, paging, and subscriptions on a temp database
package db

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/dealflow/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := OpenDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func TestDocumentStoreCRUD(t *testing.T) {
	ctx := context.Background()
	store := NewDocumentStore(setupTestDB(t), nil)

	created, err := store.Create(ctx, "opportunities", gateway.Document{Fields: map[string]any{
		"name":  "Acme renewal",
		"value": 1500.0,
		"stage": "3",
	}})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := store.Get(ctx, "opportunities", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme renewal", got.Fields["name"])
	assert.Equal(t, 1500.0, got.Fields["value"])

	require.NoError(t, store.Update(ctx, "opportunities", created.ID, map[string]any{"stage": "4"}))
	got, err = store.Get(ctx, "opportunities", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "4", got.Fields["stage"])
	assert.Equal(t, "Acme renewal", got.Fields["name"])

	require.NoError(t, store.Delete(ctx, "opportunities", created.ID))
	_, err = store.Get(ctx, "opportunities", created.ID)
	assert.ErrorIs(t, err, gateway.ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "opportunities", created.ID), gateway.ErrNotFound)
	assert.ErrorIs(t, store.Update(ctx, "opportunities", created.ID, map[string]any{"a": 1}), gateway.ErrNotFound)
}

func TestDocumentStoreDuplicateID(t *testing.T) {
	ctx := context.Background()
	store := NewDocumentStore(setupTestDB(t), nil)

	_, err := store.Create(ctx, "settings", gateway.Document{ID: "stages"})
	require.NoError(t, err)
	_, err = store.Create(ctx, "settings", gateway.Document{ID: "stages"})
	assert.Error(t, err)

	// Same id in a different collection is fine.
	_, err = store.Create(ctx, "contacts", gateway.Document{ID: "stages"})
	assert.NoError(t, err)
}

func TestDocumentStoreQuery(t *testing.T) {
	ctx := context.Background()
	store := NewDocumentStore(setupTestDB(t), nil)

	for i := 0; i < 6; i++ {
		_, err := store.Create(ctx, "opportunities", gateway.Document{
			ID: fmt.Sprintf("o%d", i),
			Fields: map[string]any{
				"stage":        []string{"1", "2", "3"}[i%3],
				"value":        float64(i * 10),
				"followUpRead": i%2 == 0,
			},
		})
		require.NoError(t, err)
	}

	page, err := store.Query(ctx, "opportunities", gateway.Query{
		Filters: []gateway.Filter{gateway.Eq("stage", "1")},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"o0", "o3"}, docIDs(page.Docs))

	page, err = store.Query(ctx, "opportunities", gateway.Query{
		Filters: []gateway.Filter{gateway.Eq("followUpRead", false)},
		Order:   &gateway.Order{Field: "value", Desc: true},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"o5", "o3", "o1"}, docIDs(page.Docs))

	all, err := gateway.QueryAll(ctx, store, "opportunities", gateway.Query{
		Order: &gateway.Order{Field: "value"},
		Limit: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"o0", "o1", "o2", "o3", "o4", "o5"}, docIDs(all))

	_, err = store.Query(ctx, "opportunities", gateway.Query{
		Filters: []gateway.Filter{gateway.Eq("stage') OR 1=1 --", "x")},
	})
	assert.ErrorIs(t, err, gateway.ErrInvalidQuery)
}

func TestDocumentStoreSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := NewDocumentStore(setupTestDB(t), nil)

	stream, err := store.Subscribe(ctx, "appointments", nil)
	require.NoError(t, err)
	assert.Empty(t, <-stream)

	_, err = store.Create(ctx, "appointments", gateway.Document{ID: "a1", Fields: map[string]any{"title": "Site visit"}})
	require.NoError(t, err)

	select {
	case docs := <-stream:
		assert.Equal(t, []string{"a1"}, docIDs(docs))
	case <-time.After(2 * time.Second):
		t.Fatal("no result set after insert")
	}
}

func docIDs(docs []gateway.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

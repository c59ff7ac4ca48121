// ABOUTME: SQLite implementation of the document store gateway
// ABOUTME: Keeps each record as a JSON blob keyed by collection and id
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/dealflow/gateway"
	"github.com/mattn/go-sqlite3"
)

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// DocumentStore is a gateway.Gateway backed by SQLite.
type DocumentStore struct {
	db       *sql.DB
	notifier gateway.Notifier
}

// NewDocumentStore wraps an open database. A nil notifier uses in-process pings.
func NewDocumentStore(db *sql.DB, notifier gateway.Notifier) *DocumentStore {
	if notifier == nil {
		notifier = gateway.NewLocalNotifier()
	}
	return &DocumentStore{db: db, notifier: notifier}
}

func (s *DocumentStore) Create(ctx context.Context, collection string, doc gateway.Document) (gateway.Document, error) {
	fields, err := gateway.EncodeFields(doc.Fields)
	if err != nil {
		return gateway.Document{}, err
	}
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return gateway.Document{}, err
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, collection, doc.ID, string(data), now, now)
	if err != nil {
		var sqlErr sqlite3.Error
		if errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return gateway.Document{}, fmt.Errorf("document %s/%s already exists", collection, doc.ID)
		}
		return gateway.Document{}, fmt.Errorf("failed to insert document: %w", err)
	}

	s.publish(ctx, collection)
	return gateway.Document{ID: doc.ID, Fields: fields}, nil
}

func (s *DocumentStore) Get(ctx context.Context, collection, id string) (gateway.Document, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return gateway.Document{}, gateway.ErrNotFound
	}
	if err != nil {
		return gateway.Document{}, fmt.Errorf("failed to get document: %w", err)
	}

	return decodeRow(id, data)
}

func (s *DocumentStore) Update(ctx context.Context, collection, id string, partial map[string]any) error {
	changes, err := gateway.EncodeFields(partial)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var data string
	err = tx.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return gateway.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}

	fields := make(map[string]any)
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return fmt.Errorf("failed to parse document %s: %w", id, err)
	}
	for k, v := range changes {
		fields[k] = v
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE documents SET data = ?, updated_at = ? WHERE collection = ? AND id = ?`,
		string(merged), time.Now().UTC(), collection, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit update: %w", err)
	}

	s.publish(ctx, collection)
	return nil
}

func (s *DocumentStore) Delete(ctx context.Context, collection, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`,
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return gateway.ErrNotFound
	}

	s.publish(ctx, collection)
	return nil
}

// Query filters in SQL and orders and pages in Go so every backend
// shares one cursor format and sort order.
func (s *DocumentStore) Query(ctx context.Context, collection string, q gateway.Query) (gateway.Page, error) {
	if err := gateway.ValidateQuery(q); err != nil {
		return gateway.Page{}, err
	}

	var where []string
	args := []any{collection}
	for _, f := range q.Filters {
		if !fieldName.MatchString(f.Field) {
			return gateway.Page{}, fmt.Errorf("%w: bad field name %q", gateway.ErrInvalidQuery, f.Field)
		}
		op := "IS"
		if f.Op == gateway.OpNe {
			op = "IS NOT"
		}
		where = append(where, fmt.Sprintf("json_extract(data, '$.%s') %s ?", f.Field, op))
		args = append(args, sqlValue(f.Value))
	}

	query := `SELECT id, data FROM documents WHERE collection = ?`
	if len(where) > 0 {
		query += " AND " + strings.Join(where, " AND ")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return gateway.Page{}, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []gateway.Document
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return gateway.Page{}, err
		}
		doc, err := decodeRow(id, data)
		if err != nil {
			return gateway.Page{}, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return gateway.Page{}, err
	}

	gateway.SortDocs(docs, q.Order)
	return gateway.PageDocs(docs, q.Order, q.Cursor, q.Limit)
}

func (s *DocumentStore) Subscribe(ctx context.Context, collection string, filters []gateway.Filter) (<-chan []gateway.Document, error) {
	return gateway.Watch(ctx, s, s.notifier, collection, filters)
}

func (s *DocumentStore) publish(ctx context.Context, collection string) {
	if err := s.notifier.Publish(ctx, collection); err != nil {
		logger.Warn("change notification failed", "collection", collection, "err", err)
	}
}

// sqlValue maps a filter value onto what json_extract returns for it.
func sqlValue(v any) any {
	switch val := v.(type) {
	case bool:
		if val {
			return 1
		}
		return 0
	case string, nil, int, int64, float64:
		return val
	case fmt.Stringer:
		return val.String()
	}

	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return sqlValue(out)
}

func decodeRow(id, data string) (gateway.Document, error) {
	fields := make(map[string]any)
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return gateway.Document{}, fmt.Errorf("failed to parse document %s: %w", id, err)
	}
	return gateway.Document{ID: id, Fields: fields}, nil
}

// ABOUTME: In-memory gateway backend used for demo mode and tests
// ABOUTME: Optionally rejects ordered+filtered queries lacking a declared index
package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Memory is a Gateway backed by process memory.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
	notifier    Notifier
	strict      bool
	indexes     map[string]bool
}

type MemoryOption func(*Memory)

// WithNotifier publishes a change ping on every write.
func WithNotifier(n Notifier) MemoryOption {
	return func(m *Memory) {
		m.notifier = n
	}
}

// WithStrictIndexes makes queries that combine filters with an order fail with
// ErrIndexRequired unless "collection/filterField/orderField" is declared.
func WithStrictIndexes(indexes ...string) MemoryOption {
	return func(m *Memory) {
		m.strict = true
		for _, idx := range indexes {
			m.indexes[idx] = true
		}
	}
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		collections: make(map[string]map[string]map[string]any),
		indexes:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.notifier == nil {
		m.notifier = NewLocalNotifier()
	}
	return m
}

func (m *Memory) Create(ctx context.Context, collection string, doc Document) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	fields, err := EncodeFields(doc.Fields)
	if err != nil {
		return Document{}, err
	}
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}

	m.mu.Lock()
	coll, ok := m.collections[collection]
	if !ok {
		coll = make(map[string]map[string]any)
		m.collections[collection] = coll
	}
	if _, exists := coll[doc.ID]; exists {
		m.mu.Unlock()
		return Document{}, fmt.Errorf("document %s/%s already exists", collection, doc.ID)
	}
	coll[doc.ID] = fields
	m.mu.Unlock()

	m.publish(ctx, collection)
	return Document{ID: doc.ID, Fields: cloneFields(fields)}, nil
}

func (m *Memory) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	fields, ok := m.collections[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return Document{ID: id, Fields: cloneFields(fields)}, nil
}

func (m *Memory) Update(ctx context.Context, collection, id string, partial map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	changes, err := EncodeFields(partial)
	if err != nil {
		return err
	}

	m.mu.Lock()
	fields, ok := m.collections[collection][id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	for k, v := range changes {
		fields[k] = v
	}
	m.mu.Unlock()

	m.publish(ctx, collection)
	return nil
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	if _, ok := m.collections[collection][id]; !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	delete(m.collections[collection], id)
	m.mu.Unlock()

	m.publish(ctx, collection)
	return nil
}

func (m *Memory) Query(ctx context.Context, collection string, q Query) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}
	if m.strict && q.Order != nil && len(q.Filters) > 0 {
		for _, f := range q.Filters {
			key := collection + "/" + f.Field + "/" + q.Order.Field
			if !m.indexes[key] {
				return Page{}, fmt.Errorf("%w: %s", ErrIndexRequired, key)
			}
		}
	}

	m.mu.RLock()
	candidates := make([]Document, 0, len(m.collections[collection]))
	for id, fields := range m.collections[collection] {
		candidates = append(candidates, Document{ID: id, Fields: cloneFields(fields)})
	}
	m.mu.RUnlock()

	return RunQuery(candidates, q)
}

func (m *Memory) Subscribe(ctx context.Context, collection string, filters []Filter) (<-chan []Document, error) {
	return Watch(ctx, m, m.notifier, collection, filters)
}

func (m *Memory) publish(ctx context.Context, collection string) {
	if err := m.notifier.Publish(ctx, collection); err != nil {
		logger.Warn("change notification failed", "collection", collection, "err", err)
	}
}

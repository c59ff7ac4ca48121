// ABOUTME: Shared filtering, ordering, and keyset paging for gateway backends
// ABOUTME: Cursors are opaque base64 JSON of the last sort value and document id
package gateway

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
)

type cursor struct {
	Value any    `json:"v"`
	ID    string `json:"id"`
}

func encodeCursor(value any, id string) string {
	data, err := json.Marshal(cursor{Value: value, ID: id})
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

func decodeCursor(s string) (cursor, error) {
	var c cursor
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return c, fmt.Errorf("%w: %v", ErrBadCursor, err)
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("%w: %v", ErrBadCursor, err)
	}
	if c.ID == "" {
		return c, ErrBadCursor
	}
	return c, nil
}

// ValidateQuery rejects malformed filters before a backend runs them.
func ValidateQuery(q Query) error {
	for _, f := range q.Filters {
		if f.Field == "" {
			return fmt.Errorf("%w: empty filter field", ErrInvalidQuery)
		}
		if f.Op != OpEq && f.Op != OpNe {
			return fmt.Errorf("%w: unsupported operator %q", ErrInvalidQuery, f.Op)
		}
	}
	if q.Limit < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidQuery)
	}
	return nil
}

// Matches reports whether fields satisfy every filter.
func Matches(fields map[string]any, filters []Filter) bool {
	for _, f := range filters {
		equal := reflect.DeepEqual(normalize(fields[f.Field]), normalize(f.Value))
		switch f.Op {
		case OpEq:
			if !equal {
				return false
			}
		case OpNe:
			if equal {
				return false
			}
		}
	}
	return true
}

// normalize maps typed Go values onto their JSON-decoded shapes so
// filter values compare equal to stored values.
func normalize(v any) any {
	switch v.(type) {
	case nil, string, bool, float64:
		return v
	}
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

// SortDocs orders docs by the given field, breaking ties by id.
// A nil order sorts by id alone.
func SortDocs(docs []Document, order *Order) {
	sort.SliceStable(docs, func(i, j int) bool {
		return less(docs[i], docs[j], order)
	})
}

func less(a, b Document, order *Order) bool {
	if order != nil {
		c := compareValues(a.Fields[order.Field], b.Fields[order.Field])
		if c != 0 {
			if order.Desc {
				return c > 0
			}
			return c < 0
		}
	}
	return a.ID < b.ID
}

func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64:
		return 2
	case string:
		return 3
	default:
		return 4
	}
}

// compareValues orders nil before bools, numbers, then strings.
// Strings that both parse as RFC 3339 timestamps compare chronologically.
func compareValues(a, b any) int {
	a, b = normalize(a), normalize(b)
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}

	switch av := a.(type) {
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case string:
		bv := b.(string)
		if at, err := time.Parse(time.RFC3339Nano, av); err == nil {
			if bt, err := time.Parse(time.RFC3339Nano, bv); err == nil {
				return at.Compare(bt)
			}
		}
		return strings.Compare(av, bv)
	case nil:
		return 0
	default:
		return strings.Compare(fmt.Sprint(av), fmt.Sprint(b))
	}
}

// PageDocs slices docs, already sorted by order, starting after cursor.
func PageDocs(docs []Document, order *Order, cursorToken string, limit int) (Page, error) {
	start := 0
	if cursorToken != "" {
		c, err := decodeCursor(cursorToken)
		if err != nil {
			return Page{}, err
		}
		after := Document{ID: c.ID, Fields: map[string]any{}}
		if order != nil {
			after.Fields[order.Field] = c.Value
		}
		start = sort.Search(len(docs), func(i int) bool {
			return less(after, docs[i], order)
		})
	}

	rest := docs[start:]
	if limit <= 0 || len(rest) <= limit {
		return Page{Docs: rest}, nil
	}

	pageDocs := rest[:limit]
	last := pageDocs[len(pageDocs)-1]
	var value any
	if order != nil {
		value = last.Fields[order.Field]
	}
	return Page{
		Docs:       pageDocs,
		NextCursor: encodeCursor(value, last.ID),
		HasMore:    true,
	}, nil
}

// RunQuery filters, orders, and pages an unordered candidate set.
func RunQuery(candidates []Document, q Query) (Page, error) {
	if err := ValidateQuery(q); err != nil {
		return Page{}, err
	}
	matched := make([]Document, 0, len(candidates))
	for _, d := range candidates {
		if Matches(d.Fields, q.Filters) {
			matched = append(matched, d)
		}
	}
	SortDocs(matched, q.Order)
	return PageDocs(matched, q.Order, q.Cursor, q.Limit)
}

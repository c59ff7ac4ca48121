// ABOUTME: Converts typed records to and from schemaless documents
// ABOUTME: Round-trips through JSON so stored fields match their JSON tags
package gateway

import (
	"encoding/json"
	"fmt"
)

// Encode converts v into a Document, lifting the "id" field out of Fields.
func Encode(v any) (Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Document{}, fmt.Errorf("failed to encode document: %w", err)
	}

	fields := make(map[string]any)
	if err := json.Unmarshal(data, &fields); err != nil {
		return Document{}, fmt.Errorf("failed to encode document: %w", err)
	}

	var id string
	if raw, ok := fields["id"].(string); ok {
		id = raw
	}
	delete(fields, "id")

	return Document{ID: id, Fields: fields}, nil
}

// EncodeFields converts a partial update map into stored field shapes.
func EncodeFields(partial map[string]any) (map[string]any, error) {
	data, err := json.Marshal(partial)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fields: %w", err)
	}
	out := make(map[string]any, len(partial))
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to encode fields: %w", err)
	}
	if out == nil {
		out = make(map[string]any)
	}
	delete(out, "id")
	return out, nil
}

// Decode fills v from doc, restoring the id into the "id" field.
func Decode(doc Document, v any) error {
	fields := make(map[string]any, len(doc.Fields)+1)
	for k, val := range doc.Fields {
		fields[k] = val
	}
	fields["id"] = doc.ID

	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to decode document %s: %w", doc.ID, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode document %s: %w", doc.ID, err)
	}
	return nil
}

func cloneFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneFields(val)
	case []any:
		out := make([]any, len(val))
		for i := range val {
			out[i] = cloneValue(val[i])
		}
		return out
	default:
		return v
	}
}

package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// refField marks a normalized reference to an entity record.
const refField = "__ref"

// typenameField and idField identify normalizable entities in result data.
const (
	typenameField = "__typename"
	idField       = "id"
)

// decodeJSON decodes raw JSON preserving numeric fidelity (ids like 42 must
// not round-trip through float64 formatting).
func decodeJSON(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	return value, nil
}

// entityKey derives the record key for an object, or "" if the object does
// not carry enough identity to normalize.
func entityKey(obj map[string]any) string {
	typename, ok := obj[typenameField].(string)
	if !ok || typename == "" {
		return ""
	}

	switch id := obj[idField].(type) {
	case string:
		if id == "" {
			return ""
		}
		return typename + ":" + id
	case json.Number:
		return typename + ":" + id.String()
	default:
		return ""
	}
}

// normalizeLocked walks a decoded result value, merging identifiable objects
// into entity records and returning the skeleton with references in place.
// Caller must hold the write lock.
func (s *Store) normalizeLocked(value any) any {
	switch v := value.(type) {
	case map[string]any:
		normalized := make(map[string]any, len(v))
		for field, fieldValue := range v {
			normalized[field] = s.normalizeLocked(fieldValue)
		}

		key := entityKey(v)
		if key == "" {
			return normalized
		}

		s.mergeRecordLocked(key, normalized)
		return map[string]any{refField: key}

	case []any:
		normalized := make([]any, len(v))
		for i, item := range v {
			normalized[i] = s.normalizeLocked(item)
		}
		return normalized

	default:
		return value
	}
}

// mergeRecordLocked overlays fields onto an existing entity record, creating
// it if absent. Later writes win per field, matching normalized-cache merge
// semantics.
func (s *Store) mergeRecordLocked(key string, fields map[string]any) {
	merged := fields

	if existing, ok := s.records[key]; ok {
		prior, err := decodeJSON(existing)
		if err == nil {
			if priorFields, ok := prior.(map[string]any); ok {
				for field, fieldValue := range fields {
					priorFields[field] = fieldValue
				}
				merged = priorFields
			}
		}
	}

	encoded, err := json.Marshal(merged)
	if err != nil {
		// Unmarshalable entity data cannot enter the store; the query
		// skeleton still records the reference so reads fall through.
		return
	}
	s.records[key] = encoded
}

// denormalizeLocked resolves references back into full objects. The visiting
// set breaks reference cycles: a record already on the current resolution
// path is returned as its bare reference.
// Caller must hold at least the read lock.
func (s *Store) denormalizeLocked(value any, visiting map[string]bool) any {
	switch v := value.(type) {
	case map[string]any:
		if key, ok := v[refField].(string); ok && len(v) == 1 {
			if visiting[key] {
				return map[string]any{refField: key}
			}
			raw, ok := s.records[key]
			if !ok {
				return map[string]any{refField: key}
			}
			record, err := decodeJSON(raw)
			if err != nil {
				return map[string]any{refField: key}
			}
			visiting[key] = true
			resolved := s.denormalizeLocked(record, visiting)
			delete(visiting, key)
			return resolved
		}

		resolved := make(map[string]any, len(v))
		for field, fieldValue := range v {
			resolved[field] = s.denormalizeLocked(fieldValue, visiting)
		}
		return resolved

	case []any:
		resolved := make([]any, len(v))
		for i, item := range v {
			resolved[i] = s.denormalizeLocked(item, visiting)
		}
		return resolved

	default:
		return value
	}
}

// FieldKey builds a canonical per-field cache key from a field name and its
// arguments, e.g. item({"id":"1"}). Arguments are serialized with sorted keys
// so equivalent argument sets produce identical keys.
func FieldKey(field string, args map[string]any) string {
	if len(args) == 0 {
		return field
	}
	// json.Marshal sorts map keys, giving a canonical form.
	encoded, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprintf("%s(%v)", field, args)
	}
	return fmt.Sprintf("%s(%s)", field, encoded)
}

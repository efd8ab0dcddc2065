package store

import "encoding/json"

// Doc decodes a JSON document column into a map. Malformed or empty
// values decode as an empty document.
func Doc(v any) map[string]any {
	s := String(v)
	if s == "" {
		return map[string]any{}
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(s), &doc); err != nil {
		return map[string]any{}
	}
	return doc
}

// DocParam encodes a document for storage in a JSON column.
func DocParam(doc map[string]any) string {
	if doc == nil {
		return "{}"
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return "{}"
	}
	return string(b)
}

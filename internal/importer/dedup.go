package importer

import (
	"encoding/json"

	"github.com/vitrine/dmconsole/internal/domain"
)

// Index is the batch-scoped set of identity keys. It is seeded once
// from the remote store at the start of planning and then grows as rows
// are accepted, so a later duplicate in the same file loses to the
// first occurrence. One Index belongs to exactly one batch run.
type Index struct {
	keys map[string]struct{}
}

// NewIndex creates an empty Index.
func NewIndex() *Index {
	return &Index{keys: make(map[string]struct{})}
}

// Contains reports whether key is already known.
func (ix *Index) Contains(key string) bool {
	_, ok := ix.keys[key]
	return ok
}

// Add records key. Adding an existing key is a no-op.
func (ix *Index) Add(key string) {
	ix.keys[key] = struct{}{}
}

// Len returns the number of keys in the index.
func (ix *Index) Len() int {
	return len(ix.keys)
}

// Seed adds the identity key of every existing remote record. Records
// the key cannot be derived from (missing identity fields) are ignored:
// they cannot collide with an importable candidate either.
func (ix *Index) Seed(kind domain.EntityKind, records []map[string]any) {
	for _, rec := range records {
		if key := recordKey(kind, rec); key != "" {
			ix.Add(key)
		}
	}
}

// recordKey derives the identity key of a record as returned by the
// database API.
func recordKey(kind domain.EntityKind, rec map[string]any) string {
	switch kind {
	case domain.KindAccounts, domain.KindSenders:
		username, _ := rec["instagram_username"].(string)
		return NormalizeHandle(username)
	case domain.KindTemplates:
		text, _ := rec["text"].(string)
		if text == "" {
			return ""
		}
		return TemplateKey(text, recordInt(rec, "order"))
	}
	return ""
}

// recordInt reads an integer field from a decoded JSON object, where
// numbers arrive as float64 or json.Number.
func recordInt(rec map[string]any, field string) int {
	switch v := rec[field].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	}
	return 0
}

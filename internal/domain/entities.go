package domain

// EntityKind identifies one of the importable catalog types managed by
// the console.
type EntityKind string

const (
	KindAccounts  EntityKind = "accounts"
	KindSenders   EntityKind = "senders"
	KindTemplates EntityKind = "templates"
)

// Valid reports whether k is a known entity kind.
func (k EntityKind) Valid() bool {
	switch k {
	case KindAccounts, KindSenders, KindTemplates:
		return true
	}
	return false
}

// Candidate is the normalized, not-yet-persisted form of one importable
// row. Fields is the JSON object submitted to the remote bulk endpoint;
// Key is the canonical identity key used for deduplication. A Candidate
// is never mutated after creation. Stored records keep their remote
// JSON shape end to end: list reads, the dedup seed, and the proxy all
// work on raw objects so the console never has to track the store's
// schema.
type Candidate struct {
	Kind   EntityKind
	Key    string
	Fields map[string]any
}

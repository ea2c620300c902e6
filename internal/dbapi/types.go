package dbapi

import "encoding/json"

// BulkResult is the response of the bulk-create endpoint. Only the
// counters matter for correctness; CreatedItems and Errors are carried
// for diagnostics.
type BulkResult struct {
	Created      int               `json:"created"`
	Skipped      int               `json:"skipped"`
	CreatedItems []json.RawMessage `json:"created_items,omitempty"`
	Errors       []json.RawMessage `json:"errors,omitempty"`
}

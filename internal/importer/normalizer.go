package importer

import (
	"strconv"
	"strings"

	"github.com/vitrine/dmconsole/internal/domain"
)

// rejectReason classifies a row-level rejection. Rejections are counted
// as skipped, never surfaced individually.
type rejectReason string

const (
	rejectNone          rejectReason = ""
	rejectMissingField  rejectReason = "missing-required-field"
	rejectEmptyIdentity rejectReason = "empty-after-normalization"
)

// handlePrefixes are stripped from identity-bearing fields before the
// leading "@" is removed. Lower-case; applied repeatedly so
// "https://www.instagram.com/foo" reduces to "foo".
var handlePrefixes = []string{"http://", "https://", "www.", "instagram.com/"}

// NormalizeHandle derives the canonical form of an identity field:
// lower-cased, stripped of URL prefixes and a leading "@", trailing
// slash dropped, first whitespace-delimited token only.
func NormalizeHandle(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))

	for changed := true; changed; {
		changed = false
		for _, p := range handlePrefixes {
			if strings.HasPrefix(s, p) {
				s = s[len(p):]
				changed = true
			}
		}
	}

	s = strings.TrimPrefix(s, "@")
	s = strings.TrimSuffix(s, "/")

	if fields := strings.Fields(s); len(fields) > 0 {
		s = fields[0]
	} else {
		s = ""
	}

	return strings.TrimSpace(s)
}

// cleanField trims surrounding quotes and whitespace from an extracted
// cell and collapses embedded line breaks to single spaces.
func cleanField(raw string) string {
	s := strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(raw)
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

// cell returns the cleaned value of column idx, tolerating short rows.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return cleanField(row[idx])
}

// parseFlag interprets a customer/active flag cell.
func parseFlag(s string) bool {
	switch strings.ToLower(s) {
	case "1", "x", "true", "yes", "sim", "y", "s":
		return true
	}
	return false
}

// normalizeRow turns one data row into a Candidate or a rejection.
// seq is the 1-based position of the row among the file's data rows,
// used as the fallback sequence position for message templates.
func normalizeRow(kind domain.EntityKind, spec kindSpec, cols map[string]int, row []string, seq int) (*domain.Candidate, rejectReason) {
	fields := make(map[string]any, len(spec.columns))
	key := ""

	for _, col := range spec.columns {
		idx, located := cols[col.field]
		if !located {
			continue
		}
		val := cell(row, idx)

		if val == "" {
			if col.required && col.value {
				return nil, rejectMissingField
			}
			continue
		}

		switch {
		case col.identity:
			handle := NormalizeHandle(val)
			if handle == "" {
				return nil, rejectEmptyIdentity
			}
			fields[col.field] = handle
			key = handle
		case col.numeric:
			n, err := strconv.Atoi(val)
			if err != nil {
				continue // unparsable numeric cells are treated as absent
			}
			fields[col.field] = n
		case col.boolean:
			fields[col.field] = parseFlag(val)
		default:
			fields[col.field] = val
		}
	}

	if kind == domain.KindTemplates {
		text, _ := fields["text"].(string)
		order, ok := fields["order"].(int)
		if !ok {
			order = seq
			fields["order"] = order
		}
		key = TemplateKey(text, order)
	}

	if key == "" {
		return nil, rejectMissingField
	}

	return &domain.Candidate{Kind: kind, Key: key, Fields: fields}, rejectNone
}

// TemplateKey builds the identity key of a message template from its
// text and sequence position. Two templates are the same entity only
// when both match.
func TemplateKey(text string, order int) string {
	norm := strings.ToLower(strings.Join(strings.Fields(text), " "))
	return norm + "#" + strconv.Itoa(order)
}

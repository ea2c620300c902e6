package importer

import (
	"strings"

	"github.com/vitrine/dmconsole/internal/domain"
)

// columnSpec describes one column an entity kind accepts. Matchers are
// lower-case substrings tried against header cells; the first unclaimed
// cell containing any matcher wins.
type columnSpec struct {
	field    string   // key in Candidate.Fields
	label    string   // name used in operator-facing errors
	matchers []string
	required bool // the column must exist in the header
	value    bool // the cell must be non-empty on every row
	identity bool // normalized as a handle, feeds the identity key
	numeric  bool // parsed as an integer, absent when unparsable
	boolean  bool // parsed as a flag, absent when blank
}

// kindSpec is the per-entity-kind import configuration. Columns are
// listed in resolution order: more specific matchers first, so that
// e.g. a "password" cell is claimed before "insta" can grab it.
type kindSpec struct {
	columns []columnSpec
	// allowBanner enables banner detection: when the first non-blank
	// row fails to resolve the required columns, it is discarded once
	// and the next row must resolve. The target-account upload template
	// carries a title row above its header.
	allowBanner bool
}

var kindSpecs = map[domain.EntityKind]kindSpec{
	domain.KindAccounts: {
		allowBanner: true,
		columns: []columnSpec{
			{field: "instagram_username", label: "instagram", matchers: []string{"instagram", "insta", "@"}, required: true, value: true, identity: true},
			{field: "name", label: "name", matchers: []string{"name", "nome"}, required: true},
			{field: "bloco", label: "bloco", matchers: []string{"bloco"}, numeric: true},
			{field: "customer", label: "customer", matchers: []string{"cliente", "customer"}, boolean: true},
		},
	},
	domain.KindSenders: {
		columns: []columnSpec{
			{field: "instagram_password", label: "password", matchers: []string{"senha", "password", "secret"}, required: true, value: true},
			{field: "instagram_username", label: "instagram", matchers: []string{"instagram", "insta", "user"}, required: true, value: true, identity: true},
			{field: "name", label: "name", matchers: []string{"name", "nome"}, required: true, value: true},
		},
	},
	domain.KindTemplates: {
		columns: []columnSpec{
			{field: "text", label: "text", matchers: []string{"frase", "text", "mensagem", "phrase"}, required: true, value: true},
			{field: "order", label: "order", matchers: []string{"ordem", "order"}, numeric: true},
			{field: "sender", label: "sender", matchers: []string{"persona", "sender"}},
		},
	},
}

// resolveColumns maps each column spec to its header index. The second
// return value lists the labels of required columns that could not be
// located; the mapping is only usable when it is empty.
func resolveColumns(spec kindSpec, header []string) (map[string]int, []string) {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = strings.ToLower(strings.TrimSpace(strings.Trim(strings.TrimSpace(h), `"'`)))
	}

	claimed := make(map[int]bool, len(header))
	resolved := make(map[string]int, len(spec.columns))
	var missing []string

	for _, col := range spec.columns {
		idx := -1
		for i, h := range normalized {
			if claimed[i] || h == "" {
				continue
			}
			for _, m := range col.matchers {
				if strings.Contains(h, m) {
					idx = i
					break
				}
			}
			if idx >= 0 {
				break
			}
		}
		if idx >= 0 {
			claimed[idx] = true
			resolved[col.field] = idx
		} else if col.required {
			missing = append(missing, col.label)
		}
	}

	return resolved, missing
}

package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/vitrine/dmconsole/internal/domain"
)

// File-format errors abort the whole import before any submission and
// are surfaced verbatim to the operator.
var (
	ErrEmptyFile   = errors.New("import file is empty")
	ErrUnknownKind = errors.New("unknown entity kind")
)

// MissingColumnsError reports required columns that could not be
// located in the header. The batch aborts before any row is processed.
type MissingColumnsError struct {
	Kind    domain.EntityKind
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s import: required column(s) not found in header: %s",
		e.Kind, strings.Join(e.Columns, ", "))
}

// Plan is the planner's output: the ordered accepted candidates plus
// the row accounting for one batch. Accepted order equals first-seen
// row order and determines remote creation order.
type Plan struct {
	Kind      domain.EntityKind
	Accepted  []domain.Candidate
	Skipped   int
	Truncated int
	TotalRows int // data rows seen, excluding blank lines
}

// BuildPlan parses the full file content for kind, normalizes every
// data row, and deduplicates against index (pre-seeded from the remote
// store) and within the batch itself. maxRecords > 0 caps the accepted
// list; the overflow is reported as Truncated, distinct from Skipped.
func BuildPlan(fileText string, kind domain.EntityKind, index *Index, maxRecords int) (*Plan, error) {
	spec, ok := kindSpecs[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	rows, err := readRows(fileText)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	cols, missing, dataStart := resolveHeader(spec, rows)
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Kind: kind, Columns: missing}
	}

	plan := &Plan{Kind: kind}
	for _, row := range rows[dataStart:] {
		plan.TotalRows++

		cand, reason := normalizeRow(kind, spec, cols, row, plan.TotalRows)
		if reason != rejectNone {
			plan.Skipped++
			continue
		}
		if index.Contains(cand.Key) {
			plan.Skipped++
			continue
		}

		index.Add(cand.Key)
		plan.Accepted = append(plan.Accepted, *cand)
	}

	if maxRecords > 0 && len(plan.Accepted) > maxRecords {
		plan.Truncated = len(plan.Accepted) - maxRecords
		plan.Accepted = plan.Accepted[:maxRecords]
	}

	return plan, nil
}

// readRows parses the delimited text, honoring quoted delimiters,
// doubled quotes, and line breaks inside quoted cells. Blank lines and
// all-blank records are discarded.
func readRows(fileText string) ([][]string, error) {
	reader := csv.NewReader(strings.NewReader(fileText))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing import file: %w", err)
		}
		if isBlankRow(row) {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// resolveHeader locates the header row and maps the kind's columns to
// indices. For banner-enabled kinds, a first row that fails required
// column resolution is discarded once and the next row must resolve.
// Returns the mapping, missing required labels, and the index of the
// first data row.
func resolveHeader(spec kindSpec, rows [][]string) (map[string]int, []string, int) {
	cols, missing := resolveColumns(spec, rows[0])
	if len(missing) == 0 {
		return cols, nil, 1
	}

	if spec.allowBanner && len(rows) > 1 {
		if cols2, missing2 := resolveColumns(spec, rows[1]); len(missing2) == 0 {
			return cols2, nil, 2
		}
	}

	return nil, missing, 0
}

package database

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/koustreak/dbagent/internal/errs"
)

// Row is one result row keyed by column name.
type Row = map[string]any

// Edge is a foreign-key reference between two "catalog.schema.table" names.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Ontology is the directed graph of foreign-key edges, exactly as the
// backend reports it: duplicates and cycles are kept.
type Ontology struct {
	Edges []Edge `json:"edges"`
}

// NewOntology returns an ontology whose Edges is never nil.
func NewOntology(edges []Edge) *Ontology {
	if edges == nil {
		edges = make([]Edge, 0)
	}
	return &Ontology{Edges: edges}
}

// ScanRows reads all rows from the result set and returns them as a slice
// of maps, where each key is the column name and each value is the Go-native
// representation of the DB value.
//
// The returned slice is always non-nil (empty slice on zero rows).
// ScanRows always closes the Rows; callers do not need to call Close().
// Driver errors are returned unclassified so the adapter's error mapping
// sees the native error, including failures reported only after iteration.
func ScanRows(rows Rows) ([]Row, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read column names: %w", err)
	}

	result := make([]Row, 0)
	for rows.Next() {
		dest := make([]any, len(columns))
		destPtrs := make([]any, len(columns))
		for i := range dest {
			destPtrs[i] = &dest[i]
		}

		if err := rows.Scan(destPtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = dest[i]
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return result, nil
}

// ScanEdges reads six-column ontology rows: the referencing catalog, schema
// and table followed by the referenced catalog, schema and table.
func ScanEdges(rows Rows) ([]Edge, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read column names: %w", err)
	}
	if len(columns) < 6 {
		return nil, errs.Newf(errs.ErrKindInvalidTemplateFormat,
			"ontology query returned %d columns, want 6", len(columns))
	}

	edges := make([]Edge, 0)
	for rows.Next() {
		dest := make([]any, len(columns))
		destPtrs := make([]any, len(columns))
		for i := range dest {
			destPtrs[i] = &dest[i]
		}
		if err := rows.Scan(destPtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		edges = append(edges, Edge{
			From: joinName(dest[0:3]),
			To:   joinName(dest[3:6]),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return edges, nil
}

func joinName(parts []any) string {
	s := make([]string, len(parts))
	for i, p := range parts {
		s[i] = Text(p)
	}
	return strings.Join(s, ".")
}

// Text renders a scanned value as a plain string. NULL renders empty.
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		if utf8.Valid(t) {
			return string(t)
		}
		return fmt.Sprintf("%x", t)
	default:
		return fmt.Sprint(t)
	}
}

// sqlRows adapts *sql.Rows, whose Close returns an error, to Rows.
type sqlRows struct {
	*sql.Rows
}

func (r sqlRows) Close() { _ = r.Rows.Close() }

// FromSQL wraps a database/sql result set.
func FromSQL(rows *sql.Rows) Rows {
	return sqlRows{Rows: rows}
}

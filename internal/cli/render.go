package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/koustreak/dbagent/internal/database"
)

// renderTable prints a dispatcher result as a table. Row sets use the union
// of their column names in sorted order; ontologies print one edge per row.
func renderTable(w io.Writer, out string) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(out)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}

	switch r := v.(type) {
	case []any:
		return renderRows(w, r)
	case map[string]any:
		var graph database.Ontology
		if err := json.Unmarshal([]byte(out), &graph); err != nil {
			return err
		}
		return renderEdges(w, graph.Edges)
	default:
		_, err := fmt.Fprintln(w, r)
		return err
	}
}

func renderRows(w io.Writer, rows []any) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "(0 rows)")
		return err
	}

	seen := make(map[string]bool)
	var cols []string
	for _, r := range rows {
		m, _ := r.(map[string]any)
		for k := range m {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	t.AppendHeader(header)

	for _, r := range rows {
		m, _ := r.(map[string]any)
		row := make(table.Row, len(cols))
		for i, c := range cols {
			row[i] = formatValue(m[c])
		}
		t.AppendRow(row)
	}
	t.Render()
	_, err := fmt.Fprintf(w, "(%d rows)\n", len(rows))
	return err
}

func renderEdges(w io.Writer, edges []database.Edge) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"From", "To"})
	for _, e := range edges {
		t.AppendRow(table.Row{e.From, e.To})
	}
	t.Render()
	_, err := fmt.Fprintf(w, "(%d edges)\n", len(edges))
	return err
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return x
	case json.Number:
		return x.String()
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

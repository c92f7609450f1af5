// Package tsv reads and writes header-first delimited tables.
package tsv

import "fmt"

// Table is an in-memory delimited table. Every row has len(Header) fields.
type Table struct {
	Header []string
	Rows   [][]string
}

// Index returns the position of the named column, or -1 if absent.
func (t *Table) Index(name string) int {
	for i, col := range t.Header {
		if col == name {
			return i
		}
	}
	return -1
}

// Missing returns the names in cols that are not in the header, in the
// order given.
func (t *Table) Missing(cols []string) []string {
	var missing []string
	for _, c := range cols {
		if t.Index(c) == -1 {
			missing = append(missing, c)
		}
	}
	return missing
}

// Append adds the rows of other to t, matching columns by name. Columns
// only one side has are kept, and cells the other side lacks are empty.
func (t *Table) Append(other *Table) {
	if len(t.Header) == 0 && len(t.Rows) == 0 {
		t.Header = append([]string(nil), other.Header...)
	}

	pos := make([]int, len(other.Header))
	for i, col := range other.Header {
		idx := t.Index(col)
		if idx == -1 {
			t.Header = append(t.Header, col)
			for r := range t.Rows {
				t.Rows[r] = append(t.Rows[r], "")
			}
			idx = len(t.Header) - 1
		}
		pos[i] = idx
	}

	for _, row := range other.Rows {
		out := make([]string, len(t.Header))
		for i, v := range row {
			out[pos[i]] = v
		}
		t.Rows = append(t.Rows, out)
	}
}

// ParseError represents an error during table parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("table parse error at line %d: %s", e.Line, e.Message)
}

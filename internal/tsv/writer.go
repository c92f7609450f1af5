package tsv

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Writer writes rows in delimited format. A field is quoted only when it
// contains the delimiter, a double quote or a line break; embedded quotes
// are doubled. Leading whitespace is written as is.
type Writer struct {
	w     *bufio.Writer
	delim rune
}

// NewWriter creates a new writer using delim between fields.
func NewWriter(w io.Writer, delim rune) *Writer {
	return &Writer{w: bufio.NewWriter(w), delim: delim}
}

// WriteHeader writes the header line.
func (tw *Writer) WriteHeader(columns []string) error {
	return tw.Write(columns)
}

// Write writes a single row.
func (tw *Writer) Write(row []string) error {
	for i, field := range row {
		if i > 0 {
			tw.w.WriteRune(tw.delim)
		}
		if tw.needsQuotes(field) {
			tw.w.WriteByte('"')
			tw.w.WriteString(strings.ReplaceAll(field, `"`, `""`))
			tw.w.WriteByte('"')
			continue
		}
		tw.w.WriteString(field)
	}
	// bufio.Writer errors are sticky, so the last write reports any earlier
	// failure.
	_, err := tw.w.WriteString("\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *Writer) Flush() error {
	return tw.w.Flush()
}

func (tw *Writer) needsQuotes(field string) bool {
	return strings.ContainsRune(field, tw.delim) || strings.ContainsAny(field, "\"\r\n")
}

// WriteTable writes the header and every row of t.
func WriteTable(w io.Writer, t *Table, delim rune) error {
	tw := NewWriter(w, delim)
	if err := tw.WriteHeader(t.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range t.Rows {
		if err := tw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	return tw.Flush()
}

// WriteFile writes t tab-separated to path. The table is written to a
// temporary file in the same directory and renamed into place, so path is
// either the complete table or untouched. A path of "-" writes stdout.
func WriteFile(path string, t *Table) error {
	if path == "-" {
		return WriteTable(os.Stdout, t, '\t')
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("chmod output file: %w", err)
	}

	if err := WriteTable(tmp, t, '\t'); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close output file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename output file: %w", err)
	}
	return nil
}

package tsv

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/csimplestring/go-csv/detector"
)

// Auto requests delimiter detection from the first lines of input.
const Auto rune = 0

// sniffSize is how much input is inspected to detect the delimiter.
const sniffSize = 64 * 1024

// ParseDelimiter converts a configured delimiter name into a rune.
// Accepted: "tab", "comma", "auto", or any single character.
func ParseDelimiter(name string) (rune, error) {
	switch strings.ToLower(name) {
	case "", "tab", `\t`:
		return '\t', nil
	case "comma":
		return ',', nil
	case "auto":
		return Auto, nil
	}

	r := []rune(name)
	if len(r) != 1 {
		return 0, fmt.Errorf("invalid delimiter %q", name)
	}
	return r[0], nil
}

// DetectDelimiter returns the most likely delimiter of the CSV-like data in
// r, falling back to tab.
func DetectDelimiter(r io.Reader) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(r, '"')

	if len(delimiters) > 0 && delimiters[0] != "" {
		return rune(delimiters[0][0])
	}

	return '\t'
}

// ReadFile reads a whole table from path. Gzipped input is detected by its
// magic bytes. A path of "-" reads stdin.
func ReadFile(path string, delim rune) (*Table, error) {
	if path == "-" {
		return Read(os.Stdin, delim)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	return Read(f, delim)
}

// Read reads a whole table from r. The first non-empty line is the header.
// Rows with fewer fields than the header are padded with empty cells; rows
// with more fields are an error.
func Read(r io.Reader, delim rune) (*Table, error) {
	br := newBufferedReader(r)

	// Check for gzip magic number (0x1f, 0x8b)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		defer gz.Close()
		br = newBufferedReader(gz)
	}

	if delim == Auto {
		delim = DetectDelimiter(bytes.NewReader(sniff(br)))
	}

	cr := csv.NewReader(br)
	cr.Comma = delim
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Line: 1, Message: "no header line found"}
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	t := &Table{Header: append([]string(nil), header...)}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(t.Rows)+1, err)
		}

		if len(rec) > len(header) {
			line, _ := cr.FieldPos(0)
			return nil, &ParseError{
				Line:    line,
				Message: fmt.Sprintf("expected %d fields, got %d", len(header), len(rec)),
			}
		}
		for len(rec) < len(header) {
			rec = append(rec, "")
		}
		t.Rows = append(t.Rows, rec)
	}

	return t, nil
}

// newBufferedReader returns a reader whose buffer holds a full sniff window.
func newBufferedReader(r io.Reader) *bufio.Reader {
	return bufio.NewReaderSize(r, sniffSize)
}

// sniff returns up to sniffSize bytes from the start of br without
// consuming them.
func sniff(br *bufio.Reader) []byte {
	sample, _ := br.Peek(sniffSize)
	return sample
}

// Package extract applies the CADD-SV score and overlap selection to whole
// tables.
package extract

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/svscore/internal/sv"
	"github.com/inodb/svscore/internal/tsv"
)

// Derived output columns, appended in this order.
const (
	ColMaxPathScore    = "MAX_PATH_SCORE"
	ColMaxPathVar      = "MAX_PATH_VAR"
	ColMaxOverlapScore = "MAX_OVERLAP_SCORE"
	ColMaxOverlapVar   = "MAX_OVERLAP_VAR"
)

// DerivedColumns lists the columns added to every output table.
var DerivedColumns = []string{
	ColMaxPathScore,
	ColMaxPathVar,
	ColMaxOverlapScore,
	ColMaxOverlapVar,
}

// Columns names the input columns the extractor reads.
type Columns struct {
	Chrom  string
	Start  string
	End    string
	Vars   string
	Scores string
}

// DefaultColumns are the column names written by the CADD-SV pipeline.
var DefaultColumns = Columns{
	Chrom:  "CHROM",
	Start:  "START",
	End:    "END",
	Vars:   "CADDSV_VARS",
	Scores: "CADDSV_SCORE",
}

// Required returns the column names in header order.
func (c Columns) Required() []string {
	return []string{c.Chrom, c.Start, c.End, c.Vars, c.Scores}
}

// MissingColumnsError reports required columns absent from the input.
type MissingColumnsError struct {
	Missing  []string
	Required []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("input is missing required columns: %s (required: %s)",
		strings.Join(e.Missing, ", "), strings.Join(e.Required, ", "))
}

// Row is the outcome for one input row.
type Row struct {
	Line   int // 1-based data row number
	Record *sv.Record
	Result sv.Result
}

// Extractor derives the maximum pathogenic and maximum overlap columns.
type Extractor struct {
	cols    Columns
	workers int
	logger  *zap.Logger
}

// NewExtractor creates an extractor reading the given columns.
func NewExtractor(cols Columns) *Extractor {
	return &Extractor{
		cols:   cols,
		logger: zap.NewNop(),
	}
}

// SetWorkers sets the number of rows processed concurrently.
// Zero or less uses runtime.NumCPU().
func (e *Extractor) SetWorkers(n int) {
	e.workers = n
}

// SetLogger sets the logger for warning and info messages.
func (e *Extractor) SetLogger(l *zap.Logger) {
	e.logger = l
}

// Validate checks that every required column is present.
func (e *Extractor) Validate(t *tsv.Table) error {
	required := e.cols.Required()
	if missing := t.Missing(required); len(missing) > 0 {
		return &MissingColumnsError{Missing: missing, Required: required}
	}
	return nil
}

// Process returns a new table holding every input column except the two
// sub-variant list columns, followed by the derived columns. Row order is
// preserved. The input table is not modified. Cancelling ctx stops the
// run and returns ctx.Err().
func (e *Extractor) Process(ctx context.Context, t *tsv.Table) (*tsv.Table, []Row, error) {
	if err := e.Validate(t); err != nil {
		return nil, nil, err
	}

	idx := e.cols.Indices(t.Header)
	layout := newOutputLayout(t.Header, idx.Vars, idx.Scores)

	items := make(chan WorkItem, 2*max(e.workers, 1))
	go func() {
		defer close(items)
		for i, fields := range t.Rows {
			select {
			case items <- WorkItem{Seq: i, Fields: fields}:
			case <-ctx.Done():
				return
			}
		}
	}()

	results := e.ParallelExtract(items, idx, e.workers)

	out := &tsv.Table{
		Header: layout.header,
		Rows:   make([][]string, 0, len(t.Rows)),
	}
	rows := make([]Row, 0, len(t.Rows))

	if err := OrderedCollect(results, func(r WorkResult) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := r.Seq + 1
		if !r.Record.CoordsValid {
			e.logger.Warn("unparseable coordinates, overlap not computed",
				zap.Int("line", line),
				zap.String("start", r.Fields[idx.Start]),
				zap.String("end", r.Fields[idx.End]))
		}
		out.Rows = append(out.Rows, layout.row(r.Fields, r.Result))
		rows = append(rows, Row{Line: line, Record: r.Record, Result: r.Result})
		return nil
	}); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	e.logger.Info("extracted scores",
		zap.Int("rows", len(rows)),
		zap.Int("path_scored", countFound(rows, func(r sv.Result) sv.Pick { return r.MaxPath })),
		zap.Int("overlap_scored", countFound(rows, func(r sv.Result) sv.Pick { return r.MaxOverlap })))

	return out, rows, nil
}

// ColumnIndices holds the positions of the input columns.
type ColumnIndices struct {
	Chrom  int
	Start  int
	End    int
	Vars   int
	Scores int
}

// Indices finds the columns in header. Absent columns are -1.
func (c Columns) Indices(header []string) ColumnIndices {
	find := func(name string) int {
		for i, col := range header {
			if col == name {
				return i
			}
		}
		return -1
	}
	return ColumnIndices{
		Chrom:  find(c.Chrom),
		Start:  find(c.Start),
		End:    find(c.End),
		Vars:   find(c.Vars),
		Scores: find(c.Scores),
	}
}

// Record builds the variant record for a row.
func (c ColumnIndices) Record(fields []string) *sv.Record {
	return sv.NewRecord(
		fields[c.Chrom],
		fields[c.Start],
		fields[c.End],
		fields[c.Vars],
		fields[c.Scores],
	)
}

// outputLayout maps input rows to output rows.
type outputLayout struct {
	header  []string
	keep    []int  // input positions copied to the output, in order
	derived [4]int // output positions of the derived columns
}

func newOutputLayout(header []string, dropA, dropB int) outputLayout {
	var l outputLayout
	for i, col := range header {
		if i == dropA || i == dropB {
			continue
		}
		l.keep = append(l.keep, i)
		l.header = append(l.header, col)
	}

	// A derived column already in the input is overwritten where it stands.
	for d, name := range DerivedColumns {
		pos := -1
		for i, col := range l.header {
			if col == name {
				pos = i
				break
			}
		}
		if pos == -1 {
			l.header = append(l.header, name)
			pos = len(l.header) - 1
		}
		l.derived[d] = pos
	}
	return l
}

func (l outputLayout) row(fields []string, res sv.Result) []string {
	out := make([]string, len(l.header))
	for o, i := range l.keep {
		out[o] = fields[i]
	}
	out[l.derived[0]] = sv.FormatScore(res.MaxPath.Score)
	out[l.derived[1]] = sv.FormatVar(res.MaxPath.Var)
	out[l.derived[2]] = sv.FormatScore(res.MaxOverlap.Score)
	out[l.derived[3]] = sv.FormatVar(res.MaxOverlap.Var)
	return out
}

func countFound(rows []Row, pick func(sv.Result) sv.Pick) int {
	n := 0
	for _, r := range rows {
		if pick(r.Result).Found() {
			n++
		}
	}
	return n
}

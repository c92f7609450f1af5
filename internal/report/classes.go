package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/inodb/svscore/internal/tsv"
)

// ClassStats describes the score distribution of the rows sharing one class
// label, such as a CDB classification.
type ClassStats struct {
	Class    string
	Column   string
	Count    int
	Unscored int
	Min      float64
	Median   float64
	Mean     float64
	StdDev   float64
	Max      float64
}

// Scored returns the number of rows contributing to the distribution.
func (c ClassStats) Scored() int {
	return c.Count - c.Unscored
}

// ScoresByClass groups rows by classCol and summarizes scoreCol within each
// group. Groups are returned sorted by class label.
func ScoresByClass(t *tsv.Table, classCol, scoreCol string) ([]ClassStats, error) {
	if missing := t.Missing([]string{classCol, scoreCol}); len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}

	classIdx, scoreIdx := t.Index(classCol), t.Index(scoreCol)
	counts := make(map[string]int)
	values := make(map[string]stats.Float64Data)
	for _, row := range t.Rows {
		class := strings.TrimSpace(row[classIdx])
		counts[class]++
		if v, ok := parseCell(row[scoreIdx]); ok {
			values[class] = append(values[class], v)
		}
	}

	classes := make([]string, 0, len(counts))
	for c := range counts {
		classes = append(classes, c)
	}
	sort.Strings(classes)

	out := make([]ClassStats, 0, len(classes))
	for _, class := range classes {
		data := values[class]
		cs := ClassStats{
			Class:    class,
			Column:   scoreCol,
			Count:    counts[class],
			Unscored: counts[class] - data.Len(),
		}
		if data.Len() > 0 {
			var err error
			if cs.Min, err = data.Min(); err != nil {
				return nil, err
			}
			if cs.Median, err = data.Median(); err != nil {
				return nil, err
			}
			if cs.Mean, err = data.Mean(); err != nil {
				return nil, err
			}
			if cs.StdDev, err = data.StandardDeviation(); err != nil {
				return nil, err
			}
			if cs.Max, err = data.Max(); err != nil {
				return nil, err
			}
		}
		out = append(out, cs)
	}
	return out, nil
}

// WriteClassTable writes class statistics as a tab-separated table. Classes
// without any scored row show N/A.
func WriteClassTable(w io.Writer, classes []ClassStats) error {
	tw := tsv.NewWriter(w, '\t')
	if err := tw.WriteHeader([]string{"score", "class", "variants", "unscored", "min", "median", "mean", "sd", "max"}); err != nil {
		return err
	}
	for _, c := range classes {
		row := []string{c.Column, c.Class, fmt.Sprintf("%d", c.Count), fmt.Sprintf("%d", c.Unscored)}
		if c.Scored() == 0 {
			row = append(row, "N/A", "N/A", "N/A", "N/A", "N/A")
		} else {
			for _, v := range []float64{c.Min, c.Median, c.Mean, c.StdDev, c.Max} {
				row = append(row, fmt.Sprintf("%.3f", v))
			}
		}
		if err := tw.Write(row); err != nil {
			return err
		}
	}
	return tw.Flush()
}

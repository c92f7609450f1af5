// Package report summarizes extracted score tables: how many variants were
// scored, where the unscored ones sit, and how causal variants score.
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/inodb/svscore/internal/tsv"
)

// DefaultCausalLabels are the CAUSAL column values counted as causal.
var DefaultCausalLabels = []string{"Y", "y", "Y*"}

// ScoreSummary counts scored and unscored rows for one score column.
type ScoreSummary struct {
	Column         string
	Total          int
	Scored         int
	UnscoredChrY   int
	UnscoredOthers int
}

// Unscored returns the number of rows without a score.
func (s ScoreSummary) Unscored() int {
	return s.UnscoredChrY + s.UnscoredOthers
}

// CausalSummary counts causal and non-causal rows for one score column.
type CausalSummary struct {
	Column          string
	Threshold       float64
	Causal          int
	CausalScored    int
	CausalAbove     int
	NonCausal       int
	NonCausalScored int
	NonCausalAbove  int
}

// IsChrY reports whether chrom names the Y chromosome.
func IsChrY(chrom string) bool {
	c := strings.TrimPrefix(strings.ToLower(chrom), "chr")
	return c == "y"
}

// parseCell returns the numeric value of a score cell. Empty and
// non-numeric cells count as unscored.
func parseCell(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// Summarize counts scored rows for each score column, splitting unscored
// rows by whether they lie on chromosome Y.
func Summarize(t *tsv.Table, chromCol string, scoreCols []string) ([]ScoreSummary, error) {
	if missing := t.Missing(append([]string{chromCol}, scoreCols...)); len(missing) > 0 {
		return nil, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}

	chromIdx := t.Index(chromCol)
	summaries := make([]ScoreSummary, len(scoreCols))
	for i, col := range scoreCols {
		idx := t.Index(col)
		s := ScoreSummary{Column: col, Total: len(t.Rows)}
		for _, row := range t.Rows {
			if _, ok := parseCell(row[idx]); ok {
				s.Scored++
				continue
			}
			if IsChrY(row[chromIdx]) {
				s.UnscoredChrY++
			} else {
				s.UnscoredOthers++
			}
		}
		summaries[i] = s
	}
	return summaries, nil
}

// SummarizeCausal counts causal and non-causal rows for a score column and
// how many of them score at or above threshold. labels lists the causal
// column values counted as causal.
func SummarizeCausal(t *tsv.Table, causalCol, scoreCol string, labels []string, threshold float64) (CausalSummary, error) {
	if missing := t.Missing([]string{causalCol, scoreCol}); len(missing) > 0 {
		return CausalSummary{}, fmt.Errorf("missing columns: %s", strings.Join(missing, ", "))
	}

	isCausal := make(map[string]bool, len(labels))
	for _, l := range labels {
		isCausal[l] = true
	}

	causalIdx, scoreIdx := t.Index(causalCol), t.Index(scoreCol)
	s := CausalSummary{Column: scoreCol, Threshold: threshold}
	for _, row := range t.Rows {
		v, scored := parseCell(row[scoreIdx])
		above := scored && v >= threshold

		if isCausal[strings.TrimSpace(row[causalIdx])] {
			s.Causal++
			if scored {
				s.CausalScored++
			}
			if above {
				s.CausalAbove++
			}
			continue
		}

		s.NonCausal++
		if scored {
			s.NonCausalScored++
		}
		if above {
			s.NonCausalAbove++
		}
	}
	return s, nil
}

// WriteText writes the summaries as aligned text.
func WriteText(w io.Writer, scores []ScoreSummary, causal []CausalSummary) error {
	for _, s := range scores {
		if _, err := fmt.Fprintf(w, "%s\n  total:               %d\n  scored:              %d\n  unscored (chrY):     %d\n  unscored (non-chrY): %d\n  unscored:            %d\n",
			s.Column, s.Total, s.Scored, s.UnscoredChrY, s.UnscoredOthers, s.Unscored()); err != nil {
			return err
		}
	}
	for _, c := range causal {
		if _, err := fmt.Fprintf(w, "%s causal (threshold %g)\n  causal total:        %d\n  causal scored:       %d\n  causal above:        %d\n  non-causal total:    %d\n  non-causal scored:   %d\n  non-causal above:    %d\n",
			c.Column, c.Threshold, c.Causal, c.CausalScored, c.CausalAbove,
			c.NonCausal, c.NonCausalScored, c.NonCausalAbove); err != nil {
			return err
		}
	}
	return nil
}

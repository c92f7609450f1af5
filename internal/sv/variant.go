// Package sv provides structural variant records annotated by CADD-SV and
// the per-record score and overlap selection.
package sv

import (
	"math"
	"strconv"
	"strings"
)

// NotPresent is the value CADD-SV writes when no sub-variants were scored.
const NotPresent = "Not Present"

// SubVariant is one CADD-SV scored variant paired with its score.
type SubVariant struct {
	ID         string  // Identifier as written, e.g. "DEL:100-200"
	Score      float64 // Parsed score, -Inf when the entry was unparseable
	Start      int64   // Start coordinate embedded in ID
	End        int64   // End coordinate embedded in ID
	RangeValid bool    // False when ID carries no parseable start-end range
}

// HasScore reports whether the score entry parsed to a usable number.
func (s SubVariant) HasScore() bool {
	return !math.IsInf(s.Score, -1)
}

// Record represents a single structural variant row.
type Record struct {
	Chrom       string
	Start       int64
	End         int64
	CoordsValid bool // False when START or END could not be parsed
	Present     bool // False when either list field carried the NotPresent sentinel
	SubVariants []SubVariant
}

// NewRecord builds a record from raw cell values. A coordinate that cannot be
// parsed marks the record's coordinates invalid; the sub-variant lists are
// parsed regardless.
func NewRecord(chrom, start, end, vars, scores string) *Record {
	r := &Record{Chrom: chrom}

	s, errS := strconv.ParseInt(strings.TrimSpace(start), 10, 64)
	e, errE := strconv.ParseInt(strings.TrimSpace(end), 10, 64)
	if errS == nil && errE == nil {
		r.Start, r.End, r.CoordsValid = s, e, true
	}

	r.SubVariants, r.Present = ParseSubVariants(vars, scores)
	return r
}

// ParseSubVariants pairs the comma-separated identifier and score lists.
// It returns false when either list is the NotPresent sentinel or empty.
// Lists of unequal length are paired up to the shorter one.
func ParseSubVariants(vars, scores string) ([]SubVariant, bool) {
	if isAbsent(vars) || isAbsent(scores) {
		return nil, false
	}

	ids := strings.Split(vars, ",")
	vals := strings.Split(scores, ",")

	n := len(ids)
	if len(vals) < n {
		n = len(vals)
	}

	subs := make([]SubVariant, n)
	for i := 0; i < n; i++ {
		sv := SubVariant{
			ID:    ids[i],
			Score: ParseScore(vals[i]),
		}
		sv.Start, sv.End, sv.RangeValid = ParseRange(ids[i])
		subs[i] = sv
	}
	return subs, true
}

// ParseScore parses a score entry. Entries that are not numbers, including
// NaN, become negative infinity so they can never be selected as a maximum.
func ParseScore(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) {
		return math.Inf(-1)
	}
	return f
}

// ParseRange extracts the "start-end" range between the first and second
// ':' of a sub-variant identifier such as "DUP:1500-2300" or
// "a:100-300:DEL".
func ParseRange(id string) (start, end int64, ok bool) {
	_, rng, found := strings.Cut(id, ":")
	if !found {
		return 0, 0, false
	}
	rng, _, _ = strings.Cut(rng, ":")

	startStr, endStr, found := strings.Cut(rng, "-")
	if !found {
		return 0, 0, false
	}

	start, err := strconv.ParseInt(strings.TrimSpace(startStr), 10, 64)
	if err != nil {
		return 0, 0, false
	}
	end, err = strconv.ParseInt(strings.TrimSpace(endStr), 10, 64)
	if err != nil {
		return 0, 0, false
	}
	return start, end, true
}

func isAbsent(s string) bool {
	return s == NotPresent || strings.TrimSpace(s) == ""
}

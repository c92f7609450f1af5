package sv

import (
	"math"
	"strconv"
	"strings"

	"gopkg.in/guregu/null.v3"
)

// FormatScore renders a score in its shortest round-trip form, keeping a
// trailing ".0" on integral values ("5.0", "12.3"). Null scores render empty.
func FormatScore(f null.Float) string {
	if !f.Valid {
		return ""
	}

	v := f.Float64
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}

// FormatVar renders a selected identifier, or an empty string when null.
func FormatVar(s null.String) string {
	if !s.Valid {
		return ""
	}
	return s.String
}

package sv

import (
	"math"

	"gopkg.in/guregu/null.v3"
)

// MinReciprocalOverlap is the fraction of both the record and the
// sub-variant that must be covered for the sub-variant to count as matching.
const MinReciprocalOverlap = 0.10

// Pick is a selected sub-variant. Both fields are null when nothing was
// selected.
type Pick struct {
	Score null.Float
	Var   null.String
}

// Found reports whether a sub-variant was selected.
func (p Pick) Found() bool {
	return p.Var.Valid
}

// Result holds both derived pairs for a record.
type Result struct {
	MaxPath    Pick
	MaxOverlap Pick
}

// Evaluate computes both derived pairs for the record.
func (r *Record) Evaluate() Result {
	return Result{
		MaxPath:    r.MaxPathogenic(),
		MaxOverlap: r.MaxOverlap(),
	}
}

// MaxPathogenic returns the highest scoring sub-variant. The first of equal
// scores wins. Nothing is picked when every score entry was unparseable.
func (r *Record) MaxPathogenic() Pick {
	if !r.Present || len(r.SubVariants) == 0 {
		return Pick{}
	}

	best := 0
	for i := 1; i < len(r.SubVariants); i++ {
		if r.SubVariants[i].Score > r.SubVariants[best].Score {
			best = i
		}
	}

	sv := r.SubVariants[best]
	if math.IsInf(sv.Score, -1) {
		return Pick{}
	}
	return Pick{
		Score: null.FloatFrom(sv.Score),
		Var:   null.StringFrom(sv.ID),
	}
}

// MaxOverlap returns the sub-variant with the largest overlap among those
// that reciprocally overlap the record by at least MinReciprocalOverlap.
// The first of equal overlaps wins. A picked sub-variant whose score was
// unparseable is returned with a null score.
func (r *Record) MaxOverlap() Pick {
	if !r.Present || !r.CoordsValid {
		return Pick{}
	}

	best := -1
	var bestOverlap int64
	for i, sv := range r.SubVariants {
		if !sv.RangeValid {
			continue
		}

		overlap, fracRecord, fracSub := ReciprocalOverlap(r.Start, r.End, sv.Start, sv.End)
		if fracRecord < MinReciprocalOverlap || fracSub < MinReciprocalOverlap {
			continue
		}

		if best == -1 || overlap > bestOverlap {
			best, bestOverlap = i, overlap
		}
	}

	if best == -1 {
		return Pick{}
	}

	sv := r.SubVariants[best]
	p := Pick{Var: null.StringFrom(sv.ID)}
	if sv.HasScore() {
		p.Score = null.FloatFrom(sv.Score)
	}
	return p
}

// ReciprocalOverlap returns the overlap length of intervals a and b along
// with the overlap as a fraction of each interval's span. A fraction is 0
// when its span is not positive.
func ReciprocalOverlap(aStart, aEnd, bStart, bEnd int64) (overlap int64, fracA, fracB float64) {
	overlap = min(aEnd, bEnd) - max(aStart, bStart)
	if overlap < 0 {
		overlap = 0
	}

	if span := aEnd - aStart; span > 0 {
		fracA = float64(overlap) / float64(span)
	}
	if span := bEnd - bStart; span > 0 {
		fracB = float64(overlap) / float64(span)
	}
	return overlap, fracA, fracB
}

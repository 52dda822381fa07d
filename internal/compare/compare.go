// Package compare computes weighted composite similarity scores for
// candidate record pairs.
package compare

import (
	"github.com/adamcutting/tidy-data-pal-sub001/internal/similarity"
	"github.com/adamcutting/tidy-data-pal-sub001/internal/types"
)

// Scorer scores record pairs against a column mapping. It is stateless and
// safe for concurrent use.
type Scorer struct {
	columns   []types.MappedColumn
	neutral   float64
	tolerance float64
}

// NewScorer builds a scorer from the mapped columns and config defaults.
func NewScorer(columns []types.MappedColumn, cfg types.DedupeConfig) *Scorer {
	return &Scorer{
		columns:   columns,
		neutral:   cfg.Neutral(),
		tolerance: cfg.Tolerance(),
	}
}

// Score computes the composite score for one pair. Per-field scores are
// weighted and normalized by the total weight evaluated; a pair with zero
// comparable fields scores 0 and can never match.
//
// A null value on either side yields the neutral score rather than a
// mismatch, so sparse rows are not penalized unfairly. Malformed values for
// a numeric comparator are treated the same way; a bad cell never aborts
// the run.
func (s *Scorer) Score(a, b types.Record, pair types.CandidatePair) types.ScoredPair {
	fieldScores := make(map[string]float64, len(s.columns))
	var sum, totalWeight float64

	for _, col := range s.columns {
		if !col.IsMatchField() {
			continue
		}
		score := s.fieldScore(col, a.Get(col.SourceColumn), b.Get(col.SourceColumn))
		fieldScores[col.SourceColumn] = score
		sum += col.Weight * score
		totalWeight += col.Weight
	}

	composite := 0.0
	if totalWeight > 0 {
		composite = sum / totalWeight
	}
	return types.ScoredPair{Pair: pair, Composite: composite, FieldScores: fieldScores}
}

func (s *Scorer) fieldScore(col types.MappedColumn, va, vb types.Value) float64 {
	if va.IsNull() || vb.IsNull() {
		return s.neutral
	}
	switch col.Kind {
	case types.CompareExact:
		return similarity.Exact(va.Text(), vb.Text())
	case types.CompareFuzzy:
		return similarity.Fuzzy(va.Text(), vb.Text())
	case types.CompareNumeric:
		fa, oka := va.Float()
		fb, okb := vb.Float()
		if !oka || !okb {
			// Non-numeric data under a numeric comparator is recovered
			// per-field, not escalated.
			return s.neutral
		}
		return similarity.Numeric(fa, fb, s.tolerance)
	default:
		return s.neutral
	}
}

// Package similarity provides field-level comparators returning scores in [0,1].
package similarity

import (
	"math"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Exact returns 1 when the canonical string forms match after trimming and
// case folding, 0 otherwise.
func Exact(a, b string) float64 {
	if fold(a) == fold(b) {
		return 1
	}
	return 0
}

// Fuzzy returns a normalized string similarity: the better of edit-distance
// similarity and token-set overlap. Token overlap rescues reordered values
// such as "Smith, John" vs "John Smith" that edit distance punishes.
func Fuzzy(a, b string) float64 {
	a, b = fold(a), fold(b)
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	ed := editSimilarity(a, b)
	to := tokenOverlap(a, b)
	return math.Max(ed, to)
}

// Numeric returns 1 - min(1, |a-b|/tolerance).
func Numeric(a, b, tolerance float64) float64 {
	if tolerance <= 0 {
		tolerance = 1
	}
	return 1 - math.Min(1, math.Abs(a-b)/tolerance)
}

func editSimilarity(a, b string) float64 {
	d := levenshtein.ComputeDistance(a, b)
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(d)/float64(longest)
}

// tokenOverlap is the Jaccard index over whitespace-separated tokens.
func tokenOverlap(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	inter := 0
	for t := range ta {
		if tb[t] {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range strings.Fields(s) {
		t = strings.Trim(t, ".,;:")
		if t != "" {
			set[t] = true
		}
	}
	return set
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

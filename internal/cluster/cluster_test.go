package cluster

import (
	"reflect"
	"testing"

	"github.com/adamcutting/tidy-data-pal-sub001/internal/types"
)

var nameCol = []types.MappedColumn{
	{SourceColumn: "name", Kind: types.CompareFuzzy, Weight: 1},
}

func pair(a, b int, score float64) types.ScoredPair {
	return types.ScoredPair{Pair: types.NewCandidatePair(a, b), Composite: score}
}

func named(names ...string) []types.Record {
	recs := make([]types.Record, len(names))
	for i, n := range names {
		if n == "" {
			recs[i] = types.Record{"name": types.Null}
		} else {
			recs[i] = types.Record{"name": types.String(n)}
		}
	}
	return recs
}

func TestBuildPartitionsFullRange(t *testing.T) {
	records := named("a", "b", "c", "d", "e")
	matched := []types.ScoredPair{pair(0, 2, 0.9), pair(3, 4, 0.85)}
	clusters := Build(matched, len(records), records, nameCol)

	seen := make(map[int]int)
	for _, c := range clusters {
		for _, m := range c.Members {
			seen[m]++
		}
	}
	for i := range records {
		if seen[i] != 1 {
			t.Fatalf("index %d appears in %d clusters; want exactly 1", i, seen[i])
		}
	}
	// {0,2}, {1}, {3,4}
	if len(clusters) != 3 {
		t.Fatalf("got %d clusters; want 3", len(clusters))
	}
	if DuplicateRows(clusters) != 2 {
		t.Fatalf("DuplicateRows=%d; want 2", DuplicateRows(clusters))
	}
	if len(clusters)+DuplicateRows(clusters) != len(records) {
		t.Fatal("unique + duplicate != original")
	}
}

func TestBuildTransitiveClosure(t *testing.T) {
	// A~B and B~C match, A~C does not; all three still cluster through B.
	records := named("a", "b", "c")
	matched := []types.ScoredPair{pair(0, 1, 0.9), pair(1, 2, 0.9)}
	clusters := Build(matched, 3, records, nameCol)
	if len(clusters) != 1 {
		t.Fatalf("got %d clusters; want 1", len(clusters))
	}
	if !reflect.DeepEqual(clusters[0].Members, []int{0, 1, 2}) {
		t.Fatalf("members=%v; want [0 1 2]", clusters[0].Members)
	}
}

func TestBuildSingletonsOnly(t *testing.T) {
	records := named("a", "b")
	clusters := Build(nil, 2, records, nameCol)
	if len(clusters) != 2 {
		t.Fatalf("got %d clusters; want 2", len(clusters))
	}
	for _, c := range clusters {
		if c.Size() != 1 {
			t.Fatalf("singleton expected, got size %d", c.Size())
		}
		if c.Canonical != c.Members[0] {
			t.Fatalf("singleton canonical=%d; want %d", c.Canonical, c.Members[0])
		}
	}
	if DuplicateRows(clusters) != 0 {
		t.Fatal("singletons counted as duplicates")
	}
}

func TestCanonicalPrefersFewestNulls(t *testing.T) {
	records := named("", "bob")
	matched := []types.ScoredPair{pair(0, 1, 0.9)}
	clusters := Build(matched, 2, records, nameCol)
	if clusters[0].Canonical != 1 {
		t.Fatalf("canonical=%d; want 1 (fewer nulls)", clusters[0].Canonical)
	}
}

func TestCanonicalTieBreaksOnLowestIndex(t *testing.T) {
	records := named("bob", "bob")
	matched := []types.ScoredPair{pair(0, 1, 1)}
	clusters := Build(matched, 2, records, nameCol)
	if clusters[0].Canonical != 0 {
		t.Fatalf("canonical=%d; want 0", clusters[0].Canonical)
	}
}

func TestBuildDeterministic(t *testing.T) {
	records := named("a", "a", "b", "b", "c")
	matched := []types.ScoredPair{pair(2, 3, 0.95), pair(0, 1, 0.9)}
	first := Build(matched, 5, records, nameCol)
	second := Build(matched, 5, records, nameCol)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("identical input produced different clusters")
	}
	// IDs follow smallest-member order.
	for i := range first {
		if first[i].ID != i {
			t.Fatalf("cluster %d has ID %d", i, first[i].ID)
		}
		if i > 0 && first[i-1].Members[0] >= first[i].Members[0] {
			t.Fatal("clusters not ordered by smallest member")
		}
	}
}

func TestScoreStats(t *testing.T) {
	records := named("a", "b", "c")
	matched := []types.ScoredPair{pair(0, 1, 0.8), pair(1, 2, 1.0)}
	clusters := Build(matched, 3, records, nameCol)
	c := clusters[0]
	if c.MinScore != 0.8 {
		t.Fatalf("MinScore=%v; want 0.8", c.MinScore)
	}
	if c.AvgScore != 0.9 {
		t.Fatalf("AvgScore=%v; want 0.9", c.AvgScore)
	}
}

func TestBuildEmpty(t *testing.T) {
	clusters := Build(nil, 0, nil, nameCol)
	if len(clusters) != 0 {
		t.Fatalf("got %d clusters for empty input", len(clusters))
	}
}

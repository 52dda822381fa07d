// Package cluster unions matched pairs into connected-component clusters and
// selects a canonical representative per cluster.
package cluster

import (
	"sort"

	"github.com/adamcutting/tidy-data-pal-sub001/internal/types"
)

// unionFind is a disjoint-set forest with path compression and union by size.
type unionFind struct {
	parent []int
	size   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), size: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
		uf.size[i] = 1
	}
	return uf
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if u.size[ra] < u.size[rb] {
		ra, rb = rb, ra
	}
	u.parent[rb] = ra
	u.size[ra] += u.size[rb]
}

// Build partitions the index range [0, total) into clusters over the matched
// pair graph. Every index belongs to exactly one cluster; records with no
// match form singletons. Cluster IDs are assigned in order of each cluster's
// smallest member, so output is deterministic for identical input.
//
// records and columns drive canonical selection: the member with the fewest
// null mapped fields wins, ties broken by lowest original index.
func Build(matched []types.ScoredPair, total int, records []types.Record, columns []types.MappedColumn) []types.Cluster {
	uf := newUnionFind(total)
	for _, p := range matched {
		uf.union(p.Pair.A, p.Pair.B)
	}

	byRoot := make(map[int][]int)
	for i := 0; i < total; i++ {
		r := uf.find(i)
		byRoot[r] = append(byRoot[r], i)
	}

	clusters := make([]types.Cluster, 0, len(byRoot))
	for _, members := range byRoot {
		sort.Ints(members)
		c := types.Cluster{Members: members}
		c.Canonical = canonical(members, records, columns)
		c.MinScore, c.AvgScore = scoreStats(members, matched)
		clusters = append(clusters, c)
	}

	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].Members[0] < clusters[j].Members[0]
	})
	for i := range clusters {
		clusters[i].ID = i
	}
	return clusters
}

// canonical prefers the member with the fewest null/empty mapped fields,
// then the lowest original index. Members are already sorted ascending, so
// a strict < on null counts gives the stable tie-break for free.
func canonical(members []int, records []types.Record, columns []types.MappedColumn) int {
	best := members[0]
	bestNulls := records[best].NullCount(columns)
	for _, m := range members[1:] {
		if n := records[m].NullCount(columns); n < bestNulls {
			best, bestNulls = m, n
		}
	}
	return best
}

// scoreStats computes the minimum and average composite score over matched
// pairs whose endpoints both lie in the cluster. Singletons report zeros.
func scoreStats(members []int, matched []types.ScoredPair) (min, avg float64) {
	if len(members) < 2 {
		return 0, 0
	}
	in := make(map[int]bool, len(members))
	for _, m := range members {
		in[m] = true
	}
	var sum float64
	n := 0
	for _, p := range matched {
		if !in[p.Pair.A] || !in[p.Pair.B] {
			continue
		}
		if n == 0 || p.Composite < min {
			min = p.Composite
		}
		sum += p.Composite
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return min, sum / float64(n)
}

// DuplicateRows sums clusterSize-1 over clusters larger than one record.
func DuplicateRows(clusters []types.Cluster) int {
	d := 0
	for _, c := range clusters {
		if c.Size() > 1 {
			d += c.Size() - 1
		}
	}
	return d
}

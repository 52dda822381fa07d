// Package blocking partitions records into candidate buckets sharing a cheap
// key, so pairwise comparison is limited to plausible duplicates.
package blocking

import (
	"sort"
	"strings"

	"github.com/adamcutting/tidy-data-pal-sub001/internal/normalize"
	"github.com/adamcutting/tidy-data-pal-sub001/internal/types"
)

// universalKey is the single bucket used when no blocking columns are
// configured. All-pairs comparison is the documented performance fallback.
const universalKey = "*"

// Index maps block keys to the record indices sharing that key.
type Index map[string][]int

// Build derives the blocking index for a record set. Every record index
// appears in at least one block. Empty input yields an empty index.
func Build(records []types.Record, cfg types.DedupeConfig) Index {
	idx := make(Index)
	if len(records) == 0 {
		return idx
	}

	if len(cfg.BlockingColumns) == 0 {
		all := make([]int, len(records))
		for i := range records {
			all[i] = i
		}
		idx[universalKey] = all
		return idx
	}

	for i, rec := range records {
		key := blockKey(rec, cfg)
		idx[key] = append(idx[key], i)
	}
	return idx
}

// blockKey joins the normalized values of all blocking columns. With Optimize
// set, each component is truncated to its normalized prefix.
func blockKey(rec types.Record, cfg types.DedupeConfig) string {
	parts := make([]string, 0, len(cfg.BlockingColumns))
	for _, col := range cfg.BlockingColumns {
		k := normalize.Key(rec.Get(col).Text())
		if cfg.Optimize {
			k = normalize.Prefix(k, cfg.PrefixLen())
		}
		parts = append(parts, k)
	}
	return strings.Join(parts, "|")
}

// Keys returns block keys in sorted order so iteration is deterministic.
func (ix Index) Keys() []string {
	keys := make([]string, 0, len(ix))
	for k := range ix {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Pairs returns the candidate pair count across all blocks, before
// cross-block deduplication.
func (ix Index) Pairs() int {
	n := 0
	for _, members := range ix {
		m := len(members)
		n += m * (m - 1) / 2
	}
	return n
}

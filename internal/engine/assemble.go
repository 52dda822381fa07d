package engine

import (
	"sort"
	"time"

	"github.com/adamcutting/tidy-data-pal-sub001/internal/cluster"
	"github.com/adamcutting/tidy-data-pal-sub001/internal/types"
)

// Assemble projects clusters into the final result. Output is deterministic
// for identical clusters: processed rows carry one canonical record per
// cluster and flagged rows carry every original record, both in original
// record order.
func Assemble(records []types.Record, clusters []types.Cluster, jobID string, start time.Time) *types.Result {
	clusterOf := make(map[int]*types.Cluster, len(records))
	for i := range clusters {
		for _, m := range clusters[i].Members {
			clusterOf[m] = &clusters[i]
		}
	}

	canonicals := make([]int, 0, len(clusters))
	for _, c := range clusters {
		canonicals = append(canonicals, c.Canonical)
	}
	sort.Ints(canonicals)
	processed := make([]types.Record, 0, len(canonicals))
	for _, idx := range canonicals {
		processed = append(processed, records[idx])
	}

	flagged := make([]types.FlaggedRow, 0, len(records))
	for i, rec := range records {
		c := clusterOf[i]
		flagged = append(flagged, types.FlaggedRow{
			Index:     i,
			Record:    rec,
			ClusterID: c.ID,
			Duplicate: c.Canonical != i,
		})
	}

	return &types.Result{
		JobID:            jobID,
		OriginalRows:     len(records),
		UniqueRows:       len(clusters),
		DuplicateRows:    cluster.DuplicateRows(clusters),
		Clusters:         clusters,
		ProcessedData:    processed,
		FlaggedData:      flagged,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
		StartTime:        start,
	}
}

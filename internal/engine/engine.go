// Package engine runs the matching pipeline: blocking, pairwise scoring,
// clustering, and result assembly, reporting progress at each stage.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/adamcutting/tidy-data-pal-sub001/internal/blocking"
	"github.com/adamcutting/tidy-data-pal-sub001/internal/cluster"
	"github.com/adamcutting/tidy-data-pal-sub001/internal/compare"
	"github.com/adamcutting/tidy-data-pal-sub001/internal/metrics"
	"github.com/adamcutting/tidy-data-pal-sub001/internal/progress"
	"github.com/adamcutting/tidy-data-pal-sub001/internal/types"
)

// Progress checkpoints per stage. Comparison subdivides its span
// proportionally to blocks processed.
const (
	pctBlocked   = 10
	pctCompared  = 70
	pctClustered = 85
	defaultSpill = 5_000_000
)

// Options tunes engine behavior.
type Options struct {
	// ScratchDir, when set, lets the seen-pair set spill to a badger store
	// on disk once the candidate pair estimate exceeds SpillPairs.
	ScratchDir string
	// SpillPairs is the pair-count estimate above which the seen-set spills.
	// Zero means the default of 5M.
	SpillPairs int
}

// Engine executes dedupe runs. It holds no per-job state and is safe for
// concurrent use; each Run owns its inputs for the job's duration.
type Engine struct {
	log  *zap.Logger
	opts Options
}

// New builds an engine. A nil logger is replaced with a no-op one.
func New(log *zap.Logger, opts Options) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{log: log, opts: opts}
}

// Run executes the full pipeline. Configuration errors return synchronously
// before any snapshot is emitted. All other outcomes produce exactly one
// terminal snapshot through emit: completed with the result, cancelled when
// ctx is done (checked between blocks, never mid-pair), or failed.
func (e *Engine) Run(ctx context.Context, req types.DedupeRequest, emit *progress.Emitter) (*types.Result, error) {
	if err := Validate(req.Records, req.Columns, req.Config); err != nil {
		return nil, err
	}
	start := time.Now()
	log := e.log.With(zap.String("jobID", req.JobID))

	idx := blocking.Build(req.Records, req.Config)
	metrics.RecordsBlocked.Add(float64(len(req.Records)))
	emit.Processing(pctBlocked, fmt.Sprintf("Blocked %d records into %d buckets", len(req.Records), len(idx)))
	log.Info("blocking complete", zap.Int("records", len(req.Records)), zap.Int("blocks", len(idx)), zap.Int("pairEstimate", idx.Pairs()))

	matched, err := e.comparePairs(ctx, req, idx, emit)
	if err != nil {
		if ctx.Err() != nil {
			emit.Cancelled("Job cancelled during comparison; partial work discarded")
			return nil, ctx.Err()
		}
		emit.Fail("Comparison stage failed", err.Error())
		return nil, err
	}
	log.Info("comparison complete", zap.Int("matched", len(matched)))

	clusters := cluster.Build(matched, len(req.Records), req.Records, req.Columns)
	emit.Processing(pctClustered, fmt.Sprintf("Formed %d clusters", len(clusters)))

	result := Assemble(req.Records, clusters, req.JobID, start)
	result.StartTime = start
	emit.Complete(fmt.Sprintf("Deduplication complete: %d unique, %d duplicates", result.UniqueRows, result.DuplicateRows), result)
	log.Info("run complete",
		zap.Int("unique", result.UniqueRows),
		zap.Int("duplicates", result.DuplicateRows),
		zap.Int64("ms", result.ProcessingTimeMs))
	return result, nil
}

// comparePairs scores every candidate pair once, deduplicating across
// overlapping blocks, and returns the pairs at or above the threshold.
// Cancellation is cooperative at block granularity.
func (e *Engine) comparePairs(ctx context.Context, req types.DedupeRequest, idx blocking.Index, emit *progress.Emitter) ([]types.ScoredPair, error) {
	seen, cleanup, err := e.newSeenSet(req.JobID, idx.Pairs())
	if err != nil {
		return nil, err
	}
	defer cleanup()

	scorer := compare.NewScorer(req.Columns, req.Config)
	keys := idx.Keys()
	var matched []types.ScoredPair

	for bi, key := range keys {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		members := idx[key]
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				p := types.NewCandidatePair(members[i], members[j])
				dup, err := seen.Seen(p)
				if err != nil {
					return nil, fmt.Errorf("seen-pair set: %w", err)
				}
				if dup {
					continue
				}
				sp := scorer.Score(req.Records[p.A], req.Records[p.B], p)
				metrics.PairsScored.Inc()
				if sp.Matched(req.Config.Threshold) {
					matched = append(matched, sp)
					metrics.PairsMatched.Inc()
				}
			}
		}
		pct := pctBlocked + (pctCompared-pctBlocked)*float64(bi+1)/float64(len(keys))
		emit.Processing(pct, fmt.Sprintf("Compared block %d of %d", bi+1, len(keys)))
	}
	return matched, nil
}

// newSeenSet picks an in-memory set, or a badger-backed one when the pair
// estimate is large enough and a scratch dir is configured.
func (e *Engine) newSeenSet(jobID string, pairEstimate int) (compare.SeenSet, func(), error) {
	spill := e.opts.SpillPairs
	if spill <= 0 {
		spill = defaultSpill
	}
	if e.opts.ScratchDir == "" || pairEstimate < spill {
		set := compare.NewMapSeen()
		return set, func() { _ = set.Close() }, nil
	}
	dir := filepath.Join(e.opts.ScratchDir, "seen-"+jobID+".badger")
	set, err := compare.NewBadgerSeen(dir)
	if err != nil {
		return nil, nil, err
	}
	e.log.Info("seen-pair set spilled to disk", zap.String("dir", dir), zap.Int("pairEstimate", pairEstimate))
	return set, func() {
		_ = set.Close()
		_ = os.RemoveAll(dir)
	}, nil
}

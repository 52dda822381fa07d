package engine

import (
	"errors"
	"fmt"

	"github.com/adamcutting/tidy-data-pal-sub001/internal/types"
)

var (
	// ErrNoMatchFields indicates the mapping contains no scorable column.
	ErrNoMatchFields = errors.New("no matchable columns configured")
	// ErrBadThreshold indicates a threshold outside (0,1].
	ErrBadThreshold = errors.New("threshold must be in (0,1]")
	// ErrUnknownBlockingColumn indicates a blocking column absent from the mapping.
	ErrUnknownBlockingColumn = errors.New("unknown blocking column")
)

// Validate checks a run's configuration. It is called before any blocking or
// comparison work, so a misconfigured job never enters processing.
func Validate(records []types.Record, columns []types.MappedColumn, cfg types.DedupeConfig) error {
	if cfg.Threshold <= 0 || cfg.Threshold > 1 {
		return fmt.Errorf("%w: got %v", ErrBadThreshold, cfg.Threshold)
	}

	matchable := false
	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c.SourceColumn] = true
		if c.IsMatchField() {
			matchable = true
		}
	}
	if !matchable {
		return ErrNoMatchFields
	}

	for _, b := range cfg.BlockingColumns {
		if b == "" || !known[b] {
			return fmt.Errorf("%w: %q", ErrUnknownBlockingColumn, b)
		}
	}
	return nil
}

package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adamcutting/tidy-data-pal-sub001/internal/engine"
	"github.com/adamcutting/tidy-data-pal-sub001/internal/types"
)

var testCols = []types.MappedColumn{
	{SourceColumn: "name", Kind: types.CompareFuzzy, Weight: 1},
}

func testRecords(n int) []types.Record {
	recs := make([]types.Record, n)
	for i := range recs {
		recs[i] = types.Record{"name": types.String("same name")}
	}
	return recs
}

func TestLocalJobCompletes(t *testing.T) {
	eng := engine.New(nil, engine.Options{})
	req := types.DedupeRequest{
		Records: testRecords(3),
		Columns: testCols,
		Config:  types.DedupeConfig{Threshold: 0.8},
	}
	j, err := StartLocal(eng, nil, req)
	if err != nil {
		t.Fatalf("StartLocal: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	final, err := j.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if final.Status != types.StatusCompleted {
		t.Fatalf("final status %q; want completed", final.Status)
	}
	if final.Result == nil || final.Result.DuplicateRows != 2 {
		t.Fatalf("unexpected result: %+v", final.Result)
	}
	// Stream is closed after the terminal snapshot.
	if _, ok := <-j.Updates(); ok {
		t.Fatal("updates channel still open after terminal snapshot")
	}
}

func TestLocalJobRejectsBadConfig(t *testing.T) {
	eng := engine.New(nil, engine.Options{})
	req := types.DedupeRequest{
		Records: testRecords(2),
		Columns: testCols,
		Config:  types.DedupeConfig{Threshold: 0}, // invalid
	}
	if _, err := StartLocal(eng, nil, req); !errors.Is(err, engine.ErrBadThreshold) {
		t.Fatalf("want ErrBadThreshold, got %v", err)
	}
}

func TestLocalJobCancel(t *testing.T) {
	eng := engine.New(nil, engine.Options{})
	// Cancellation is cooperative at block granularity, so the job may still
	// finish first; accept either terminal and assert the shared contract.
	req := types.DedupeRequest{
		Records: testRecords(500),
		Columns: testCols,
		Config:  types.DedupeConfig{Threshold: 0.8},
	}
	j, err := StartLocal(eng, nil, req)
	if err != nil {
		t.Fatalf("StartLocal: %v", err)
	}
	j.Cancel()
	j.Cancel() // repeat cancel is a no-op

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	final, err := j.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if !final.Status.Terminal() {
		t.Fatalf("final status %q is not terminal", final.Status)
	}
	if final.Status == types.StatusCancelled && final.Result != nil {
		t.Fatal("cancelled job carried a result; partial work must be discarded")
	}
	j.Cancel() // cancel after terminal is a no-op, not an error
}

func TestLocalJobStatusSnapshot(t *testing.T) {
	eng := engine.New(nil, engine.Options{})
	req := types.DedupeRequest{
		Records: testRecords(2),
		Columns: testCols,
		Config:  types.DedupeConfig{Threshold: 0.8},
	}
	j, err := StartLocal(eng, nil, req)
	if err != nil {
		t.Fatalf("StartLocal: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := j.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if got := j.Status(); got.Status != types.StatusCompleted {
		t.Fatalf("Status()=%q; want completed", got.Status)
	}
	if j.ID() == "" {
		t.Fatal("job has no ID")
	}
}

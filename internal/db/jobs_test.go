package db

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/adamcutting/tidy-data-pal-sub001/internal/types"
)

func TestJobStatusProgressProjection(t *testing.T) {
	errMsg := "boom"
	j := JobStatus{Status: "failed", Percent: 42, Message: "comparing", Error: &errMsg}
	p, err := j.Progress()
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if p.Status != types.StatusFailed || p.Percent != 42 || p.Error != "boom" {
		t.Fatalf("unexpected projection: %+v", p)
	}
}

func TestJobStatusProgressResultOnlyWhenCompleted(t *testing.T) {
	res := []byte(`{"original_rows":3,"unique_rows":2,"duplicate_rows":1}`)
	j := JobStatus{Status: "processing", Percent: 50, ResultJSON: res}
	p, err := j.Progress()
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if p.Result != nil {
		t.Fatal("non-terminal snapshot carried a result")
	}

	j.Status = "completed"
	p, err = j.Progress()
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if p.Result == nil || p.Result.DuplicateRows != 1 {
		t.Fatalf("completed snapshot missing result: %+v", p.Result)
	}
}

func TestJobStatusProgressNullResult(t *testing.T) {
	j := JobStatus{Status: "completed", Percent: 100, ResultJSON: []byte("null")}
	p, err := j.Progress()
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if p.Result != nil {
		t.Fatal("jsonb null decoded into a result")
	}
}

// Integration coverage requires a reachable Postgres; set TEST_DATABASE_DSN to enable.
func TestJobStoreRoundTrip(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	ctx := context.Background()
	pool, err := Connect(ctx, Config{DSN: dsn})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()
	if _, err := pool.Exec(ctx, Schema); err != nil {
		t.Fatalf("schema: %v", err)
	}

	store := NewJobStore(pool)
	id := uuid.NewString()
	if _, err := store.Create(ctx, id); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.UpdateProgress(ctx, id, types.Progress{Status: types.StatusProcessing, Percent: 40, Message: "comparing"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := store.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != "processing" || got.Percent != 40 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if err := store.UpdateProgress(ctx, uuid.NewString(), types.Progress{Status: types.StatusFailed}); err != ErrNotFound {
		t.Fatalf("update of unknown job: %v; want ErrNotFound", err)
	}
}

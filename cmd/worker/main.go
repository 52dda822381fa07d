package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	tactivity "go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/adamcutting/tidy-data-pal-sub001/internal/activities"
	"github.com/adamcutting/tidy-data-pal-sub001/internal/db"
	"github.com/adamcutting/tidy-data-pal-sub001/internal/metrics"
	"github.com/adamcutting/tidy-data-pal-sub001/internal/workflow"
)

func main() {
	taddr := getenv("TEMPORAL_ADDRESS", "localhost:7233")
	ns := getenv("TEMPORAL_NAMESPACE", "default")
	q := getenv("TEMPORAL_TASK_QUEUE", "dedupe")
	scratch := getenv("DEDUPE_SCRATCH_DIR", "/var/dedupe")
	_ = os.MkdirAll(scratch, 0o777)

	zl := newZap(getenv("LOG_LEVEL", "info"))
	defer zl.Sync()

	metrics.Init()
	go func() {
		_ = metrics.Serve(metrics.AddrFromEnv())
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.Connect(ctx, db.FromEnv())
	cancel()
	if err != nil {
		log.Fatal("job-status store:", err)
	}
	defer pool.Close()

	c, err := client.Dial(client.Options{HostPort: taddr, Namespace: ns})
	if err != nil {
		log.Fatal("temporal client:", err)
	}
	defer c.Close()

	w := worker.New(c, q, worker.Options{})
	acts := activities.New(activities.Config{
		ScratchDir: scratch,
		SpillPairs: getenvInt("DEDUPE_SPILL_PAIRS", 0),
	}, db.NewJobStore(pool), zl)
	w.RegisterActivityWithOptions(acts.RunDedupe, tactivity.RegisterOptions{Name: "Activities.RunDedupe"})
	w.RegisterWorkflow(workflow.DedupeWorkflow)

	zl.Info("worker started",
		zap.String("namespace", ns),
		zap.String("taskQueue", q),
		zap.String("scratch", scratch))
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatal("worker failed:", err)
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func newZap(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

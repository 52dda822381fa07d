package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/adamcutting/tidy-data-pal-sub001/internal/api"
	"github.com/adamcutting/tidy-data-pal-sub001/internal/db"
	"github.com/adamcutting/tidy-data-pal-sub001/internal/engine"
	"github.com/adamcutting/tidy-data-pal-sub001/internal/job"
	"github.com/adamcutting/tidy-data-pal-sub001/internal/metrics"
	"github.com/adamcutting/tidy-data-pal-sub001/internal/remote"
)

func main() {
	zl := newZap(getEnv("LOG_LEVEL", "info"))
	defer zl.Sync()

	metrics.Init()
	go func() {
		_ = metrics.Serve(metrics.AddrFromEnv())
	}()

	// Delegated mode needs both Temporal and the job-status store. Either
	// being unreachable degrades to local-only instead of failing startup.
	svc := buildRemoteService(zl)

	eng := engine.New(zl, engine.Options{
		ScratchDir: getEnv("DEDUPE_SCRATCH_DIR", os.TempDir()),
	})

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	h := api.NewHandler(eng, svc, zl)
	h.Register(r.Group("/api/v1"))

	port := getEnv("PORT", "8080")
	zl.Info("api server starting", zap.String("port", port), zap.Bool("delegated", svc != nil))
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func buildRemoteService(zl *zap.Logger) job.MatchingService {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, db.FromEnv())
	if err != nil {
		zl.Warn("job-status store unavailable, delegated mode disabled", zap.Error(err))
		return nil
	}
	tc, err := client.Dial(client.Options{
		HostPort:  getEnv("TEMPORAL_ADDRESS", "localhost:7233"),
		Namespace: getEnv("TEMPORAL_NAMESPACE", "default"),
	})
	if err != nil {
		zl.Warn("temporal unavailable, delegated mode disabled", zap.Error(err))
		pool.Close()
		return nil
	}
	return remote.NewTemporalService(tc, db.NewJobStore(pool), remote.Config{
		TaskQueue:  getEnv("TEMPORAL_TASK_QUEUE", "dedupe"),
		DatasetDir: getEnv("DEDUPE_DATASET_DIR", "file:///var/dedupe/datasets"),
	}, zl)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
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

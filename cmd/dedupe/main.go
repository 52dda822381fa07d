// Command dedupe runs one deduplication job offline: read a dataset request
// from a file:// or s3:// URI, run the pipeline, write the result back out.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/adamcutting/tidy-data-pal-sub001/internal/engine"
	"github.com/adamcutting/tidy-data-pal-sub001/internal/iopkg"
	"github.com/adamcutting/tidy-data-pal-sub001/internal/progress"
	"github.com/adamcutting/tidy-data-pal-sub001/internal/types"
)

func main() {
	var (
		in      = flag.String("in", "", "dataset request URI (file:// or s3://), JSON DedupeRequest")
		out     = flag.String("out", "", "result URI; defaults to <in>.result.json")
		scratch = flag.String("scratch", os.TempDir(), "scratch dir for large-job spill stores")
		quiet   = flag.Bool("quiet", false, "suppress progress output")
	)
	flag.Parse()
	if *in == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *out == "" {
		*out = *in + ".result.json"
	}

	zl, _ := zap.NewProduction()
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var req types.DedupeRequest
	if err := iopkg.ReadJSON(ctx, *in, &req); err != nil {
		log.Fatalf("read dataset: %v", err)
	}

	emit := progress.NewEmitter(func(p types.Progress) {
		if !*quiet {
			fmt.Printf("[%5.1f%%] %s %s\n", p.Percent, p.Status, p.Message)
		}
	})

	eng := engine.New(zl, engine.Options{ScratchDir: *scratch})
	res, err := eng.Run(ctx, req, emit)
	if err != nil {
		log.Fatalf("dedupe: %v", err)
	}
	if err := iopkg.WriteJSON(ctx, *out, res); err != nil {
		log.Fatalf("write result: %v", err)
	}
	fmt.Printf("%d rows: %d unique, %d duplicates, %d clusters -> %s\n",
		res.OriginalRows, res.UniqueRows, res.DuplicateRows, len(res.Clusters), *out)
}

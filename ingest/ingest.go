package ingest

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"villagemap/metrics"
	"villagemap/shapefile"
)

// Run executes the full ingestion pipeline for one upload: component
// validation, streaming read, per-feature transform, batched writes. The
// pipeline is strictly sequential within a call; concurrent calls are
// independent and only ordered by the store's own write semantics.
//
// Every uploaded file is deleted on every exit path, fatal errors included.
func Run(ctx context.Context, files []shapefile.FileDescriptor, store BulkWriter, batchSize int, onProgress ProgressFunc) Result {
	defer cleanupFiles(files)
	start := time.Now()

	set, err := shapefile.ValidateComponents(files)
	if err != nil {
		return fatalResult(KindComponentMissing, err)
	}

	reader, err := shapefile.Open(set.Shp())
	if err != nil {
		return fatalResult(KindFatalOpen, err)
	}
	defer reader.Close()

	batcher := NewBatchIngestor(store, batchSize, onProgress)
	for reader.Next() {
		rec, ferr := TransformFeature(reader.Feature())
		if ferr != nil {
			batcher.RecordError(*ferr)
			continue
		}
		batcher.Add(ctx, rec)
	}
	batcher.Flush(ctx)

	res := batcher.Result()
	metrics.FeaturesIngested.Add(float64(res.ProcessedCount))
	metrics.IngestErrors.Add(float64(res.ErrorCount))
	metrics.IngestDuration.Observe(time.Since(start).Seconds())
	log.Printf("ingest finished: %d processed, %d errors in %s",
		res.ProcessedCount, res.ErrorCount, time.Since(start).Round(time.Millisecond))
	return res
}

// fatalResult builds the failure envelope for errors that abort ingestion
// before any write happens.
func fatalResult(kind ErrorKind, err error) Result {
	metrics.IngestErrors.Inc()
	return Result{
		Success:    false,
		ErrorCount: 1,
		Errors:     []IngestError{{Kind: kind, Message: err.Error()}},
		Message:    fmt.Sprintf("ingestion aborted: %v", err),
	}
}

func cleanupFiles(files []shapefile.FileDescriptor) {
	for _, f := range files {
		if f.Path == "" {
			continue
		}
		if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
			log.Printf("cleanup: remove %s: %v", f.Path, err)
		}
	}
}

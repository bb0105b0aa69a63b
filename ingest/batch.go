package ingest

import (
	"context"
	"fmt"
	"log"

	"villagemap/models"
)

// DefaultBatchSize is the batch capacity used when config supplies none.
const DefaultBatchSize = 500

// BulkWriter is the slice of the store the ingestor needs. The write must be
// unordered: individual record failures are reported back without aborting
// sibling inserts.
type BulkWriter interface {
	BulkInsert(ctx context.Context, records []models.VillageRecord) (int, []models.InsertFailure, error)
}

// ProgressFunc receives cumulative progress after each flush: at most one call
// per flush, synchronous.
type ProgressFunc func(processed, errorCount int)

// BatchIngestor accumulates transformed records into fixed-size batches and
// tracks success and error counts across all flushes. Memory is bounded to one
// batch: a flush completes before the next batch starts accumulating.
type BatchIngestor struct {
	store      BulkWriter
	capacity   int
	batch      []models.VillageRecord
	processed  int
	errorCount int
	errors     []IngestError
	onProgress ProgressFunc
}

func NewBatchIngestor(store BulkWriter, capacity int, onProgress ProgressFunc) *BatchIngestor {
	if capacity <= 0 {
		capacity = DefaultBatchSize
	}
	return &BatchIngestor{
		store:      store,
		capacity:   capacity,
		batch:      make([]models.VillageRecord, 0, capacity),
		onProgress: onProgress,
	}
}

// Add appends a record, flushing when the batch reaches capacity.
func (b *BatchIngestor) Add(ctx context.Context, rec models.VillageRecord) {
	b.batch = append(b.batch, rec)
	if len(b.batch) >= b.capacity {
		b.Flush(ctx)
	}
}

// RecordError notes a non-fatal failure without touching the batch. The
// detail list is capped; the count is not.
func (b *BatchIngestor) RecordError(e IngestError) {
	b.errorCount++
	if len(b.errors) < maxReportedErrors {
		b.errors = append(b.errors, e)
	}
}

// Flush writes the pending batch. Per-record rejections (duplicate censusId
// and the like) are recorded and do not abort siblings; a transport failure
// marks the whole batch failed and ingestion continues with the next one.
func (b *BatchIngestor) Flush(ctx context.Context) {
	if len(b.batch) == 0 {
		return
	}
	records := b.batch
	b.batch = make([]models.VillageRecord, 0, b.capacity)

	inserted, failures, err := b.store.BulkInsert(ctx, records)
	if err != nil {
		log.Printf("batch write failed (%d records): %v", len(records), err)
		b.errorCount += len(records)
		if len(b.errors) < maxReportedErrors {
			b.errors = append(b.errors, IngestError{
				Kind:    KindBatchWrite,
				Message: err.Error(),
				Context: fmt.Sprintf("batch of %d records", len(records)),
			})
		}
	} else {
		b.processed += inserted
		for _, f := range failures {
			b.RecordError(IngestError{
				Kind:    KindBatchWrite,
				Message: f.Message,
				Context: fmt.Sprintf("batch record %d", f.Index),
			})
		}
	}
	b.notifyProgress()
}

// notifyProgress calls the observer once for the flush that just completed.
// Observer panics are contained; reporting must never abort ingestion.
func (b *BatchIngestor) notifyProgress() {
	if b.onProgress == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("progress observer panicked: %v", r)
		}
	}()
	b.onProgress(b.processed, b.errorCount)
}

// Result snapshots the accumulated counts into a reportable result.
func (b *BatchIngestor) Result() Result {
	errs := make([]IngestError, len(b.errors))
	copy(errs, b.errors)
	return Result{
		Success:        true,
		ProcessedCount: b.processed,
		ErrorCount:     b.errorCount,
		Errors:         errs,
		Message:        fmt.Sprintf("processed %d features, %d errors", b.processed, b.errorCount),
	}
}

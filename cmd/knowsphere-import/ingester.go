package main

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	knowsphere "github.com/knowsphere/knowsphere/pkg/sdk"
)

// publisher is the slice of the SDK the importer needs.
type publisher interface {
	Publish(ctx context.Context, req knowsphere.PublishRequest) (knowsphere.PublishResult, error)
}

// rowSource streams rows from a position.
type rowSource interface {
	Read(from position, maxRows int, cb rowCallback) error
}

// ingester fans batches of rows out to a pool of publishing workers.
// reader -> chan batch -> N workers -> Publish -> cursor.Commit (in order)
type ingester struct {
	pub       publisher
	workers   int
	batchSize int
	metrics   *importMetrics
	cursor    *cursorTracker
	logger    *zap.Logger
}

type batch struct {
	seq  int
	rows []insightRow
	end  position
}

type ingestResult struct {
	Imported int64
	Failed   int64
	Duration time.Duration
}

// Run imports up to maxRows rows (<= 0 = all) starting at the committed cursor.
func (ing *ingester) Run(ctx context.Context, src rowSource, maxRows int) (ingestResult, error) {
	start := time.Now()
	from := ing.cursor.Begin()

	batches := make(chan batch, ing.workers*2)
	var imported, failed atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < ing.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for b := range batches {
				ing.processBatch(ctx, workerID, b, &imported, &failed)
			}
		}(i)
	}

	readErr := ing.produce(ctx, src, from, maxRows, batches)
	close(batches)
	wg.Wait()

	res := ingestResult{
		Imported: imported.Load(),
		Failed:   failed.Load(),
		Duration: time.Since(start),
	}
	if readErr != nil {
		return res, readErr
	}
	return res, ctx.Err()
}

func (ing *ingester) produce(
	ctx context.Context, src rowSource, from position, maxRows int, out chan<- batch,
) error {
	seq := 0
	cur := make([]insightRow, 0, ing.batchSize)
	var end position

	flush := func() bool {
		if len(cur) == 0 {
			return true
		}
		select {
		case out <- batch{seq: seq, rows: cur, end: end}:
		case <-ctx.Done():
			return false
		}
		seq++
		cur = make([]insightRow, 0, ing.batchSize)
		return true
	}

	err := src.Read(from, maxRows, func(row *insightRow, pos position) bool {
		if ctx.Err() != nil {
			return false
		}
		cur = append(cur, *row)
		end = position{File: pos.File, Row: pos.Row + 1}
		if len(cur) >= ing.batchSize {
			return flush()
		}
		return true
	})
	if err != nil {
		return err
	}
	flush()
	return nil
}

func (ing *ingester) processBatch(
	ctx context.Context, workerID int, b batch, imported, failed *atomic.Int64,
) {
	start := time.Now()
	var ok, bad int

	for i := range b.rows {
		if ctx.Err() != nil {
			// left uncommitted: a resume replays the whole batch
			return
		}
		row := &b.rows[i]
		res, err := ing.pub.Publish(ctx, row.request())
		if err != nil && ctx.Err() != nil {
			return
		}
		if err != nil {
			bad++
			reason := "error"
			if errors.Is(err, knowsphere.ErrInvalidInsight) {
				reason = "invalid"
			}
			ing.metrics.rowsFailed.WithLabelValues(reason).Inc()
			ing.logger.Warn("Row not imported",
				zap.Int("worker", workerID),
				zap.String("source_id", row.SourceID),
				zap.String("reason", reason),
				zap.Error(err),
			)
			continue
		}
		ok++
		ing.metrics.rowsImported.Inc()
		ing.metrics.tagSources.WithLabelValues(string(res.TagSource)).Inc()
	}

	ing.metrics.batchDuration.Observe(time.Since(start).Seconds())
	imported.Add(int64(ok))
	failed.Add(int64(bad))

	committed := ing.cursor.Commit(batchOutcome{seq: b.seq, end: b.end, imported: ok, failed: bad})
	ing.metrics.cursorFile.Set(float64(committed.Next.File))
	ing.metrics.cursorRow.Set(float64(committed.Next.Row))

	ing.logger.Debug("Batch imported",
		zap.Int("worker", workerID),
		zap.Int("seq", b.seq),
		zap.Int("imported", ok),
		zap.Int("failed", bad),
	)
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Cursor is the persisted import progress. Next is the first row not yet
// committed; every row before it has been published or counted as failed.
type Cursor struct {
	Next      position  `json:"next"`
	Imported  int       `json:"imported"`
	Failed    int       `json:"failed"`
	Done      bool      `json:"done"`
	UpdatedAt time.Time `json:"updated_at"`
}

// batchOutcome is the result of one batch, committed in batch order.
type batchOutcome struct {
	seq      int
	end      position // first row after the batch
	imported int
	failed   int
}

// cursorTracker commits batch outcomes strictly in sequence so that a resume
// never skips a batch that was still in flight. Batches that finish early wait
// in pending until every earlier batch has been committed.
type cursorTracker struct {
	mu        sync.Mutex
	cursor    Cursor
	path      string
	saveEvery int
	nextSeq   int
	pending   map[int]batchOutcome
	sinceSave int
	logger    *zap.Logger
}

// newCursorTracker loads dir/cursor.json when present.
func newCursorTracker(dir string, saveEvery int, logger *zap.Logger) (*cursorTracker, error) {
	if saveEvery <= 0 {
		saveEvery = 1
	}
	ct := &cursorTracker{
		path:      filepath.Join(filepath.Clean(dir), "cursor.json"),
		saveEvery: saveEvery,
		pending:   make(map[int]batchOutcome),
		logger:    logger,
	}

	data, err := os.ReadFile(ct.path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &ct.cursor); err != nil {
			return nil, fmt.Errorf("parse cursor %s: %w", ct.path, err)
		}
		logger.Info("Resuming import from cursor",
			zap.Int("file_index", ct.cursor.Next.File),
			zap.Int("row_offset", ct.cursor.Next.Row),
			zap.Int("imported", ct.cursor.Imported),
			zap.Int("failed", ct.cursor.Failed),
		)
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("read cursor %s: %w", ct.path, err)
	}
	return ct, nil
}

// Get returns a copy of the committed cursor.
func (ct *cursorTracker) Get() Cursor {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	return ct.cursor
}

// Begin starts a run: batch numbering restarts at zero and the committed
// position is returned as the read origin.
func (ct *cursorTracker) Begin() position {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	ct.nextSeq = 0
	ct.pending = make(map[int]batchOutcome)
	return ct.cursor.Next
}

// Commit records a finished batch and advances the cursor over every
// contiguous finished batch. Returns the committed cursor.
func (ct *cursorTracker) Commit(out batchOutcome) Cursor {
	ct.mu.Lock()
	ct.pending[out.seq] = out
	advanced := 0
	for {
		next, ok := ct.pending[ct.nextSeq]
		if !ok {
			break
		}
		delete(ct.pending, ct.nextSeq)
		ct.nextSeq++
		if ct.cursor.Next.before(next.end) {
			ct.cursor.Next = next.end
		}
		ct.cursor.Imported += next.imported
		ct.cursor.Failed += next.failed
		advanced += next.imported + next.failed
	}
	if advanced > 0 {
		ct.cursor.UpdatedAt = time.Now().UTC()
		ct.sinceSave += advanced
	}
	save := ct.sinceSave >= ct.saveEvery
	snapshot := ct.cursor
	ct.mu.Unlock()

	if save {
		ct.save()
	}
	return snapshot
}

// Pending reports the number of finished batches waiting on an earlier one.
func (ct *cursorTracker) Pending() int {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	return len(ct.pending)
}

// Finish marks the import complete and saves.
func (ct *cursorTracker) Finish() {
	ct.mu.Lock()
	ct.cursor.Done = true
	ct.cursor.UpdatedAt = time.Now().UTC()
	ct.mu.Unlock()
	ct.save()
}

// Reset discards progress and saves an empty cursor.
func (ct *cursorTracker) Reset() {
	ct.mu.Lock()
	ct.cursor = Cursor{}
	ct.nextSeq = 0
	ct.pending = make(map[int]batchOutcome)
	ct.mu.Unlock()
	ct.save()
}

// save writes the cursor atomically via a temp file and rename.
func (ct *cursorTracker) save() {
	ct.mu.Lock()
	data, err := json.MarshalIndent(ct.cursor, "", "  ")
	ct.sinceSave = 0
	ct.mu.Unlock()
	if err != nil {
		ct.logger.Error("Cursor marshal failed", zap.Error(err))
		return
	}

	tmp := ct.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		ct.logger.Error("Cursor write failed", zap.String("path", tmp), zap.Error(err))
		return
	}
	if err := os.Rename(tmp, ct.path); err != nil {
		ct.logger.Error("Cursor rename failed", zap.String("path", ct.path), zap.Error(err))
	}
}

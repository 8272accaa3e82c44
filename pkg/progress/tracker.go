// Package progress implements the in-memory batch progress tracker (C6,
// spec §4.6): a mutex-guarded map of batch_id -> snapshot, page-weighted
// percentage, and self-expiry of completed/failed batches.
package progress

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Status values a Snapshot can hold, spec §3.5.
const (
	StatusStarting   = "starting"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// retentionWindow is how long a completed/failed snapshot is retained
// before self-expiring, spec §3.5.
const retentionWindow = 300 * time.Second

// DocumentResult is one entry of Snapshot.Results.
type DocumentResult struct {
	DocID   string `json:"doc_id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Snapshot is the volatile progress record for one batch, spec §3.5.
type Snapshot struct {
	Status             string           `json:"status"`
	TotalDocuments      int              `json:"total_documents"`
	ProcessedDocuments  int              `json:"processed_documents"`
	TotalPages          int              `json:"total_pages"`
	ProcessedPages      int              `json:"processed_pages"`
	CurrentDocument     string           `json:"current_document"`
	CurrentStage        string           `json:"current_stage"`
	CurrentOperation    string           `json:"current_operation"`
	ProgressPercentage  int              `json:"progress_percentage"`
	StartedAt           time.Time        `json:"started_at"`
	CompletedAt          *time.Time       `json:"completed_at,omitempty"`
	Results             []DocumentResult `json:"results"`
	Errors              []string         `json:"errors"`
}

// Update is a partial-field patch applied by Tracker.Update.
type Update struct {
	Status             *string
	ProcessedDocuments *int
	TotalDocuments     *int
	TotalPages         *int
	ProcessedPages     *int
	CurrentDocument    *string
	CurrentStage       *string
	CurrentOperation   *string
}

type entry struct {
	snapshot Snapshot
	timer    *time.Timer
}

// Tracker is the process-wide progress map, spec §4.6. All reads and
// writes take a single lock; the tracker never blocks on I/O while holding
// it.
type Tracker struct {
	mu      sync.Mutex
	batches map[string]*entry
	counter int
}

// NewTracker builds an empty Tracker. Callers should construct one
// instance and pass it explicitly into the orchestrator and HTTP layer
// (spec §9 "avoid hidden globals").
func NewTracker() *Tracker {
	return &Tracker{batches: make(map[string]*entry)}
}

// Start registers a new batch and returns its id, formatted
// "batch_<unix_seconds>_<count>" per spec §4.6.
func (t *Tracker) Start(queueIDs []int64) string {
	return t.StartWithID("", queueIDs)
}

// StartWithID registers a new batch under batchID, or generates one the
// same way Start does when batchID is empty. Used by the HTTP layer to
// honor a caller-supplied batch_id (spec §4.9 "use caller-supplied if
// present").
func (t *Tracker) StartWithID(batchID string, queueIDs []int64) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.counter++
	if batchID == "" {
		batchID = fmt.Sprintf("batch_%d_%d", time.Now().Unix(), len(queueIDs))
	}

	t.batches[batchID] = &entry{
		snapshot: Snapshot{
			Status:         StatusStarting,
			TotalDocuments: len(queueIDs),
			StartedAt:      time.Now(),
		},
	}
	return batchID
}

// SetTotalPages records the up-front page total computed from queue rows.
func (t *Tracker) SetTotalPages(batchID string, n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.batches[batchID]; ok {
		e.snapshot.TotalPages = n
	}
}

// Update merges any non-nil fields of u into the batch's snapshot,
// recomputing progress_percentage when processed_documents changes and
// total_documents > 0 (spec §4.6).
func (t *Tracker) Update(batchID string, u Update) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.batches[batchID]
	if !ok {
		return
	}
	s := &e.snapshot

	processedChanged := false
	if u.Status != nil {
		s.Status = *u.Status
	}
	if u.ProcessedDocuments != nil {
		processedChanged = *u.ProcessedDocuments != s.ProcessedDocuments
		s.ProcessedDocuments = *u.ProcessedDocuments
	}
	if u.TotalDocuments != nil {
		s.TotalDocuments = *u.TotalDocuments
	}
	if u.TotalPages != nil {
		s.TotalPages = *u.TotalPages
	}
	if u.ProcessedPages != nil {
		s.ProcessedPages = *u.ProcessedPages
	}
	if u.CurrentDocument != nil {
		s.CurrentDocument = *u.CurrentDocument
	}
	if u.CurrentStage != nil {
		s.CurrentStage = *u.CurrentStage
	}
	if u.CurrentOperation != nil {
		s.CurrentOperation = *u.CurrentOperation
	}

	if processedChanged && s.TotalDocuments > 0 {
		s.ProgressPercentage = clampPercent(int(math.Floor(100 * float64(s.ProcessedDocuments) / float64(s.TotalDocuments))))
	}
}

// IncrementProcessed increments processed_documents by 1 and
// processed_pages by processedPages, recomputing progress_percentage
// page-weighted when total_pages > 0, falling back to document-weighted
// otherwise (spec §4.6).
func (t *Tracker) IncrementProcessed(batchID string, processedPages int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.batches[batchID]
	if !ok {
		return
	}
	s := &e.snapshot

	s.ProcessedDocuments++
	s.ProcessedPages += processedPages

	if s.TotalPages > 0 {
		s.ProgressPercentage = clampPercent(int(math.Floor(100 * float64(s.ProcessedPages) / float64(s.TotalPages))))
	} else if s.TotalDocuments > 0 {
		s.ProgressPercentage = clampPercent(int(math.Floor(100 * float64(s.ProcessedDocuments) / float64(s.TotalDocuments))))
	}
}

func clampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Complete marks the batch completed at 100%, records results, and
// schedules its removal after retentionWindow.
func (t *Tracker) Complete(batchID string, results []DocumentResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.batches[batchID]
	if !ok {
		return
	}
	now := time.Now()
	e.snapshot.Status = StatusCompleted
	e.snapshot.ProgressPercentage = 100
	e.snapshot.Results = results
	e.snapshot.CompletedAt = &now

	t.scheduleExpiry(batchID, e)
}

// Fail marks the batch failed, retaining the snapshot for the same
// cleanup window.
func (t *Tracker) Fail(batchID string, errMsg string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.batches[batchID]
	if !ok {
		return
	}
	now := time.Now()
	e.snapshot.Status = StatusFailed
	e.snapshot.Errors = append(e.snapshot.Errors, errMsg)
	e.snapshot.CompletedAt = &now

	t.scheduleExpiry(batchID, e)
}

func (t *Tracker) scheduleExpiry(batchID string, e *entry) {
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(retentionWindow, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.batches, batchID)
	})
}

// Get returns a deep copy of the batch's snapshot, or nil if unknown. The
// HTTP layer is responsible for substituting a synthetic completed
// snapshot for an unknown id (spec §4.6 "Contract for missing snapshots").
func (t *Tracker) Get(batchID string) *Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.batches[batchID]
	if !ok {
		return nil
	}
	cp := e.snapshot
	cp.Results = append([]DocumentResult(nil), e.snapshot.Results...)
	cp.Errors = append([]string(nil), e.snapshot.Errors...)
	return &cp
}

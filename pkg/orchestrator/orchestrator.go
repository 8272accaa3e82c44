// Package orchestrator implements the bounded-parallel batch orchestrator
// (C7, spec §4.7): it consumes a list of queue ids, fans out one
// unit-of-work goroutine per document behind a weighted semaphore, and
// aggregates results into a single batch outcome on C6.
package orchestrator

import (
	"context"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/nashrakhan-aithon/service1-text-extraction/pkg/extraction"
	"github.com/nashrakhan-aithon/service1-text-extraction/pkg/notifier"
	"github.com/nashrakhan-aithon/service1-text-extraction/pkg/objectstore"
	"github.com/nashrakhan-aithon/service1-text-extraction/pkg/password"
	"github.com/nashrakhan-aithon/service1-text-extraction/pkg/progress"
	"github.com/nashrakhan-aithon/service1-text-extraction/pkg/queue"
)

// Orchestrator wires C2-C6 and C8 into the per-batch pipeline described by
// spec §4.7.
type Orchestrator struct {
	queue    *queue.Store
	store    objectstore.Store
	engine   *extraction.Engine
	resolver *password.Resolver
	tracker  *progress.Tracker
	notifier *notifier.Notifier

	datalakeRoot string
	outputRoot   string
	workerLimit  int64
	httpClient   *http.Client
	logger       *log.Logger
}

// New builds an Orchestrator. datalakeRoot is where source PDFs are
// materialized; outputRoot is only used to compute the logical
// datalake_text_uri value handed to C3 (the actual writes go through
// store, which may point at the same root or an S3 bucket).
func New(
	q *queue.Store,
	store objectstore.Store,
	engine *extraction.Engine,
	resolver *password.Resolver,
	tracker *progress.Tracker,
	notif *notifier.Notifier,
	datalakeRoot, outputRoot string,
	workerLimit int64,
	logger *log.Logger,
) *Orchestrator {
	if workerLimit <= 0 {
		workerLimit = 4
	}
	return &Orchestrator{
		queue:        q,
		store:        store,
		engine:       engine,
		resolver:     resolver,
		tracker:      tracker,
		notifier:     notif,
		datalakeRoot: datalakeRoot,
		outputRoot:   outputRoot,
		workerLimit:  workerLimit,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		logger:       logger,
	}
}

// docOutcome is the per-document result folded into the batch snapshot.
type docOutcome struct {
	result progress.DocumentResult
}

// Run executes one batch: fetch queue rows, fan out bounded-parallel
// per-document pipelines, and drive the tracker to its terminal state
// (spec §4.7 steps a-m). It is meant to be launched in its own goroutine
// by the HTTP layer, which returns to the caller immediately.
func (o *Orchestrator) Run(ctx context.Context, queueIDs []int64, batchID string) {
	rows, err := o.queue.FetchPending(ctx, queueIDs)
	if err != nil {
		o.logger.Error("fetch_pending failed", "batch_id", batchID, "error", err)
		o.tracker.Fail(batchID, "failed to fetch queue rows: "+err.Error())
		return
	}
	if len(rows) == 0 {
		o.tracker.Fail(batchID, "no documents found in queue")
		return
	}

	totalPages := 0
	for _, r := range rows {
		totalPages += r.NumberOfPages
	}
	o.tracker.SetTotalPages(batchID, totalPages)

	processing := progress.StatusProcessing
	op := "starting parallel document processing"
	o.tracker.Update(batchID, progress.Update{Status: &processing, CurrentOperation: &op})

	sem := semaphore.NewWeighted(o.workerLimit)
	var wg sync.WaitGroup
	outcomes := make([]docOutcome, len(rows))

	for i, row := range rows {
		i, row := i, row
		if err := sem.Acquire(ctx, 1); err != nil {
			outcomes[i] = docOutcome{result: progress.DocumentResult{DocID: row.DocID, Success: false, Error: ctx.Err().Error()}}
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			outcomes[i] = docOutcome{result: o.processDocument(ctx, batchID, row)}
		}()
	}
	wg.Wait()

	results := make([]progress.DocumentResult, len(outcomes))
	anySuccess := false
	for i, oc := range outcomes {
		results[i] = oc.result
		if oc.result.Success {
			anySuccess = true
		}
	}

	if anySuccess {
		o.tracker.Complete(batchID, results)
	} else {
		o.tracker.Fail(batchID, "all documents failed to process")
	}
}

// processDocument implements the per-document unit of work, spec §4.7
// steps a-m, with a guaranteed lock release on every exit path, including
// a recovered panic.
func (o *Orchestrator) processDocument(ctx context.Context, batchID string, row queue.Row) (outcome progress.DocumentResult) {
	outcome = progress.DocumentResult{DocID: row.DocID}
	start := time.Now()

	// runID correlates this unit of work's log lines; it is not persisted
	// anywhere and carries no meaning across retries.
	runID := uuid.NewString()
	logger := o.logger.With("run_id", runID, "doc_id", row.DocID, "batch_id", batchID)

	acquired, err := o.queue.TryAcquireLock(ctx, row.DocID)
	if err != nil {
		outcome.Error = "lock acquisition error: " + err.Error()
		return outcome
	}
	if !acquired {
		outcome.Error = "document is currently being processed"
		return outcome
	}

	released := false
	release := func() {
		if released {
			return
		}
		released = true
		if err := o.queue.ReleaseLock(context.Background(), row.DocID); err != nil {
			logger.Error("release_lock failed", "doc_id", row.DocID, "error", err)
		}
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while processing document", "doc_id", row.DocID, "panic", r)
			outcome.Success = false
			outcome.Error = "internal error during processing"
		}
		release()
	}()

	docID := row.DocID
	current := docID
	stage := "downloading_pdf"
	o.tracker.Update(batchID, progress.Update{CurrentDocument: &current, CurrentStage: &stage})

	localPath, err := o.materializeSource(ctx, docID, row.DatalakeRawURI, row.SourceURI)
	if err != nil {
		o.queue.SetStatus(ctx, docID, queue.StatusFailed)
		o.queue.SetError(ctx, docID, "could not access PDF file")
		outcome.Error = "could not access PDF file"
		return outcome
	}
	if err := o.queue.SetURI(ctx, docID, queue.URIFieldDatalakeRaw, localPath); err != nil {
		logger.Error("set_uri datalake_raw_uri failed", "doc_id", docID, "error", err)
	}

	stage = "extracting_text"
	o.tracker.Update(batchID, progress.Update{CurrentStage: &stage})

	dir, basename := filepath.Split(localPath)
	candidates, err := o.resolver.Candidates(dir, basename, row.Password)
	if err != nil {
		o.queue.SetStatus(ctx, docID, queue.StatusFailed)
		o.queue.SetError(ctx, docID, "password resolution error: "+err.Error())
		outcome.Error = "password resolution error"
		return outcome
	}

	result := o.engine.Extract(ctx, localPath, candidates)
	if !result.Success {
		o.queue.SetStatus(ctx, docID, queue.StatusFailed)
		o.queue.SetError(ctx, docID, result.ErrorMessage)
		outcome.Error = result.ErrorMessage
		return outcome
	}

	stage = "persisting_pages"
	o.tracker.Update(batchID, progress.Update{CurrentStage: &stage})

	if _, err := extraction.Persist(ctx, o.store, docID, result.Pages); err != nil {
		o.queue.SetStatus(ctx, docID, queue.StatusFailed)
		o.queue.SetError(ctx, docID, "failed to persist extracted pages: "+err.Error())
		outcome.Error = "failed to persist extracted pages"
		return outcome
	}

	textURI := extraction.TextURI(o.outputRoot, docID)
	if err := o.queue.SetURI(ctx, docID, queue.URIFieldDatalakeText, textURI); err != nil {
		logger.Error("set_uri datalake_text_uri failed", "doc_id", docID, "error", err)
	}
	if err := o.queue.SetStatus(ctx, docID, queue.StatusSuccess); err != nil {
		logger.Error("set_status success failed", "doc_id", docID, "error", err)
	}

	duration := int(time.Since(start).Seconds())
	if err := o.queue.SetDuration(ctx, docID, duration); err != nil {
		logger.Error("set_duration failed", "doc_id", docID, "error", err)
	}
	if err := o.queue.TouchLastProcessed(ctx, docID); err != nil {
		logger.Error("touch_last_processed failed", "doc_id", docID, "error", err)
	}

	if result.PasswordUsed != nil {
		if err := o.resolver.SaveSuccessful(dir, basename, result.PasswordUsed); err != nil {
			logger.Warn("save_successful password failed", "doc_id", docID, "error", err)
		}
	}

	o.tracker.IncrementProcessed(batchID, result.TotalPages)

	// Fire-and-forget: a downstream notify failure is informational only
	// and must never flip this outcome to a failure (spec §4.8).
	if err := o.notifier.Notify(ctx, row.ExtractionID, docID); err != nil {
		logger.Warn("downstream notify failed", "doc_id", docID, "error", err)
	}

	outcome.Success = true
	return outcome
}

package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/finaudit/backend/internal/domain/audit"
	"github.com/finaudit/backend/internal/domain/shared"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// DocumentIngestedHandler runs the extraction pipeline for every ingested
// document. Concurrency is bounded by a weighted semaphore so a burst of
// submissions cannot exhaust the extraction engine; each run carries its own
// timeout.
type DocumentIngestedHandler struct {
	verification *VerificationService
	logger       *zap.Logger
	sem          *semaphore.Weighted
	timeout      time.Duration
	wg           sync.WaitGroup
}

// NewDocumentIngestedHandler creates a new handler for document ingested events
func NewDocumentIngestedHandler(verification *VerificationService, logger *zap.Logger, maxWorkers int64, timeout time.Duration) *DocumentIngestedHandler {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &DocumentIngestedHandler{
		verification: verification,
		logger:       logger,
		sem:          semaphore.NewWeighted(maxWorkers),
		timeout:      timeout,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *DocumentIngestedHandler) EventTypes() []string {
	return []string{audit.EventDocumentIngested}
}

// Handle processes a DocumentIngestedEvent by extracting and verifying the
// document in the background
func (h *DocumentIngestedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	ingested, ok := event.(*audit.DocumentIngestedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			audit.EventDocumentIngested, event.EventType())
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquire extraction slot: %w", err)
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer h.sem.Release(1)

		// Detach from the publishing request's lifetime; the extraction
		// outlives the HTTP call that triggered it.
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.timeout)
		defer cancel()

		if err := h.verification.ProcessDocument(runCtx, ingested.AggregateID(), ingested.DocumentID); err != nil {
			h.logger.Error("document processing failed",
				zap.String("case_id", ingested.AggregateID().String()),
				zap.String("document_id", ingested.DocumentID.String()),
				zap.Error(err))
		}
	}()

	return nil
}

// Wait blocks until all in-flight extractions have finished. Used during
// shutdown and in tests.
func (h *DocumentIngestedHandler) Wait() {
	h.wg.Wait()
}

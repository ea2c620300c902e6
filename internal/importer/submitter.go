package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/vitrine/dmconsole/internal/dbapi"
	"github.com/vitrine/dmconsole/internal/domain"
	"github.com/vitrine/dmconsole/internal/pkg/logger"
)

// ProgressFunc receives one snapshot after each submitted chunk.
type ProgressFunc func(domain.Progress)

// remoteStore is the slice of the database API client the submitter
// needs.
type remoteStore interface {
	BulkCreate(ctx context.Context, kind domain.EntityKind, chunk []domain.Candidate) (*dbapi.BulkResult, error)
	InvalidateList(ctx context.Context, kind domain.EntityKind)
}

// Submitter pushes a plan's accepted candidates to the remote bulk
// endpoint in fixed-size chunks, strictly sequentially. A failed chunk
// is logged and excluded from the totals; the remaining chunks are
// still submitted and already-created chunks are never rolled back.
type Submitter struct {
	store     remoteStore
	chunkSize int
	delay     time.Duration
}

// NewSubmitter creates a Submitter. chunkSize <= 0 defaults to 25.
func NewSubmitter(store remoteStore, chunkSize int, delay time.Duration) *Submitter {
	if chunkSize <= 0 {
		chunkSize = 25
	}
	return &Submitter{store: store, chunkSize: chunkSize, delay: delay}
}

// Submit runs the plan to completion and returns the batch outcome.
// With an empty accepted list it makes no remote call and still carries
// the skipped count computed during planning. After the final chunk the
// kind's read cache is invalidated so the next list view reflects the
// new records.
func (s *Submitter) Submit(ctx context.Context, plan *Plan, jobID string, onProgress ProgressFunc) *domain.BatchOutcome {
	outcome := &domain.BatchOutcome{
		JobID:     jobID,
		Kind:      plan.Kind,
		TotalRows: plan.TotalRows,
		Accepted:  len(plan.Accepted),
		Skipped:   plan.Skipped,
		Truncated: plan.Truncated,
		StartedAt: time.Now().UTC(),
	}

	if len(plan.Accepted) == 0 {
		outcome.CompletedAt = time.Now().UTC()
		return outcome
	}

	processed := 0
	for start := 0; start < len(plan.Accepted); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(plan.Accepted) {
			end = len(plan.Accepted)
		}
		chunk := plan.Accepted[start:end]
		chunkIdx := start / s.chunkSize

		result, err := s.store.BulkCreate(ctx, plan.Kind, chunk)
		if err != nil {
			logger.Warn("import: chunk failed, continuing",
				"kind", plan.Kind, "job_id", jobID, "chunk", chunkIdx,
				"size", len(chunk), "error", err)
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("chunk %d: %v", chunkIdx, err))
		} else {
			outcome.Created += result.Created
			outcome.Skipped += result.Skipped
		}

		processed += len(chunk)
		if onProgress != nil {
			onProgress(domain.Progress{
				JobID:     jobID,
				Processed: processed,
				Total:     len(plan.Accepted),
				Created:   outcome.Created,
				Skipped:   outcome.Skipped,
				UpdatedAt: time.Now().UTC(),
			})
		}

		// Yield between chunks so the remote endpoint is not saturated.
		if end < len(plan.Accepted) && s.delay > 0 {
			time.Sleep(s.delay)
		}
	}

	s.store.InvalidateList(ctx, plan.Kind)
	outcome.CompletedAt = time.Now().UTC()
	return outcome
}

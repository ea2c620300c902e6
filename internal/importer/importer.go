// Package importer implements the bulk reconciliation pipeline: it
// ingests a delimited text file, normalizes heterogeneous row formats,
// deduplicates against both the remote store and the in-flight batch,
// and submits the result in size-bounded chunks, tolerating partial
// failure.
//
// The dedup index is seeded exactly once per batch, before the first
// row is planned. A record created by a different actor while the batch
// runs is therefore not detected; re-seeding mid-batch would break the
// first-seen ordering guarantee, so the rare duplicate is accepted.
package importer

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vitrine/dmconsole/internal/config"
	"github.com/vitrine/dmconsole/internal/dbapi"
	"github.com/vitrine/dmconsole/internal/domain"
	"github.com/vitrine/dmconsole/internal/pkg/logger"
)

// Remote is the slice of the database API client the pipeline uses.
type Remote interface {
	List(ctx context.Context, kind domain.EntityKind, bypassCache bool) ([]map[string]any, error)
	BulkCreate(ctx context.Context, kind domain.EntityKind, chunk []domain.Candidate) (*dbapi.BulkResult, error)
	InvalidateList(ctx context.Context, kind domain.EntityKind)
}

// Service is the single entry point the presentation layer calls to run
// an import batch.
type Service struct {
	store      Remote
	submitter  *Submitter
	maxRecords int
}

// NewService creates the import service from the pipeline configuration.
func NewService(store Remote, cfg config.ImportConfig) *Service {
	return &Service{
		store:      store,
		submitter:  NewSubmitter(store, cfg.ChunkSize, cfg.ChunkDelay()),
		maxRecords: cfg.MaxBatchRecords,
	}
}

// ImportBatch runs one full import: seed the dedup index from a fresh
// (cache-bypassing) remote read, plan the file, then submit in chunks.
// File-format errors (empty file, missing required columns) abort
// before any submission; row-level problems are counted as skipped.
// There is no mid-batch cancel: once submission starts it runs through
// every chunk, detached from the caller's context.
func (s *Service) ImportBatch(ctx context.Context, fileText string, kind domain.EntityKind, onProgress ProgressFunc) (*domain.BatchOutcome, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	// A batch must survive its caller: a dropped HTTP request or a
	// handler deadline would otherwise cancel every remaining chunk.
	ctx = context.WithoutCancel(ctx)

	existing, err := s.store.List(ctx, kind, true)
	if err != nil {
		return nil, fmt.Errorf("seeding dedup index: %w", err)
	}

	index := NewIndex()
	index.Seed(kind, existing)

	plan, err := BuildPlan(fileText, kind, index, s.maxRecords)
	if err != nil {
		return nil, err
	}

	jobID := uuid.NewString()
	logger.Info("import: batch planned",
		"kind", kind, "job_id", jobID, "rows", plan.TotalRows,
		"accepted", len(plan.Accepted), "skipped", plan.Skipped,
		"truncated", plan.Truncated, "existing", index.Len()-len(plan.Accepted))

	outcome := s.submitter.Submit(ctx, plan, jobID, onProgress)

	logger.Info("import: batch finished",
		"kind", kind, "job_id", jobID, "created", outcome.Created,
		"skipped", outcome.Skipped, "chunk_errors", len(outcome.Errors))
	return outcome, nil
}

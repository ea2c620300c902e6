package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitrine/dmconsole/internal/config"
	"github.com/vitrine/dmconsole/internal/dbapi"
	"github.com/vitrine/dmconsole/internal/domain"
)

func newTestService(store *fakeStore) *Service {
	return NewService(store, config.ImportConfig{ChunkSize: 4, MaxBatchRecords: 100})
}

func TestImportBatchEndToEnd(t *testing.T) {
	store := &fakeStore{
		listRecords: []map[string]any{{"instagram_username": "existing"}},
	}
	svc := newTestService(store)

	file := "instagram,name\n" +
		"existing,Already There\n" +
		"alice,Alice\n" +
		"bob,Bob\n"

	outcome, err := svc.ImportBatch(context.Background(), file, domain.KindAccounts, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, outcome.TotalRows)
	assert.Equal(t, 2, outcome.Accepted)
	assert.Equal(t, 2, outcome.Created)
	assert.Equal(t, 1, outcome.Skipped)
	assert.NotEmpty(t, outcome.JobID)

	require.Len(t, store.calls, 1)
	assert.Equal(t, "alice", store.calls[0][0].Key)
}

// cancelingStore cancels the caller's context during the first bulk
// call and honors cancellation on every call, like a real HTTP client
// would.
type cancelingStore struct {
	fakeStore
	cancel context.CancelFunc
}

func (c *cancelingStore) BulkCreate(ctx context.Context, kind domain.EntityKind, chunk []domain.Candidate) (*dbapi.BulkResult, error) {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.fakeStore.BulkCreate(ctx, kind, chunk)
}

func TestImportBatchRunsToCompletionAfterCallerCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := &cancelingStore{cancel: cancel}
	svc := NewService(&store.fakeStore, config.ImportConfig{MaxBatchRecords: 100})
	svc.submitter = NewSubmitter(store, 1, 0)

	file := "instagram,name\nalice,A\nbob,B\ncarol,C\n"
	outcome, err := svc.ImportBatch(ctx, file, domain.KindAccounts, nil)
	require.NoError(t, err)

	require.Len(t, store.calls, 3)
	assert.Equal(t, 3, outcome.Created)
	assert.Empty(t, outcome.Errors)
	assert.Error(t, ctx.Err(), "the caller's context was canceled mid-batch")
}

func TestImportBatchUnknownKind(t *testing.T) {
	svc := newTestService(&fakeStore{})

	_, err := svc.ImportBatch(context.Background(), "a,b\n", domain.EntityKind("nope"), nil)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestImportBatchSeedFailureAborts(t *testing.T) {
	store := &fakeStore{listErr: errors.New("store down")}
	svc := newTestService(store)

	_, err := svc.ImportBatch(context.Background(), "instagram,name\nalice,Alice\n", domain.KindAccounts, nil)
	require.Error(t, err)
	assert.Empty(t, store.calls)
}

func TestImportBatchFormatErrorBeforeSubmission(t *testing.T) {
	store := &fakeStore{}
	svc := newTestService(store)

	_, err := svc.ImportBatch(context.Background(), "foo,bar\nx,y\n", domain.KindAccounts, nil)

	var missing *MissingColumnsError
	require.ErrorAs(t, err, &missing)
	assert.Empty(t, store.calls)
}

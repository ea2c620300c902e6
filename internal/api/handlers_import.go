package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/vitrine/dmconsole/internal/domain"
	"github.com/vitrine/dmconsole/internal/importer"
	"github.com/vitrine/dmconsole/internal/pkg/httputil"
	"github.com/vitrine/dmconsole/internal/pkg/logger"
)

// maxUploadBytes bounds the request body; the batch cap bounds rows, this
// bounds memory before parsing even starts.
const maxUploadBytes = 32 << 20

// progressStore persists per-chunk progress snapshots so a polling
// client can follow a running import by job ID.
type progressStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func newProgressStore(rdb *redis.Client) *progressStore {
	return &progressStore{rdb: rdb, ttl: time.Hour}
}

func progressKey(jobID string) string {
	return "dmconsole:import:progress:" + jobID
}

func (p *progressStore) save(ctx context.Context, prog domain.Progress) {
	data, err := json.Marshal(prog)
	if err != nil {
		return
	}
	if err := p.rdb.Set(ctx, progressKey(prog.JobID), data, p.ttl).Err(); err != nil {
		logger.Debug("import: progress save failed", "job_id", prog.JobID, "error", err)
	}
}

func (p *progressStore) load(ctx context.Context, jobID string) (*domain.Progress, bool) {
	data, err := p.rdb.Get(ctx, progressKey(jobID)).Bytes()
	if err != nil {
		return nil, false
	}
	var prog domain.Progress
	if err := json.Unmarshal(data, &prog); err != nil {
		return nil, false
	}
	return &prog, true
}

// handleImport runs one import batch synchronously and returns the
// outcome. The file arrives either as a multipart "file" part or as the
// raw request body.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	kind := domain.EntityKind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		httputil.BadRequest(w, "unknown entity kind: "+string(kind))
		return
	}

	fileText, err := readUpload(w, r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	// One import per kind at a time. Without the lock two operators
	// would each seed a dedup index that misses the other's batch.
	lock := newKindLock(s.rdb, kind)
	held, err := lock.acquire(r.Context())
	if err != nil {
		logger.Warn("import: lock unavailable, proceeding unguarded", "kind", kind, "error", err)
	} else if !held {
		httputil.Error(w, http.StatusConflict, "an import for "+string(kind)+" is already running")
		return
	} else {
		defer func() {
			if err := lock.release(context.Background()); err != nil {
				logger.Debug("import: lock release failed", "kind", kind, "error", err)
			}
		}()
	}

	// The batch keeps running if the client goes away; progress
	// snapshots must stay writable for the same span.
	batchCtx := context.WithoutCancel(r.Context())
	outcome, err := s.imports.ImportBatch(batchCtx, fileText, kind, func(prog domain.Progress) {
		s.progress.save(batchCtx, prog)
	})
	if err != nil {
		writeImportError(w, err)
		return
	}

	httputil.OK(w, outcome)
}

// handleImportProgress returns the latest persisted snapshot for a job.
func (s *Server) handleImportProgress(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	prog, ok := s.progress.load(r.Context(), jobID)
	if !ok {
		httputil.Error(w, http.StatusNotFound, "no progress for job "+jobID)
		return
	}
	httputil.OK(w, prog)
}

// readUpload extracts the delimited file text from the request.
func readUpload(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			return "", errors.New("multipart upload missing \"file\" part")
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// writeImportError maps pipeline failures to status codes: file-format
// problems are the caller's fault, anything else means the store was
// unreachable.
func writeImportError(w http.ResponseWriter, err error) {
	var missing *importer.MissingColumnsError
	switch {
	case errors.Is(err, importer.ErrEmptyFile),
		errors.Is(err, importer.ErrUnknownKind),
		errors.As(err, &missing):
		httputil.BadRequest(w, err.Error())
	default:
		httputil.BadGateway(w, err.Error())
	}
}

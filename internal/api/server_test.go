package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/vitrine/dmconsole/internal/autoctl"
	"github.com/vitrine/dmconsole/internal/cache"
	"github.com/vitrine/dmconsole/internal/config"
	"github.com/vitrine/dmconsole/internal/dbapi"
	"github.com/vitrine/dmconsole/internal/importer"
	"github.com/vitrine/dmconsole/internal/telemetry"
)

// fakeBackend is a scripted database API plus automation control
// endpoint used by the handler tests.
type fakeBackend struct {
	mu       sync.Mutex
	lists    map[string][]map[string]any
	bulkErr  bool
	bulkHits int
	loopOn   bool
	requests []string
}

func (f *fakeBackend) bulkCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bulkHits
}

func (f *fakeBackend) loopRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loopOn
}

func (f *fakeBackend) sawRequest(line string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r == line {
			return true
		}
	}
	return false
}

func (f *fakeBackend) failBulk() {
	f.mu.Lock()
	f.bulkErr = true
	f.mu.Unlock()
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		f.mu.Unlock()

		path := strings.Trim(r.URL.Path, "/")
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(path, "/bulk"):
			f.mu.Lock()
			f.bulkHits++
			fail := f.bulkErr
			f.mu.Unlock()
			if fail {
				http.Error(w, `{"detail":"boom"}`, http.StatusUnprocessableEntity)
				return
			}
			var chunk []map[string]any
			json.NewDecoder(r.Body).Decode(&chunk)
			json.NewEncoder(w).Encode(map[string]any{"created": len(chunk)})
		case r.Method == http.MethodGet && f.lists[path] != nil:
			json.NewEncoder(w).Encode(f.lists[path])
		case r.Method == http.MethodPost && path == "start":
			f.mu.Lock()
			f.loopOn = true
			f.mu.Unlock()
			w.Write([]byte(`{}`))
		case r.Method == http.MethodPost && path == "stop":
			f.mu.Lock()
			f.loopOn = false
			f.mu.Unlock()
			w.Write([]byte(`{}`))
		case r.Method == http.MethodGet && path == "":
			f.mu.Lock()
			on := f.loopOn
			f.mu.Unlock()
			json.NewEncoder(w).Encode(map[string]any{"loop_running": on})
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			json.NewEncoder(w).Encode([]map[string]any{})
		}
	})
	return mux
}

type testEnv struct {
	api      *httptest.Server
	upstream *httptest.Server
	backend  *fakeBackend
	state    *telemetry.State
	server   *Server
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	backend := &fakeBackend{lists: map[string][]map[string]any{
		"accounts":  {{"instagram_username": "existing", "id": float64(1)}},
		"senders":   {},
		"templates": {},
	}}
	upstream := httptest.NewServer(backend.handler())
	t.Cleanup(upstream.Close)

	store := dbapi.NewClient(config.DatabaseAPIConfig{BaseURL: upstream.URL, TimeoutSeconds: 5}, cache.New(rdb))
	auto := autoctl.NewClient(config.AutomationConfig{BaseURL: upstream.URL, TimeoutSeconds: 5})
	imports := importer.NewService(store, config.ImportConfig{ChunkSize: 2, MaxBatchRecords: 100})
	state := telemetry.NewState()

	server := NewServer(store, auto, imports, state, rdb)
	apiSrv := httptest.NewServer(server.Router())
	t.Cleanup(apiSrv.Close)

	return &testEnv{api: apiSrv, upstream: upstream, backend: backend, state: state, server: server}
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

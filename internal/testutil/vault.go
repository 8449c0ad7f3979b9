package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

const kvDataPrefix = "/v1/secret/data/"

// FakeVault is an in-memory KV v2 secret engine mounted at "secret".
type FakeVault struct {
	Server *httptest.Server

	mu        sync.Mutex
	secrets   map[string]map[string]any
	versions  map[string]int
	lastToken string
	failReads bool
}

// NewFakeVault starts a KV v2 stand-in and registers its shutdown with t.
func NewFakeVault(t testing.TB) *FakeVault {
	t.Helper()

	f := &FakeVault{
		secrets:  make(map[string]map[string]any),
		versions: make(map[string]int),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.Server.Close)
	return f
}

// Set seeds a secret at path.
func (f *FakeVault) Set(path string, data map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.secrets[path] = data
	f.versions[path]++
}

// Get returns the stored secret at path.
func (f *FakeVault) Get(path string) (map[string]any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.secrets[path]
	return data, ok
}

// LastToken returns the X-Vault-Token header of the most recent request.
func (f *FakeVault) LastToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastToken
}

// FailReads makes every read return HTTP 500, simulating a transport-level
// failure distinct from "path absent".
func (f *FakeVault) FailReads(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failReads = fail
}

func (f *FakeVault) handle(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, kvDataPrefix) {
		http.NotFound(w, r)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, kvDataPrefix)

	f.mu.Lock()
	f.lastToken = r.Header.Get("X-Vault-Token")
	failReads := f.failReads
	f.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		if failReads {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"errors":["internal error"]}`))
			return
		}
		f.mu.Lock()
		data, ok := f.secrets[path]
		version := f.versions[path]
		f.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"data": data,
				"metadata": map[string]any{
					"created_time":  "2024-01-01T00:00:00Z",
					"deletion_time": "",
					"destroyed":     false,
					"version":       version,
				},
			},
		})
	case http.MethodPut, http.MethodPost:
		var body struct {
			Data map[string]any `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"errors":["invalid request body"]}`))
			return
		}
		f.mu.Lock()
		f.secrets[path] = body.Data
		f.versions[path]++
		version := f.versions[path]
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": map[string]any{
				"created_time":  "2024-01-01T00:00:00Z",
				"deletion_time": "",
				"destroyed":     false,
				"version":       version,
			},
		})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

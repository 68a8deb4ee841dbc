package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/runorder/pkg/cache"
	"github.com/matzehuels/runorder/pkg/pipeline"
)

func writeDecl(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestServer(t *testing.T, root string) *httptest.Server {
	t.Helper()
	logger := log.New(io.Discard)
	runner := pipeline.NewRunner(cache.NewMemoryCache(0), nil, logger)
	srv := New(runner, pipeline.Options{Roots: []string{root}}, logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func seedTree(t *testing.T) string {
	root := t.TempDir()
	writeDecl(t, root, "users/seeders/UserSeeder.toml", "namespace = \"users\"\npriority = 10\nversion = \"1.0.0\"\n")
	writeDecl(t, root, "billing/seeders/InvoiceSeeder.toml", `namespace = "billing"
priority = 5
after = ["users.UserSeeder"]

[[requires]]
id = "users.UserSeeder"
constraint = ">=1.0.0"
`)
	writeDecl(t, root, "seeders/CoreSeeder.toml", "namespace = \"core\"\npriority = 1\n")
	return root
}

func getJSON(t *testing.T, method, url string, v any) int {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func TestHealthAndVersion(t *testing.T) {
	ts := newTestServer(t, t.TempDir())

	var health map[string]string
	assert.Equal(t, http.StatusOK, getJSON(t, http.MethodGet, ts.URL+"/healthz", &health))
	assert.Equal(t, "ok", health["status"])

	var version map[string]string
	assert.Equal(t, http.StatusOK, getJSON(t, http.MethodGet, ts.URL+"/version", &version))
	assert.NotEmpty(t, version["version"])
}

func TestOrder(t *testing.T) {
	ts := newTestServer(t, seedTree(t))

	var body orderResponse
	require.Equal(t, http.StatusOK, getJSON(t, http.MethodGet, ts.URL+"/order", &body))
	assert.Equal(t, []string{"core.CoreSeeder", "users.UserSeeder", "billing.InvoiceSeeder"}, body.Order)
	assert.Equal(t, 3, body.Total)
	assert.False(t, body.CacheHit)

	var filtered orderResponse
	require.Equal(t, http.StatusOK, getJSON(t, http.MethodGet, ts.URL+"/order?only=Seeder&exclude=core", &filtered))
	assert.Equal(t, []string{"users.UserSeeder", "billing.InvoiceSeeder"}, filtered.Order)
	assert.True(t, filtered.CacheHit)
	assert.Equal(t, body.Signature, filtered.Signature)
}

func TestOrderRejectsEmptyPattern(t *testing.T) {
	ts := newTestServer(t, seedTree(t))

	var body errorResponse
	assert.Equal(t, http.StatusBadRequest, getJSON(t, http.MethodGet, ts.URL+"/order?only=", &body))
	assert.NotEmpty(t, body.Error)
}

func TestOrderCycle(t *testing.T) {
	root := t.TempDir()
	writeDecl(t, root, "m/seeders/ASeeder.toml", "namespace = \"m\"\nafter = [\"m.BSeeder\"]\n")
	writeDecl(t, root, "m/seeders/BSeeder.toml", "namespace = \"m\"\nafter = [\"m.ASeeder\"]\n")
	ts := newTestServer(t, root)

	var body errorResponse
	require.Equal(t, http.StatusConflict, getJSON(t, http.MethodGet, ts.URL+"/order", &body))
	assert.Equal(t, []string{"m.ASeeder", "m.BSeeder", "m.ASeeder"}, body.Cycle)
	assert.Equal(t, "CYCLE_DETECTED", string(body.Code))
}

func TestDeclarationsAndValidate(t *testing.T) {
	ts := newTestServer(t, seedTree(t))

	var decls struct {
		Declarations []struct {
			ID       string `json:"id"`
			Priority int    `json:"priority"`
		} `json:"declarations"`
	}
	require.Equal(t, http.StatusOK, getJSON(t, http.MethodGet, ts.URL+"/declarations", &decls))
	require.Len(t, decls.Declarations, 3)
	assert.Equal(t, "billing.InvoiceSeeder", decls.Declarations[0].ID)

	var report struct {
		Issues []map[string]any `json:"issues"`
	}
	assert.Equal(t, http.StatusOK, getJSON(t, http.MethodGet, ts.URL+"/validate", &report))
	assert.Empty(t, report.Issues)
}

func TestValidateErrors(t *testing.T) {
	root := t.TempDir()
	writeDecl(t, root, "app/seeders/AppSeeder.toml", "namespace = \"app\"\n\n[[requires]]\nid = \"db.Missing\"\n")
	ts := newTestServer(t, root)

	var report struct {
		Issues []struct {
			Kind string `json:"kind"`
		} `json:"issues"`
	}
	assert.Equal(t, http.StatusUnprocessableEntity, getJSON(t, http.MethodGet, ts.URL+"/validate", &report))
	require.Len(t, report.Issues, 1)
	assert.Equal(t, "missing-required", report.Issues[0].Kind)
}

func TestInvalidate(t *testing.T) {
	ts := newTestServer(t, seedTree(t))

	var first orderResponse
	require.Equal(t, http.StatusOK, getJSON(t, http.MethodGet, ts.URL+"/order", &first))

	var inv map[string]string
	require.Equal(t, http.StatusOK, getJSON(t, http.MethodPost, ts.URL+"/invalidate", &inv))
	assert.Equal(t, first.Signature, inv["invalidated"])

	var again orderResponse
	require.Equal(t, http.StatusOK, getJSON(t, http.MethodGet, ts.URL+"/order", &again))
	assert.False(t, again.CacheHit)

	assert.Equal(t, http.StatusMethodNotAllowed, getJSON(t, http.MethodGet, ts.URL+"/invalidate", nil))
}

func TestConcurrentOrders(t *testing.T) {
	ts := newTestServer(t, seedTree(t))

	var wg sync.WaitGroup
	results := make([][]string, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.Get(ts.URL + "/order")
			if err != nil {
				return
			}
			defer resp.Body.Close()
			var body orderResponse
			if json.NewDecoder(resp.Body).Decode(&body) == nil {
				results[i] = body.Order
			}
		}()
	}
	wg.Wait()

	for i, order := range results {
		assert.Equal(t, []string{"core.CoreSeeder", "users.UserSeeder", "billing.InvoiceSeeder"}, order, "request %d", i)
	}
}

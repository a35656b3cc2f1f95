package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkviewer/mkviewer/internal/cache"
	"github.com/mkviewer/mkviewer/internal/catalog"
	"github.com/mkviewer/mkviewer/internal/index"
	"github.com/mkviewer/mkviewer/internal/render"
	"github.com/mkviewer/mkviewer/internal/service"
	"github.com/mkviewer/mkviewer/internal/store"
)

func newTestServer(t *testing.T) (*store.MemStore, *httptest.Server) {
	t.Helper()
	st := store.NewMemStore()
	idx, err := index.NewBleveIndex("", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	reg := render.NewRegistry(render.Config{})
	cat := catalog.New(catalog.NewScanner(st, "kb/"), "kb/")
	svc := service.New(st, reg, cat, cache.New(16), idx, service.Options{})

	srv := New(Config{Host: "127.0.0.1", Port: 0}, svc)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return st, ts
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil {
		require.NoError(t, json.Unmarshal(body, out), string(body))
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if out != nil {
		require.NoError(t, json.Unmarshal(body, out), string(body))
	}
	return resp.StatusCode
}

func TestTreeEndpoint(t *testing.T) {
	st, ts := newTestServer(t)
	st.Put("kb/guides/setup.md", []byte("# Setup"))

	var tree catalog.TreeNode
	status := getJSON(t, ts.URL+"/api/tree", &tree)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, tree.Dirs, 1)
	assert.Equal(t, "guides", tree.Dirs[0].Name)
}

func TestRefreshEndpoint(t *testing.T) {
	st, ts := newTestServer(t)

	var tree catalog.TreeNode
	status := getJSON(t, ts.URL+"/api/tree", &tree)
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, tree.Files)

	st.Put("kb/new.md", []byte("# New\n\nquarterly report results"))
	var refreshed struct {
		Tree catalog.TreeNode `json:"tree"`
		Sync map[string]any   `json:"sync"`
	}
	status = postJSON(t, ts.URL+"/api/refresh", &refreshed)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, refreshed.Tree.Files, 1)
	assert.Equal(t, float64(1), refreshed.Sync["added"])

	// The refreshed document is searchable without a separate sync call.
	var body struct {
		Results []map[string]any `json:"results"`
	}
	status = getJSON(t, ts.URL+"/api/search?q=report&mode=content", &body)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, body.Results, 1)
	assert.Equal(t, "kb/new.md", body.Results[0]["key"])
}

func TestDocEndpoint(t *testing.T) {
	st, ts := newTestServer(t)
	st.Put("kb/doc.md", []byte("# Title\n\nbody"))

	var view service.DocumentView
	status := getJSON(t, ts.URL+"/api/doc?key=kb%2Fdoc.md", &view)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "doc.md", view.Title)
	assert.Contains(t, view.HTML, "Title")
}

func TestDocEndpointMissingKey(t *testing.T) {
	_, ts := newTestServer(t)

	var body map[string]map[string]string
	status := getJSON(t, ts.URL+"/api/doc", &body)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "ERR_401_INVALID_INPUT", body["error"]["code"])
}

func TestDocEndpointUnknownKey(t *testing.T) {
	_, ts := newTestServer(t)

	var body map[string]map[string]string
	status := getJSON(t, ts.URL+"/api/doc?key=kb%2Fnope.md", &body)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "kb/nope.md", body["error"]["key"])
}

func TestSearchEndpoint(t *testing.T) {
	st, ts := newTestServer(t)
	st.Put("kb/db.md", []byte("# Databases\n\nreplication notes"))

	status := postJSON(t, ts.URL+"/api/sync", nil)
	require.Equal(t, http.StatusOK, status)

	var body struct {
		Results []map[string]any `json:"results"`
	}
	status = getJSON(t, ts.URL+"/api/search?q=replication", &body)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, body.Results, 1)
	assert.Equal(t, "kb/db.md", body.Results[0]["key"])

	// Empty query returns an empty list, not null.
	status = getJSON(t, ts.URL+"/api/search?q=", &body)
	assert.Equal(t, http.StatusOK, status)
	assert.NotNil(t, body.Results)
	assert.Empty(t, body.Results)
}

func TestSearchEndpointBadMode(t *testing.T) {
	_, ts := newTestServer(t)

	status := getJSON(t, ts.URL+"/api/search?q=x&mode=psychic", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestSyncEndpoint(t *testing.T) {
	st, ts := newTestServer(t)
	st.Put("kb/a.md", []byte("alpha body"))

	var report map[string]any
	status := postJSON(t, ts.URL+"/api/sync", &report)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), report["added"])

	status = postJSON(t, ts.URL+"/api/sync?force=1", &report)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), report["updated"])
}

func TestCacheClearEndpoint(t *testing.T) {
	st, ts := newTestServer(t)
	st.Put("kb/doc.md", []byte("# Doc"))

	getJSON(t, ts.URL+"/api/doc?key=kb%2Fdoc.md", nil)

	var body map[string]int
	status := postJSON(t, ts.URL+"/api/cache/clear", &body)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, body["cleared"])
}

func TestStatusEndpoint(t *testing.T) {
	st, ts := newTestServer(t)
	st.Put("kb/doc.md", []byte("some body"))

	postJSON(t, ts.URL+"/api/sync", nil)

	var status service.Status
	code := getJSON(t, ts.URL+"/api/status", &status)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, status.Documents)
	assert.Equal(t, uint64(1), status.Indexed)
	assert.Equal(t, "ready", status.Sync.Status)
}

func TestMethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/sync")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

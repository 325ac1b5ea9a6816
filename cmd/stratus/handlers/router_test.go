package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/stratus/internal/provisioning"
)

func TestStatusFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		want int
	}{
		{&provisioning.ValidationError{Field: "f"}, http.StatusBadRequest},
		{&provisioning.NotFoundError{Resource: "mirror"}, http.StatusNotFound},
		{&provisioning.PathTraversalError{Path: ".."}, http.StatusForbidden},
		{&provisioning.ConflictError{Name: "n"}, http.StatusConflict},
		{&provisioning.NotEmptyError{Bucket: "b"}, http.StatusConflict},
		{&provisioning.TransientError{Operation: "op"}, http.StatusServiceUnavailable},
		{&provisioning.ProvisionTimeoutError{InstanceID: "i"}, http.StatusGatewayTimeout},
		{&provisioning.CloneError{URL: "u"}, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), "%T", tt.err)
	}
}

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	stubSession(t)
	withSiteCloner(t)
	r := cloneTestSite(t)

	cfg, err := loadConfig("")
	require.NoError(t, err)
	srv := httptest.NewServer(NewRouter(newMirror(cfg, provisioning.NopObserver()), logr.Discard()))
	t.Cleanup(srv.Close)
	return srv, r.ID
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestRouter_ServesMirror(t *testing.T) {
	srv, id := newTestServer(t)

	status, body := get(t, srv.URL+"/repo/"+id+"/")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "<h1>home</h1>", body)

	status, body = get(t, srv.URL+"/repo/"+id+"/css/site.css")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "body{}", body)

	status, body = get(t, srv.URL+"/repo/"+id+"/docs/")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "<h1>docs</h1>", body)

	status, _ = get(t, srv.URL+"/repo/"+id)
	assert.Equal(t, http.StatusMovedPermanently, status)
}

func TestRouter_Errors(t *testing.T) {
	srv, id := newTestServer(t)

	status, body := get(t, srv.URL+"/repo/"+id+"/missing.html")
	assert.Equal(t, http.StatusNotFound, status)
	var e errorBody
	require.NoError(t, json.Unmarshal([]byte(body), &e))
	assert.Equal(t, provisioning.KindNotFound, e.Kind)

	status, _ = get(t, srv.URL+"/repo/repo-00000000-0000-0000-0000-000000000000/")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = get(t, srv.URL+"/repo/"+id+"/%2e%2e/%2e%2e/etc/passwd")
	assert.Equal(t, http.StatusForbidden, status)
}

func TestRouter_TraversalOnRawPath(t *testing.T) {
	_, id := newTestServer(t)
	cfg, err := loadConfig("")
	require.NoError(t, err)
	h := NewRouter(newMirror(cfg, provisioning.NopObserver()), logr.Discard())

	// httptest.NewRequest keeps dot segments that a client would normally clean.
	req := httptest.NewRequest(http.MethodGet, "/repo/"+id+"/../../etc/passwd", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouter_PercentInFileName(t *testing.T) {
	stubSession(t)
	withSiteCloner(t)
	site := cloneTestSite(t)
	require.NoError(t, os.WriteFile(filepath.Join(site.LocalRoot, "100%.txt"), []byte("full"), 0o600))

	cfg, err := loadConfig("")
	require.NoError(t, err)
	h := NewRouter(newMirror(cfg, provisioning.NopObserver()), logr.Discard())

	for _, target := range []string{
		"/repo/" + site.ID + "/100%25.txt",
		// %2E keeps the raw path, so the wildcard arrives encoded.
		"/repo/" + site.ID + "/100%25%2Etxt",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, target)
		assert.Equal(t, "full", rec.Body.String(), target)
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t)

	status, body := get(t, srv.URL+"/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body)

	status, body = get(t, srv.URL+"/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "stratus_operations_total")
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	cfg, _ := stubSession(t)
	withSiteCloner(t)
	cfg.Serve.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "", "") }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

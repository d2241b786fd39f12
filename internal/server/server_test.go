package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/mdgraph/internal/config"
	"git.home.luguber.info/inful/mdgraph/internal/livereload"
	"git.home.luguber.info/inful/mdgraph/internal/metrics"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Out = t.TempDir()
	files := map[string]string{
		"en/guide/setup.html": "<p>setup</p>",
		"en/guide/index.html": "<p>guide</p>",
		"en/guide/setup.md":   "# setup",
		"guide/setup.html":    "<p>stub</p>",
		"index.css":           "body{}",
		"404.html":            "<p>custom not found</p>",
	}
	for rel, content := range files {
		p := filepath.Join(cfg.Out, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return cfg
}

func get(t *testing.T, url string) (int, http.Header, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, resp.Header, string(body)
}

func TestStatic_Resolution(t *testing.T) {
	cfg := newTestConfig(t)
	hub := livereload.NewHub()
	defer hub.Shutdown()
	ts := httptest.NewServer(New(cfg, hub, Options{}).Handler())
	defer ts.Close()

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/en/guide/setup", http.StatusOK, "<p>setup</p>"},
		{"/en/guide/setup.html", http.StatusOK, "<p>setup</p>"},
		{"/en/guide/setup.md", http.StatusOK, "# setup"},
		{"/en/guide/", http.StatusOK, "<p>guide</p>"},
		{"/en/guide", http.StatusOK, "<p>guide</p>"},
		{"/guide/setup", http.StatusOK, "<p>stub</p>"},
		{"/en/missing", http.StatusNotFound, "<p>custom not found</p>"},
		{"/", http.StatusNotFound, "<p>custom not found</p>"},
		{"/../../etc/passwd", http.StatusNotFound, "<p>custom not found</p>"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			status, _, body := get(t, ts.URL+tt.path)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.body, body)
		})
	}
}

func TestStatic_ContentTypes(t *testing.T) {
	cfg := newTestConfig(t)
	hub := livereload.NewHub()
	defer hub.Shutdown()
	ts := httptest.NewServer(New(cfg, hub, Options{}).Handler())
	defer ts.Close()

	_, header, _ := get(t, ts.URL+"/en/guide/setup")
	assert.True(t, strings.HasPrefix(header.Get("Content-Type"), "text/html"))
	assert.Equal(t, "no-cache", header.Get("Cache-Control"))

	_, header, _ = get(t, ts.URL+"/index.css")
	assert.True(t, strings.HasPrefix(header.Get("Content-Type"), "text/css"))

	_, header, _ = get(t, ts.URL+"/nope")
	assert.Equal(t, "text/html; charset=utf-8", header.Get("Content-Type"))
}

func TestStatic_MissingNotFoundPage(t *testing.T) {
	cfg := newTestConfig(t)
	require.NoError(t, os.Remove(filepath.Join(cfg.Out, "404.html")))
	hub := livereload.NewHub()
	defer hub.Shutdown()
	ts := httptest.NewServer(New(cfg, hub, Options{}).Handler())
	defer ts.Close()

	status, _, _ := get(t, ts.URL+"/nope")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestHealth(t *testing.T) {
	cfg := newTestConfig(t)
	hub := livereload.NewHub()
	defer hub.Shutdown()
	ts := httptest.NewServer(New(cfg, hub, Options{}).Handler())
	defer ts.Close()

	status, header, body := get(t, ts.URL+"/_mdgraph/health")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "application/json", header.Get("Content-Type"))

	var health healthResponse
	require.NoError(t, json.Unmarshal([]byte(body), &health))
	assert.Equal(t, healthResponse{Status: "healthy", Clients: 0}, health)
}

func TestMetricsEndpoint(t *testing.T) {
	cfg := newTestConfig(t)
	reg := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	hub := livereload.NewHub(livereload.WithRecorder(rec))
	defer hub.Shutdown()

	ts := httptest.NewServer(New(cfg, hub, Options{Registry: reg}).Handler())
	defer ts.Close()
	hub.Broadcast("/en/")

	status, _, body := get(t, ts.URL+"/_mdgraph/metrics")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "mdgraph_livereload_broadcasts_total 1")

	// Without a registry the path falls through to the static tree.
	plain := httptest.NewServer(New(cfg, hub, Options{}).Handler())
	defer plain.Close()
	status, _, _ = get(t, plain.URL+"/_mdgraph/metrics")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestEventStream(t *testing.T) {
	cfg := newTestConfig(t)
	hub := livereload.NewHub()
	ts := httptest.NewServer(New(cfg, hub, Options{}).Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(hub.Shutdown)

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+EventPath, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, ": connected\n", line)

	hub.Broadcast("/en/guide/setup")
	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "data:") {
			break
		}
	}
	assert.Equal(t, "data: /en/guide/setup\n", line)
}

func TestRun_GracefulShutdown(t *testing.T) {
	cfg := newTestConfig(t)
	hub := livereload.NewHub()
	srv := New(cfg, hub, Options{})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, ln) }()

	status, _, _ := get(t, base+"/_mdgraph/health")
	require.Equal(t, http.StatusOK, status)

	// An open event stream must not block shutdown.
	streamCtx, streamCancel := context.WithCancel(t.Context())
	defer streamCancel()
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, base+EventPath, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Eventually(t, func() bool { return hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.Equal(t, 0, hub.Len())
}

func TestRun_PortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	cfg := newTestConfig(t)
	cfg.Port = ln.Addr().(*net.TCPAddr).Port
	hub := livereload.NewHub()

	err = New(cfg, hub, Options{}).Run(t.Context(), nil)
	require.Error(t, err)
}

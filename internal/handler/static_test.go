package handler

import (
	"errors"
	"io"
	"log"
	"mwu-go/internal/config"
	apperrors "mwu-go/internal/errors"
	"mwu-go/internal/interfaces"
	"mwu-go/internal/metrics"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

// fixedConfig 测试用的固定配置
type fixedConfig struct {
	cfg *config.Config
}

func (f *fixedConfig) GetConfig() *config.Config {
	return f.cfg
}

func newTestConfig(dir string, maintenance bool) *fixedConfig {
	cfg := config.DefaultConfig()
	cfg.PublicDir = dir
	cfg.Maintenance = maintenance
	return &fixedConfig{cfg: cfg}
}

func newQuietMonitor() *metrics.TrafficMonitor {
	return metrics.NewTrafficMonitor(metrics.Options{Logger: log.New(io.Discard, "", 0)})
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServeIndex(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.html", "<h1>Hello</h1>")

	monitor := newQuietMonitor()
	h := NewStaticHandler(newTestConfig(dir, false), monitor, nil)

	rec := serve(h, http.MethodGet, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html" {
		t.Errorf("Expected Content-Type text/html, got %q", ct)
	}
	if rec.Body.String() != "<h1>Hello</h1>" {
		t.Errorf("Unexpected body %q", rec.Body.String())
	}
	if cl := rec.Header().Get("Content-Length"); cl != "14" {
		t.Errorf("Expected Content-Length 14, got %q", cl)
	}

	stats := monitor.GetStats()
	if stats.TotalRequests != 1 || stats.RequestsByStatusCode[200] != 1 {
		t.Errorf("Expected one accounted 200, got requests=%d statuses=%v", stats.TotalRequests, stats.RequestsByStatusCode)
	}
	if stats.TotalBytesSent != 14 {
		t.Errorf("Expected 14 bytes sent, got %d", stats.TotalBytesSent)
	}
	if count, ok := stats.PathCount("/"); !ok || count != 1 {
		t.Errorf("Expected path / counted once, got %d", count)
	}
	if stats.ActiveConnections != 0 {
		t.Errorf("Expected 0 active connections, got %d", stats.ActiveConnections)
	}
}

func TestServeNestedFileContentType(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "assets/app.js", "console.log(1)")
	writeFile(t, dir, "data.bin", "\x00\x01")

	h := NewStaticHandler(newTestConfig(dir, false), newQuietMonitor(), nil)

	rec := serve(h, http.MethodGet, "/assets/app.js")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/javascript" {
		t.Errorf("Expected application/javascript, got %q", ct)
	}

	rec = serve(h, http.MethodGet, "/data.bin")
	if ct := rec.Header().Get("Content-Type"); ct != "application/octet-stream" {
		t.Errorf("Expected application/octet-stream for unknown extension, got %q", ct)
	}
}

func TestMissingFileBareNotFound(t *testing.T) {
	dir := t.TempDir()
	monitor := newQuietMonitor()
	h := NewStaticHandler(newTestConfig(dir, false), monitor, nil)

	rec := serve(h, http.MethodGet, "/missing.html")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("Expected empty body, got %q", rec.Body.String())
	}

	stats := monitor.GetStats()
	if stats.RequestsByStatusCode[404] != 1 || stats.TotalBytesSent != 0 {
		t.Errorf("Expected one 404 with 0 bytes, got statuses=%v bytes=%d", stats.RequestsByStatusCode, stats.TotalBytesSent)
	}
}

func TestNotFoundPage(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "404.html", "gone")

	called := false
	responder := interfaces.NotFoundResponderFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	monitor := newQuietMonitor()
	h := NewStaticHandler(newTestConfig(dir, false), monitor, responder)

	rec := serve(h, http.MethodGet, "/nope")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", rec.Code)
	}
	if rec.Body.String() != "gone" {
		t.Errorf("Expected 404.html content, got %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/html" {
		t.Errorf("Expected text/html, got %q", ct)
	}
	if called {
		t.Error("Custom responder should not run when 404.html exists")
	}
	if got := monitor.GetStats().TotalBytesSent; got != 4 {
		t.Errorf("Expected 4 bytes sent, got %d", got)
	}
}

func TestCustomResponderAccounting(t *testing.T) {
	dir := t.TempDir()
	monitor := newQuietMonitor()
	h := NewStaticHandler(newTestConfig(dir, false), monitor, NewNotFoundPage(""))

	rec := serve(h, http.MethodGet, "/nope")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", rec.Code)
	}
	if rec.Body.String() != defaultNotFoundHTML {
		t.Errorf("Expected default not-found page, got %q", rec.Body.String())
	}

	// 自定义响应器写出的字节不计入统计
	stats := monitor.GetStats()
	if stats.RequestsByStatusCode[404] != 1 {
		t.Errorf("Expected one 404, got %v", stats.RequestsByStatusCode)
	}
	if stats.TotalBytesSent != 0 {
		t.Errorf("Expected 0 bytes accounted for custom responder, got %d", stats.TotalBytesSent)
	}
}

func TestMaintenanceMode(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.html", "home")
	writeFile(t, dir, "maintenance.html", "back soon")

	h := NewStaticHandler(newTestConfig(dir, true), newQuietMonitor(), nil)

	for _, path := range []string{"/", "/index.html", "/anything/else"} {
		rec := serve(h, http.MethodGet, path)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected status 200, got %d", path, rec.Code)
		}
		if rec.Body.String() != "back soon" {
			t.Errorf("%s: expected maintenance page, got %q", path, rec.Body.String())
		}
	}
}

func TestMaintenanceWithoutPage(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.html", "home")

	h := NewStaticHandler(newTestConfig(dir, true), newQuietMonitor(), nil)

	rec := serve(h, http.MethodGet, "/")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 when maintenance page is missing, got %d", rec.Code)
	}
}

func TestMonitoringDisabled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.html", "home")

	cfg := newTestConfig(dir, false)
	cfg.cfg.TrafficMonitoring = config.BoolPtr(false)
	monitor := newQuietMonitor()
	h := NewStaticHandler(cfg, monitor, nil)

	rec := serve(h, http.MethodGet, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if got := monitor.GetStats().TotalRequests; got != 0 {
		t.Errorf("Expected no accounting when monitoring is disabled, got %d", got)
	}
}

func TestPathTraversal(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "public")
	writeFile(t, root, "secret.txt", "secret")
	writeFile(t, dir, "index.html", "home")

	h := NewStaticHandler(newTestConfig(dir, false), newQuietMonitor(), nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.URL.Path = "/../secret.txt"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for path outside content root, got %d", rec.Code)
	}
	if rec.Body.String() == "secret" {
		t.Error("File outside content root was served")
	}
}

func TestDirectoryIsNotAFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "docs/readme.txt", "x")

	h := NewStaticHandler(newTestConfig(dir, false), newQuietMonitor(), nil)

	rec := serve(h, http.MethodGet, "/docs")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for directory, got %d", rec.Code)
	}
}

type failingResolver struct{}

func (failingResolver) Resolve(w http.ResponseWriter, r *http.Request, res *Resolution) (Outcome, bool, error) {
	return Outcome{}, false, errors.New("disk on fire")
}

func TestResolverErrorIsolated(t *testing.T) {
	monitor := newQuietMonitor()
	h := NewStaticHandlerWithResolvers(newTestConfig(t.TempDir(), false), monitor,
		[]Resolver{failingResolver{}, BareNotFoundResolver{}})

	rec := serve(h, http.MethodGet, "/x")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", rec.Code)
	}

	stats := monitor.GetStats()
	if stats.RequestsByStatusCode[500] != 1 {
		t.Errorf("Expected one 500 accounted, got %v", stats.RequestsByStatusCode)
	}
	if stats.TotalBytesSent != 0 {
		t.Errorf("Expected 0 bytes accounted for error, got %d", stats.TotalBytesSent)
	}
	if stats.ActiveConnections != 0 {
		t.Errorf("Expected active connections released, got %d", stats.ActiveConnections)
	}
}

func TestResolveTarget(t *testing.T) {
	tests := []struct {
		path        string
		maintenance bool
		want        string
	}{
		{"/", false, "index.html"},
		{"/a/b.css", false, "a/b.css"},
		{"/", true, "maintenance.html"},
		{"/a/b.css", true, "maintenance.html"},
	}
	for _, tt := range tests {
		if got := ResolveTarget(tt.path, tt.maintenance); got != tt.want {
			t.Errorf("ResolveTarget(%q, %v) = %q, want %q", tt.path, tt.maintenance, got, tt.want)
		}
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"a.html":  "text/html",
		"a.htm":   "text/html",
		"a.css":   "text/css",
		"a.svg":   "image/svg+xml",
		"a.jpeg":  "image/jpeg",
		"a":       "application/octet-stream",
		"a.weird": "application/octet-stream",
	}
	for name, want := range tests {
		if got := ContentType(name); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestReadContentError(t *testing.T) {
	_, err := readContent(filepath.Join(t.TempDir(), "gone.html"))
	if !errors.Is(err, apperrors.ErrRead) {
		t.Errorf("Expected ErrRead, got %v", err)
	}
}

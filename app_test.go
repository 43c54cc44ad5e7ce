package main

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"log"
	"mwu-go/internal/config"
	"mwu-go/internal/models"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSettings(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestApp(t *testing.T, settings string) (*httptest.Server, *config.ConfigManager, string, *app) {
	t.Helper()
	root := t.TempDir()
	public := filepath.Join(root, "public")
	if err := os.MkdirAll(public, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(public, "index.html"), []byte(strings.Repeat("<p>home</p>", 100)), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(public, "maintenance.html"), []byte("down"), 0644); err != nil {
		t.Fatal(err)
	}

	cm := config.NewConfigManager(writeSettings(t, root, settings))
	cm.AddOverride(func(c *config.Config) { c.PublicDir = public })

	a := newApp(cm, nil)
	t.Cleanup(a.close)

	srv := httptest.NewServer(a.handler)
	t.Cleanup(srv.Close)
	return srv, cm, root, a
}

func get(t *testing.T, url string, header map[string]string) *http.Response {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, url, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	// 关闭自动解压，检查原始编码
	client := &http.Client{Transport: &http.Transport{DisableCompression: true}}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestAppServesAndCounts(t *testing.T) {
	srv, _, _, _ := newTestApp(t, `{"compression": {"gzip": {"enabled": true, "level": 5}}}`)

	resp := get(t, srv.URL+"/", map[string]string{"Accept-Encoding": "gzip"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Content-Encoding") != "gzip" {
		t.Fatalf("Expected gzip response, got %q", resp.Header.Get("Content-Encoding"))
	}
	zr, err := gzip.NewReader(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(zr)
	if !strings.HasPrefix(string(body), "<p>home</p>") {
		t.Errorf("Unexpected body %q", body)
	}

	if resp := get(t, srv.URL+"/missing", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", resp.StatusCode)
	}

	resp = get(t, srv.URL+"/stats?format=json", nil)
	var stats models.TrafficStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("Failed to decode stats: %v", err)
	}
	if stats.TotalRequests != 3 {
		t.Errorf("Expected 3 requests, got %d", stats.TotalRequests)
	}
	if stats.RequestsByStatusCode[404] != 1 {
		t.Errorf("Expected one 404, got %v", stats.RequestsByStatusCode)
	}
}

func TestAppReloadMaintenance(t *testing.T) {
	srv, cm, root, _ := newTestApp(t, `{"maintenance": false}`)

	body, _ := io.ReadAll(get(t, srv.URL+"/", nil).Body)
	if strings.Contains(string(body), "down") {
		t.Fatal("Maintenance page served before reload")
	}

	writeSettings(t, root, `{"maintenance": true}`)
	cm.ReloadConfig()

	body, _ = io.ReadAll(get(t, srv.URL+"/anything", nil).Body)
	if string(body) != "down" {
		t.Errorf("Expected maintenance page after reload, got %q", body)
	}
}

func TestAppStatsRateLimit(t *testing.T) {
	srv, _, _, a := newTestApp(t, `{"statsRateLimit": {"rps": 0.01, "burst": 1}}`)

	if resp := get(t, srv.URL+"/stats", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected first stats request to succeed, got %d", resp.StatusCode)
	}
	resp := get(t, srv.URL+"/stats", nil)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("Expected 429, got %d", resp.StatusCode)
	}

	// 被限流的请求不计入统计
	stats := a.monitor.GetStats()
	if stats.TotalRequests != 1 {
		t.Errorf("Expected only the allowed stats request to be counted, got %d", stats.TotalRequests)
	}
	if stats.RequestsByStatusCode[http.StatusTooManyRequests] != 0 {
		t.Errorf("Expected 429 not to be accounted, got %v", stats.RequestsByStatusCode)
	}
}

func TestLoadNotFoundResponder(t *testing.T) {
	if r, err := loadNotFoundResponder(""); r != nil || err != nil {
		t.Errorf("Expected no responder, got %v %v", r, err)
	}
	if r, err := loadNotFoundResponder(builtinNotFound); r == nil || err != nil {
		t.Errorf("Expected builtin responder, got %v %v", r, err)
	}

	path := filepath.Join(t.TempDir(), "nf.html")
	os.WriteFile(path, []byte("<p>custom</p>"), 0644)
	r, err := loadNotFoundResponder(path)
	if err != nil {
		t.Fatal(err)
	}
	rec := httptest.NewRecorder()
	r.ServeNotFound(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusNotFound || rec.Body.String() != "<p>custom</p>" {
		t.Errorf("Unexpected custom responder output %d %q", rec.Code, rec.Body.String())
	}

	if _, err := loadNotFoundResponder(filepath.Join(t.TempDir(), "missing.html")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestRestartWarnings(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	startup := config.DefaultConfig()
	warn := restartWarnings(startup, true)

	warn(startup.Clone())
	if buf.Len() != 0 {
		t.Errorf("Expected no warnings for unchanged config, got %q", buf.String())
	}

	changed := startup.Clone()
	changed.PublicDir = "/srv/other"
	changed.MaxTrackedKeys = startup.MaxTrackedKeys + 1
	warn(changed)

	out := buf.String()
	for _, want := range []string{"maxTrackedKeys", "/srv/other", "S3"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected warning mentioning %q, got %q", want, out)
		}
	}
	if strings.Contains(out, "监听地址") {
		t.Errorf("Expected no address warning, got %q", out)
	}
}

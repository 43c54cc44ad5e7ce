package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func named(name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Handler", name)
	})
}

func TestSetupMainRoutes(t *testing.T) {
	limited := false
	limit := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			limited = true
			next.ServeHTTP(w, r)
		})
	}
	h := NewMainHandler(SetupMainRoutes(named("static"), named("stats"), limit))

	tests := map[string]string{
		"/stats":      "stats",
		"/":           "static",
		"/stats/more": "static",
		"/index.html": "static",
	}
	for path, want := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if got := rec.Header().Get("X-Handler"); got != want {
			t.Errorf("%s: expected %s handler, got %q", path, want, got)
		}
	}
	if !limited {
		t.Error("Expected stats route to pass through the limiter")
	}
}

func TestNoRouteMatched(t *testing.T) {
	h := NewMainHandler(nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 without routes, got %d", rec.Code)
	}
}

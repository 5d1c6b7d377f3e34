package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dgimm/journalmon/internal/storage"
)

func newTestStore(t *testing.T) *storage.Store {
	t.Helper()

	db, err := storage.OpenDatabase(":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := storage.RunMigrations(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	return storage.NewStore(db)
}

func TestRouter_Routes(t *testing.T) {
	router := NewRouter(newTestStore(t))

	tests := []struct {
		target     string
		wantStatus int
	}{
		{"/api/stats", http.StatusOK},
		{"/api/articles", http.StatusOK},
		{"/api/journals", http.StatusOK},
		{"/api/reports/latest", http.StatusNotFound}, // nothing generated yet
		{"/", http.StatusOK},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.target, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != tt.wantStatus {
			t.Errorf("GET %s status = %d, want %d", tt.target, rec.Code, tt.wantStatus)
		}
	}
}

func TestRouter_DashboardServesHTML(t *testing.T) {
	router := NewRouter(newTestStore(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "journalmon") {
		t.Error("dashboard page missing app name")
	}
}

package handlers

import (
	"errors"
	"net/http"
	"os"

	"github.com/dgimm/journalmon/internal/storage"
)

// GetLatestReport returns metadata for the most recent briefing.
//
//	GET /api/reports/latest
func GetLatestReport(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := store.LatestReport(r.Context())
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no reports generated yet")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load report")
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// GetLatestReportContent streams the Markdown of the most recent briefing.
//
//	GET /api/reports/latest/content
func GetLatestReportContent(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := store.LatestReport(r.Context())
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no reports generated yet")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load report")
			return
		}

		content, err := os.ReadFile(report.FilePath)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "report file missing")
			return
		}

		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(content)
	}
}

package handlers

import (
	"net/http"

	"github.com/dgimm/journalmon/internal/storage"
)

// GetStats returns store-wide collection statistics.
//
//	GET /api/stats
func GetStats(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := store.Stats(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load stats")
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

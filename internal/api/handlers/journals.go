package handlers

import (
	"net/http"

	"github.com/dgimm/journalmon/internal/storage"
)

// GetJournals returns every registered journal with its fetch health.
//
//	GET /api/journals
func GetJournals(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		journals, err := store.Journals(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load journals")
			return
		}
		writeJSON(w, http.StatusOK, journals)
	}
}

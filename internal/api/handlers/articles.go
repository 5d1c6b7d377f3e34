package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dgimm/journalmon/internal/models"
	"github.com/dgimm/journalmon/internal/storage"
)

const defaultWindowHours = 24

// GetArticles returns articles first seen within the requested window,
// optionally filtered by priority tier. A date parameter selects one
// calendar day instead of a rolling window.
//
//	GET /api/articles?hours=48&tier=high
//	GET /api/articles?date=2026-08-31
func GetArticles(store *storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if date := r.URL.Query().Get("date"); date != "" {
			if _, err := time.Parse("2006-01-02", date); err != nil {
				writeError(w, http.StatusBadRequest, "invalid date parameter, want YYYY-MM-DD")
				return
			}
			articles, err := store.ArticlesOnDate(r.Context(), date)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to load articles")
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"articles": articles,
				"count":    len(articles),
				"date":     date,
			})
			return
		}

		hours := defaultWindowHours
		if raw := r.URL.Query().Get("hours"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				writeError(w, http.StatusBadRequest, "invalid hours parameter")
				return
			}
			hours = parsed
		}

		var tiers []models.Tier
		if raw := r.URL.Query().Get("tier"); raw != "" {
			if !models.ValidTier(raw) {
				writeError(w, http.StatusBadRequest, "invalid tier parameter")
				return
			}
			tiers = []models.Tier{models.Tier(raw)}
		}

		since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
		articles, err := store.ArticlesSince(r.Context(), since, tiers)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load articles")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"articles": articles,
			"count":    len(articles),
			"hours":    hours,
		})
	}
}

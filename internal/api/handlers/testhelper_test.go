package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/dgimm/journalmon/internal/models"
	"github.com/dgimm/journalmon/internal/storage"
)

// newTestStore opens a migrated in-memory store.
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

// seedArticle inserts a minimal article with the given tier.
func seedArticle(t *testing.T, store *storage.Store, identity string, tier models.Tier) {
	t.Helper()

	now := time.Now().UTC()
	_, err := store.Insert(context.Background(), &models.StoredArticle{
		Identity:    identity,
		Journal:     "Antipode",
		Title:       "Article " + identity,
		URL:         "https://example.com/" + identity,
		PublishedAt: &now,
		FirstSeen:   now,
		Priority:    tier,
	})
	if err != nil {
		t.Fatalf("seeding article %s: %v", identity, err)
	}
}

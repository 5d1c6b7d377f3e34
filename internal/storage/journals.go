package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dgimm/journalmon/internal/models"
)

// UpsertJournal inserts a journal record or refreshes its feed URL and
// category if a row with the same name already exists. The row ID is
// returned.
func (s *Store) UpsertJournal(ctx context.Context, name, feedURL, category string) (int64, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO journals (name, feed_url, category)
		 VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
			feed_url = excluded.feed_url,
			category = excluded.category`,
		name, feedURL, nullableString(category),
	)
	if err != nil {
		return 0, fmt.Errorf("upserting journal %q: %w", name, err)
	}

	// last_insert_rowid() may not reflect the correct ID on the UPDATE
	// path, so query by name.
	var id int64
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM journals WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("getting upserted journal id: %w", err)
	}
	return id, nil
}

// RecordFetchResult stores the outcome of the latest fetch attempt for a
// journal. A non-empty fetchErr marks the journal unhealthy until the next
// successful fetch. Returns ErrNotFound for an unknown journal name.
func (s *Store) RecordFetchResult(ctx context.Context, name string, at time.Time, fetchErr string) error {
	ok := 1
	if fetchErr != "" {
		ok = 0
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE journals
		 SET last_fetch_at = ?, last_fetch_ok = ?, last_error = ?
		 WHERE name = ?`,
		formatTime(at), ok, nullableString(fetchErr), name,
	)
	if err != nil {
		return fmt.Errorf("recording fetch result for %q: %w", name, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected for %q: %w", name, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Journals returns all journal records ordered by name.
func (s *Store) Journals(ctx context.Context) ([]models.Journal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, feed_url, category, last_fetch_at, last_fetch_ok,
		        last_error, created_at
		 FROM journals ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying journals: %w", err)
	}
	defer rows.Close()

	var journals []models.Journal
	for rows.Next() {
		var (
			j           models.Journal
			category    sql.NullString
			lastFetchAt sql.NullString
			lastFetchOK int
			lastError   sql.NullString
			createdAt   string
		)
		if err := rows.Scan(
			&j.ID, &j.Name, &j.FeedURL, &category, &lastFetchAt,
			&lastFetchOK, &lastError, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		j.Category = category.String
		j.LastFetchAt = parseTimePtr(nullStringToPtr(lastFetchAt))
		j.LastFetchOK = lastFetchOK == 1
		j.LastError = lastError.String
		j.CreatedAt = parseTime(createdAt)
		journals = append(journals, j)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating journal rows: %w", err)
	}

	// Return empty slice instead of nil for consistent JSON serialization.
	if journals == nil {
		journals = []models.Journal{}
	}

	return journals, nil
}

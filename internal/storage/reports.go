package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dgimm/journalmon/internal/models"
)

// SaveReport records a generated digest for the given date (YYYY-MM-DD).
// Re-running the pipeline on the same day replaces the record.
func (s *Store) SaveReport(ctx context.Context, reportDate string, totalArticles, highPriority int, filePath string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (report_date, total_articles, high_priority, file_path)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(report_date) DO UPDATE SET
			total_articles = excluded.total_articles,
			high_priority  = excluded.high_priority,
			file_path      = excluded.file_path`,
		reportDate, totalArticles, highPriority, nullableString(filePath),
	)
	if err != nil {
		return fmt.Errorf("saving report for %s: %w", reportDate, err)
	}
	return nil
}

// LatestReport returns the most recent report record.
// Returns nil, ErrNotFound when no report has been generated yet.
func (s *Store) LatestReport(ctx context.Context) (*models.Report, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, report_date, total_articles, high_priority, file_path, created_at
		 FROM reports ORDER BY report_date DESC LIMIT 1`)

	var (
		r         models.Report
		filePath  sql.NullString
		createdAt string
	)
	err := row.Scan(&r.ID, &r.ReportDate, &r.TotalArticles, &r.HighPriority, &filePath, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting latest report: %w", err)
	}

	r.FilePath = filePath.String
	r.CreatedAt = parseTime(createdAt)
	return &r, nil
}

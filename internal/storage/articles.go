package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgimm/journalmon/internal/models"
)

// Exists reports whether an article with the given identity has ever been
// recorded, across all prior runs.
func (s *Store) Exists(ctx context.Context, identity string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM articles WHERE identity = ?`, identity).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking article existence: %w", err)
	}
	return true, nil
}

// Insert records a newly sighted article and returns its row ID. It returns
// ErrDuplicate if an article with the same identity is already present.
// The write is durable before Insert returns; any other failure must be
// treated as fatal by the caller since a lost write breaks dedup for that
// identity.
func (s *Store) Insert(ctx context.Context, a *models.StoredArticle) (int64, error) {
	keywords, err := marshalKeywords(a.KeywordsMatched)
	if err != nil {
		return 0, fmt.Errorf("encoding matched keywords: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO articles (
			identity, journal, category, title, abstract, authors, doi, url,
			published_at, first_seen, priority, keywords_matched,
			translated_title, translated_abstract, summary
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Identity, a.Journal, nullableString(a.Category), a.Title,
		nullableString(a.Abstract), nullableString(a.Authors),
		nullableString(a.DOI), a.URL, formatTimePtr(a.PublishedAt),
		formatTime(a.FirstSeen), string(a.Priority), keywords,
		nullableString(a.TranslatedTitle), nullableString(a.TranslatedAbstract),
		nullableString(a.Summary),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("inserting article %q: %w", a.Identity, ErrDuplicate)
		}
		return 0, fmt.Errorf("inserting article %q: %w", a.Identity, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting inserted article id: %w", err)
	}
	a.ID = id
	return id, nil
}

// UpdateEnrichment attaches translated text and a generated summary to an
// already-stored article. It returns ErrNotFound if no article with the
// given identity exists.
func (s *Store) UpdateEnrichment(ctx context.Context, identity, translatedTitle, translatedAbstract, summary string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE articles
		 SET translated_title = ?, translated_abstract = ?, summary = ?
		 WHERE identity = ?`,
		nullableString(translatedTitle), nullableString(translatedAbstract),
		nullableString(summary), identity,
	)
	if err != nil {
		return fmt.Errorf("updating enrichment for %q: %w", identity, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected for %q: %w", identity, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAbstract replaces the stored abstract of an article, used by the
// backfill path when a previously-missing abstract is recovered.
// It returns ErrNotFound if no article with the given identity exists.
func (s *Store) UpdateAbstract(ctx context.Context, identity, abstract string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE articles SET abstract = ? WHERE identity = ?`,
		nullableString(abstract), identity,
	)
	if err != nil {
		return fmt.Errorf("updating abstract for %q: %w", identity, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected for %q: %w", identity, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePriority rewrites the priority tier and matched keywords of an
// article. Only the backfill path calls this, after re-classifying with a
// recovered abstract.
func (s *Store) UpdatePriority(ctx context.Context, identity string, priority models.Tier, keywordsMatched []string) error {
	keywords, err := marshalKeywords(keywordsMatched)
	if err != nil {
		return fmt.Errorf("encoding matched keywords: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE articles SET priority = ?, keywords_matched = ? WHERE identity = ?`,
		string(priority), keywords, identity,
	)
	if err != nil {
		return fmt.Errorf("updating priority for %q: %w", identity, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected for %q: %w", identity, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByIdentity returns the article with the given identity.
// Returns nil, ErrNotFound if no matching row exists.
func (s *Store) GetByIdentity(ctx context.Context, identity string) (*models.StoredArticle, error) {
	row := s.db.QueryRowContext(ctx,
		articleSelect+` WHERE identity = ?`, identity)

	a, err := scanArticle(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting article by identity: %w", err)
	}
	return a, nil
}

// ArticlesSince returns the articles first seen at or after the given
// instant, optionally filtered by priority tiers, ordered by published
// timestamp descending with unpublished (nil) articles last.
func (s *Store) ArticlesSince(ctx context.Context, since time.Time, tiers []models.Tier) ([]models.StoredArticle, error) {
	query := articleSelect + ` WHERE first_seen >= ?`
	args := []any{formatTime(since)}

	if len(tiers) > 0 {
		placeholders := strings.Repeat("?,", len(tiers))
		query += ` AND priority IN (` + placeholders[:len(placeholders)-1] + `)`
		for _, t := range tiers {
			args = append(args, string(t))
		}
	}

	query += ` ORDER BY published_at IS NULL, published_at DESC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying articles since %v: %w", since, err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// ArticlesOnDate returns the articles first seen on the given calendar day
// (YYYY-MM-DD, UTC), ordered by published timestamp descending with
// unpublished (nil) articles last.
func (s *Store) ArticlesOnDate(ctx context.Context, date string) ([]models.StoredArticle, error) {
	rows, err := s.db.QueryContext(ctx,
		articleSelect+`
		 WHERE DATE(first_seen) = ?
		 ORDER BY published_at IS NULL, published_at DESC, id ASC`, date)
	if err != nil {
		return nil, fmt.Errorf("querying articles on %s: %w", date, err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// ArticlesMissingAbstract returns up to limit articles that have a DOI but
// no usable abstract (absent or shorter than 50 characters), most recently
// seen first. These are the backfill candidates.
func (s *Store) ArticlesMissingAbstract(ctx context.Context, limit int) ([]models.StoredArticle, error) {
	rows, err := s.db.QueryContext(ctx,
		articleSelect+`
		 WHERE doi IS NOT NULL AND doi != ''
		   AND (abstract IS NULL OR LENGTH(abstract) < 50)
		 ORDER BY first_seen DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying articles missing abstract: %w", err)
	}
	defer rows.Close()

	return scanArticles(rows)
}

// Unenriched returns the stored articles among the given identities that
// still have no summary, preserving the input order.
func (s *Store) Unenriched(ctx context.Context, identities []string) ([]models.StoredArticle, error) {
	var out []models.StoredArticle
	for _, id := range identities {
		a, err := s.GetByIdentity(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if a.Summary == "" {
			out = append(out, *a)
		}
	}
	return out, nil
}

// Stats summarizes the article store.
func (s *Store) Stats(ctx context.Context) (*models.Stats, error) {
	var st models.Stats

	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM journals`, &st.TotalJournals},
		{`SELECT COUNT(*) FROM articles`, &st.TotalArticles},
		{`SELECT COUNT(*) FROM articles WHERE priority = 'high'`, &st.HighPriority},
		{`SELECT COUNT(*) FROM articles WHERE first_seen >= datetime('now', '-24 hours')`, &st.Articles24h},
		{`SELECT COUNT(*) FROM articles WHERE first_seen >= datetime('now', '-7 days')`, &st.Articles7d},
		{`SELECT COUNT(*) FROM articles WHERE abstract IS NOT NULL AND LENGTH(abstract) >= 50`, &st.WithAbstract},
		{`SELECT COUNT(*) FROM articles WHERE doi IS NOT NULL AND doi != ''`, &st.WithDOI},
	}

	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("querying stats: %w", err)
		}
	}

	return &st, nil
}

const articleSelect = `
	SELECT id, identity, journal, category, title, abstract, authors, doi,
	       url, published_at, first_seen, priority, keywords_matched,
	       translated_title, translated_abstract, summary
	FROM articles`

// scanner is a minimal interface satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanArticle scans a single article row into a models.StoredArticle.
func scanArticle(row scanner) (*models.StoredArticle, error) {
	var (
		a                  models.StoredArticle
		category           sql.NullString
		abstract           sql.NullString
		authors            sql.NullString
		doi                sql.NullString
		publishedAt        sql.NullString
		firstSeen          string
		priority           string
		keywords           sql.NullString
		translatedTitle    sql.NullString
		translatedAbstract sql.NullString
		summary            sql.NullString
	)

	if err := row.Scan(
		&a.ID, &a.Identity, &a.Journal, &category, &a.Title, &abstract,
		&authors, &doi, &a.URL, &publishedAt, &firstSeen, &priority,
		&keywords, &translatedTitle, &translatedAbstract, &summary,
	); err != nil {
		return nil, err
	}

	a.Category = category.String
	a.Abstract = abstract.String
	a.Authors = authors.String
	a.DOI = doi.String
	a.PublishedAt = parseTimePtr(nullStringToPtr(publishedAt))
	a.FirstSeen = parseTime(firstSeen)
	a.Priority = models.Tier(priority)
	a.TranslatedTitle = translatedTitle.String
	a.TranslatedAbstract = translatedAbstract.String
	a.Summary = summary.String

	if keywords.Valid && keywords.String != "" {
		if err := json.Unmarshal([]byte(keywords.String), &a.KeywordsMatched); err != nil {
			// Tolerate bad legacy rows rather than failing the whole query.
			a.KeywordsMatched = nil
		}
	}

	return &a, nil
}

// scanArticles reads all rows from an article query into a slice.
func scanArticles(rows *sql.Rows) ([]models.StoredArticle, error) {
	var articles []models.StoredArticle
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning article row: %w", err)
		}
		articles = append(articles, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating article rows: %w", err)
	}

	return articles, nil
}

// marshalKeywords encodes the matched keyword list as JSON, or nil for an
// empty list.
func marshalKeywords(keywords []string) (*string, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(keywords)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure. modernc.org/sqlite does not export a typed error for this, so we
// match on the driver's message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

package models

import "time"

// FeedSource is a single subscription loaded from the OPML registry.
type FeedSource struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Category string `json:"category"`
}

// Tier is the priority classification assigned to an article at ingestion.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// ValidTier reports whether s names a known priority tier.
func ValidTier(s string) bool {
	switch Tier(s) {
	case TierHigh, TierMedium, TierLow:
		return true
	}
	return false
}

// Article is a candidate parsed from a feed entry, before deduplication.
// Identity is derived from the entry's stable fields (title and link) so
// re-fetching the same entry across runs yields the same identity.
type Article struct {
	Identity    string     `json:"identity"`
	Journal     string     `json:"journal"`
	Category    string     `json:"category"`
	Title       string     `json:"title"`
	Abstract    string     `json:"abstract,omitempty"`
	Authors     string     `json:"authors,omitempty"`
	DOI         string     `json:"doi,omitempty"`
	URL         string     `json:"url"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// StoredArticle is the persisted projection of an Article. It is created
// exactly once per distinct identity; the translated fields and summary are
// attached later by enrichment.
type StoredArticle struct {
	ID                 int64      `json:"id"`
	Identity           string     `json:"identity"`
	Journal            string     `json:"journal"`
	Category           string     `json:"category,omitempty"`
	Title              string     `json:"title"`
	Abstract           string     `json:"abstract,omitempty"`
	Authors            string     `json:"authors,omitempty"`
	DOI                string     `json:"doi,omitempty"`
	URL                string     `json:"url"`
	PublishedAt        *time.Time `json:"published_at,omitempty"`
	FirstSeen          time.Time  `json:"first_seen"`
	Priority           Tier       `json:"priority"`
	KeywordsMatched    []string   `json:"keywords_matched,omitempty"`
	TranslatedTitle    string     `json:"translated_title,omitempty"`
	TranslatedAbstract string     `json:"translated_abstract,omitempty"`
	Summary            string     `json:"summary,omitempty"`
}

// Journal tracks per-source fetch health across runs.
type Journal struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	FeedURL     string     `json:"feed_url"`
	Category    string     `json:"category,omitempty"`
	LastFetchAt *time.Time `json:"last_fetch_at,omitempty"`
	LastFetchOK bool       `json:"last_fetch_ok"`
	LastError   string     `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Report records a generated digest file.
type Report struct {
	ID            int64     `json:"id"`
	ReportDate    string    `json:"report_date"`
	TotalArticles int       `json:"total_articles"`
	HighPriority  int       `json:"high_priority"`
	FilePath      string    `json:"file_path"`
	CreatedAt     time.Time `json:"created_at"`
}

// Stats summarizes the article store for the dashboard and CLI.
type Stats struct {
	TotalJournals int `json:"total_journals"`
	TotalArticles int `json:"total_articles"`
	HighPriority  int `json:"high_priority"`
	Articles24h   int `json:"articles_24h"`
	Articles7d    int `json:"articles_7d"`
	WithAbstract  int `json:"with_abstract"`
	WithDOI       int `json:"with_doi"`
}

// RunSummary is the outcome of one pipeline run. Failures are counted at the
// granularity they were contained at; a run with failures still completes.
type RunSummary struct {
	SourcesFetched int `json:"sources_fetched"`
	SourcesFailed  int `json:"sources_failed"`
	Candidates     int `json:"candidates"`
	AlreadySeen    int `json:"already_seen"`
	NewArticles    int `json:"new_articles"`
	DupAnomalies   int `json:"dup_anomalies"`
	Backfilled     int `json:"backfilled"`
	Enriched       int `json:"enriched"`
	EnrichFailed   int `json:"enrich_failed"`
}

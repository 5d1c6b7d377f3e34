package metadata

import (
	"context"
	"log/slog"
	"time"

	"github.com/dgimm/journalmon/internal/classify"
	"github.com/dgimm/journalmon/internal/config"
	"github.com/dgimm/journalmon/internal/models"
)

// minUsableAbstract is the shortest recovered abstract worth persisting.
// Anything shorter is usually a truncated teaser and would poison the
// classifier.
const minUsableAbstract = 50

// Store is the subset of the storage layer the backfiller reads and
// writes.
type Store interface {
	ArticlesMissingAbstract(ctx context.Context, limit int) ([]models.StoredArticle, error)
	UpdateAbstract(ctx context.Context, identity, abstract string) error
	UpdatePriority(ctx context.Context, identity string, priority models.Tier, keywords []string) error
}

// AbstractSource resolves a DOI to an abstract.
type AbstractSource interface {
	AbstractByDOI(ctx context.Context, doi string) (string, error)
}

// PageSource extracts an abstract from an article page.
type PageSource interface {
	AbstractFromPage(ctx context.Context, pageURL string) (string, error)
}

// Backfiller fills in missing abstracts and re-runs keyword classification
// over the recovered text. Sources are tried in order: OpenAlex, then
// Semantic Scholar, then scraping the publisher page.
type Backfiller struct {
	store    Store
	sources  []AbstractSource
	scraper  PageSource
	keywords config.KeywordsConfig
	limit    int
	delay    time.Duration
}

// NewBackfiller creates a Backfiller using the standard source order.
func NewBackfiller(store Store, cfg config.OpenAlexConfig, keywords config.KeywordsConfig) *Backfiller {
	return &Backfiller{
		store: store,
		sources: []AbstractSource{
			NewOpenAlexClient(cfg.Email),
			NewSemanticScholarClient(),
		},
		scraper:  NewScraper(),
		keywords: keywords,
		limit:    cfg.Limit,
		delay:    time.Second,
	}
}

// Run backfills abstracts for up to the configured number of articles.
// Source failures are logged per article and never abort the batch.
// Returns the number of articles updated.
func (b *Backfiller) Run(ctx context.Context) (int, error) {
	candidates, err := b.store.ArticlesMissingAbstract(ctx, b.limit)
	if err != nil {
		return 0, err
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	slog.Info("backfilling abstracts", "candidates", len(candidates))

	updated := 0
	for i, a := range candidates {
		if ctx.Err() != nil {
			return updated, ctx.Err()
		}
		if i > 0 && b.delay > 0 {
			time.Sleep(b.delay)
		}

		abstract := b.resolve(ctx, a)
		if len(abstract) < minUsableAbstract {
			slog.Debug("no abstract found", "identity", a.Identity, "doi", a.DOI)
			continue
		}

		if err := b.store.UpdateAbstract(ctx, a.Identity, abstract); err != nil {
			slog.Warn("saving abstract failed", "identity", a.Identity, "error", err)
			continue
		}
		updated++

		// The recovered text may hit keywords the bare title missed.
		tier, matched := classify.Classify(a.Title, abstract, b.keywords)
		if len(matched) > 0 && tier != a.Priority {
			if err := b.store.UpdatePriority(ctx, a.Identity, tier, matched); err != nil {
				slog.Warn("updating priority failed", "identity", a.Identity, "error", err)
			} else {
				slog.Info("reclassified after backfill",
					"identity", a.Identity,
					"priority", tier,
					"keywords", matched,
				)
			}
		}
	}

	slog.Info("backfill complete", "updated", updated, "candidates", len(candidates))
	return updated, nil
}

// resolve tries each source in order until one yields a usable abstract.
func (b *Backfiller) resolve(ctx context.Context, a models.StoredArticle) string {
	if a.DOI != "" {
		for _, src := range b.sources {
			abstract, err := src.AbstractByDOI(ctx, a.DOI)
			if err != nil {
				slog.Debug("abstract source failed", "doi", a.DOI, "error", err)
				continue
			}
			if len(abstract) >= minUsableAbstract {
				return abstract
			}
		}
	}

	if b.scraper != nil && a.URL != "" {
		abstract, err := b.scraper.AbstractFromPage(ctx, a.URL)
		if err != nil {
			slog.Debug("page scrape failed", "url", a.URL, "error", err)
			return ""
		}
		return abstract
	}

	return ""
}

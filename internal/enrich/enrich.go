// Package enrich runs LLM translation and summarization over stored
// articles.
package enrich

import (
	"context"
	"log/slog"
	"time"

	"github.com/dgimm/journalmon/internal/ai"
	"github.com/dgimm/journalmon/internal/models"
)

// Store is the subset of the storage layer the enricher writes to.
type Store interface {
	UpdateEnrichment(ctx context.Context, identity, title, abstract, summary string) error
}

// Enricher translates and summarizes articles in the configured priority
// tiers.
type Enricher struct {
	store    Store
	provider ai.Provider
	tiers    map[models.Tier]bool
	delay    time.Duration
}

// Options configures an Enricher.
type Options struct {
	// Tiers lists the priority tiers worth spending LLM calls on.
	Tiers []models.Tier

	// Delay is the pause between consecutive provider calls.
	Delay time.Duration
}

// New creates an Enricher.
func New(store Store, provider ai.Provider, opts Options) *Enricher {
	tiers := make(map[models.Tier]bool, len(opts.Tiers))
	for _, t := range opts.Tiers {
		tiers[t] = true
	}
	return &Enricher{
		store:    store,
		provider: provider,
		tiers:    tiers,
		delay:    opts.Delay,
	}
}

// Run enriches every candidate in an eligible tier, one provider call per
// article. A failed call is logged and counted but never stops the batch,
// and the article is left untouched so a later run can pick it up. There is
// no retry within a run.
func (e *Enricher) Run(ctx context.Context, candidates []models.StoredArticle) (enriched, failed int) {
	first := true
	for _, a := range candidates {
		if !e.tiers[a.Priority] {
			continue
		}
		if a.Summary != "" || (a.TranslatedTitle != "" && a.Abstract == "") {
			continue // already enriched
		}

		if ctx.Err() != nil {
			slog.Warn("enrichment aborted", "error", ctx.Err(), "remaining", len(candidates))
			return enriched, failed
		}

		if !first && e.delay > 0 {
			time.Sleep(e.delay)
		}
		first = false

		tr, err := e.provider.TranslateAndSummarize(ctx, a.Title, a.Abstract)
		if err != nil {
			slog.Warn("enrichment failed",
				"identity", a.Identity,
				"title", a.Title,
				"error", err,
			)
			failed++
			continue
		}

		if err := e.store.UpdateEnrichment(ctx, a.Identity, tr.Title, tr.Abstract, tr.Summary); err != nil {
			slog.Warn("saving enrichment failed", "identity", a.Identity, "error", err)
			failed++
			continue
		}

		enriched++
	}

	slog.Info("enrichment complete", "enriched", enriched, "failed", failed)
	return enriched, failed
}

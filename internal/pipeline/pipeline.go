// Package pipeline runs the full monitoring cycle: fetch, dedupe,
// classify, backfill, enrich, report, deliver.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgimm/journalmon/internal/ai"
	"github.com/dgimm/journalmon/internal/classify"
	"github.com/dgimm/journalmon/internal/config"
	"github.com/dgimm/journalmon/internal/digest"
	"github.com/dgimm/journalmon/internal/enrich"
	"github.com/dgimm/journalmon/internal/feeds"
	"github.com/dgimm/journalmon/internal/metadata"
	"github.com/dgimm/journalmon/internal/models"
	"github.com/dgimm/journalmon/internal/notify"
	"github.com/dgimm/journalmon/internal/opml"
	"github.com/dgimm/journalmon/internal/storage"
)

// Options toggles the run stages that cost money or send outbound mail,
// and optionally restricts the run to a subset of feed categories.
type Options struct {
	Translate  bool
	Email      bool
	Categories []string
}

// Pipeline wires the stages of one monitoring run. A nil enricher or
// mailer simply skips that stage.
type Pipeline struct {
	cfg        *config.Config
	store      *storage.Store
	fetcher    *feeds.Fetcher
	backfiller *metadata.Backfiller
	enricher   *enrich.Enricher
	mailer     *notify.Mailer
	categories []string
}

// New builds a Pipeline from configuration. Translation requires an API
// key; email requires the email section to be enabled.
func New(cfg *config.Config, store *storage.Store, opts Options) (*Pipeline, error) {
	p := &Pipeline{
		cfg:        cfg,
		store:      store,
		fetcher:    feeds.NewFetcher(),
		backfiller: metadata.NewBackfiller(store, cfg.OpenAlex, cfg.Keywords),
		categories: opts.Categories,
	}

	if opts.Translate && cfg.AI.APIKey != "" {
		provider, err := ai.NewProvider(ai.ProviderConfig{
			Provider:       cfg.AI.Provider,
			APIKey:         cfg.AI.APIKey,
			Model:          cfg.AI.Model,
			TargetLanguage: cfg.AI.TargetLanguage,
		})
		if err != nil {
			return nil, fmt.Errorf("creating AI provider: %w", err)
		}
		p.enricher = enrich.New(store, provider, enrich.Options{
			Tiers: enrichTiers(cfg.Enrich.Tiers),
			Delay: time.Duration(cfg.Enrich.DelayMS) * time.Millisecond,
		})
	}

	if opts.Email && cfg.Email.Enabled {
		p.mailer = notify.NewMailer(cfg.Email)
	}

	return p, nil
}

// Run executes one complete cycle. Per-source and per-article failures
// are contained and counted; only infrastructure failures (registry,
// database, report file) abort the run.
func (p *Pipeline) Run(ctx context.Context) (*models.RunSummary, error) {
	start := time.Now()
	summary := &models.RunSummary{}

	sources, err := opml.Load(p.cfg.Paths.OPMLFile)
	if err != nil {
		return nil, fmt.Errorf("loading feed registry: %w", err)
	}
	sources = opml.FilterByCategories(sources, p.categories)
	if len(sources) == 0 {
		return nil, fmt.Errorf("no feed sources match categories %v", p.categories)
	}
	slog.Info("starting run", "sources", len(sources))

	for _, src := range sources {
		if _, err := p.store.UpsertJournal(ctx, src.Name, src.URL, src.Category); err != nil {
			return nil, fmt.Errorf("registering journal %q: %w", src.Name, err)
		}
	}

	result, err := p.fetcher.FetchAll(ctx, sources, feeds.FetchOptions{
		RecencyWindow: p.cfg.Feeds.RecencyWindow(),
		MaxPerFeed:    p.cfg.Feeds.MaxArticlesPerFeed,
		RequestDelay:  time.Duration(p.cfg.Feeds.RequestDelayMS) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching feeds: %w", err)
	}

	p.recordFetchHealth(ctx, sources, result.Failed)
	summary.SourcesFetched = len(sources) - len(result.Failed)
	summary.SourcesFailed = len(result.Failed)
	summary.Candidates = len(result.Articles)

	newIdentities, err := p.ingest(ctx, result.Articles, summary)
	if err != nil {
		return nil, err
	}

	if backfilled, err := p.backfiller.Run(ctx); err != nil {
		slog.Warn("abstract backfill aborted", "error", err)
	} else {
		summary.Backfilled = backfilled
	}

	if p.enricher != nil && len(newIdentities) > 0 {
		candidates, err := p.store.Unenriched(ctx, newIdentities)
		if err != nil {
			slog.Warn("loading enrichment candidates failed", "error", err)
		} else {
			summary.Enriched, summary.EnrichFailed = p.enricher.Run(ctx, candidates)
		}
	}

	if err := p.report(ctx, result.Failed, summary); err != nil {
		return nil, err
	}

	slog.Info("run complete",
		"new_articles", summary.NewArticles,
		"already_seen", summary.AlreadySeen,
		"sources_failed", summary.SourcesFailed,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)
	return summary, nil
}

// ingest classifies and stores candidates, skipping identities already in
// the store. Returns the identities inserted this run. A storage failure
// aborts: losing a write here would break dedup for that identity on every
// later run.
func (p *Pipeline) ingest(ctx context.Context, candidates []models.Article, summary *models.RunSummary) ([]string, error) {
	var newIdentities []string

	for _, a := range candidates {
		seen, err := p.store.Exists(ctx, a.Identity)
		if err != nil {
			return nil, fmt.Errorf("checking identity %s: %w", a.Identity, err)
		}
		if seen {
			slog.Debug("already seen", "identity", a.Identity, "title", a.Title)
			summary.AlreadySeen++
			continue
		}

		tier, matched := classify.Classify(a.Title, a.Abstract, p.cfg.Keywords)

		stored := &models.StoredArticle{
			Identity:        a.Identity,
			Journal:         a.Journal,
			Category:        a.Category,
			Title:           a.Title,
			Abstract:        a.Abstract,
			Authors:         a.Authors,
			DOI:             a.DOI,
			URL:             a.URL,
			PublishedAt:     a.PublishedAt,
			FirstSeen:       time.Now().UTC(),
			Priority:        tier,
			KeywordsMatched: matched,
		}

		if _, err := p.store.Insert(ctx, stored); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				// Exists said no but the unique index said yes. Means two
				// feed entries in this batch share an identity; first one
				// wins.
				slog.Warn("duplicate identity within batch", "identity", a.Identity, "title", a.Title)
				summary.DupAnomalies++
				continue
			}
			return nil, fmt.Errorf("inserting article %s: %w", a.Identity, err)
		}

		summary.NewArticles++
		newIdentities = append(newIdentities, a.Identity)

		if tier != models.TierLow {
			slog.Info("new priority article", "priority", tier, "title", a.Title, "keywords", matched)
		}
	}

	return newIdentities, nil
}

// recordFetchHealth updates per-journal fetch state for the dashboard.
func (p *Pipeline) recordFetchHealth(ctx context.Context, sources []models.FeedSource, failed []feeds.FailedSource) {
	failedByName := make(map[string]string, len(failed))
	for _, f := range failed {
		failedByName[f.Name] = f.Err
	}

	now := time.Now().UTC()
	for _, src := range sources {
		if err := p.store.RecordFetchResult(ctx, src.Name, now, failedByName[src.Name]); err != nil {
			slog.Warn("recording fetch result failed", "journal", src.Name, "error", err)
		}
	}
}

// report assembles the digest, writes the Markdown file, records it and
// optionally emails it. Email failure is logged, not fatal: the report is
// already on disk.
func (p *Pipeline) report(ctx context.Context, failed []feeds.FailedSource, summary *models.RunSummary) error {
	now := time.Now()
	since := now.Add(-p.cfg.Feeds.RecencyWindow())

	articles, err := p.store.ArticlesSince(ctx, since.UTC(), nil)
	if err != nil {
		return fmt.Errorf("loading digest articles: %w", err)
	}

	failedSources := make([]digest.FailedSource, 0, len(failed))
	for _, f := range failed {
		failedSources = append(failedSources, digest.FailedSource{Name: f.Name, Err: f.Err})
	}

	d := digest.Assemble(articles, failedSources, now)

	path, err := digest.WriteFile(d, p.cfg.Paths.ReportsDir)
	if err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	slog.Info("report written", "path", path, "articles", d.Total())

	reportDate := now.Format("2006-01-02")
	if err := p.store.SaveReport(ctx, reportDate, d.Total(), len(d.High), path); err != nil {
		return fmt.Errorf("recording report: %w", err)
	}

	if p.mailer != nil {
		content, err := digest.Render(d)
		if err != nil {
			return fmt.Errorf("rendering report for email: %w", err)
		}
		subject := fmt.Sprintf("📚 학술저널 브리핑 %s (%d편)", reportDate, d.Total())
		attachment := fmt.Sprintf("journal_brief_%s.md", now.Format("20060102"))
		if err := p.mailer.SendReport(ctx, subject, content, attachment); err != nil {
			slog.Warn("briefing email failed", "error", err)
		}
	}

	return nil
}

func enrichTiers(names []string) []models.Tier {
	tiers := make([]models.Tier, 0, len(names))
	for _, n := range names {
		tiers = append(tiers, models.Tier(n))
	}
	return tiers
}

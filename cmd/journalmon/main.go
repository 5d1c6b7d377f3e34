package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/dgimm/journalmon/internal/api"
	"github.com/dgimm/journalmon/internal/config"
	"github.com/dgimm/journalmon/internal/pipeline"
	"github.com/dgimm/journalmon/internal/storage"
	"github.com/robfig/cron/v3"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	dataDir := flag.String("data-dir", "", "override directory for the database")
	hours := flag.Int("hours", 0, "override the recency window in hours")
	noTranslate := flag.Bool("no-translate", false, "skip LLM translation and summarization")
	noEmail := flag.Bool("no-email", false, "skip emailing the briefing")
	categories := flag.String("categories", "", "comma-separated feed categories to monitor (default all)")
	stats := flag.Bool("stats", false, "print collection statistics and exit")
	serve := flag.Bool("serve", false, "run the scheduler and dashboard server")
	flag.Parse()

	// Load configuration (auto-creates default if missing).
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if *hours > 0 {
		cfg.Feeds.RecencyHours = *hours
	}

	dbPath := cfg.Paths.Database
	if *dataDir != "" {
		dbPath = filepath.Join(*dataDir, filepath.Base(dbPath))
	}

	// Open database with WAL mode and pragmas.
	db, err := storage.OpenDatabase(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run schema migrations.
	if err := storage.RunMigrations(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	store := storage.NewStore(db)

	if *stats {
		printStats(store)
		return
	}

	p, err := pipeline.New(cfg, store, pipeline.Options{
		Translate:  !*noTranslate,
		Email:      !*noEmail,
		Categories: splitCategories(*categories),
	})
	if err != nil {
		slog.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	if cfg.AI.APIKey == "" && !*noTranslate {
		slog.Warn("no AI API key configured, translation will be skipped")
	}

	if *serve {
		runServer(cfg, store, p)
		return
	}

	summary, err := p.Run(context.Background())
	if err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}

	fmt.Printf("sources: %d fetched, %d failed\n", summary.SourcesFetched, summary.SourcesFailed)
	fmt.Printf("articles: %d candidates, %d new, %d already seen\n",
		summary.Candidates, summary.NewArticles, summary.AlreadySeen)
	fmt.Printf("backfilled: %d, enriched: %d (%d failed)\n",
		summary.Backfilled, summary.Enriched, summary.EnrichFailed)
}

// runServer schedules pipeline runs with cron and serves the dashboard
// until the process is killed.
func runServer(cfg *config.Config, store *storage.Store, p *pipeline.Pipeline) {
	// Guards against a slow run overlapping the next cron fire.
	var running atomic.Bool

	c := cron.New()
	_, err := c.AddFunc(cfg.Scheduler.Cron, func() {
		if !running.CompareAndSwap(false, true) {
			slog.Warn("previous run still in progress, skipping this schedule")
			return
		}
		defer running.Store(false)

		if _, err := p.Run(context.Background()); err != nil {
			slog.Error("scheduled run failed", "error", err)
		}
	})
	if err != nil {
		slog.Error("invalid cron expression", "cron", cfg.Scheduler.Cron, "error", err)
		os.Exit(1)
	}
	c.Start()
	defer c.Stop()

	router := api.NewRouter(store)
	addr := fmt.Sprintf("localhost:%d", cfg.Server.Port)

	slog.Info("starting server", "addr", "http://"+addr, "cron", cfg.Scheduler.Cron)
	if err := http.ListenAndServe(addr, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// splitCategories parses the -categories flag value.
func splitCategories(raw string) []string {
	if raw == "" {
		return nil
	}
	var categories []string
	for _, c := range strings.Split(raw, ",") {
		if c = strings.TrimSpace(c); c != "" {
			categories = append(categories, c)
		}
	}
	return categories
}

func printStats(store *storage.Store) {
	st, err := store.Stats(context.Background())
	if err != nil {
		slog.Error("failed to load stats", "error", err)
		os.Exit(1)
	}

	fmt.Printf("journals:        %d\n", st.TotalJournals)
	fmt.Printf("articles:        %d\n", st.TotalArticles)
	fmt.Printf("  last 24h:      %d\n", st.Articles24h)
	fmt.Printf("  last 7d:       %d\n", st.Articles7d)
	fmt.Printf("high priority:   %d\n", st.HighPriority)
	fmt.Printf("with abstract:   %d\n", st.WithAbstract)
	fmt.Printf("with DOI:        %d\n", st.WithDOI)
}

// Package feeds fetches and parses the journal RSS/Atom feeds.
package feeds

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/dgimm/journalmon/internal/models"
	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"
)

const (
	httpTimeout   = 30 * time.Second
	maxConcurrent = 10
)

// FetchOptions controls how feeds are fetched and filtered.
type FetchOptions struct {
	// RecencyWindow keeps only entries published within [Now-window, Now].
	// Entries with no parseable timestamp are treated as published now and
	// always kept.
	RecencyWindow time.Duration

	// MaxPerFeed caps the number of candidates taken from a single feed.
	MaxPerFeed int

	// RequestDelay is the minimum delay between requests to the same domain.
	RequestDelay time.Duration

	// Now anchors the recency window. The zero value means time.Now().
	Now time.Time
}

// FailedSource records a feed that could not be fetched or parsed.
type FailedSource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Err  string `json:"error"`
}

// FetchResult contains the candidate articles and any per-source failures.
// Articles preserve source-registry order, then discovery order within a
// source, even though sources are fetched concurrently.
type FetchResult struct {
	Articles []models.Article
	Failed   []FailedSource
}

// Fetcher retrieves feeds with per-domain rate limiting and bounded
// concurrency.
type Fetcher struct {
	client      *http.Client
	rateLimiter map[string]time.Time // per-domain last request time
	mu          sync.Mutex           // protects rateLimiter
}

// NewFetcher creates a Fetcher with a 30-second timeout HTTP client and a
// browser-like User-Agent.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: httpTimeout,
			Transport: &userAgentTransport{
				base: http.DefaultTransport,
			},
		},
		rateLimiter: make(map[string]time.Time),
	}
}

// userAgentTransport wraps an http.RoundTripper to inject a custom
// User-Agent header on every request. Several academic publishers reject
// the default Go user agent.
type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")
	return t.base.RoundTrip(req)
}

// FetchAll fetches every source concurrently with at most 10 goroutines.
// Individual source failures are collected in FetchResult.Failed rather
// than failing the batch: a single broken feed must never abort the run.
func (f *Fetcher) FetchAll(ctx context.Context, sources []models.FeedSource, opts FetchOptions) (*FetchResult, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	// Indexed by source position so the flattened output keeps registry
	// order regardless of fetch completion order.
	perSource := make([][]models.Article, len(sources))
	perSourceErr := make([]error, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			articles, err := f.fetchSingleFeed(ctx, src, opts)
			if err != nil {
				slog.Warn("failed to fetch feed",
					"source", src.Name,
					"url", src.URL,
					"error", err,
				)
				perSourceErr[i] = err
				return nil // skip failures, don't fail the batch
			}

			perSource[i] = articles
			slog.Info("fetched feed", "source", src.Name, "items", len(articles))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching feeds: %w", err)
	}

	var result FetchResult
	for i, src := range sources {
		if perSourceErr[i] != nil {
			result.Failed = append(result.Failed, FailedSource{
				Name: src.Name,
				URL:  src.URL,
				Err:  perSourceErr[i].Error(),
			})
			continue
		}
		result.Articles = append(result.Articles, perSource[i]...)
	}

	return &result, nil
}

// fetchSingleFeed retrieves and parses a single source's feed.
func (f *Fetcher) fetchSingleFeed(ctx context.Context, source models.FeedSource, opts FetchOptions) ([]models.Article, error) {
	f.waitForRateLimit(extractDomain(source.URL), opts.RequestDelay)

	fp := gofeed.NewParser()
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(source.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %q: %w", source.URL, err)
	}

	return parseItems(source, feed, opts), nil
}

// waitForRateLimit enforces a minimum delay between requests to the same
// domain. It blocks until the delay has elapsed.
func (f *Fetcher) waitForRateLimit(domain string, delay time.Duration) {
	if delay <= 0 {
		return
	}

	f.mu.Lock()
	lastReq, ok := f.rateLimiter[domain]
	if ok {
		elapsed := time.Since(lastReq)
		if elapsed < delay {
			f.mu.Unlock()
			time.Sleep(delay - elapsed)
			f.mu.Lock()
		}
	}
	f.rateLimiter[domain] = time.Now()
	f.mu.Unlock()
}

// extractDomain parses a URL and returns its hostname. If parsing fails, it
// returns the raw URL as a fallback key.
func extractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Hostname()
}

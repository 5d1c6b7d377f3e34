package metadata

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// minScrapedLength guards against selectors matching a heading or a cookie
// banner instead of the actual abstract.
const minScrapedLength = 100

var scrapeWhitespaceRe = regexp.MustCompile(`\s+`)

// Scraper pulls abstracts straight off publisher article pages. It knows
// the abstract markup of the major geography publishers and falls back to
// meta tags and readability extraction for everything else.
type Scraper struct {
	client *http.Client
}

// NewScraper creates a Scraper with a browser-like User-Agent. Publisher
// sites block obvious bots.
func NewScraper() *Scraper {
	return &Scraper{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// publisherSelectors maps a domain substring to the CSS selectors that
// locate the abstract on that publisher's article pages, tried in order.
var publisherSelectors = []struct {
	domain    string
	selectors []string
}{
	{"tandfonline.com", []string{
		"div.abstractSection.abstractInFull",
		"div.hlFld-Abstract",
		`div[class*="abstract"]`,
		"section.abstract",
		"div.abstractInFull",
	}},
	{"sagepub.com", []string{
		"div.abstractSection",
		"div.hlFld-Abstract",
		`div[class*="abstract"]`,
		"section#abstract",
	}},
	{"onlinelibrary.wiley.com", []string{
		"div.article-section__content.en.main",
		"section.article-section__abstract",
		`section[class*="abstract"]`,
		`div[class*="abstract"]`,
	}},
	{"sciencedirect.com", []string{
		"div.abstract.author",
		`div[class*="Abstracts"]`,
		"div#abstracts",
	}},
	{"springer.com", []string{
		`section[data-title="Abstract"]`,
		"div#Abs1-content",
		"div.c-article-section__content",
		"section.Abstract",
	}},
}

// genericMetaSelectors are tried on unknown domains before readability.
var genericMetaSelectors = []string{
	`meta[name="citation_abstract"]`,
	`meta[name="DC.description"]`,
	`meta[property="og:description"]`,
	`meta[name="description"]`,
}

// AbstractFromPage fetches an article page and extracts its abstract.
// Returns an empty string with no error when the page yields nothing
// usable.
func (s *Scraper) AbstractFromPage(ctx context.Context, pageURL string) (string, error) {
	if pageURL == "" {
		return "", nil
	}

	body, err := s.fetchPage(ctx, pageURL)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parsing page HTML: %w", err)
	}

	host := hostOf(pageURL)
	for _, pub := range publisherSelectors {
		if !strings.Contains(host, pub.domain) {
			continue
		}
		if abstract := selectAbstract(doc, pub.selectors); abstract != "" {
			slog.Debug("scraped publisher abstract", "domain", pub.domain, "url", pageURL)
			return abstract, nil
		}
		break
	}

	if abstract := metaAbstract(doc); abstract != "" {
		return abstract, nil
	}

	return s.readabilityFallback(body, pageURL), nil
}

func (s *Scraper) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page status %d for %s", resp.StatusCode, pageURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("reading page body: %w", err)
	}
	return body, nil
}

// selectAbstract tries each selector and returns the first match long
// enough to be a real abstract. Headings, buttons and links inside the
// matched node are dropped first.
func selectAbstract(doc *goquery.Document, selectors []string) string {
	for _, selector := range selectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		sel.Find("h2, h3, button, a").Remove()

		text := cleanAbstract(sel.Text())
		if len(text) >= minScrapedLength {
			return text
		}
	}
	return ""
}

func metaAbstract(doc *goquery.Document) string {
	for _, selector := range genericMetaSelectors {
		if content, ok := doc.Find(selector).First().Attr("content"); ok {
			text := cleanAbstract(content)
			if len(text) >= minScrapedLength {
				return text
			}
		}
	}
	for _, selector := range []string{"div.abstract", "section.abstract", "p.abstract"} {
		text := cleanAbstract(doc.Find(selector).First().Text())
		if len(text) >= minScrapedLength {
			return text
		}
	}
	return ""
}

// readabilityFallback runs full-page content extraction and takes the
// leading text. Last resort for publishers with unrecognized markup.
func (s *Scraper) readabilityFallback(body []byte, pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	article, err := readability.FromReader(bytes.NewReader(body), u)
	if err != nil {
		return ""
	}

	text := cleanAbstract(article.TextContent)
	if len(text) < minScrapedLength {
		return ""
	}

	runes := []rune(text)
	if len(runes) > 2000 {
		text = string(runes[:2000])
	}
	return text
}

// cleanAbstract collapses whitespace and strips a leading "Abstract" label.
func cleanAbstract(text string) string {
	text = strings.TrimSpace(scrapeWhitespaceRe.ReplaceAllString(text, " "))
	for _, label := range []string{"Abstract:", "Abstract.", "Abstract", "ABSTRACT"} {
		if strings.HasPrefix(text, label) {
			text = strings.TrimSpace(strings.TrimPrefix(text, label))
			break
		}
	}
	return text
}

func hostOf(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

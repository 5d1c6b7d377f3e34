package feeds

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/dgimm/journalmon/internal/models"
	"github.com/mmcdole/gofeed"
)

// maxAbstractRunes caps feed-sourced abstracts. Some publishers ship entire
// article bodies in the description element.
const maxAbstractRunes = 2000

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	doiRe        = regexp.MustCompile(`10\.\d{4,9}/[-._;()/:a-zA-Z0-9]+`)
)

// parseItems converts feed items into candidate articles. Entries without a
// title or link are skipped. Entries older than the recency window are
// dropped; entries with no parseable timestamp are kept with a nil
// published time, so a feed with broken dates degrades to "everything is
// new" rather than "everything is silently dropped".
func parseItems(source models.FeedSource, feed *gofeed.Feed, opts FetchOptions) []models.Article {
	cutoff := opts.Now.Add(-opts.RecencyWindow)

	var articles []models.Article
	for _, item := range feed.Items {
		if opts.MaxPerFeed > 0 && len(articles) >= opts.MaxPerFeed {
			break
		}

		title := strings.TrimSpace(item.Title)
		link := strings.TrimSpace(item.Link)
		if title == "" || link == "" {
			continue
		}

		published := parsePublished(item)
		if published != nil && published.Before(cutoff) {
			continue
		}

		articles = append(articles, models.Article{
			Identity:    Identity(title, link),
			Journal:     source.Name,
			Category:    source.Category,
			Title:       title,
			Abstract:    extractAbstract(item),
			Authors:     extractAuthors(item),
			DOI:         extractDOI(item, link),
			URL:         link,
			PublishedAt: published,
		})
	}
	return articles
}

// Identity derives the stable deduplication key for an article. It depends
// only on the title and link, so re-fetching the same entry always produces
// the same key.
func Identity(title, link string) string {
	sum := sha256.Sum256([]byte(title + "|" + link))
	return hex.EncodeToString(sum[:])
}

// parsePublished resolves an item's publication time, preferring the
// timestamps gofeed already parsed and falling back to lenient parsing of
// the raw strings. Returns nil when no timestamp can be recovered.
func parsePublished(item *gofeed.Item) *time.Time {
	if item.PublishedParsed != nil {
		t := item.PublishedParsed.UTC()
		return &t
	}
	if item.UpdatedParsed != nil {
		t := item.UpdatedParsed.UTC()
		return &t
	}
	for _, raw := range []string{item.Published, item.Updated} {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if t, err := dateparse.ParseAny(raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// extractAbstract pulls the entry description or content, strips markup and
// caps the length.
func extractAbstract(item *gofeed.Item) string {
	text := item.Description
	if strings.TrimSpace(stripHTML(text)) == "" {
		text = item.Content
	}

	text = strings.TrimSpace(stripHTML(text))
	runes := []rune(text)
	if len(runes) > maxAbstractRunes {
		text = string(runes[:maxAbstractRunes])
	}
	return text
}

// extractAuthors joins item authors into a single comma-separated string,
// falling back to Dublin Core creators.
func extractAuthors(item *gofeed.Item) string {
	var names []string
	for _, a := range item.Authors {
		if a != nil && strings.TrimSpace(a.Name) != "" {
			names = append(names, strings.TrimSpace(a.Name))
		}
	}
	if len(names) == 0 && item.DublinCoreExt != nil {
		for _, c := range item.DublinCoreExt.Creator {
			if strings.TrimSpace(c) != "" {
				names = append(names, strings.TrimSpace(c))
			}
		}
	}
	return strings.Join(names, ", ")
}

// extractDOI looks for a DOI in the item's prism extension, Dublin Core
// identifier, GUID or link, in that order.
func extractDOI(item *gofeed.Item, link string) string {
	if ext, ok := item.Extensions["prism"]; ok {
		for _, e := range ext["doi"] {
			if doi := doiRe.FindString(e.Value); doi != "" {
				return doi
			}
		}
	}
	if item.DublinCoreExt != nil {
		for _, id := range item.DublinCoreExt.Identifier {
			if doi := doiRe.FindString(id); doi != "" {
				return doi
			}
		}
	}
	if doi := doiRe.FindString(item.GUID); doi != "" {
		return doi
	}
	return doiRe.FindString(link)
}

// stripHTML removes tags and collapses whitespace. Enough for feed
// descriptions; full-page extraction goes through goquery instead.
func stripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	).Replace(s)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

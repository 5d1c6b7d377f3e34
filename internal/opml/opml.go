// Package opml reads the feed subscription registry from an OPML file.
package opml

import (
	"encoding/xml"
	"fmt"
	"os"

	"github.com/dgimm/journalmon/internal/models"
)

// document mirrors the OPML structure we care about: nested outline
// elements where folders carry the category and leaves carry the feed URL.
type document struct {
	XMLName xml.Name `xml:"opml"`
	Body    bodyElem `xml:"body"`
}

type bodyElem struct {
	Outlines []outline `xml:"outline"`
}

type outline struct {
	Text     string    `xml:"text,attr"`
	Title    string    `xml:"title,attr"`
	XMLURL   string    `xml:"xmlUrl,attr"`
	Children []outline `xml:"outline"`
}

// Load parses the OPML file at path into a list of feed sources. Folder
// outlines contribute the category of their children; top-level feeds get
// the "Uncategorized" category. An unreadable file, malformed XML, or an
// empty resulting source list is an error.
func Load(path string) ([]models.FeedSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading OPML file: %w", err)
	}

	var doc document
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing OPML file %q: %w", path, err)
	}

	var sources []models.FeedSource
	for _, o := range doc.Body.Outlines {
		if len(o.Children) > 0 {
			category := o.Text
			if category == "" {
				category = "Uncategorized"
			}
			for _, child := range o.Children {
				if src, ok := toSource(child, category); ok {
					sources = append(sources, src)
				}
			}
			continue
		}
		if src, ok := toSource(o, "Uncategorized"); ok {
			sources = append(sources, src)
		}
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("OPML file %q contains no feed sources", path)
	}

	return sources, nil
}

// toSource converts a leaf outline into a FeedSource. Outlines without an
// xmlUrl attribute are not feeds (nested folders, separators) and are
// skipped.
func toSource(o outline, category string) (models.FeedSource, bool) {
	if o.XMLURL == "" {
		return models.FeedSource{}, false
	}

	name := o.Title
	if name == "" {
		name = o.Text
	}
	if name == "" {
		name = "Unknown"
	}

	return models.FeedSource{
		Name:     name,
		URL:      o.XMLURL,
		Category: category,
	}, true
}

// FilterByCategories returns the sources whose category is in the given
// list. An empty filter returns all sources.
func FilterByCategories(sources []models.FeedSource, categories []string) []models.FeedSource {
	if len(categories) == 0 {
		return sources
	}

	want := make(map[string]bool, len(categories))
	for _, c := range categories {
		want[c] = true
	}

	var filtered []models.FeedSource
	for _, src := range sources {
		if want[src.Category] {
			filtered = append(filtered, src)
		}
	}
	return filtered
}

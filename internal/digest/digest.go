// Package digest assembles stored articles into the daily briefing.
package digest

import (
	"sort"
	"time"

	"github.com/dgimm/journalmon/internal/models"
)

// JournalStat counts how many digest articles came from one journal.
type JournalStat struct {
	Journal  string
	Category string
	Count    int
}

// FailedSource is a feed that could not be fetched during the run.
type FailedSource struct {
	Name string
	Err  string
}

// Digest is the assembled daily briefing, grouped by priority tier.
type Digest struct {
	Date          time.Time
	High          []models.StoredArticle
	Medium        []models.StoredArticle
	Low           []models.StoredArticle
	JournalStats  []JournalStat
	FailedSources []FailedSource
}

// Total returns the number of articles across all tiers.
func (d *Digest) Total() int {
	return len(d.High) + len(d.Medium) + len(d.Low)
}

// Assemble groups articles by tier and orders each group by publication
// time, newest first, with undated articles last. The input is not
// mutated; assembling the same articles twice yields the same digest.
func Assemble(articles []models.StoredArticle, failed []FailedSource, date time.Time) *Digest {
	d := &Digest{Date: date, FailedSources: failed}

	for _, a := range articles {
		switch a.Priority {
		case models.TierHigh:
			d.High = append(d.High, a)
		case models.TierMedium:
			d.Medium = append(d.Medium, a)
		default:
			d.Low = append(d.Low, a)
		}
	}

	for _, group := range [][]models.StoredArticle{d.High, d.Medium, d.Low} {
		sortByPublished(group)
	}

	d.JournalStats = journalStats(articles)
	return d
}

// sortByPublished orders newest first, undated last. Ties keep their
// relative input order.
func sortByPublished(articles []models.StoredArticle) {
	sort.SliceStable(articles, func(i, j int) bool {
		a, b := articles[i].PublishedAt, articles[j].PublishedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
}

// journalStats counts articles per journal, ordered by count descending
// then name for a stable table.
func journalStats(articles []models.StoredArticle) []JournalStat {
	counts := make(map[string]*JournalStat)
	for _, a := range articles {
		st, ok := counts[a.Journal]
		if !ok {
			st = &JournalStat{Journal: a.Journal, Category: a.Category}
			counts[a.Journal] = st
		}
		st.Count++
	}

	stats := make([]JournalStat, 0, len(counts))
	for _, st := range counts {
		stats = append(stats, *st)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Journal < stats[j].Journal
	})
	return stats
}

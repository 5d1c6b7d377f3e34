// Package classify assigns priority tiers to articles by keyword matching.
package classify

import (
	"strings"

	"github.com/dgimm/journalmon/internal/config"
	"github.com/dgimm/journalmon/internal/models"
)

// Classify returns the priority tier for an article and the keywords that
// matched. Matching is case-insensitive substring matching against the
// concatenation of title and abstract. Any high-priority keyword match wins
// over any number of medium matches; the number of matches within a tier
// does not affect the result. The function is pure: same text and same
// keyword lists always yield the same tier.
func Classify(title, abstract string, keywords config.KeywordsConfig) (models.Tier, []string) {
	text := strings.ToLower(title + " " + abstract)

	if matched := matchAny(text, keywords.PriorityHigh); len(matched) > 0 {
		return models.TierHigh, matched
	}
	if matched := matchAny(text, keywords.PriorityMedium); len(matched) > 0 {
		return models.TierMedium, matched
	}
	return models.TierLow, nil
}

// matchAny returns every keyword from the list found in text.
func matchAny(text string, keywords []string) []string {
	var matched []string
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(kw)) {
			matched = append(matched, kw)
		}
	}
	return matched
}

// Package metadata backfills missing abstracts from scholarly metadata
// APIs and publisher pages.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultOpenAlexURL = "https://api.openalex.org"

// OpenAlexClient queries the OpenAlex works API. Supplying an email joins
// the polite pool, which gets relaxed rate limits.
type OpenAlexClient struct {
	// BaseURL can be overridden in tests.
	BaseURL string

	email  string
	client *http.Client
}

// NewOpenAlexClient creates an OpenAlexClient.
func NewOpenAlexClient(email string) *OpenAlexClient {
	return &OpenAlexClient{
		BaseURL: defaultOpenAlexURL,
		email:   email,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// openAlexWork is the subset of the works response we read. OpenAlex ships
// abstracts as an inverted index rather than plain text.
type openAlexWork struct {
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
}

// AbstractByDOI looks up a work by DOI and returns its abstract. A DOI
// unknown to OpenAlex, or a work without an abstract, returns an empty
// string with no error.
func (c *OpenAlexClient) AbstractByDOI(ctx context.Context, doi string) (string, error) {
	reqURL := fmt.Sprintf("%s/works/https://doi.org/%s", c.BaseURL, NormalizeDOI(doi))
	if c.email != "" {
		reqURL += "?mailto=" + url.QueryEscape(c.email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent(c.email))

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("querying openalex: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openalex status %d for DOI %s", resp.StatusCode, doi)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}

	var work openAlexWork
	if err := json.Unmarshal(body, &work); err != nil {
		return "", fmt.Errorf("parsing openalex response: %w", err)
	}

	return reconstructAbstract(work.AbstractInvertedIndex), nil
}

// reconstructAbstract rebuilds plain text from OpenAlex's inverted index,
// which maps each word to the positions it occupies in the abstract.
func reconstructAbstract(index map[string][]int) string {
	if len(index) == 0 {
		return ""
	}

	byPosition := make(map[int]string)
	maxPos := -1
	for word, positions := range index {
		for _, pos := range positions {
			byPosition[pos] = word
			if pos > maxPos {
				maxPos = pos
			}
		}
	}

	words := make([]string, 0, maxPos+1)
	for pos := 0; pos <= maxPos; pos++ {
		if w, ok := byPosition[pos]; ok {
			words = append(words, w)
		}
	}
	return strings.Join(words, " ")
}

// NormalizeDOI strips any https://doi.org/ style prefix, leaving the bare
// 10.xxxx/... identifier.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	if idx := strings.Index(doi, "doi.org/"); idx >= 0 {
		doi = doi[idx+len("doi.org/"):]
	}
	return doi
}

func userAgent(email string) string {
	if email != "" {
		return fmt.Sprintf("journalmon/1.0 (mailto:%s)", email)
	}
	return "journalmon/1.0"
}

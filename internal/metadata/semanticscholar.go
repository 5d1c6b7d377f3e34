package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultSemanticScholarURL = "https://api.semanticscholar.org/graph/v1"

// SemanticScholarClient queries the Semantic Scholar Graph API. Used as a
// second chance for DOIs OpenAlex has no abstract for.
type SemanticScholarClient struct {
	// BaseURL can be overridden in tests.
	BaseURL string

	client *http.Client
}

// NewSemanticScholarClient creates a SemanticScholarClient.
func NewSemanticScholarClient() *SemanticScholarClient {
	return &SemanticScholarClient{
		BaseURL: defaultSemanticScholarURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type semanticScholarPaper struct {
	Abstract string `json:"abstract"`
}

// AbstractByDOI looks up a paper by DOI and returns its abstract. An
// unknown DOI returns an empty string with no error; a rate limit response
// is an error so the caller stops hammering the API.
func (c *SemanticScholarClient) AbstractByDOI(ctx context.Context, doi string) (string, error) {
	reqURL := fmt.Sprintf("%s/paper/DOI:%s?fields=abstract", c.BaseURL, NormalizeDOI(doi))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "journalmon/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("querying semantic scholar: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("semantic scholar rate limited")
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("semantic scholar status %d for DOI %s", resp.StatusCode, doi)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}

	var paper semanticScholarPaper
	if err := json.Unmarshal(body, &paper); err != nil {
		return "", fmt.Errorf("parsing semantic scholar response: %w", err)
	}

	return paper.Abstract, nil
}

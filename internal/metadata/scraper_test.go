package metadata

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const longAbstract = "This article examines the politics of urban redevelopment through an assemblage lens, drawing on eighteen months of fieldwork across three mid-sized cities to trace how displacement is negotiated."

func docFromHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(html)))
	if err != nil {
		t.Fatalf("parsing test HTML: %v", err)
	}
	return doc
}

func TestSelectAbstract_StripsChromeAndLabels(t *testing.T) {
	html := fmt.Sprintf(`<html><body>
		<div class="hlFld-Abstract">
			<h2>Abstract</h2>
			<a href="#">Jump to section</a>
			<p>%s</p>
		</div>
	</body></html>`, longAbstract)

	doc := docFromHTML(t, html)
	got := selectAbstract(doc, []string{"div.hlFld-Abstract"})
	if got != longAbstract {
		t.Errorf("selectAbstract() = %q, want clean abstract", got)
	}
}

func TestSelectAbstract_RejectsShortMatches(t *testing.T) {
	doc := docFromHTML(t, `<div class="abstract">Abstract</div>`)
	if got := selectAbstract(doc, []string{"div.abstract"}); got != "" {
		t.Errorf("selectAbstract() = %q, want empty for heading-only match", got)
	}
}

func TestMetaAbstract(t *testing.T) {
	html := fmt.Sprintf(`<html><head>
		<meta name="citation_abstract" content="%s">
	</head><body></body></html>`, longAbstract)

	doc := docFromHTML(t, html)
	if got := metaAbstract(doc); got != longAbstract {
		t.Errorf("metaAbstract() = %q", got)
	}
}

func TestCleanAbstract(t *testing.T) {
	got := cleanAbstract("Abstract:   Urban   governance\n\tmatters.")
	if got != "Urban governance matters." {
		t.Errorf("cleanAbstract() = %q", got)
	}
}

func TestAbstractFromPage_PublisherMarkup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><head>
			<meta name="description" content="%s">
		</head><body></body></html>`, longAbstract)
	}))
	defer server.Close()

	// The test server domain matches no publisher, so this exercises the
	// generic meta-tag path.
	got, err := NewScraper().AbstractFromPage(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("AbstractFromPage() error: %v", err)
	}
	if got != longAbstract {
		t.Errorf("AbstractFromPage() = %q", got)
	}
}

func TestAbstractFromPage_ReadabilityFallback(t *testing.T) {
	body := strings.Repeat("<p>"+longAbstract+"</p>", 8)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><head><title>Article</title></head><body><article>%s</article></body></html>`, body)
	}))
	defer server.Close()

	got, err := NewScraper().AbstractFromPage(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("AbstractFromPage() error: %v", err)
	}
	if len(got) < minScrapedLength {
		t.Errorf("AbstractFromPage() = %q, want readability-extracted text", got)
	}
}

func TestAbstractFromPage_EmptyURL(t *testing.T) {
	got, err := NewScraper().AbstractFromPage(context.Background(), "")
	if err != nil || got != "" {
		t.Errorf("AbstractFromPage(\"\") = (%q, %v), want empty, nil", got, err)
	}
}

func TestAbstractFromPage_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer server.Close()

	if _, err := NewScraper().AbstractFromPage(context.Background(), server.URL); err == nil {
		t.Fatal("expected error for 403 response")
	}
}

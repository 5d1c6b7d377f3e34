package opml

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dgimm/journalmon/internal/models"
)

// writeOPML writes content to a temp file and returns its path.
func writeOPML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Feeds.opml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing test OPML: %v", err)
	}
	return path
}

const sampleOPML = `<?xml version="1.0" encoding="UTF-8"?>
<opml version="2.0">
  <head><title>Subscriptions</title></head>
  <body>
    <outline text="Academic: Geography Journals">
      <outline text="Antipode" title="Antipode" type="rss" xmlUrl="https://example.com/antipode/rss"/>
      <outline text="EPD" type="rss" xmlUrl="https://example.com/epd/rss"/>
    </outline>
    <outline text="Standalone Feed" type="rss" xmlUrl="https://example.com/standalone/rss"/>
    <outline text="Empty Folder"/>
  </body>
</opml>`

func TestLoad_ParsesFoldersAndStandaloneFeeds(t *testing.T) {
	path := writeOPML(t, sampleOPML)

	sources, err := Load(path)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	want := []models.FeedSource{
		{Name: "Antipode", URL: "https://example.com/antipode/rss", Category: "Academic: Geography Journals"},
		{Name: "EPD", URL: "https://example.com/epd/rss", Category: "Academic: Geography Journals"},
		{Name: "Standalone Feed", URL: "https://example.com/standalone/rss", Category: "Uncategorized"},
	}

	if len(sources) != len(want) {
		t.Fatalf("Load() returned %d sources, want %d: %+v", len(sources), len(want), sources)
	}
	for i, w := range want {
		if sources[i] != w {
			t.Errorf("sources[%d] = %+v, want %+v", i, sources[i], w)
		}
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "malformed XML",
			content: `<opml><body><outline text="x"`,
		},
		{
			name: "no feed sources",
			content: `<?xml version="1.0"?>
<opml version="2.0"><body>
  <outline text="Folder Without Feeds"/>
</body></opml>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeOPML(t, tt.content)
			if _, err := Load(path); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.opml")); err == nil {
		t.Fatal("expected error for missing file, got nil")
	}
}

func TestFilterByCategories(t *testing.T) {
	sources := []models.FeedSource{
		{Name: "A", Category: "Geography"},
		{Name: "B", Category: "Sociology"},
		{Name: "C", Category: "Geography"},
	}

	got := FilterByCategories(sources, []string{"Geography"})
	if len(got) != 2 || got[0].Name != "A" || got[1].Name != "C" {
		t.Errorf("FilterByCategories() = %+v, want A and C", got)
	}

	if got := FilterByCategories(sources, nil); len(got) != 3 {
		t.Errorf("empty filter returned %d sources, want all 3", len(got))
	}
}

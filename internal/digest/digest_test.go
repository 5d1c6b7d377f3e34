package digest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dgimm/journalmon/internal/models"
)

func article(identity string, tier models.Tier, published *time.Time) models.StoredArticle {
	return models.StoredArticle{
		Identity:    identity,
		Journal:     "Antipode",
		Category:    "Geography Journals",
		Title:       "Article " + identity,
		URL:         "https://example.com/" + identity,
		Priority:    tier,
		PublishedAt: published,
	}
}

func TestAssemble_GroupsByTier(t *testing.T) {
	now := time.Now()
	articles := []models.StoredArticle{
		article("h1", models.TierHigh, &now),
		article("l1", models.TierLow, &now),
		article("m1", models.TierMedium, &now),
		article("h2", models.TierHigh, &now),
	}

	d := Assemble(articles, nil, now)
	if len(d.High) != 2 || len(d.Medium) != 1 || len(d.Low) != 1 {
		t.Fatalf("group sizes = (%d, %d, %d), want (2, 1, 1)", len(d.High), len(d.Medium), len(d.Low))
	}
	if d.Total() != 4 {
		t.Errorf("Total() = %d, want 4", d.Total())
	}
}

func TestAssemble_OrdersNewestFirstUndatedLast(t *testing.T) {
	now := time.Now()
	older := now.Add(-48 * time.Hour)
	newer := now.Add(-time.Hour)

	articles := []models.StoredArticle{
		article("old", models.TierHigh, &older),
		article("undated", models.TierHigh, nil),
		article("new", models.TierHigh, &newer),
	}

	d := Assemble(articles, nil, now)
	got := []string{d.High[0].Identity, d.High[1].Identity, d.High[2].Identity}
	want := []string{"new", "old", "undated"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestAssemble_JournalStats(t *testing.T) {
	now := time.Now()
	articles := []models.StoredArticle{
		article("a", models.TierLow, &now),
		article("b", models.TierLow, &now),
		{Identity: "c", Journal: "City", Priority: models.TierLow},
	}

	d := Assemble(articles, nil, now)
	if len(d.JournalStats) != 2 {
		t.Fatalf("JournalStats has %d entries, want 2", len(d.JournalStats))
	}
	if d.JournalStats[0].Journal != "Antipode" || d.JournalStats[0].Count != 2 {
		t.Errorf("top stat = %+v, want Antipode with 2", d.JournalStats[0])
	}
}

func TestRender_SectionsAndFallbacks(t *testing.T) {
	now := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)

	high := article("h", models.TierHigh, &now)
	high.TranslatedTitle = "번역된 제목"
	high.Summary = "두 문장 요약."
	high.TranslatedAbstract = "번역된 초록."
	high.KeywordsMatched = []string{"gentrification"}
	high.Authors = "Smith, J."

	med := article("m", models.TierMedium, &now)
	low := article("l", models.TierLow, &now)

	d := Assemble([]models.StoredArticle{high, med, low}, []FailedSource{{Name: "EPD", Err: "timeout"}}, now)

	out, err := Render(d)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	for _, want := range []string{
		"**2026-08-31** | 총 **3**편 수집",
		"## 🔴 높은 관심도 (1편)",
		"번역된 제목",
		"**원제:** Article h",
		"gentrification",
		"두 문장 요약.",
		"## 🟡 중간 관심도 (1편)",
		"## 📋 기타 논문 (1편)",
		"| Antipode | Article l | [보기](https://example.com/l) |",
		"## ⚠️ 수집 실패 (1건)",
		"**EPD**: timeout",
		"## 📊 저널별 통계",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered report missing %q", want)
		}
	}
}

func TestRender_UntranslatedFallsBackToOriginalTitle(t *testing.T) {
	now := time.Now()
	d := Assemble([]models.StoredArticle{article("h", models.TierHigh, &now)}, nil, now)

	out, err := Render(d)
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(out, "Article h") {
		t.Error("report missing original title fallback")
	}
	if strings.Contains(out, "**원제:**") {
		t.Error("report shows original-title line without a translation")
	}
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	date := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	d := Assemble([]models.StoredArticle{article("a", models.TierLow, &date)}, nil, date)

	path, err := WriteFile(d, dir)
	if err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	if filepath.Base(path) != "journal_brief_20260831.md" {
		t.Errorf("report filename = %q", filepath.Base(path))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	if !strings.Contains(string(content), "학술저널 일일 브리핑") {
		t.Error("written report missing header")
	}
}

package digest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/dgimm/journalmon/internal/models"
)

// reportTemplate renders the briefing Markdown. High-priority articles get
// the full treatment, medium gets a brief entry, everything else lands in
// a compact table.
const reportTemplate = `# 📚 학술저널 일일 브리핑
**{{ .Date.Format "2006-01-02" }}** | 총 **{{ .Total }}**편 수집

---
{{ if .High }}
## 🔴 높은 관심도 ({{ len .High }}편)
{{ range $i, $a := .High }}
### {{ inc $i }}. {{ displayTitle $a }}
{{ if $a.TranslatedTitle }}
> **원제:** {{ $a.Title }}
{{ end }}
- **저널:** {{ $a.Journal }}
- **저자:** {{ orNone $a.Authors }}
{{- if $a.KeywordsMatched }}
- **🏷️ 키워드:** {{ join $a.KeywordsMatched ", " }}
{{- end }}
- **🔗 링크:** [원문 보기]({{ $a.URL }})
{{ if $a.Summary }}
**📝 요약:** {{ $a.Summary }}
{{ end }}
{{- if $a.TranslatedAbstract }}
<details>
<summary>전체 초록 번역</summary>

{{ $a.TranslatedAbstract }}

</details>
{{ end }}
---
{{ end }}{{ end }}
{{- if .Medium }}
## 🟡 중간 관심도 ({{ len .Medium }}편)
{{ range $i, $a := .Medium }}
### {{ inc $i }}. {{ displayTitle $a }}

- **저널:** {{ $a.Journal }}
{{- if $a.KeywordsMatched }}
- **🏷️ 키워드:** {{ join $a.KeywordsMatched ", " }}
{{- end }}
- **🔗 링크:** [원문 보기]({{ $a.URL }})
{{ if $a.Summary }}{{ $a.Summary }}
{{ end }}
---
{{ end }}{{ end }}
{{- if .Low }}
## 📋 기타 논문 ({{ len .Low }}편)

| 저널 | 제목 | 링크 |
|------|------|------|
{{ range .Low }}| {{ .Journal }} | {{ shortTitle . }} | [보기]({{ .URL }}) |
{{ end }}{{ end }}
{{- if .FailedSources }}
## ⚠️ 수집 실패 ({{ len .FailedSources }}건)
{{ range .FailedSources }}
- **{{ .Name }}**: {{ .Err }}
{{- end }}
{{ end }}
---

## 📊 저널별 통계

| 카테고리 | 저널명 | 수집 |
|----------|--------|------|
{{ range .JournalStats }}| {{ orDash .Category }} | {{ .Journal }} | {{ .Count }}편 |
{{ end }}
---

*이 보고서는 journalmon에 의해 자동 생성되었습니다.*
*생성 시각: {{ .GeneratedAt.Format "2006-01-02 15:04:05" }}*
`

type templateData struct {
	*Digest
	GeneratedAt time.Time
}

var reportTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"inc":  func(i int) int { return i + 1 },
	"join": strings.Join,
	"displayTitle": func(a models.StoredArticle) string {
		if a.TranslatedTitle != "" {
			return a.TranslatedTitle
		}
		return a.Title
	},
	"shortTitle": func(a models.StoredArticle) string {
		title := a.Title
		if a.TranslatedTitle != "" {
			title = a.TranslatedTitle
		}
		runes := []rune(title)
		if len(runes) > 60 {
			return string(runes[:60]) + "..."
		}
		return title
	},
	"orNone": func(s string) string {
		if s == "" {
			return "정보 없음"
		}
		return s
	},
	"orDash": func(s string) string {
		if s == "" {
			return "-"
		}
		return s
	},
}).Parse(reportTemplate))

// Render produces the briefing Markdown.
func Render(d *Digest) (string, error) {
	var b strings.Builder
	data := templateData{Digest: d, GeneratedAt: time.Now()}
	if err := reportTmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}
	return b.String(), nil
}

// WriteFile renders the digest and writes it to
// <dir>/journal_brief_YYYYMMDD.md, creating the directory if needed.
// Returns the path of the written file.
func WriteFile(d *Digest, dir string) (string, error) {
	content, err := Render(d)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating reports directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("journal_brief_%s.md", d.Date.Format("20060102")))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing report file: %w", err)
	}
	return path, nil
}

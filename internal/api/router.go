// Package api serves the monitoring dashboard and its JSON API.
package api

import (
	"net/http"

	"github.com/dgimm/journalmon/internal/api/handlers"
	"github.com/dgimm/journalmon/internal/storage"
	"github.com/go-chi/chi/v5"
)

// NewRouter creates and configures the HTTP router with all API routes and
// the dashboard page.
func NewRouter(store *storage.Store) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(RequestLogger)
	r.Use(Recovery)
	r.Use(CORS)

	r.Route("/api", func(api chi.Router) {
		api.Get("/stats", handlers.GetStats(store))
		api.Get("/articles", handlers.GetArticles(store))
		api.Get("/journals", handlers.GetJournals(store))
		api.Get("/reports/latest", handlers.GetLatestReport(store))
		api.Get("/reports/latest/content", handlers.GetLatestReportContent(store))
	})

	r.Get("/", dashboardPage)

	return r
}

// dashboardPage is a single self-contained page that reads the JSON API
// from the browser. No build step, no assets.
func dashboardPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(dashboardHTML))
}

const dashboardHTML = `<!DOCTYPE html>
<html lang="ko">
<head>
<meta charset="utf-8">
<title>journalmon</title>
<style>
  body { font-family: -apple-system, sans-serif; max-width: 960px; margin: 2rem auto; padding: 0 1rem; color: #1a1a1a; }
  h1 { font-size: 1.4rem; }
  table { border-collapse: collapse; width: 100%; margin: 1rem 0; }
  th, td { text-align: left; padding: 0.4rem 0.6rem; border-bottom: 1px solid #ddd; font-size: 0.9rem; }
  .tier-high { color: #c0392b; font-weight: 600; }
  .tier-medium { color: #b8860b; }
  .muted { color: #888; }
  #stats span { margin-right: 1.5rem; }
</style>
</head>
<body>
<h1>📚 journalmon</h1>
<div id="stats" class="muted">loading…</div>
<h2>최근 논문</h2>
<table id="articles"><thead><tr><th>우선순위</th><th>저널</th><th>제목</th><th>게재일</th></tr></thead><tbody></tbody></table>
<h2>저널 상태</h2>
<table id="journals"><thead><tr><th>저널</th><th>마지막 수집</th><th>상태</th></tr></thead><tbody></tbody></table>
<script>
async function load() {
  const stats = await (await fetch('/api/stats')).json();
  document.getElementById('stats').innerHTML =
    '<span>저널 ' + stats.total_journals + '</span>' +
    '<span>논문 ' + stats.total_articles + '</span>' +
    '<span>높은 관심 ' + stats.high_priority + '</span>' +
    '<span>초록 보유 ' + stats.with_abstract + '</span>';

  const arts = await (await fetch('/api/articles?hours=168')).json();
  const atb = document.querySelector('#articles tbody');
  for (const a of arts.articles) {
    const tr = document.createElement('tr');
    const title = a.translated_title || a.title;
    tr.innerHTML = '<td class="tier-' + a.priority + '">' + a.priority + '</td>' +
      '<td>' + a.journal + '</td>' +
      '<td><a href="' + a.url + '">' + title + '</a></td>' +
      '<td>' + (a.published_at ? a.published_at.slice(0, 10) : '-') + '</td>';
    atb.appendChild(tr);
  }

  const journals = await (await fetch('/api/journals')).json();
  const jtb = document.querySelector('#journals tbody');
  for (const j of journals) {
    const tr = document.createElement('tr');
    tr.innerHTML = '<td>' + j.name + '</td>' +
      '<td>' + (j.last_fetch_at ? j.last_fetch_at.slice(0, 19) : '-') + '</td>' +
      '<td>' + (j.last_fetch_ok ? 'OK' : (j.last_error || 'unknown')) + '</td>';
    jtb.appendChild(tr);
  }
}
load();
</script>
</body>
</html>
`

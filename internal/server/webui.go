package server

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/bakert/surveilrise/internal/db"
	"github.com/bakert/surveilrise/internal/query"
)

// registerWebUIRoutes adds the HTML search pages.
func (s *Server) registerWebUIRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handleSearchPage)
	s.mux.HandleFunc("GET /cards/{id}", s.handleCardPage)
}

// --- Search page ---

func (s *Server) handleSearchPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	data := map[string]any{"Query": q}
	status := http.StatusOK

	if q != "" {
		opts, err := s.searchOptions(r)
		if err == nil {
			var result *query.SearchResult
			result, err = query.Execute(s.store, opts)
			if err == nil {
				data["Result"] = result
				if result.Page > 1 {
					data["PrevPage"] = result.Page - 1
				}
				if result.Page < result.Pages {
					data["NextPage"] = result.Page + 1
				}
			} else {
				status = searchErrorStatus(err)
			}
		} else {
			status = http.StatusBadRequest
		}
		if err != nil {
			data["Error"] = err.Error()
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = searchTmpl.Execute(w, data)
}

// --- Card page ---

func (s *Server) handleCardPage(w http.ResponseWriter, r *http.Request) {
	detail, err := s.loadCard(r.PathValue("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, db.ErrNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, http.StatusText(status), status)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = cardTmpl.Execute(w, detail)
}

// --- Templates ---

var tmplFuncs = template.FuncMap{
	"text": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"price": func(f *float64) string {
		if f == nil {
			return ""
		}
		return fmt.Sprintf("%.2f", *f)
	},
	"date": func(t time.Time) string {
		return t.Format(db.DateLayout)
	},
}

const baseCSS = `
<style>
* { box-sizing: border-box; margin: 0; padding: 0; }
body { font-family: system-ui, -apple-system, sans-serif; background: #f8f9fa; color: #1a1a2e; }
nav { background: #1a1a2e; padding: 12px 24px; display: flex; gap: 24px; align-items: center; }
nav a { color: #e0e0e0; text-decoration: none; font-size: 14px; }
nav .brand { font-weight: 700; font-size: 18px; color: #fff; margin-right: 24px; }
.container { max-width: 1100px; margin: 24px auto; padding: 0 24px; }
.results { display: grid; grid-template-columns: repeat(auto-fill, minmax(200px, 1fr)); gap: 16px; margin-bottom: 24px; }
.result { background: #fff; border-radius: 8px; padding: 8px; box-shadow: 0 1px 3px rgba(0,0,0,0.1); text-align: center; }
.result img { width: 100%; border-radius: 6px; }
.result a { color: #1a1a2e; text-decoration: none; font-size: 14px; }
table { width: 100%; border-collapse: collapse; background: #fff; border-radius: 8px; overflow: hidden; box-shadow: 0 1px 3px rgba(0,0,0,0.1); margin-bottom: 24px; }
th { background: #f0f0f0; text-align: left; padding: 10px 14px; font-size: 12px; text-transform: uppercase; color: #666; }
td { padding: 10px 14px; border-top: 1px solid #eee; font-size: 14px; }
h2 { margin-bottom: 16px; }
.search { margin-bottom: 16px; }
.search input { padding: 8px 14px; border: 1px solid #ddd; border-radius: 6px; width: 400px; font-size: 14px; }
.search button { padding: 8px 16px; background: #1a1a2e; color: #fff; border: none; border-radius: 6px; cursor: pointer; margin-left: 8px; }
.summary { color: #666; font-size: 14px; margin-bottom: 16px; }
.error { color: #ef4444; font-weight: 600; margin-bottom: 16px; }
.legal { color: #22c55e; font-weight: 600; }
.not-legal { color: #999; }
.detail { display: flex; gap: 24px; margin-bottom: 24px; }
.detail img { width: 300px; border-radius: 12px; }
.oracle { white-space: pre-line; margin: 12px 0; }
.pages a { margin-right: 16px; }
.empty { text-align: center; padding: 40px; color: #999; }
</style>
`

const navHTML = `
<nav>
<a class="brand" href="/">surveilrise</a>
</nav>
`

var searchTmpl = template.Must(template.New("search").Funcs(tmplFuncs).Parse(`<!DOCTYPE html>
<html><head><title>{{if .Query}}{{.Query}} · {{end}}surveilrise</title>` + baseCSS + `</head><body>
` + navHTML + `
<div class="container">
<div class="search">
<form method="GET" action="/">
<input type="text" name="q" value="{{.Query}}" placeholder="c:r t:instant f:modern" autofocus>
<button type="submit">Search</button>
</form>
</div>
{{if .Error}}<div class="error">{{.Error}}</div>{{end}}
{{with .Result}}
<div class="summary">{{.Total}} cards · page {{.Page}} of {{.Pages}}</div>
{{if .Cards}}
<div class="results">
{{range .Cards}}
<div class="result"><a href="/cards/{{.OracleID}}">{{if .ImageURL}}<img src="{{text .ImageURL}}" alt="{{.Name}}" loading="lazy">{{else}}{{.Name}}{{end}}</a></div>
{{end}}
</div>
{{else}}<div class="empty">No cards found.</div>{{end}}
{{end}}
<div class="pages">
{{with .PrevPage}}<a href="/?q={{$.Query}}&page={{.}}">Previous</a>{{end}}
{{with .NextPage}}<a href="/?q={{$.Query}}&page={{.}}">Next</a>{{end}}
</div>
</div>
</body></html>`))

var cardTmpl = template.Must(template.New("card").Funcs(tmplFuncs).Parse(`<!DOCTYPE html>
<html><head><title>{{.Name}} · surveilrise</title>` + baseCSS + `</head><body>
` + navHTML + `
<div class="container">
<div class="detail">
{{if .ImageURL}}<img src="{{text .ImageURL}}" alt="{{.Name}}">{{end}}
<div>
<h2>{{.Name}} {{text .ManaCost}}</h2>
<div>{{.TypeLine}}</div>
<div class="oracle">{{text .OracleText}}</div>
{{if .Power}}<div>{{text .Power}}/{{text .Toughness}}</div>{{end}}
{{with .LatestPrinting}}<div class="summary">Illustrated by {{.Artist}} · {{.SetCode}} #{{.CollectorNumber}}</div>{{end}}
</div>
</div>
<h2>Legality</h2>
<table>
<tbody>
{{range .Legalities}}
<tr><td>{{.Format}}</td><td>{{if .Legal}}<span class="legal">Legal</span>{{else}}<span class="not-legal">Not legal</span>{{end}}</td></tr>
{{end}}
</tbody>
</table>
<h2>Printings</h2>
<table>
<thead><tr><th>Set</th><th>Number</th><th>Released</th><th>Rarity</th><th>Artist</th><th>USD</th><th>EUR</th><th>TIX</th></tr></thead>
<tbody>
{{range .Printings}}
<tr>
<td>{{.SetCode}}</td>
<td>{{.CollectorNumber}}</td>
<td>{{date .ReleasedAt}}</td>
<td>{{.Rarity}}</td>
<td>{{.Artist}}</td>
<td>{{price .Prices.USD}}</td>
<td>{{price .Prices.EUR}}</td>
<td>{{price .Prices.Tix}}</td>
</tr>
{{end}}
</tbody>
</table>
</div>
</body></html>`))

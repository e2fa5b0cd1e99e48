package server

import (
	"html/template"
	"time"

	"github.com/hyperjump/bibliodash/internal/dashboard"
	"github.com/hyperjump/bibliodash/internal/models"
	"github.com/hyperjump/bibliodash/pkg/utils"
)

func (s *Server) funcMap() template.FuncMap {
	return template.FuncMap{
		"cell":  dashboard.Cell,
		"label": s.builder.ColumnLabel,
		"count": dashboard.FormatCount,
		"truncate": func(v string, n int) string {
			return utils.Truncate(v, n)
		},
		"fmtTime": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.Local().Format("Jan 2 15:04:05")
		},
		"rangeOf": func(o models.Options, f string) models.Range {
			return o.Ranges[models.Field(f)]
		},
		"add": func(a, b int) int { return a + b },
	}
}

const tmplBase = `{{define "base"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Dataset.Title}} - bibliodash</title>
<style>
body{font-family:system-ui,sans-serif;margin:0;background:#f7f7f9;color:#222}
header{background:#1f2937;color:#fff;padding:12px 20px;display:flex;gap:16px;align-items:center}
header a{color:#d1d5db;text-decoration:none;padding:6px 10px;border-radius:4px}
header a.active{background:#374151;color:#fff}
.layout{display:flex}
aside{width:280px;padding:16px;background:#fff;border-right:1px solid #e5e7eb;min-height:100vh}
aside label{display:block;font-size:13px;margin-top:10px;font-weight:600}
aside select,aside input{width:100%;box-sizing:border-box}
main{flex:1;padding:20px}
.cards{display:flex;gap:12px;flex-wrap:wrap}
.card{background:#fff;border:1px solid #e5e7eb;border-radius:6px;padding:12px 16px;min-width:160px}
.card .v{font-size:24px;font-weight:700}
.card .l{font-size:12px;color:#6b7280}
.charts{display:grid;grid-template-columns:repeat(auto-fill,minmax(480px,1fr));gap:12px;margin-top:16px}
.charts img{width:100%;background:#fff;border:1px solid #e5e7eb;border-radius:6px}
table{border-collapse:collapse;width:100%;background:#fff;margin-top:12px;font-size:13px}
th,td{border-bottom:1px solid #e5e7eb;padding:6px 8px;text-align:left}
th a{color:inherit}
.warn{background:#fef3c7;border:1px solid #f59e0b;padding:12px;border-radius:6px}
.pager{margin-top:8px;font-size:13px}
</style>
</head>
<body>
<header>
<strong>bibliodash</strong>
{{range .Datasets}}<a href="/datasets/{{.Name}}" {{if eq .Name $.Dataset.Name}}class="active"{{end}}>{{.Title}}</a>{{end}}
</header>
<div class="layout">
{{template "sidebar" .}}
<main>{{template "content" .}}</main>
</div>
</body>
</html>{{end}}

{{define "multi"}}<label for="{{.Param}}">{{.Label}}</label>
<select id="{{.Param}}" name="{{.Param}}" multiple size="5">
{{range .Values}}<option value="{{.}}" {{if $.Page.Selected $.Param .}}selected{{end}}>{{.}}</option>{{end}}
</select>{{end}}

{{define "sidebar"}}<aside>
<form method="get" action="/datasets/{{.Dataset.Name}}">
<label for="q">Search title or author</label>
<input id="q" name="q" value="{{.Param "q"}}">
{{with .Options.Genres}}{{template "multi" $.Multi "genre" "Genre" .}}{{end}}
{{with .Options.Nationalities}}{{template "multi" $.Multi "nationality" "Author nationality" .}}{{end}}
{{with .Options.AgeGroups}}{{template "multi" $.Multi "age_group" "Age group" .}}{{end}}
{{with .Options.Languages}}{{template "multi" $.Multi "language" "Language" .}}{{end}}
{{with rangeOf .Options "average_rating"}}{{if .Valid}}<label>Rating ({{printf "%.1f" .Min}} to {{printf "%.1f" .Max}})</label>
<input name="min_rating" type="number" step="0.01" value="{{$.Param "min_rating"}}" placeholder="min">
<input name="max_rating" type="number" step="0.01" value="{{$.Param "max_rating"}}" placeholder="max">{{end}}{{end}}
{{with rangeOf .Options "price"}}{{if .Valid}}<label>Price ({{printf "%.2f" .Min}} to {{printf "%.2f" .Max}})</label>
<input name="min_price" type="number" step="0.01" value="{{$.Param "min_price"}}" placeholder="min">
<input name="max_price" type="number" step="0.01" value="{{$.Param "max_price"}}" placeholder="max">{{end}}{{end}}
{{with rangeOf .Options "score"}}{{if .Valid}}<label>Score ({{printf "%.2f" .Min}} to {{printf "%.2f" .Max}})</label>
<input name="min_score" type="number" step="0.01" value="{{$.Param "min_score"}}" placeholder="min">
<input name="max_score" type="number" step="0.01" value="{{$.Param "max_score"}}" placeholder="max">{{end}}{{end}}
{{with rangeOf .Options "publication_year"}}{{if .Valid}}<label>Publication year ({{printf "%.0f" .Min}} to {{printf "%.0f" .Max}})</label>
<input name="year_from" type="number" value="{{$.Param "year_from"}}" placeholder="from">
<input name="year_to" type="number" value="{{$.Param "year_to"}}" placeholder="to">{{end}}{{end}}
{{with rangeOf .Options "num_pages"}}{{if .Valid}}<label>Pages</label>
<input name="min_pages" type="number" value="{{$.Param "min_pages"}}" placeholder="min">
<input name="max_pages" type="number" value="{{$.Param "max_pages"}}" placeholder="max">{{end}}{{end}}
{{with rangeOf .Options "ratings_count"}}{{if .Valid}}<label>Minimum ratings count</label>
<input name="min_ratings_count" type="number" value="{{$.Param "min_ratings_count"}}">{{end}}{{end}}
<p><button type="submit">Apply filters</button> <a href="{{.ClearURL}}">Clear</a></p>
</form>
{{if .Views}}<h4>Saved views</h4><ul>{{range .Views}}<li><a href="/views/{{.ID}}">{{.Name}}</a></li>{{end}}</ul>{{end}}
</aside>{{end}}
`

const tmplTab = `{{define "content"}}<h2>{{.Dataset.Title}}</h2>
<p style="font-size:12px;color:#6b7280">{{count .Dataset.Len}} books loaded {{fmtTime .Dataset.LoadedAt}}</p>
{{if .Suggestion}}<p>Did you mean <a href="{{.SuggestionURL}}">{{.Suggestion}}</a>?</p>{{end}}
{{if .Empty}}<div class="warn">{{.Warning}}</div>{{else}}
<div class="cards">{{range .Cards}}<div class="card"><div class="v">{{.Value}}</div><div class="l">{{.Label}}</div></div>{{end}}</div>
<p>Download: <a href="{{.ExportURL "csv"}}">CSV</a> | <a href="{{.ExportURL "xlsx"}}">Excel</a></p>
<div class="charts">{{range .Charts}}<figure><img src="{{$.ChartURL .ID "svg"}}" alt="{{.Title}}"><figcaption><a href="{{$.ChartURL .ID "png"}}">PNG</a></figcaption></figure>{{end}}</div>
{{with .Ranking}}<h3>Top {{len .Rows}} by score</h3>
<table><thead><tr><th>#</th>{{range .Columns}}<th>{{label .}}</th>{{end}}</tr></thead>
<tbody>{{range $i, $b := .Rows}}<tr><td>{{add $i 1}}</td>{{range $.Ranking.Columns}}<td>{{truncate (cell $b .) 80}}</td>{{end}}</tr>{{end}}</tbody></table>{{end}}
{{with .Table}}<h3>Books</h3>
<table><thead><tr>{{range .Columns}}<th><a href="{{$.SortURL .}}">{{label .}}</a></th>{{end}}</tr></thead>
<tbody>{{range $b := .Rows}}<tr>{{range $.Table.Columns}}<td>{{truncate (cell $b .) 80}}</td>{{end}}</tr>{{end}}</tbody></table>
<div class="pager">{{if .Page.HasPrev}}<a href="{{$.PageURL (add .Page.Number -1)}}">Previous</a>{{end}}
Page {{.Page.Number}} of {{.Page.TotalPages}} ({{count .Page.TotalRows}} rows)
{{if .Page.HasNext}}<a href="{{$.PageURL (add .Page.Number 1)}}">Next</a>{{end}}</div>{{end}}
{{end}}
<form method="post" action="/api/v1/views" onsubmit="return saveView(this)">
<input name="name" placeholder="Save this view as..." required> <button type="submit">Save view</button>
</form>
<script>
function saveView(form){
  fetch('/api/v1/views',{method:'POST',headers:{'Content-Type':'application/json'},
    body:JSON.stringify({dataset:{{.Dataset.Name}},name:form.name.value,query:{{.QueryString}}})})
    .then(function(){location.reload()});
  return false;
}
</script>
{{end}}
`

package report

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/locallmhub/sitekit/internal/models"
)

var htmlTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"pct": func(score float64) string { return fmt.Sprintf("%.0f%%", score*100) },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Site Maintenance Report</title>
<style>
body { font-family: sans-serif; max-width: 60rem; margin: 2rem auto; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 0.3rem 0.6rem; text-align: left; }
.pass { color: #2a7a2a; }
.warn { color: #a06a00; }
.fail { color: #b02020; }
.grade { font-size: 2.5rem; font-weight: bold; }
</style>
</head>
<body>
<h1>Site Maintenance Report</h1>
<p>Generated {{.GeneratedAt.Format "2006-01-02 15:04:05 MST"}} for <code>{{.SiteRoot}}</code></p>
<p><span class="grade">{{.Grade}}</span> ({{pct .Score}} pass rate: {{.PassCount}} pass, {{.WarnCount}} warn, {{.FailCount}} fail)</p>

<h2>Validation Findings</h2>
<table>
<tr><th>Severity</th><th>Rule</th><th>Subject</th><th>Message</th></tr>
{{range .Findings}}<tr><td class="{{.Severity}}">{{.Severity}}</td><td>{{.Rule}}</td><td>{{.Subject}}</td><td>{{.Message}}</td></tr>
{{end}}</table>

{{if .SizeReports}}<h2>File Sizes</h2>
<table>
<tr><th>Class</th><th>File</th><th>Lines</th><th>Split Suggestions</th></tr>
{{range .SizeReports}}<tr><td class="{{if eq .Class "error"}}fail{{else if eq .Class "warn"}}warn{{else}}pass{{end}}">{{.Class}}</td><td>{{.Path}}</td><td>{{.Lines}}</td><td>{{range .Suggestions}}line {{.Line}} ({{.Description}}) {{end}}</td></tr>
{{end}}</table>
{{end}}
{{if .Changes}}<h2>Freshness Changes</h2>
<table>
<tr><th>Region</th><th>Target</th><th>Action</th></tr>
{{range .Changes}}<tr><td>{{.Region}}</td><td>{{.Target}}</td><td>{{.Action}}</td></tr>
{{end}}</table>
{{end}}
</body>
</html>
`))

func renderHTML(r *models.RunReport) ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlTmpl.Execute(&buf, r); err != nil {
		return nil, fmt.Errorf("report: render html: %w", err)
	}
	return buf.Bytes(), nil
}

package export

import (
	"bytes"
	"html/template"
	"time"

	"flowsmith/api/internal/flowchart"
)

const flowchartTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
  body { font-family: "Helvetica Neue", Arial, sans-serif; color: #1a1a2e; margin: 0; }
  h1 { font-size: 22px; border-bottom: 2px solid #4361ee; padding-bottom: 8px; }
  .meta { color: #666; font-size: 12px; margin-bottom: 24px; }
  table { border-collapse: collapse; width: 100%; margin-bottom: 28px; }
  th { background: #4361ee; color: #fff; text-align: left; padding: 6px 10px; font-size: 12px; }
  td { border: 1px solid #d0d0e0; padding: 6px 10px; font-size: 12px; }
  .shape { font-style: italic; color: #555; }
  h2 { font-size: 15px; color: #4361ee; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<div class="meta">Exported {{formatDate .ExportedAt "2006-01-02 15:04"}} &middot; {{len .Nodes}} steps &middot; {{len .Links}} connections</div>
<h2>Steps</h2>
<table>
<tr><th>#</th><th>Step</th><th>Shape</th><th>Position</th></tr>
{{range .Nodes}}<tr><td>{{.Key}}</td><td>{{.Text}}</td><td class="shape">{{.Shape}}</td><td>{{.Loc}}</td></tr>
{{end}}</table>
<h2>Connections</h2>
<table>
<tr><th>From</th><th>To</th><th>Label</th></tr>
{{range .Links}}<tr><td>{{.From}}</td><td>{{.To}}</td><td>{{.Text}}</td></tr>
{{end}}</table>
</body>
</html>`

var pageTemplate = template.Must(template.New("flowchart").Funcs(template.FuncMap{
	"formatDate": func(t time.Time, layout string) string {
		return t.Format(layout)
	},
}).Parse(flowchartTemplate))

// TemplateData holds data for flowchart page rendering.
type TemplateData struct {
	Title      string
	Nodes      []flowchart.Node
	Links      []flowchart.Link
	ExportedAt time.Time
}

// RenderFlowchartHTML renders a printable page for the document.
func RenderFlowchartHTML(doc flowchart.Document) (string, error) {
	data := TemplateData{
		Title:      doc.Title(),
		Nodes:      doc.Nodes,
		Links:      doc.Links,
		ExportedAt: time.Now(),
	}
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

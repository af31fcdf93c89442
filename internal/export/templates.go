package export

import (
	"bytes"
	"html/template"
)

// TemplateData holds data for the print template
type TemplateData struct {
	Title string
	Body  template.HTML
}

var documentTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; }
    table { border-collapse: collapse; }
    td, th { vertical-align: top; }
    img { max-width: 100%; }
  </style>
</head>
<body>
{{.Body}}
</body>
</html>`))

// RenderDocumentHTML wraps a document body in a standalone page for the
// converters.
func RenderDocumentHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

package report

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/charmbracelet/glamour"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.English)

// FormatAmount renders an integer with thousands separators.
func FormatAmount(v int64) string {
	return amountPrinter.Sprintf("%d", v)
}

// FormatChange renders a change with an explicit sign, or "" when there is none.
func FormatChange(c *int64) string {
	if c == nil {
		return ""
	}
	if *c > 0 {
		return "+" + FormatAmount(*c)
	}
	return FormatAmount(*c)
}

const tableMarkdownTemplate = `# Daily Movement

{{- if .IsEmpty }}

No movements stored.
{{- else }}

| Category | Change |{{ range .Dates }} {{ .String }} |{{ end }}
|:---|---:|{{ range .Dates }}---:|{{ end }}
{{- range .Rows }}
| {{ .Category }} | {{ change .Change }} |{{ range .Values }} {{ amount . }} |{{ end }}
{{- end }}
| **{{ .Total.Category }}** | **{{ change .Total.Change }}** |{{ range .Total.Values }} **{{ amount . }}** |{{ end }}
{{- end }}
`

var tableTemplate = template.Must(template.New("table").Funcs(template.FuncMap{
	"amount": FormatAmount,
	"change": FormatChange,
}).Parse(tableMarkdownTemplate))

// Markdown renders the table as a Markdown document.
func (t *Table) Markdown() (string, error) {
	var b strings.Builder
	if err := tableTemplate.Execute(&b, t); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return b.String(), nil
}

// RenderTerminal styles a Markdown document for the terminal.
func RenderTerminal(md string, style string) (string, error) {
	if style == "" {
		style = "dark"
	}
	out, err := glamour.Render(md, style)
	if err != nil {
		return "", fmt.Errorf("failed to style report: %w", err)
	}
	return out, nil
}

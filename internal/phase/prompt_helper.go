package phase

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
)

var promptFuncs = template.FuncMap{
	"join": strings.Join,
	"json": func(v any) (string, error) {
		b, err := json.MarshalIndent(v, "", "  ")
		return string(b), err
	},
	"bullets": func(items []string) string {
		if len(items) == 0 {
			return "- (none)"
		}
		var b strings.Builder
		for i, item := range items {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString("- ")
			b.WriteString(item)
		}
		return b.String()
	},
	"inc": func(i int) int { return i + 1 },
	"orNone": func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "(none)"
		}
		return s
	},
}

// MustParsePrompt parses a user-prompt template with the shared helper
// functions. It panics on a malformed template and is meant for package
// level vars.
func MustParsePrompt(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(promptFuncs).Option("missingkey=error").Parse(text))
}

// ExecutePrompt renders tmpl with data.
func ExecutePrompt(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing prompt template %s: %w", tmpl.Name(), err)
	}
	return strings.TrimSpace(buf.String()), nil
}

package schema

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

var funcs = template.FuncMap{
	"join":  strings.Join,
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"or": func(a, b any) any {
		if s, ok := a.(string); ok && s == "" {
			return b
		}
		if a == nil {
			return b
		}
		return a
	},
	"eq": func(a, b any) bool { return fmt.Sprint(a) == fmt.Sprint(b) },
}

func parse(name, s string) (*template.Template, error) {
	return template.New(name).Funcs(funcs).Option("missingkey=zero").Parse(s)
}

func render(name, s string, row any) (string, error) {
	if s == "" {
		return "", nil
	}
	tpl, err := parse(name, s)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, row); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Tooltip renders the tooltip template against row.
func (c Column) Tooltip(row any) (string, error) {
	return render(c.Key+".tooltip", c.TooltipTemplate, row)
}

// Target renders the link target against row.
func (c Column) Target(row any) (string, error) {
	return render(c.Key+".href", c.Href, row)
}

package export

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/pixil98/go-blueprints/internal/blueprint"
	"github.com/pixil98/go-blueprints/internal/display"
)

// templateFuncs provides utility functions for templates.
var templateFuncs = sprig.TxtFuncMap()

// DefaultSummaryTemplate renders the wiki-style text summary for one
// blueprint.
const DefaultSummaryTemplate = `{{ .DisplayName | title }}
{{ .Path }}
{{ if .Description }}
{{ .Description }}
{{ end -}}
{{ if .Damage }}Damage: {{ .Damage }}
{{ end -}}
{{ if .Hitpoints }}HP: {{ .Hitpoints }}
{{ end -}}
AV: {{ .AV }}  DV: {{ .DV }}  Weight: {{ .Weight }}
`

// Summary is the resolved view of one blueprint offered to templates.
type Summary struct {
	ID          string
	DisplayName string
	Description string
	Path        string
	Damage      string
	Hitpoints   string
	AV          int
	DV          int
	Weight      int
}

// Summarize resolves the template-facing properties of one blueprint. The
// description comes pre-wrapped to width columns for fixed-width display; a
// non-positive width wraps to the display default.
func Summarize(r *blueprint.Resolver, n *blueprint.Node, width int) (Summary, error) {
	s := Summary{ID: n.ID()}

	for prop, dst := range map[string]*string{
		"displayname":     &s.DisplayName,
		"description":     &s.Description,
		"damage":          &s.Damage,
		"hitpoints":       &s.Hitpoints,
		"inheritancepath": &s.Path,
	} {
		v, err := r.Resolve(n, prop)
		if err != nil {
			return Summary{}, fmt.Errorf("resolving %s of %s: %w", prop, n.ID(), err)
		}
		*dst, _ = v.(string)
	}
	s.Description = display.WrapTo(s.Description, width)

	for prop, dst := range map[string]*int{
		"av":     &s.AV,
		"dv":     &s.DV,
		"weight": &s.Weight,
	} {
		v, err := r.Resolve(n, prop)
		if err != nil {
			return Summary{}, fmt.Errorf("resolving %s of %s: %w", prop, n.ID(), err)
		}
		*dst, _ = v.(int)
	}

	return s, nil
}

// ExpandTemplate expands a template string using the provided data.
// The data can be any struct - templates access fields via {{ .FieldName }}.
func ExpandTemplate(tmplStr string, data any) (string, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}

	return buf.String(), nil
}

package editor

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"
)

var elementTmpl *template.Template

// children recurse through Render, so the template is built in init to
// avoid an initialization cycle.
func init() {
	elementTmpl = template.Must(template.New("element").Funcs(template.FuncMap{
		"css":      styleAttr,
		"children": renderChildren,
	}).Parse(elementSource))
}

const elementSource = `
{{- define "open" -}} id="{{.ID}}" data-element-type="{{.Type}}"{{with .Props.ClassName}} class="{{.}}"{{end}}{{with css .Props.Style}} style="{{.}}"{{end}}{{- end -}}
{{- if eq .Type "heading" -}}<h1 {{template "open" .}}>{{.Props.Content}}</h1>
{{- else if eq .Type "paragraph" -}}<p {{template "open" .}}>{{.Props.Content}}</p>
{{- else if eq .Type "span" -}}<span {{template "open" .}}>{{.Props.Content}}</span>
{{- else if eq .Type "button" -}}<a {{template "open" .}} href="{{with index .Props.Attrs "href"}}{{.}}{{else}}#{{end}}">{{.Props.Content}}</a>
{{- else if eq .Type "image" -}}<img {{template "open" .}} src="{{index .Props.Attrs "src"}}" alt="{{.Props.Content}}">
{{- else if eq .Type "video" -}}<video {{template "open" .}} src="{{index .Props.Attrs "src"}}" controls></video>
{{- else if eq .Type "page-preview" -}}<div {{template "open" .}}></div>
{{- else -}}<div {{template "open" .}}>{{.Props.Content}}{{children .Children}}</div>
{{- end -}}`

// styleAttr serialises a style map deterministically.
func styleAttr(style map[string]string) template.CSS {
	if len(style) == 0 {
		return ""
	}
	keys := make([]string, 0, len(style))
	for k := range style {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, style[k]))
	}
	return template.CSS(strings.Join(parts, "; "))
}

func renderChildren(children []Element) (template.HTML, error) {
	if len(children) == 0 {
		return "", nil
	}
	return Render(children)
}

// Render turns an element list into escaped HTML.
func Render(elements []Element) (template.HTML, error) {
	var buf bytes.Buffer
	for _, e := range elements {
		if err := elementTmpl.Execute(&buf, e); err != nil {
			return "", fmt.Errorf("render element %s: %w", e.ID, err)
		}
	}
	return template.HTML(buf.String()), nil
}

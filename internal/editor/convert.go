package editor

import (
	"encoding/json"

	"sitecms/internal/domain"
)

// storedProps is what lands in editable_content.styles: the style map plus the
// props that have no dedicated column.
type storedProps struct {
	Style     map[string]string `json:"style,omitempty"`
	ClassName string            `json:"className,omitempty"`
	Attrs     map[string]string `json:"attrs,omitempty"`
	Children  []Element         `json:"children,omitempty"`
}

// FromContent converts persisted rows (already ordered) into elements.
func FromContent(rows []domain.EditableContent) []Element {
	elements := make([]Element, 0, len(rows))
	for _, r := range rows {
		e := Element{ID: r.ElementID, Type: r.ContentType, Props: Props{Content: r.Content}}
		if len(r.Styles) > 0 {
			var sp storedProps
			if err := json.Unmarshal(r.Styles, &sp); err == nil {
				e.Props.Style = sp.Style
				e.Props.ClassName = sp.ClassName
				e.Props.Attrs = sp.Attrs
				e.Children = sp.Children
			}
		}
		elements = append(elements, e)
	}
	return elements
}

// ToContent converts top-level elements into rows for pageID, with the order
// index following list position.
func ToContent(pageID string, elements []Element) ([]domain.EditableContent, error) {
	rows := make([]domain.EditableContent, 0, len(elements))
	for i, e := range elements {
		styles, err := json.Marshal(storedProps{
			Style:     e.Props.Style,
			ClassName: e.Props.ClassName,
			Attrs:     e.Props.Attrs,
			Children:  e.Children,
		})
		if err != nil {
			return nil, err
		}
		rows = append(rows, domain.EditableContent{
			PageID:      pageID,
			ElementID:   e.ID,
			ContentType: e.Type,
			Content:     e.Props.Content,
			Styles:      styles,
			OrderIndex:  i,
		})
	}
	return rows, nil
}

// IsBlank reports whether saved content should be replaced by the defaults:
// nothing saved, or only an empty page-preview placeholder.
func IsBlank(elements []Element) bool {
	return len(elements) == 0 || (len(elements) == 1 && elements[0].Type == TypePagePreview)
}

// Package editor holds the visual editor model: a tree of page elements,
// the per-type defaults, a bounded undo/redo history and HTML rendering.
package editor

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"sitecms/internal/domain"
)

// Element types understood by the editor and the renderer.
const (
	TypeContainer   = "container"
	TypeHeading     = "heading"
	TypeParagraph   = "paragraph"
	TypeButton      = "button"
	TypeGrid        = "grid"
	TypeFlex        = "flex"
	TypeImage       = "image"
	TypeVideo       = "video"
	TypeSpan        = "span"
	TypePagePreview = "page-preview"
)

// Props are the editable properties of an element. Attrs carries
// type-specific attributes such as href for buttons or src for media.
type Props struct {
	ClassName string            `json:"className,omitempty"`
	Content   string            `json:"content,omitempty"`
	Style     map[string]string `json:"style,omitempty"`
	Attrs     map[string]string `json:"attrs,omitempty"`
}

type Element struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Props    Props     `json:"props"`
	Children []Element `json:"children,omitempty"`
}

// Patch is a partial element update. Style and Attrs entries are merged;
// an empty string value removes the key.
type Patch struct {
	Content   *string           `json:"content,omitempty"`
	ClassName *string           `json:"className,omitempty"`
	Style     map[string]string `json:"style,omitempty"`
	Attrs     map[string]string `json:"attrs,omitempty"`
}

// Definition describes an element offered in the editor palette.
type Definition struct {
	Type     string `json:"type"`
	Label    string `json:"label"`
	Category string `json:"category"`
	Props    Props  `json:"defaultProps"`
}

var palette = []Definition{
	{Type: TypeContainer, Label: "Contenedor", Category: "Básicos"},
	{Type: TypeHeading, Label: "Título", Category: "Básicos"},
	{Type: TypeParagraph, Label: "Párrafo", Category: "Básicos"},
	{Type: TypeButton, Label: "Botón", Category: "Básicos"},
	{Type: TypeGrid, Label: "Grid", Category: "Layout"},
	{Type: TypeFlex, Label: "Flex", Category: "Layout"},
	{Type: TypeImage, Label: "Imagen", Category: "Medios"},
	{Type: TypeVideo, Label: "Video", Category: "Medios"},
}

// Palette returns the element definitions with their default props.
func Palette() []Definition {
	out := make([]Definition, len(palette))
	for i, d := range palette {
		d.Props = DefaultProps(d.Type)
		out[i] = d
	}
	return out
}

// KnownType reports whether t can be rendered.
func KnownType(t string) bool {
	switch t {
	case TypeContainer, TypeHeading, TypeParagraph, TypeButton, TypeGrid,
		TypeFlex, TypeImage, TypeVideo, TypeSpan, TypePagePreview:
		return true
	}
	return false
}

// DefaultProps returns the props a freshly added element of type t starts with.
func DefaultProps(t string) Props {
	switch t {
	case TypeHeading:
		return Props{ClassName: "text-2xl font-bold text-gray-900", Content: "Nuevo título"}
	case TypeParagraph:
		return Props{ClassName: "text-gray-600 leading-relaxed", Content: "Nuevo párrafo"}
	case TypeButton:
		return Props{
			ClassName: "bg-blue-600 hover:bg-blue-700 text-white px-6 py-3 rounded-lg font-semibold transition-colors",
			Content:   "Nuevo botón",
		}
	case TypeContainer:
		return Props{ClassName: "bg-white p-6 rounded-lg shadow-md", Style: map[string]string{"min-height": "100px"}}
	case TypeGrid:
		return Props{ClassName: "grid grid-cols-2 gap-4"}
	case TypeFlex:
		return Props{ClassName: "flex gap-4"}
	default:
		return Props{}
	}
}

// DefaultElements is the starter content for a page that has nothing saved.
func DefaultElements() []Element {
	return []Element{
		{
			ID:   "title-1",
			Type: TypeHeading,
			Props: Props{
				Content:   "Elevamos tu negocio con un motor 360° :",
				ClassName: "text-2xl font-bold text-white text-center mb-3",
			},
		},
		{
			ID:   "span-360",
			Type: TypeSpan,
			Props: Props{
				Content:   "360°",
				ClassName: "relative z-10 text-[#FFEA1F] font-bold",
			},
		},
		{
			ID:   "intro-text",
			Type: TypeParagraph,
			Props: Props{
				Content:   "Desarrollamos el marco estratégico para tu proyecto, que servirá como hoja de ruta para el éxito.",
				ClassName: "text-white text-sm leading-relaxed text-center max-w-2xl mx-auto",
			},
		},
	}
}

// NewElement builds an element of type t with default props. The id is the
// current unix-millis timestamp, or a random uuid when that is taken.
func NewElement(t string, now time.Time, existing []Element) (Element, error) {
	if !KnownType(t) {
		return Element{}, domain.Invalid("type", "unknown element type %q", t)
	}
	id := strconv.FormatInt(now.UnixMilli(), 10)
	if Find(existing, id) != nil {
		id = uuid.NewString()
	}
	return Element{ID: id, Type: t, Props: DefaultProps(t)}, nil
}

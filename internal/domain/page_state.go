package domain

// PageState is everything needed to render a page: the page record and its
// ordered editable content.
type PageState struct {
	Page    Page              `json:"page"`
	Content []EditableContent `json:"content"`
}

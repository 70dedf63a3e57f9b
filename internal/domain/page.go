package domain

import (
	"context"
	"encoding/json"
	"time"
)

type PageStatus string

const (
	PageStatusDraft     PageStatus = "draft"
	PageStatusPublished PageStatus = "published"
)

// Page is a routable landing page. Content holds free-form page settings;
// the rendered body lives in EditableContent rows.
type Page struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	Content      json.RawMessage `json:"content"`
	Status       PageStatus      `json:"status"`
	IsSystemPage bool            `json:"is_system_page"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type PagePatch struct {
	Name    *string         `json:"name,omitempty"`
	Slug    *string         `json:"slug,omitempty"`
	Content json.RawMessage `json:"content,omitempty"`
	Status  *PageStatus     `json:"status,omitempty"`
}

// EditableContent is one persisted visual-editor element of a page.
type EditableContent struct {
	ID          string          `json:"id"`
	PageID      string          `json:"page_id"`
	ElementID   string          `json:"element_id"`
	ContentType string          `json:"content_type"`
	Content     string          `json:"content"`
	Styles      json.RawMessage `json:"styles"`
	OrderIndex  int             `json:"order_index"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type PageStore interface {
	CreatePage(ctx context.Context, p *Page) error
	GetPage(ctx context.Context, id string) (*Page, error)
	GetPageBySlug(ctx context.Context, slug string) (*Page, error)
	ListPages(ctx context.Context) ([]Page, error)
	UpdatePage(ctx context.Context, p *Page) error
	DeletePage(ctx context.Context, id string) error
}

type ContentStore interface {
	CreateContent(ctx context.Context, c *EditableContent) error
	GetContent(ctx context.Context, id string) (*EditableContent, error)
	ListContent(ctx context.Context, pageID string) ([]EditableContent, error)
	UpdateContent(ctx context.Context, c *EditableContent) error
	DeleteContent(ctx context.Context, id string) error
	DeleteContentByPage(ctx context.Context, pageID string) error
	UpsertContent(ctx context.Context, items []EditableContent) error
	ReplacePageContent(ctx context.Context, pageID string, items []EditableContent) error
}

// ContentPatch is a partial update of an EditableContent row.
type ContentPatch struct {
	ElementID   *string         `json:"element_id,omitempty"`
	ContentType *string         `json:"content_type,omitempty"`
	Content     *string         `json:"content,omitempty"`
	Styles      json.RawMessage `json:"styles,omitempty"`
	OrderIndex  *int            `json:"order_index,omitempty"`
}

func (p ContentPatch) Apply(c *EditableContent) {
	if p.ElementID != nil {
		c.ElementID = *p.ElementID
	}
	if p.ContentType != nil {
		c.ContentType = *p.ContentType
	}
	if p.Content != nil {
		c.Content = *p.Content
	}
	if len(p.Styles) > 0 {
		c.Styles = p.Styles
	}
	if p.OrderIndex != nil {
		c.OrderIndex = *p.OrderIndex
	}
}

// Apply copies the set fields of p onto page.
func (p PagePatch) Apply(page *Page) {
	if p.Name != nil {
		page.Name = *p.Name
	}
	if p.Slug != nil {
		page.Slug = *p.Slug
	}
	if len(p.Content) > 0 {
		page.Content = p.Content
	}
	if p.Status != nil {
		page.Status = *p.Status
	}
}

// Valid reports whether s is a known page status.
func (s PageStatus) Valid() bool {
	return s == PageStatusDraft || s == PageStatusPublished
}

package domain

import (
	"context"
	"time"
)

// HomeButton is a call-to-action link shown on the landing page.
type HomeButton struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Href       string    `json:"href"`
	Icon       string    `json:"icon"`
	Color      string    `json:"color"`
	OrderIndex int       `json:"order_index"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ButtonPatch is a partial update. Nil fields are left untouched.
type ButtonPatch struct {
	Text       *string `json:"text,omitempty"`
	Href       *string `json:"href,omitempty"`
	Icon       *string `json:"icon,omitempty"`
	Color      *string `json:"color,omitempty"`
	OrderIndex *int    `json:"order_index,omitempty"`
	IsActive   *bool   `json:"is_active,omitempty"`
}

// Apply copies the set fields of p onto b.
func (p ButtonPatch) Apply(b *HomeButton) {
	if p.Text != nil {
		b.Text = *p.Text
	}
	if p.Href != nil {
		b.Href = *p.Href
	}
	if p.Icon != nil {
		b.Icon = *p.Icon
	}
	if p.Color != nil {
		b.Color = *p.Color
	}
	if p.OrderIndex != nil {
		b.OrderIndex = *p.OrderIndex
	}
	if p.IsActive != nil {
		b.IsActive = *p.IsActive
	}
}

type ButtonStore interface {
	CreateButton(ctx context.Context, b *HomeButton) error
	GetButton(ctx context.Context, id string) (*HomeButton, error)
	ListButtons(ctx context.Context) ([]HomeButton, error)
	UpdateButton(ctx context.Context, b *HomeButton) error
	DeleteButton(ctx context.Context, id string) error
	ReorderButtons(ctx context.Context, ids []string) error
	UpsertButtons(ctx context.Context, buttons []HomeButton) error
}

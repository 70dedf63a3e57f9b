package domain

import (
	"context"
	"time"
)

// SiteConfigEntry is a free-form key/value setting (contact email, tagline...).
type SiteConfigEntry struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Description string    `json:"description"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type SiteConfigStore interface {
	GetConfig(ctx context.Context, key string) (*SiteConfigEntry, error)
	SetConfig(ctx context.Context, e *SiteConfigEntry) error
	ListConfig(ctx context.Context) ([]SiteConfigEntry, error)
}

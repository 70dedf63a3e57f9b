package service

import (
	"context"
	"strings"

	"sitecms/internal/domain"
)

// SiteConfigService manages free-form site settings.
type SiteConfigService struct {
	store   domain.SiteConfigStore
	emitter EventEmitter
}

func NewSiteConfigService(store domain.SiteConfigStore, emitter EventEmitter) *SiteConfigService {
	return &SiteConfigService{store: store, emitter: emitter}
}

func (s *SiteConfigService) Get(ctx context.Context, key string) (*domain.SiteConfigEntry, error) {
	return s.store.GetConfig(ctx, strings.TrimSpace(key))
}

// Set inserts or replaces the value of key.
func (s *SiteConfigService) Set(ctx context.Context, key, value, description string) (*domain.SiteConfigEntry, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, domain.Invalid("key", "is required")
	}
	e := &domain.SiteConfigEntry{Key: key, Value: value, Description: description}
	if err := s.store.SetConfig(ctx, e); err != nil {
		return nil, err
	}
	s.emitter.Emit(ctx, EventConfigChanged, key)
	return s.store.GetConfig(ctx, key)
}

func (s *SiteConfigService) List(ctx context.Context) ([]domain.SiteConfigEntry, error) {
	return s.store.ListConfig(ctx)
}

package storage

import (
	"context"
	"fmt"

	"sitecms/internal/domain"
)

// SiteConfigStore implements domain.SiteConfigStore.
type SiteConfigStore struct {
	db *DB
}

func NewSiteConfigStore(db *DB) *SiteConfigStore {
	return &SiteConfigStore{db: db}
}

func (s *SiteConfigStore) GetConfig(ctx context.Context, key string) (*domain.SiteConfigEntry, error) {
	e := &domain.SiteConfigEntry{}
	err := s.db.run().queryRow(ctx,
		`SELECT config_key, config_value, description, updated_at FROM site_config WHERE config_key = ?`, key,
	).Scan(&e.Key, &e.Value, &e.Description, &e.UpdatedAt)
	if err != nil {
		return nil, translate(err, "get site config "+key)
	}
	return e, nil
}

func (s *SiteConfigStore) SetConfig(ctx context.Context, e *domain.SiteConfigEntry) error {
	e.UpdatedAt = now()
	stmt := s.db.dialect.Upsert("site_config",
		[]string{"config_key", "config_value", "description", "updated_at"},
		[]string{"config_key"},
		[]string{"config_value", "description", "updated_at"},
	)
	_, err := s.db.run().exec(ctx, stmt, e.Key, e.Value, e.Description, e.UpdatedAt)
	return translate(err, "set site config "+e.Key)
}

func (s *SiteConfigStore) ListConfig(ctx context.Context) ([]domain.SiteConfigEntry, error) {
	rows, err := s.db.run().query(ctx, `SELECT config_key, config_value, description, updated_at FROM site_config ORDER BY config_key ASC`)
	if err != nil {
		return nil, fmt.Errorf("list site config: %w", err)
	}
	defer rows.Close()

	out := []domain.SiteConfigEntry{}
	for rows.Next() {
		var e domain.SiteConfigEntry
		if err := rows.Scan(&e.Key, &e.Value, &e.Description, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

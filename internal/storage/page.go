package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"sitecms/internal/domain"
)

// PageStore implements domain.PageStore.
type PageStore struct {
	db *DB
}

func NewPageStore(db *DB) *PageStore {
	return &PageStore{db: db}
}

const pageColumns = `id, name, slug, content, status, is_system_page, created_at, updated_at`

func scanPage(row scanner, p *domain.Page) error {
	var content, status string
	if err := row.Scan(&p.ID, &p.Name, &p.Slug, &content, &status, &p.IsSystemPage, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return err
	}
	p.Content = json.RawMessage(content)
	p.Status = domain.PageStatus(status)
	return nil
}

func rawOrEmpty(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	return string(raw)
}

func (s *PageStore) CreatePage(ctx context.Context, p *domain.Page) error {
	t := now()
	p.CreatedAt = t
	p.UpdatedAt = t
	_, err := s.db.run().exec(ctx,
		`INSERT INTO pages (`+pageColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Slug, rawOrEmpty(p.Content), string(p.Status), p.IsSystemPage, p.CreatedAt, p.UpdatedAt,
	)
	return translate(err, "create page")
}

func (s *PageStore) GetPage(ctx context.Context, id string) (*domain.Page, error) {
	p := &domain.Page{}
	if err := scanPage(s.db.run().queryRow(ctx, `SELECT `+pageColumns+` FROM pages WHERE id = ?`, id), p); err != nil {
		return nil, translate(err, "get page")
	}
	return p, nil
}

func (s *PageStore) GetPageBySlug(ctx context.Context, slug string) (*domain.Page, error) {
	p := &domain.Page{}
	if err := scanPage(s.db.run().queryRow(ctx, `SELECT `+pageColumns+` FROM pages WHERE slug = ?`, slug), p); err != nil {
		return nil, translate(err, "get page "+slug)
	}
	return p, nil
}

// ListPages returns every page, newest first.
func (s *PageStore) ListPages(ctx context.Context) ([]domain.Page, error) {
	rows, err := s.db.run().query(ctx, `SELECT `+pageColumns+` FROM pages ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	pages := []domain.Page{}
	for rows.Next() {
		var p domain.Page
		if err := scanPage(rows, &p); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

func (s *PageStore) UpdatePage(ctx context.Context, p *domain.Page) error {
	p.UpdatedAt = now()
	res, err := s.db.run().exec(ctx,
		`UPDATE pages SET name = ?, slug = ?, content = ?, status = ?, updated_at = ? WHERE id = ?`,
		p.Name, p.Slug, rawOrEmpty(p.Content), string(p.Status), p.UpdatedAt, p.ID,
	)
	if err != nil {
		return translate(err, "update page")
	}
	return mustAffect(res, "update page")
}

// DeletePage removes the page together with its editable content and editor
// history.
func (s *PageStore) DeletePage(ctx context.Context, id string) error {
	return s.db.inTx(ctx, func(r runner) error {
		for _, stmt := range []string{
			`DELETE FROM editable_content WHERE page_id = ?`,
			`DELETE FROM editor_history WHERE page_id = ?`,
			`DELETE FROM editor_history_state WHERE page_id = ?`,
		} {
			if _, err := r.exec(ctx, stmt, id); err != nil {
				return fmt.Errorf("delete page dependents: %w", err)
			}
		}
		res, err := r.exec(ctx, `DELETE FROM pages WHERE id = ?`, id)
		if err != nil {
			return translate(err, "delete page")
		}
		return mustAffect(res, "delete page")
	})
}

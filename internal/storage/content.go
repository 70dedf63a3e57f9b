package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"sitecms/internal/domain"
)

// ContentStore implements domain.ContentStore.
type ContentStore struct {
	db *DB
}

func NewContentStore(db *DB) *ContentStore {
	return &ContentStore{db: db}
}

const contentColumns = `id, page_id, element_id, content_type, content, styles, order_index, created_at, updated_at`

func scanContent(row scanner, c *domain.EditableContent) error {
	var styles string
	if err := row.Scan(&c.ID, &c.PageID, &c.ElementID, &c.ContentType, &c.Content, &styles, &c.OrderIndex, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return err
	}
	c.Styles = json.RawMessage(styles)
	return nil
}

func insertContent(ctx context.Context, r runner, c *domain.EditableContent) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := r.exec(ctx,
		`INSERT INTO editable_content (`+contentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.PageID, c.ElementID, c.ContentType, c.Content, rawOrEmpty(c.Styles), c.OrderIndex, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

func (s *ContentStore) CreateContent(ctx context.Context, c *domain.EditableContent) error {
	t := now()
	c.CreatedAt = t
	c.UpdatedAt = t
	return translate(insertContent(ctx, s.db.run(), c), "create content")
}

func (s *ContentStore) GetContent(ctx context.Context, id string) (*domain.EditableContent, error) {
	c := &domain.EditableContent{}
	if err := scanContent(s.db.run().queryRow(ctx, `SELECT `+contentColumns+` FROM editable_content WHERE id = ?`, id), c); err != nil {
		return nil, translate(err, "get content")
	}
	return c, nil
}

// ListContent returns the rows of a page by order_index.
func (s *ContentStore) ListContent(ctx context.Context, pageID string) ([]domain.EditableContent, error) {
	rows, err := s.db.run().query(ctx,
		`SELECT `+contentColumns+` FROM editable_content WHERE page_id = ? ORDER BY order_index ASC, created_at ASC`, pageID)
	if err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}
	defer rows.Close()

	items := []domain.EditableContent{}
	for rows.Next() {
		var c domain.EditableContent
		if err := scanContent(rows, &c); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (s *ContentStore) UpdateContent(ctx context.Context, c *domain.EditableContent) error {
	c.UpdatedAt = now()
	res, err := s.db.run().exec(ctx,
		`UPDATE editable_content SET element_id = ?, content_type = ?, content = ?, styles = ?, order_index = ?, updated_at = ? WHERE id = ?`,
		c.ElementID, c.ContentType, c.Content, rawOrEmpty(c.Styles), c.OrderIndex, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return translate(err, "update content")
	}
	return mustAffect(res, "update content")
}

func (s *ContentStore) DeleteContent(ctx context.Context, id string) error {
	res, err := s.db.run().exec(ctx, `DELETE FROM editable_content WHERE id = ?`, id)
	if err != nil {
		return translate(err, "delete content")
	}
	return mustAffect(res, "delete content")
}

func (s *ContentStore) DeleteContentByPage(ctx context.Context, pageID string) error {
	_, err := s.db.run().exec(ctx, `DELETE FROM editable_content WHERE page_id = ?`, pageID)
	return translate(err, "delete page content")
}

// UpsertContent inserts or updates rows keyed by (page_id, element_id).
func (s *ContentStore) UpsertContent(ctx context.Context, items []domain.EditableContent) error {
	stmt := s.db.dialect.Upsert("editable_content",
		[]string{"id", "page_id", "element_id", "content_type", "content", "styles", "order_index", "created_at", "updated_at"},
		[]string{"page_id", "element_id"},
		[]string{"content_type", "content", "styles", "order_index", "updated_at"},
	)
	return s.db.inTx(ctx, func(r runner) error {
		t := now()
		for _, c := range items {
			id := c.ID
			if id == "" {
				id = uuid.NewString()
			}
			if _, err := r.exec(ctx, stmt, id, c.PageID, c.ElementID, c.ContentType, c.Content, rawOrEmpty(c.Styles), c.OrderIndex, t, t); err != nil {
				return translate(err, "upsert content "+c.ElementID)
			}
		}
		return nil
	})
}

// ReplacePageContent atomically replaces all rows of a page.
func (s *ContentStore) ReplacePageContent(ctx context.Context, pageID string, items []domain.EditableContent) error {
	return s.db.inTx(ctx, func(r runner) error {
		if _, err := r.exec(ctx, `DELETE FROM editable_content WHERE page_id = ?`, pageID); err != nil {
			return fmt.Errorf("delete content: %w", err)
		}
		t := now()
		for i := range items {
			c := items[i]
			c.ID = ""
			c.PageID = pageID
			c.CreatedAt = t
			c.UpdatedAt = t
			if err := insertContent(ctx, r, &c); err != nil {
				return translate(err, "insert content "+c.ElementID)
			}
		}
		return nil
	})
}

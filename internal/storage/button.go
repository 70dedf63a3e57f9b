package storage

import (
	"context"
	"fmt"

	"sitecms/internal/domain"
)

// ButtonStore implements domain.ButtonStore.
type ButtonStore struct {
	db *DB
}

func NewButtonStore(db *DB) *ButtonStore {
	return &ButtonStore{db: db}
}

const buttonColumns = `id, text, href, icon, color, order_index, is_active, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanButton(row scanner, b *domain.HomeButton) error {
	return row.Scan(&b.ID, &b.Text, &b.Href, &b.Icon, &b.Color, &b.OrderIndex, &b.IsActive, &b.CreatedAt, &b.UpdatedAt)
}

func (s *ButtonStore) CreateButton(ctx context.Context, b *domain.HomeButton) error {
	t := now()
	b.CreatedAt = t
	b.UpdatedAt = t
	_, err := s.db.run().exec(ctx,
		`INSERT INTO home_buttons (`+buttonColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Text, b.Href, b.Icon, b.Color, b.OrderIndex, b.IsActive, b.CreatedAt, b.UpdatedAt,
	)
	return translate(err, "create button")
}

func (s *ButtonStore) GetButton(ctx context.Context, id string) (*domain.HomeButton, error) {
	b := &domain.HomeButton{}
	row := s.db.run().queryRow(ctx, `SELECT `+buttonColumns+` FROM home_buttons WHERE id = ?`, id)
	if err := scanButton(row, b); err != nil {
		return nil, translate(err, "get button")
	}
	return b, nil
}

func (s *ButtonStore) ListButtons(ctx context.Context) ([]domain.HomeButton, error) {
	rows, err := s.db.run().query(ctx, `SELECT `+buttonColumns+` FROM home_buttons ORDER BY order_index ASC, created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list buttons: %w", err)
	}
	defer rows.Close()

	buttons := []domain.HomeButton{}
	for rows.Next() {
		var b domain.HomeButton
		if err := scanButton(rows, &b); err != nil {
			return nil, err
		}
		buttons = append(buttons, b)
	}
	return buttons, rows.Err()
}

func (s *ButtonStore) UpdateButton(ctx context.Context, b *domain.HomeButton) error {
	b.UpdatedAt = now()
	res, err := s.db.run().exec(ctx,
		`UPDATE home_buttons SET text = ?, href = ?, icon = ?, color = ?, order_index = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		b.Text, b.Href, b.Icon, b.Color, b.OrderIndex, b.IsActive, b.UpdatedAt, b.ID,
	)
	if err != nil {
		return translate(err, "update button")
	}
	return mustAffect(res, "update button")
}

func (s *ButtonStore) DeleteButton(ctx context.Context, id string) error {
	res, err := s.db.run().exec(ctx, `DELETE FROM home_buttons WHERE id = ?`, id)
	if err != nil {
		return translate(err, "delete button")
	}
	return mustAffect(res, "delete button")
}

// ReorderButtons sets order_index = position+1 for every id in one
// transaction. ids must name exactly the stored buttons.
func (s *ButtonStore) ReorderButtons(ctx context.Context, ids []string) error {
	return s.db.inTx(ctx, func(r runner) error {
		var count int
		if err := r.queryRow(ctx, `SELECT COUNT(*) FROM home_buttons`).Scan(&count); err != nil {
			return fmt.Errorf("count buttons: %w", err)
		}
		if count != len(ids) {
			return domain.Invalid("ids", "expected %d ids, got %d", count, len(ids))
		}
		seen := make(map[string]bool, len(ids))
		t := now()
		for i, id := range ids {
			if seen[id] {
				return domain.Invalid("ids", "duplicate id %s", id)
			}
			seen[id] = true
			res, err := r.exec(ctx, `UPDATE home_buttons SET order_index = ?, updated_at = ? WHERE id = ?`, i+1, t, id)
			if err != nil {
				return fmt.Errorf("reorder button %s: %w", id, err)
			}
			if err := mustAffect(res, "reorder button "+id); err != nil {
				return err
			}
		}
		return nil
	})
}

// UpsertButtons inserts or fully replaces each button by id.
func (s *ButtonStore) UpsertButtons(ctx context.Context, buttons []domain.HomeButton) error {
	stmt := s.db.dialect.Upsert("home_buttons",
		[]string{"id", "text", "href", "icon", "color", "order_index", "is_active", "created_at", "updated_at"},
		[]string{"id"},
		[]string{"text", "href", "icon", "color", "order_index", "is_active", "updated_at"},
	)
	return s.db.inTx(ctx, func(r runner) error {
		t := now()
		for _, b := range buttons {
			if _, err := r.exec(ctx, stmt, b.ID, b.Text, b.Href, b.Icon, b.Color, b.OrderIndex, b.IsActive, t, t); err != nil {
				return translate(err, "upsert button "+b.ID)
			}
		}
		return nil
	})
}

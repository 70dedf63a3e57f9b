package storage

import (
	"context"
	"fmt"

	"sitecms/internal/domain"
)

// SectionStore implements domain.ServiceStore and domain.ProcessStepStore:
// the two ordered landing-page sections.
type SectionStore struct {
	db *DB
}

func NewSectionStore(db *DB) *SectionStore {
	return &SectionStore{db: db}
}

const serviceColumns = `id, title, description, icon, order_index, is_active, created_at, updated_at`

func scanService(row scanner, s *domain.Service) error {
	return row.Scan(&s.ID, &s.Title, &s.Description, &s.Icon, &s.OrderIndex, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
}

func (s *SectionStore) CreateService(ctx context.Context, svc *domain.Service) error {
	t := now()
	svc.CreatedAt = t
	svc.UpdatedAt = t
	_, err := s.db.run().exec(ctx,
		`INSERT INTO services (`+serviceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		svc.ID, svc.Title, svc.Description, svc.Icon, svc.OrderIndex, svc.IsActive, svc.CreatedAt, svc.UpdatedAt,
	)
	return translate(err, "create service")
}

func (s *SectionStore) GetService(ctx context.Context, id string) (*domain.Service, error) {
	svc := &domain.Service{}
	if err := scanService(s.db.run().queryRow(ctx, `SELECT `+serviceColumns+` FROM services WHERE id = ?`, id), svc); err != nil {
		return nil, translate(err, "get service")
	}
	return svc, nil
}

func (s *SectionStore) ListServices(ctx context.Context) ([]domain.Service, error) {
	rows, err := s.db.run().query(ctx, `SELECT `+serviceColumns+` FROM services ORDER BY order_index ASC, created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	out := []domain.Service{}
	for rows.Next() {
		var svc domain.Service
		if err := scanService(rows, &svc); err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	return out, rows.Err()
}

func (s *SectionStore) UpdateService(ctx context.Context, svc *domain.Service) error {
	svc.UpdatedAt = now()
	res, err := s.db.run().exec(ctx,
		`UPDATE services SET title = ?, description = ?, icon = ?, order_index = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		svc.Title, svc.Description, svc.Icon, svc.OrderIndex, svc.IsActive, svc.UpdatedAt, svc.ID,
	)
	if err != nil {
		return translate(err, "update service")
	}
	return mustAffect(res, "update service")
}

func (s *SectionStore) DeleteService(ctx context.Context, id string) error {
	res, err := s.db.run().exec(ctx, `DELETE FROM services WHERE id = ?`, id)
	if err != nil {
		return translate(err, "delete service")
	}
	return mustAffect(res, "delete service")
}

const stepColumns = `id, step_number, title, description, order_index, is_active, created_at, updated_at`

func scanStep(row scanner, p *domain.ProcessStep) error {
	return row.Scan(&p.ID, &p.StepNumber, &p.Title, &p.Description, &p.OrderIndex, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
}

func (s *SectionStore) CreateStep(ctx context.Context, p *domain.ProcessStep) error {
	t := now()
	p.CreatedAt = t
	p.UpdatedAt = t
	_, err := s.db.run().exec(ctx,
		`INSERT INTO process_steps (`+stepColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.StepNumber, p.Title, p.Description, p.OrderIndex, p.IsActive, p.CreatedAt, p.UpdatedAt,
	)
	return translate(err, "create process step")
}

func (s *SectionStore) GetStep(ctx context.Context, id string) (*domain.ProcessStep, error) {
	p := &domain.ProcessStep{}
	if err := scanStep(s.db.run().queryRow(ctx, `SELECT `+stepColumns+` FROM process_steps WHERE id = ?`, id), p); err != nil {
		return nil, translate(err, "get process step")
	}
	return p, nil
}

func (s *SectionStore) ListSteps(ctx context.Context) ([]domain.ProcessStep, error) {
	rows, err := s.db.run().query(ctx, `SELECT `+stepColumns+` FROM process_steps ORDER BY order_index ASC, created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list process steps: %w", err)
	}
	defer rows.Close()

	out := []domain.ProcessStep{}
	for rows.Next() {
		var p domain.ProcessStep
		if err := scanStep(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SectionStore) UpdateStep(ctx context.Context, p *domain.ProcessStep) error {
	p.UpdatedAt = now()
	res, err := s.db.run().exec(ctx,
		`UPDATE process_steps SET step_number = ?, title = ?, description = ?, order_index = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		p.StepNumber, p.Title, p.Description, p.OrderIndex, p.IsActive, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return translate(err, "update process step")
	}
	return mustAffect(res, "update process step")
}

func (s *SectionStore) DeleteStep(ctx context.Context, id string) error {
	res, err := s.db.run().exec(ctx, `DELETE FROM process_steps WHERE id = ?`, id)
	if err != nil {
		return translate(err, "delete process step")
	}
	return mustAffect(res, "delete process step")
}

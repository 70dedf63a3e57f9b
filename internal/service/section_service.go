package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"sitecms/internal/domain"
)

// SectionService manages the "services" and "process steps" sections of the
// landing page.
type SectionService struct {
	services domain.ServiceStore
	steps    domain.ProcessStepStore
	emitter  EventEmitter
}

func NewSectionService(services domain.ServiceStore, steps domain.ProcessStepStore, emitter EventEmitter) *SectionService {
	return &SectionService{services: services, steps: steps, emitter: emitter}
}

// ── Services ───────────────────────────────────────────────

func (s *SectionService) ListServices(ctx context.Context) ([]domain.Service, error) {
	return s.services.ListServices(ctx)
}

func (s *SectionService) CreateService(ctx context.Context, in domain.ServicePatch) (*domain.Service, error) {
	existing, err := s.services.ListServices(ctx)
	if err != nil {
		return nil, err
	}
	svc := &domain.Service{ID: uuid.NewString(), OrderIndex: len(existing) + 1, IsActive: true}
	in.Apply(svc)
	svc.Title = strings.TrimSpace(svc.Title)
	if svc.Title == "" {
		return nil, domain.Invalid("title", "is required")
	}
	if err := s.services.CreateService(ctx, svc); err != nil {
		return nil, err
	}
	s.emitter.Emit(ctx, EventSectionsChanged, "services")
	return svc, nil
}

func (s *SectionService) UpdateService(ctx context.Context, id string, patch domain.ServicePatch) (*domain.Service, error) {
	svc, err := s.services.GetService(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(svc)
	svc.Title = strings.TrimSpace(svc.Title)
	if svc.Title == "" {
		return nil, domain.Invalid("title", "is required")
	}
	if err := s.services.UpdateService(ctx, svc); err != nil {
		return nil, err
	}
	s.emitter.Emit(ctx, EventSectionsChanged, "services")
	return svc, nil
}

func (s *SectionService) DeleteService(ctx context.Context, id string) error {
	if err := s.services.DeleteService(ctx, id); err != nil {
		return err
	}
	s.emitter.Emit(ctx, EventSectionsChanged, "services")
	return nil
}

// ── Process steps ──────────────────────────────────────────

func (s *SectionService) ListSteps(ctx context.Context) ([]domain.ProcessStep, error) {
	return s.steps.ListSteps(ctx)
}

func (s *SectionService) CreateStep(ctx context.Context, in domain.ProcessStepPatch) (*domain.ProcessStep, error) {
	existing, err := s.steps.ListSteps(ctx)
	if err != nil {
		return nil, err
	}
	step := &domain.ProcessStep{ID: uuid.NewString(), OrderIndex: len(existing) + 1, IsActive: true}
	in.Apply(step)
	step.Title = strings.TrimSpace(step.Title)
	if step.Title == "" {
		return nil, domain.Invalid("title", "is required")
	}
	if err := s.steps.CreateStep(ctx, step); err != nil {
		return nil, err
	}
	s.emitter.Emit(ctx, EventSectionsChanged, "process_steps")
	return step, nil
}

func (s *SectionService) UpdateStep(ctx context.Context, id string, patch domain.ProcessStepPatch) (*domain.ProcessStep, error) {
	step, err := s.steps.GetStep(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(step)
	step.Title = strings.TrimSpace(step.Title)
	if step.Title == "" {
		return nil, domain.Invalid("title", "is required")
	}
	if err := s.steps.UpdateStep(ctx, step); err != nil {
		return nil, err
	}
	s.emitter.Emit(ctx, EventSectionsChanged, "process_steps")
	return step, nil
}

func (s *SectionService) DeleteStep(ctx context.Context, id string) error {
	if err := s.steps.DeleteStep(ctx, id); err != nil {
		return err
	}
	s.emitter.Emit(ctx, EventSectionsChanged, "process_steps")
	return nil
}

package domain

import (
	"context"
	"time"
)

// Service is an offering listed on the agency landing page.
type Service struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	OrderIndex  int       `json:"order_index"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProcessStep is one numbered step of the "how we work" section.
type ProcessStep struct {
	ID          string    `json:"id"`
	StepNumber  string    `json:"step_number"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OrderIndex  int       `json:"order_index"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ServicePatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Icon        *string `json:"icon,omitempty"`
	OrderIndex  *int    `json:"order_index,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

func (p ServicePatch) Apply(s *Service) {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.Icon != nil {
		s.Icon = *p.Icon
	}
	if p.OrderIndex != nil {
		s.OrderIndex = *p.OrderIndex
	}
	if p.IsActive != nil {
		s.IsActive = *p.IsActive
	}
}

type ProcessStepPatch struct {
	StepNumber  *string `json:"step_number,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	OrderIndex  *int    `json:"order_index,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

func (p ProcessStepPatch) Apply(s *ProcessStep) {
	if p.StepNumber != nil {
		s.StepNumber = *p.StepNumber
	}
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.Description != nil {
		s.Description = *p.Description
	}
	if p.OrderIndex != nil {
		s.OrderIndex = *p.OrderIndex
	}
	if p.IsActive != nil {
		s.IsActive = *p.IsActive
	}
}

type ServiceStore interface {
	CreateService(ctx context.Context, s *Service) error
	GetService(ctx context.Context, id string) (*Service, error)
	ListServices(ctx context.Context) ([]Service, error)
	UpdateService(ctx context.Context, s *Service) error
	DeleteService(ctx context.Context, id string) error
}

type ProcessStepStore interface {
	CreateStep(ctx context.Context, s *ProcessStep) error
	GetStep(ctx context.Context, id string) (*ProcessStep, error)
	ListSteps(ctx context.Context) ([]ProcessStep, error)
	UpdateStep(ctx context.Context, s *ProcessStep) error
	DeleteStep(ctx context.Context, id string) error
}

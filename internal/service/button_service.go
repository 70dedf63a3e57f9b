package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"sitecms/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Button Service: home page call-to-action links
// ─────────────────────────────────────────────────────────────

// New buttons start from these values.
const (
	DefaultButtonText  = "Nuevo Botón"
	DefaultButtonHref  = "#"
	DefaultButtonIcon  = "🔗"
	DefaultButtonColor = "blue"
)

type ButtonService struct {
	store   domain.ButtonStore
	emitter EventEmitter
}

func NewButtonService(store domain.ButtonStore, emitter EventEmitter) *ButtonService {
	return &ButtonService{store: store, emitter: emitter}
}

// List returns every button by order_index.
func (s *ButtonService) List(ctx context.Context) ([]domain.HomeButton, error) {
	return s.store.ListButtons(ctx)
}

// ListActive returns the buttons shown on the landing page.
func (s *ButtonService) ListActive(ctx context.Context) ([]domain.HomeButton, error) {
	all, err := s.store.ListButtons(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]domain.HomeButton, 0, len(all))
	for _, b := range all {
		if b.IsActive {
			active = append(active, b)
		}
	}
	return active, nil
}

func validateButton(b *domain.HomeButton) error {
	b.Text = strings.TrimSpace(b.Text)
	b.Href = strings.TrimSpace(b.Href)
	if b.Text == "" {
		return domain.Invalid("text", "is required")
	}
	if b.Href == "" {
		return domain.Invalid("href", "is required")
	}
	return nil
}

// Create appends a button. Unset fields take the defaults and the button is
// placed after the existing ones unless an order is given.
func (s *ButtonService) Create(ctx context.Context, in domain.ButtonPatch) (*domain.HomeButton, error) {
	existing, err := s.store.ListButtons(ctx)
	if err != nil {
		return nil, err
	}
	b := &domain.HomeButton{
		ID:         uuid.NewString(),
		Text:       DefaultButtonText,
		Href:       DefaultButtonHref,
		Icon:       DefaultButtonIcon,
		Color:      DefaultButtonColor,
		OrderIndex: len(existing) + 1,
		IsActive:   true,
	}
	in.Apply(b)
	if err := validateButton(b); err != nil {
		return nil, err
	}
	if err := s.store.CreateButton(ctx, b); err != nil {
		return nil, err
	}
	s.emitter.Emit(ctx, EventButtonsChanged, b.ID)
	return b, nil
}

func (s *ButtonService) Update(ctx context.Context, id string, patch domain.ButtonPatch) (*domain.HomeButton, error) {
	b, err := s.store.GetButton(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(b)
	if err := validateButton(b); err != nil {
		return nil, err
	}
	if err := s.store.UpdateButton(ctx, b); err != nil {
		return nil, err
	}
	s.emitter.Emit(ctx, EventButtonsChanged, b.ID)
	return b, nil
}

func (s *ButtonService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteButton(ctx, id); err != nil {
		return err
	}
	s.emitter.Emit(ctx, EventButtonsChanged, id)
	return nil
}

// Reorder assigns order_index = position+1 following ids, which must list
// every button exactly once.
func (s *ButtonService) Reorder(ctx context.Context, ids []string) ([]domain.HomeButton, error) {
	if len(ids) == 0 {
		return nil, domain.Invalid("ids", "is required")
	}
	if err := s.store.ReorderButtons(ctx, ids); err != nil {
		return nil, fmt.Errorf("reorder buttons: %w", err)
	}
	s.emitter.Emit(ctx, EventButtonsChanged, ids)
	return s.store.ListButtons(ctx)
}

// UpsertMany creates or replaces buttons by id; missing ids are generated.
func (s *ButtonService) UpsertMany(ctx context.Context, buttons []domain.HomeButton) error {
	for i := range buttons {
		if buttons[i].ID == "" {
			buttons[i].ID = uuid.NewString()
		}
		if buttons[i].Icon == "" {
			buttons[i].Icon = DefaultButtonIcon
		}
		if buttons[i].Color == "" {
			buttons[i].Color = DefaultButtonColor
		}
		if err := validateButton(&buttons[i]); err != nil {
			return fmt.Errorf("button %d: %w", i, err)
		}
	}
	if err := s.store.UpsertButtons(ctx, buttons); err != nil {
		return err
	}
	s.emitter.Emit(ctx, EventButtonsChanged, len(buttons))
	return nil
}

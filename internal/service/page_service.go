package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"sitecms/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Page Service: routable pages and their editable content
// ─────────────────────────────────────────────────────────────

var slugPattern = regexp.MustCompile(`^/([a-z0-9][a-z0-9-]*(/[a-z0-9][a-z0-9-]*)*)?$`)

// Paths served by the application itself; pages cannot take them.
var reservedSlugs = []string{"/api", "/auth", "/files", "/healthz", "/acceso-dashboard", "/admin", "/static"}

// NormalizeSlug trims, lowercases and prefixes a slug with "/".
func NormalizeSlug(slug string) (string, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return "", domain.Invalid("slug", "is required")
	}
	if !strings.HasPrefix(slug, "/") {
		slug = "/" + slug
	}
	if len(slug) > 1 {
		slug = strings.TrimRight(slug, "/")
	}
	if !slugPattern.MatchString(slug) {
		return "", domain.Invalid("slug", "%q may only contain lowercase letters, digits, dashes and slashes", slug)
	}
	if slug == "/" {
		return "", domain.Invalid("slug", "the home page is not an editable page")
	}
	for _, r := range reservedSlugs {
		if slug == r || strings.HasPrefix(slug, r+"/") {
			return "", domain.Invalid("slug", "%q is reserved", slug)
		}
	}
	return slug, nil
}

type PageService struct {
	pages   domain.PageStore
	content domain.ContentStore
	emitter EventEmitter
	now     func() time.Time
}

func NewPageService(pages domain.PageStore, content domain.ContentStore, emitter EventEmitter) *PageService {
	return &PageService{pages: pages, content: content, emitter: emitter, now: time.Now}
}

// List returns every page, newest first.
func (s *PageService) List(ctx context.Context) ([]domain.Page, error) {
	return s.pages.ListPages(ctx)
}

func (s *PageService) Get(ctx context.Context, id string) (*domain.Page, error) {
	return s.pages.GetPage(ctx, id)
}

func (s *PageService) GetBySlug(ctx context.Context, slug string) (*domain.Page, error) {
	slug, err := NormalizeSlug(slug)
	if err != nil {
		return nil, err
	}
	return s.pages.GetPageBySlug(ctx, slug)
}

// Create adds a page. Name and slug are required; status defaults to draft.
func (s *PageService) Create(ctx context.Context, in domain.PagePatch) (*domain.Page, error) {
	p := &domain.Page{ID: uuid.NewString(), Status: domain.PageStatusDraft}
	in.Apply(p)
	if err := s.validate(p); err != nil {
		return nil, err
	}
	if err := s.pages.CreatePage(ctx, p); err != nil {
		return nil, err
	}
	s.emitter.Emit(ctx, EventPageChanged, p.Slug)
	return p, nil
}

// CreateDraft adds an untitled draft with a timestamped slug.
func (s *PageService) CreateDraft(ctx context.Context) (*domain.Page, error) {
	name := "Nueva Página"
	slug := fmt.Sprintf("/pagina-%d", s.now().UnixMilli())
	return s.Create(ctx, domain.PagePatch{Name: &name, Slug: &slug})
}

func (s *PageService) validate(p *domain.Page) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return domain.Invalid("name", "is required")
	}
	slug, err := NormalizeSlug(p.Slug)
	if err != nil {
		return err
	}
	p.Slug = slug
	if !p.Status.Valid() {
		return domain.Invalid("status", "must be draft or published")
	}
	if len(p.Content) > 0 && !json.Valid(p.Content) {
		return domain.Invalid("content", "must be valid JSON")
	}
	return nil
}

// Update applies a partial update. System pages keep their slug.
func (s *PageService) Update(ctx context.Context, id string, patch domain.PagePatch) (*domain.Page, error) {
	p, err := s.pages.GetPage(ctx, id)
	if err != nil {
		return nil, err
	}
	oldSlug := p.Slug
	patch.Apply(p)
	if err := s.validate(p); err != nil {
		return nil, err
	}
	if p.IsSystemPage && p.Slug != oldSlug {
		return nil, fmt.Errorf("change slug of system page %s: %w", oldSlug, domain.ErrForbidden)
	}
	if err := s.pages.UpdatePage(ctx, p); err != nil {
		return nil, err
	}
	s.emitter.Emit(ctx, EventPageChanged, p.Slug)
	return p, nil
}

// Delete removes a page with its content and editor history. System pages
// cannot be deleted.
func (s *PageService) Delete(ctx context.Context, id string) error {
	p, err := s.pages.GetPage(ctx, id)
	if err != nil {
		return err
	}
	if p.IsSystemPage {
		return fmt.Errorf("delete system page %s: %w", p.Slug, domain.ErrForbidden)
	}
	if err := s.pages.DeletePage(ctx, id); err != nil {
		return err
	}
	s.emitter.Emit(ctx, EventPageDeleted, p.Slug)
	return nil
}

// EnsurePage returns the page for slug, creating a published one when it
// does not exist yet.
func (s *PageService) EnsurePage(ctx context.Context, slug string) (*domain.Page, error) {
	slug, err := NormalizeSlug(slug)
	if err != nil {
		return nil, err
	}
	p, err := s.pages.GetPageBySlug(ctx, slug)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	p = &domain.Page{
		ID:     uuid.NewString(),
		Name:   "Página " + slug,
		Slug:   slug,
		Status: domain.PageStatusPublished,
	}
	if err := s.pages.CreatePage(ctx, p); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Created concurrently.
			return s.pages.GetPageBySlug(ctx, slug)
		}
		return nil, err
	}
	s.emitter.Emit(ctx, EventPageChanged, p.Slug)
	return p, nil
}

// PublicState returns a published page with its content. Drafts are reported
// as not found.
func (s *PageService) PublicState(ctx context.Context, slug string) (*domain.PageState, error) {
	p, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.PageStatusPublished {
		return nil, fmt.Errorf("page %s: %w", p.Slug, domain.ErrNotFound)
	}
	items, err := s.content.ListContent(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return &domain.PageState{Page: *p, Content: items}, nil
}

// ── Editable content ───────────────────────────────────────

func (s *PageService) ListContent(ctx context.Context, pageID string) ([]domain.EditableContent, error) {
	if _, err := s.pages.GetPage(ctx, pageID); err != nil {
		return nil, err
	}
	return s.content.ListContent(ctx, pageID)
}

func validateContent(c *domain.EditableContent) error {
	if strings.TrimSpace(c.ElementID) == "" {
		return domain.Invalid("element_id", "is required")
	}
	if strings.TrimSpace(c.ContentType) == "" {
		return domain.Invalid("content_type", "is required")
	}
	if len(c.Styles) > 0 && !json.Valid(c.Styles) {
		return domain.Invalid("styles", "must be valid JSON")
	}
	return nil
}

func (s *PageService) CreateContent(ctx context.Context, pageID string, c domain.EditableContent) (*domain.EditableContent, error) {
	if _, err := s.pages.GetPage(ctx, pageID); err != nil {
		return nil, err
	}
	c.ID = uuid.NewString()
	c.PageID = pageID
	if err := validateContent(&c); err != nil {
		return nil, err
	}
	if err := s.content.CreateContent(ctx, &c); err != nil {
		return nil, err
	}
	s.emitter.Emit(ctx, EventContentSaved, pageID)
	return &c, nil
}

func (s *PageService) UpdateContent(ctx context.Context, id string, patch domain.ContentPatch) (*domain.EditableContent, error) {
	c, err := s.content.GetContent(ctx, id)
	if err != nil {
		return nil, err
	}
	patch.Apply(c)
	if err := validateContent(c); err != nil {
		return nil, err
	}
	if err := s.content.UpdateContent(ctx, c); err != nil {
		return nil, err
	}
	s.emitter.Emit(ctx, EventContentSaved, c.PageID)
	return c, nil
}

func (s *PageService) DeleteContent(ctx context.Context, id string) error {
	return s.content.DeleteContent(ctx, id)
}

// UpsertContent writes rows keyed by element id for one page.
func (s *PageService) UpsertContent(ctx context.Context, pageID string, items []domain.EditableContent) error {
	if _, err := s.pages.GetPage(ctx, pageID); err != nil {
		return err
	}
	for i := range items {
		items[i].PageID = pageID
		if err := validateContent(&items[i]); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	if err := s.content.UpsertContent(ctx, items); err != nil {
		return err
	}
	s.emitter.Emit(ctx, EventContentSaved, pageID)
	return nil
}

func (s *PageService) DeleteContentByPage(ctx context.Context, pageID string) error {
	return s.content.DeleteContentByPage(ctx, pageID)
}

// ReplaceContent swaps all rows of a page in one transaction.
func (s *PageService) ReplaceContent(ctx context.Context, pageID string, items []domain.EditableContent) error {
	if _, err := s.pages.GetPage(ctx, pageID); err != nil {
		return err
	}
	seen := make(map[string]bool, len(items))
	for i := range items {
		if err := validateContent(&items[i]); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
		if seen[items[i].ElementID] {
			return domain.Invalid("element_id", "duplicate element %s", items[i].ElementID)
		}
		seen[items[i].ElementID] = true
	}
	if err := s.content.ReplacePageContent(ctx, pageID, items); err != nil {
		return err
	}
	s.emitter.Emit(ctx, EventContentSaved, pageID)
	return nil
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"sync"
	"time"

	"go.uber.org/zap"

	"sitecms/internal/domain"
	"sitecms/internal/editor"
	"sitecms/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Editor Service: visual editor sessions with persisted history
// ─────────────────────────────────────────────────────────────

// EditorState is what the editor UI shows after every operation.
type EditorState struct {
	PageID   string           `json:"page_id"`
	Slug     string           `json:"slug"`
	Elements []editor.Element `json:"elements"`
	Index    int              `json:"history_index"`
	Len      int              `json:"history_length"`
	CanUndo  bool             `json:"can_undo"`
	CanRedo  bool             `json:"can_redo"`
}

// EditorService edits the element list of a page. Every mutation pushes a
// snapshot onto the page's history, which is stored so an editing session
// survives restarts. Nothing reaches the public page until Save.
type EditorService struct {
	pages     *PageService
	history   *storage.UndoStore
	analytics *AnalyticsService
	limit     int
	logger    *zap.Logger
	now       func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewEditorService(
	pages *PageService,
	history *storage.UndoStore,
	analytics *AnalyticsService,
	limit int,
	logger *zap.Logger,
) *EditorService {
	if limit <= 0 {
		limit = editor.DefaultHistoryLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EditorService{
		pages:     pages,
		history:   history,
		analytics: analytics,
		limit:     limit,
		logger:    logger,
		now:       time.Now,
		locks:     make(map[string]*sync.Mutex),
	}
}

// Palette lists the element types that can be added.
func (s *EditorService) Palette() []editor.Definition {
	return editor.Palette()
}

func (s *EditorService) lock(pageID string) func() {
	s.mu.Lock()
	l, ok := s.locks[pageID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[pageID] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// session is one loaded editing session.
type session struct {
	page *domain.Page
	h    *editor.History
}

func (s *EditorService) state(sess *session) *EditorState {
	return &EditorState{
		PageID:   sess.page.ID,
		Slug:     sess.page.Slug,
		Elements: sess.h.Current(),
		Index:    sess.h.Index(),
		Len:      sess.h.Len(),
		CanUndo:  sess.h.CanUndo(),
		CanRedo:  sess.h.CanRedo(),
	}
}

// fresh starts a history from the saved content, falling back to the
// starter elements for a blank page.
func (s *EditorService) fresh(ctx context.Context, page *domain.Page) (*editor.History, error) {
	rows, err := s.pages.ListContent(ctx, page.ID)
	if err != nil {
		return nil, err
	}
	elements := editor.FromContent(rows)
	if editor.IsBlank(elements) {
		elements = editor.DefaultElements()
	}
	return editor.NewHistory(elements, s.limit), nil
}

func (s *EditorService) load(ctx context.Context, page *domain.Page) (*editor.History, error) {
	stored, err := s.history.Load(ctx, page.ID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return s.fresh(ctx, page)
	}
	snaps := make([]editor.Snapshot, 0, len(stored.Entries))
	for _, e := range stored.Entries {
		var elements []editor.Element
		if err := json.Unmarshal([]byte(e.SnapshotJSON), &elements); err != nil {
			s.logger.Warn("discarding unreadable editor history",
				zap.String("page_id", page.ID), zap.Int("seq", e.Seq), zap.Error(err))
			return s.fresh(ctx, page)
		}
		snaps = append(snaps, editor.Snapshot{Label: e.Label, Elements: elements})
	}
	return editor.Restore(snaps, stored.Current, s.limit), nil
}

func (s *EditorService) persist(ctx context.Context, pageID string, h *editor.History) error {
	entries := h.Entries()
	stored := &storage.UndoHistory{PageID: pageID, Current: h.Index(), Entries: make([]storage.UndoEntry, len(entries))}
	for i, e := range entries {
		b, err := json.Marshal(e.Elements)
		if err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}
		stored.Entries[i] = storage.UndoEntry{Seq: i, Label: e.Label, SnapshotJSON: string(b)}
	}
	return s.history.Save(ctx, stored)
}

// with runs fn on the page's session under the page lock. When fn reports a
// change the history is stored.
func (s *EditorService) with(ctx context.Context, slug string, fn func(*session) (bool, error)) (*EditorState, error) {
	page, err := s.pages.EnsurePage(ctx, slug)
	if err != nil {
		return nil, err
	}
	unlock := s.lock(page.ID)
	defer unlock()

	h, err := s.load(ctx, page)
	if err != nil {
		return nil, err
	}
	sess := &session{page: page, h: h}
	changed, err := fn(sess)
	if err != nil {
		return nil, err
	}
	if changed {
		if err := s.persist(ctx, page.ID, h); err != nil {
			return nil, err
		}
	}
	return s.state(sess), nil
}

// mutate applies op to the current elements and pushes the result.
func (s *EditorService) mutate(ctx context.Context, slug, label string, op func([]editor.Element) ([]editor.Element, error)) (*EditorState, error) {
	return s.with(ctx, slug, func(sess *session) (bool, error) {
		next, err := op(sess.h.Current())
		if err != nil {
			return false, err
		}
		sess.h.Push(label, next)
		return true, nil
	})
}

// Open ensures the page exists and returns its editing session. A session
// left over from before is resumed; otherwise a new one starts from the
// saved content.
func (s *EditorService) Open(ctx context.Context, slug string) (*EditorState, error) {
	return s.with(ctx, slug, func(sess *session) (bool, error) {
		return sess.h.Len() == 1 && sess.h.Index() == 0, nil
	})
}

// Reset discards the editing session and reloads the saved content.
func (s *EditorService) Reset(ctx context.Context, slug string) (*EditorState, error) {
	page, err := s.pages.EnsurePage(ctx, slug)
	if err != nil {
		return nil, err
	}
	unlock := s.lock(page.ID)
	if err := s.history.Clear(ctx, page.ID); err != nil {
		unlock()
		return nil, err
	}
	unlock()
	return s.Open(ctx, slug)
}

func (s *EditorService) AddElement(ctx context.Context, slug, elementType string) (*EditorState, error) {
	return s.mutate(ctx, slug, "add "+elementType, func(elements []editor.Element) ([]editor.Element, error) {
		e, err := editor.NewElement(elementType, s.now(), elements)
		if err != nil {
			return nil, err
		}
		return append(elements, e), nil
	})
}

func (s *EditorService) UpdateElement(ctx context.Context, slug, id string, patch editor.Patch) (*EditorState, error) {
	return s.mutate(ctx, slug, "update "+id, func(elements []editor.Element) ([]editor.Element, error) {
		return editor.Update(elements, id, patch)
	})
}

func (s *EditorService) DeleteElement(ctx context.Context, slug, id string) (*EditorState, error) {
	return s.mutate(ctx, slug, "delete "+id, func(elements []editor.Element) ([]editor.Element, error) {
		return editor.Delete(elements, id)
	})
}

// MoveElement places a top-level element at index to.
func (s *EditorService) MoveElement(ctx context.Context, slug, id string, to int) (*EditorState, error) {
	return s.mutate(ctx, slug, "move "+id, func(elements []editor.Element) ([]editor.Element, error) {
		return editor.Move(elements, id, to)
	})
}

// Undo steps back one snapshot. At the oldest snapshot it is a no-op.
func (s *EditorService) Undo(ctx context.Context, slug string) (*EditorState, error) {
	return s.with(ctx, slug, func(sess *session) (bool, error) {
		_, moved := sess.h.Undo()
		return moved, nil
	})
}

// Redo steps forward one snapshot. At the newest snapshot it is a no-op.
func (s *EditorService) Redo(ctx context.Context, slug string) (*EditorState, error) {
	return s.with(ctx, slug, func(sess *session) (bool, error) {
		_, moved := sess.h.Redo()
		return moved, nil
	})
}

// Save writes the current elements as the page content and records an
// edit_save event for sessionID.
func (s *EditorService) Save(ctx context.Context, slug, sessionID string) (*EditorState, error) {
	st, err := s.with(ctx, slug, func(sess *session) (bool, error) {
		rows, err := editor.ToContent(sess.page.ID, sess.h.Current())
		if err != nil {
			return false, err
		}
		return false, s.pages.ReplaceContent(ctx, sess.page.ID, rows)
	})
	if err != nil {
		return nil, err
	}
	if s.analytics != nil {
		if sessionID == "" {
			sessionID = "editor"
		}
		ids := make([]string, len(st.Elements))
		for i, e := range st.Elements {
			ids[i] = e.ID
		}
		if err := s.analytics.TrackEdit(ctx, sessionID, st.Slug, "visual_editor", map[string]any{
			"pageId":        st.PageID,
			"elementsCount": len(st.Elements),
			"elements":      ids,
		}); err != nil {
			s.logger.Warn("track editor save failed", zap.String("slug", st.Slug), zap.Error(err))
		}
	}
	return st, nil
}

// Preview renders the current, possibly unsaved, elements.
func (s *EditorService) Preview(ctx context.Context, slug string) (template.HTML, error) {
	st, err := s.with(ctx, slug, func(*session) (bool, error) { return false, nil })
	if err != nil {
		return "", err
	}
	return editor.Render(st.Elements)
}

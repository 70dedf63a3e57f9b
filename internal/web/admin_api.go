package web

import (
	"encoding/json"
	"net/http"
	"time"

	"sitecms/internal/domain"
)

func (s *Server) adminRoutes(mux *http.ServeMux) {
	a := func(h http.HandlerFunc) http.HandlerFunc { return s.admin(h, true) }

	// Session timer
	mux.HandleFunc("GET /api/admin/session", s.admin(s.handleSessionStatus, false))
	mux.HandleFunc("POST /api/admin/session/extend", a(s.handleSessionExtend))
	mux.HandleFunc("POST /api/admin/session/pause", a(s.handleSessionPause))
	mux.HandleFunc("POST /api/admin/session/resume", a(s.handleSessionResume))

	// Buttons
	mux.HandleFunc("GET /api/admin/buttons", a(s.handleListButtons))
	mux.HandleFunc("POST /api/admin/buttons", a(s.handleCreateButton))
	mux.HandleFunc("PUT /api/admin/buttons", a(s.handleUpsertButtons))
	mux.HandleFunc("POST /api/admin/buttons/reorder", a(s.handleReorderButtons))
	mux.HandleFunc("PATCH /api/admin/buttons/{id}", a(s.handleUpdateButton))
	mux.HandleFunc("DELETE /api/admin/buttons/{id}", a(s.handleDeleteButton))

	// Services and process steps
	mux.HandleFunc("GET /api/admin/services", a(s.handleListServices))
	mux.HandleFunc("POST /api/admin/services", a(s.handleCreateService))
	mux.HandleFunc("PATCH /api/admin/services/{id}", a(s.handleUpdateService))
	mux.HandleFunc("DELETE /api/admin/services/{id}", a(s.handleDeleteService))
	mux.HandleFunc("GET /api/admin/process-steps", a(s.handleListSteps))
	mux.HandleFunc("POST /api/admin/process-steps", a(s.handleCreateStep))
	mux.HandleFunc("PATCH /api/admin/process-steps/{id}", a(s.handleUpdateStep))
	mux.HandleFunc("DELETE /api/admin/process-steps/{id}", a(s.handleDeleteStep))

	// Pages and content
	mux.HandleFunc("GET /api/admin/pages", a(s.handleListPages))
	mux.HandleFunc("POST /api/admin/pages", a(s.handleCreatePage))
	mux.HandleFunc("POST /api/admin/pages/draft", a(s.handleCreateDraft))
	mux.HandleFunc("GET /api/admin/pages/{id}", a(s.handleGetPage))
	mux.HandleFunc("PATCH /api/admin/pages/{id}", a(s.handleUpdatePage))
	mux.HandleFunc("DELETE /api/admin/pages/{id}", a(s.handleDeletePage))
	mux.HandleFunc("GET /api/admin/pages/{id}/content", a(s.handleListContent))
	mux.HandleFunc("POST /api/admin/pages/{id}/content", a(s.handleCreateContent))
	mux.HandleFunc("PUT /api/admin/pages/{id}/content", a(s.handleReplaceContent))
	mux.HandleFunc("POST /api/admin/pages/{id}/content/upsert", a(s.handleUpsertContent))
	mux.HandleFunc("DELETE /api/admin/pages/{id}/content", a(s.handleDeletePageContent))
	mux.HandleFunc("PATCH /api/admin/content/{id}", a(s.handleUpdateContent))
	mux.HandleFunc("DELETE /api/admin/content/{id}", a(s.handleDeleteContent))

	// Site config
	mux.HandleFunc("GET /api/admin/site-config", a(s.handleListConfig))
	mux.HandleFunc("GET /api/admin/site-config/{key}", a(s.handleGetConfig))
	mux.HandleFunc("PUT /api/admin/site-config/{key}", a(s.handleSetConfig))

	// Metrics
	mux.HandleFunc("GET /api/admin/metrics/today", a(s.handleTodayMetrics))
	mux.HandleFunc("GET /api/admin/metrics/week", a(s.handleWeeklyMetrics))
	mux.HandleFunc("POST /api/admin/metrics/rollup", a(s.handleRollup))

	// Storage
	mux.HandleFunc("POST /api/admin/storage/{bucket}", a(s.handleUpload))
	mux.HandleFunc("GET /api/admin/storage/{bucket}/url", a(s.handlePublicURL))
	mux.HandleFunc("DELETE /api/admin/storage/{bucket}/{path...}", a(s.handleDeleteFile))

	s.editorRoutes(mux, a)
}

// ── Session ───────────────────────────────────────────────

func (s *Server) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, principalFrom(r.Context()).Status)
}

func (s *Server) handleSessionExtend(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Auth.Extend(r.Context(), principalFrom(r.Context()).Session.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleSessionPause(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Auth.Pause(r.Context(), principalFrom(r.Context()).Session.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleSessionResume(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Auth.Resume(r.Context(), principalFrom(r.Context()).Session.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// ── Buttons ───────────────────────────────────────────────

func (s *Server) handleListButtons(w http.ResponseWriter, r *http.Request) {
	buttons, err := s.svc.Buttons.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buttons)
}

func (s *Server) handleCreateButton(w http.ResponseWriter, r *http.Request) {
	var in domain.ButtonPatch
	if err := decodeOptionalJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := s.svc.Buttons.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) handleUpsertButtons(w http.ResponseWriter, r *http.Request) {
	var in []domain.HomeButton
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Buttons.UpsertMany(r.Context(), in); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.handleListButtons(w, r)
}

type reorderRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleReorderButtons(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	buttons, err := s.svc.Buttons.Reorder(r.Context(), req.IDs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buttons)
}

func (s *Server) handleUpdateButton(w http.ResponseWriter, r *http.Request) {
	var patch domain.ButtonPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := s.svc.Buttons.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) handleDeleteButton(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Buttons.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Services and process steps ────────────────────────────

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.Sections.ListServices(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateService(w http.ResponseWriter, r *http.Request) {
	var in domain.ServicePatch
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	item, err := s.svc.Sections.CreateService(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleUpdateService(w http.ResponseWriter, r *http.Request) {
	var patch domain.ServicePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	item, err := s.svc.Sections.UpdateService(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeleteService(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Sections.DeleteService(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSteps(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.Sections.ListSteps(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateStep(w http.ResponseWriter, r *http.Request) {
	var in domain.ProcessStepPatch
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	item, err := s.svc.Sections.CreateStep(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleUpdateStep(w http.ResponseWriter, r *http.Request) {
	var patch domain.ProcessStepPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	item, err := s.svc.Sections.UpdateStep(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleDeleteStep(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Sections.DeleteStep(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Pages ─────────────────────────────────────────────────

func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := s.svc.Pages.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pages)
}

func (s *Server) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	var in domain.PagePatch
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.svc.Pages.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Pages.CreateDraft(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.Pages.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdatePage(w http.ResponseWriter, r *http.Request) {
	var patch domain.PagePatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.svc.Pages.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Pages.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListContent(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.Pages.ListContent(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type contentInput struct {
	ElementID   string          `json:"element_id"`
	ContentType string          `json:"content_type"`
	Content     string          `json:"content"`
	Styles      json.RawMessage `json:"styles"`
	OrderIndex  int             `json:"order_index"`
}

func (in contentInput) toContent() domain.EditableContent {
	return domain.EditableContent{
		ElementID:   in.ElementID,
		ContentType: in.ContentType,
		Content:     in.Content,
		Styles:      in.Styles,
		OrderIndex:  in.OrderIndex,
	}
}

func decodeContentList(w http.ResponseWriter, r *http.Request) ([]domain.EditableContent, error) {
	var in []contentInput
	if err := decodeJSON(w, r, &in); err != nil {
		return nil, err
	}
	out := make([]domain.EditableContent, len(in))
	for i, c := range in {
		out[i] = c.toContent()
	}
	return out, nil
}

func (s *Server) handleCreateContent(w http.ResponseWriter, r *http.Request) {
	var in contentInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.svc.Pages.CreateContent(r.Context(), r.PathValue("id"), in.toContent())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleReplaceContent(w http.ResponseWriter, r *http.Request) {
	items, err := decodeContentList(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Pages.ReplaceContent(r.Context(), r.PathValue("id"), items); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.handleListContent(w, r)
}

func (s *Server) handleUpsertContent(w http.ResponseWriter, r *http.Request) {
	items, err := decodeContentList(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Pages.UpsertContent(r.Context(), r.PathValue("id"), items); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.handleListContent(w, r)
}

func (s *Server) handleDeletePageContent(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Pages.DeleteContentByPage(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateContent(w http.ResponseWriter, r *http.Request) {
	var patch domain.ContentPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.svc.Pages.UpdateContent(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteContent(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Pages.DeleteContent(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Site config ───────────────────────────────────────────

func (s *Server) handleListConfig(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.SiteConfig.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	e, err := s.svc.SiteConfig.Get(r.Context(), r.PathValue("key"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

type setConfigRequest struct {
	Value       string `json:"value"`
	Description string `json:"description"`
}

func (s *Server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	var req setConfigRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := s.svc.SiteConfig.Set(r.Context(), r.PathValue("key"), req.Value, req.Description)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// ── Metrics ───────────────────────────────────────────────

func (s *Server) handleTodayMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := s.svc.Analytics.TodayMetrics(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleWeeklyMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := s.svc.Analytics.WeeklyMetrics(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type rollupRequest struct {
	Date string `json:"date"`
}

func (s *Server) handleRollup(w http.ResponseWriter, r *http.Request) {
	var req rollupRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	day := time.Now().UTC()
	if req.Date != "" {
		parsed, err := time.Parse(time.DateOnly, req.Date)
		if err != nil {
			s.writeError(w, r, domain.Invalid("date", "must be YYYY-MM-DD"))
			return
		}
		day = parsed
	}
	m, err := s.svc.Analytics.Rollup(r.Context(), day)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

package web

import (
	"net/http"

	"sitecms/internal/domain"
	"sitecms/internal/editor"
	"sitecms/internal/service"
)

// Editor endpoints address the page by ?slug=, since slugs contain slashes.
func (s *Server) editorRoutes(mux *http.ServeMux, a func(http.HandlerFunc) http.HandlerFunc) {
	mux.HandleFunc("GET /api/admin/editor/palette", a(s.handleEditorPalette))
	mux.HandleFunc("GET /api/admin/editor", a(s.handleEditorOpen))
	mux.HandleFunc("GET /api/admin/editor/preview", a(s.handleEditorPreview))
	mux.HandleFunc("POST /api/admin/editor/elements", a(s.handleEditorAdd))
	mux.HandleFunc("PATCH /api/admin/editor/elements/{id}", a(s.handleEditorUpdate))
	mux.HandleFunc("DELETE /api/admin/editor/elements/{id}", a(s.handleEditorDelete))
	mux.HandleFunc("POST /api/admin/editor/elements/{id}/move", a(s.handleEditorMove))
	mux.HandleFunc("POST /api/admin/editor/undo", a(s.handleEditorUndo))
	mux.HandleFunc("POST /api/admin/editor/redo", a(s.handleEditorRedo))
	mux.HandleFunc("POST /api/admin/editor/save", a(s.handleEditorSave))
	mux.HandleFunc("POST /api/admin/editor/reset", a(s.handleEditorReset))
}

func editorSlug(r *http.Request) (string, error) {
	slug := r.URL.Query().Get("slug")
	if slug == "" {
		return "", domain.Invalid("slug", "is required")
	}
	return slug, nil
}

func (s *Server) editorResult(w http.ResponseWriter, r *http.Request, st *service.EditorState, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleEditorPalette(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Editor.Palette())
}

func (s *Server) handleEditorOpen(w http.ResponseWriter, r *http.Request) {
	slug, err := editorSlug(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	st, err := s.svc.Editor.Open(r.Context(), slug)
	s.editorResult(w, r, st, err)
}

func (s *Server) handleEditorPreview(w http.ResponseWriter, r *http.Request) {
	slug, err := editorSlug(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	html, err := s.svc.Editor.Preview(r.Context(), slug)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(html))
}

type addElementRequest struct {
	Type string `json:"type"`
}

func (s *Server) handleEditorAdd(w http.ResponseWriter, r *http.Request) {
	slug, err := editorSlug(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req addElementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	st, err := s.svc.Editor.AddElement(r.Context(), slug, req.Type)
	s.editorResult(w, r, st, err)
}

func (s *Server) handleEditorUpdate(w http.ResponseWriter, r *http.Request) {
	slug, err := editorSlug(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var patch editor.Patch
	if err := decodeJSON(w, r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	st, err := s.svc.Editor.UpdateElement(r.Context(), slug, r.PathValue("id"), patch)
	s.editorResult(w, r, st, err)
}

func (s *Server) handleEditorDelete(w http.ResponseWriter, r *http.Request) {
	slug, err := editorSlug(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	st, err := s.svc.Editor.DeleteElement(r.Context(), slug, r.PathValue("id"))
	s.editorResult(w, r, st, err)
}

type moveElementRequest struct {
	To int `json:"to"`
}

func (s *Server) handleEditorMove(w http.ResponseWriter, r *http.Request) {
	slug, err := editorSlug(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req moveElementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	st, err := s.svc.Editor.MoveElement(r.Context(), slug, r.PathValue("id"), req.To)
	s.editorResult(w, r, st, err)
}

func (s *Server) handleEditorUndo(w http.ResponseWriter, r *http.Request) {
	slug, err := editorSlug(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	st, err := s.svc.Editor.Undo(r.Context(), slug)
	s.editorResult(w, r, st, err)
}

func (s *Server) handleEditorRedo(w http.ResponseWriter, r *http.Request) {
	slug, err := editorSlug(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	st, err := s.svc.Editor.Redo(r.Context(), slug)
	s.editorResult(w, r, st, err)
}

func (s *Server) handleEditorSave(w http.ResponseWriter, r *http.Request) {
	slug, err := editorSlug(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	st, err := s.svc.Editor.Save(r.Context(), slug, principalFrom(r.Context()).Session.ID)
	s.editorResult(w, r, st, err)
}

func (s *Server) handleEditorReset(w http.ResponseWriter, r *http.Request) {
	slug, err := editorSlug(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	st, err := s.svc.Editor.Reset(r.Context(), slug)
	s.editorResult(w, r, st, err)
}

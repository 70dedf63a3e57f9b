package web

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"sitecms/internal/auth"
	"sitecms/internal/domain"
	"sitecms/internal/editor"
)

const defaultTagline = "Elevamos tu negocio con un motor 360°"

type homeView struct {
	Title    string
	Tagline  string
	Buttons  []domain.HomeButton
	Services []domain.Service
	Steps    []domain.ProcessStep
}

type pageView struct {
	Title string
	Page  domain.Page
	Body  template.HTML
}

type loginView struct {
	Title string
	Email string
	Error string
}

type adminView struct {
	Title   string
	Session auth.Status
	Today   *domain.DailyMetrics
	Buttons []domain.HomeButton
	Pages   []domain.Page
}

// render buffers the output so a template error can still become a 500.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.Render(&buf, name, data); err != nil {
		s.logger.Error("render template", zap.String("template", name), zap.Error(err))
		http.Error(w, "unexpected error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusNotFound, "notfound", struct{ Title string }{"Página no encontrada"})
}

func (s *Server) configValue(r *http.Request, key, fallback string) string {
	e, err := s.svc.SiteConfig.Get(r.Context(), key)
	if err != nil || e.Value == "" {
		return fallback
	}
	return e.Value
}

func activeOnly[T any](items []T, active func(T) bool) []T {
	out := items[:0:0]
	for _, it := range items {
		if active(it) {
			out = append(out, it)
		}
	}
	return out
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	buttons, err := s.svc.Buttons.ListActive(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	services, err := s.svc.Sections.ListServices(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	steps, err := s.svc.Sections.ListSteps(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "home", homeView{
		Title:    s.configValue(r, "site_title", "Inicio"),
		Tagline:  s.configValue(r, "tagline", defaultTagline),
		Buttons:  buttons,
		Services: activeOnly(services, func(v domain.Service) bool { return v.IsActive }),
		Steps:    activeOnly(steps, func(v domain.ProcessStep) bool { return v.IsActive }),
	})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.Pages.PublicState(r.Context(), r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || domain.IsValidation(err) {
			s.notFound(w, r)
			return
		}
		s.writeError(w, r, err)
		return
	}
	body, err := editor.Render(editor.FromContent(state.Content))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "page", pageView{Title: state.Page.Name, Page: state.Page, Body: body})
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if token := tokenFrom(r); token != "" {
		if _, err := s.svc.Auth.Inspect(r.Context(), token); err == nil {
			http.Redirect(w, r, "/admin", http.StatusSeeOther)
			return
		}
	}
	s.render(w, r, http.StatusOK, "login", loginView{Title: "Acceso"})
}

func (s *Server) handleAdminPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := s.svc.Auth.Authenticate(ctx, tokenFrom(r))
	if err != nil {
		s.clearSessionCookie(w)
		http.Redirect(w, r, "/acceso-dashboard", http.StatusSeeOther)
		return
	}
	today, err := s.svc.Analytics.TodayMetrics(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	buttons, err := s.svc.Buttons.List(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	pages, err := s.svc.Pages.List(ctx)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, "admin", adminView{
		Title:   "Dashboard",
		Session: p.Status,
		Today:   today,
		Buttons: buttons,
		Pages:   pages,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// handleLogin accepts the login form or a JSON body. Forms are redirected to
// the dashboard; JSON clients get the token and the session status.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	jsonClient := wantsJSON(r)
	if jsonClient {
		if err := decodeJSON(w, r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}
	} else {
		req.Email = r.PostFormValue("email")
		req.Password = r.PostFormValue("password")
	}

	res, err := s.svc.Auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if jsonClient {
			s.writeError(w, r, err)
			return
		}
		status, _ := statusFor(err)
		msg := "Credenciales inválidas"
		if domain.IsValidation(err) {
			msg = "Por favor ingresa un email y una contraseña válidos"
		} else if status == http.StatusInternalServerError {
			s.logger.Error("sign-in failed", zap.Error(err))
			msg = "No se pudo iniciar sesión, intenta de nuevo"
		}
		s.render(w, r, status, "login", loginView{Title: "Acceso", Email: req.Email, Error: msg})
		return
	}

	s.setSessionCookie(w, res.Token)
	if jsonClient {
		writeJSON(w, http.StatusOK, res)
		return
	}
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Auth.SignOut(r.Context(), tokenFrom(r)); err != nil {
		s.logger.Warn("sign-out failed", zap.Error(err))
	}
	s.clearSessionCookie(w)
	if wantsJSON(r) || r.Header.Get("Authorization") != "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/acceso-dashboard", http.StatusSeeOther)
}

// ── Public JSON ───────────────────────────────────────────

func (s *Server) handlePublicButtons(w http.ResponseWriter, r *http.Request) {
	buttons, err := s.svc.Buttons.ListActive(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buttons)
}

func (s *Server) handlePublicPageState(w http.ResponseWriter, r *http.Request) {
	state, err := s.svc.Pages.PublicState(r.Context(), r.URL.Query().Get("slug"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitecms/internal/auth"
	"sitecms/internal/domain"
	"sitecms/internal/service"
	"sitecms/internal/storage"
)

func setupTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()

	db, err := storage.OpenSQLite(ctx, filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	blobs, err := storage.NewBlobStore(filepath.Join(dir, "files"))
	require.NoError(t, err)
	signer, err := auth.NewSigner([]byte("0123456789abcdef0123456789abcdef"), time.Hour, nil)
	require.NoError(t, err)

	svc := service.NewServices(db, blobs, service.Options{
		EditorHistoryLimit: 40,
		Signer:             signer,
		Policy:             auth.Policy{Timeout: time.Hour, Warning: 5 * time.Minute},
	}, nil, &service.MockEmitter{})
	_, err = service.SeedSystemPages(ctx, svc.PageStore, svc.ContentStore)
	require.NoError(t, err)
	_, _, err = svc.Auth.EnsureUser(ctx, "admin@example.test", "s3cret-pass")
	require.NoError(t, err)

	templates, err := LoadTemplates("")
	require.NoError(t, err)

	s := NewServer(svc, templates, nil, Options{Addr: "127.0.0.1:0"})
	res, err := svc.Auth.SignIn(ctx, "admin@example.test", "s3cret-pass")
	require.NoError(t, err)
	return s, res.Token
}

func do(t *testing.T, s *Server, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHandleHealthz(t *testing.T) {
	s, _ := setupTestServer(t)
	rec := do(t, s, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{domain.Invalid("x", "bad"), http.StatusBadRequest},
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrConflict, http.StatusConflict},
		{domain.ErrForbidden, http.StatusForbidden},
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{domain.ErrSessionExpired, http.StatusUnauthorized},
		{os.ErrPermission, http.StatusInternalServerError},
	}
	for _, c := range cases {
		code, msg := statusFor(c.err)
		assert.Equal(t, c.code, code, c.err.Error())
		if code == http.StatusInternalServerError {
			assert.Equal(t, "unexpected error", msg)
		}
	}
}

func TestAdminRequiresSession(t *testing.T) {
	s, _ := setupTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/admin/buttons", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", decode[map[string]string](t, rec)["error"])

	rec = do(t, s, http.MethodGet, "/api/admin/buttons", "forged", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginFormReachesAdmin(t *testing.T) {
	s, _ := setupTestServer(t)
	h := s.Handler()

	form := url.Values{"email": {"admin@example.test"}, "password": {"s3cret-pass"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, sessionCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Dashboard")

	// Without a session the dashboard sends you to the login form.
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/acceso-dashboard", rec.Header().Get("Location"))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s, _ := setupTestServer(t)

	rec := do(t, s, http.MethodPost, "/auth/login", "", map[string]string{"email": "admin@example.test", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodPost, "/auth/login", "", map[string]string{"email": "admin", "password": "nope-nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	form := url.Values{"email": {"admin@example.test"}, "password": {"wrong-one"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Credenciales inválidas")
}

func TestLogout(t *testing.T) {
	s, token := setupTestServer(t)
	rec := do(t, s, http.MethodPost, "/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/admin/session", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestButtonsAPI(t *testing.T) {
	s, token := setupTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/admin/buttons", token, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode[domain.HomeButton](t, rec)
	assert.Equal(t, "Nuevo Botón", first.Text)

	rec = do(t, s, http.MethodPost, "/api/admin/buttons", token, map[string]any{"text": "Ads", "href": "/ads"})
	require.Equal(t, http.StatusCreated, rec.Code)
	second := decode[domain.HomeButton](t, rec)
	assert.Equal(t, 2, second.OrderIndex)

	rec = do(t, s, http.MethodPatch, "/api/admin/buttons/"+first.ID, token, map[string]any{"bogus": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPatch, "/api/admin/buttons/"+first.ID, token, map[string]any{"is_active": false})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/admin/buttons/reorder", token, map[string]any{"ids": []string{second.ID, first.ID}})
	require.Equal(t, http.StatusOK, rec.Code)
	ordered := decode[[]domain.HomeButton](t, rec)
	assert.Equal(t, second.ID, ordered[0].ID)

	rec = do(t, s, http.MethodPost, "/api/admin/buttons/reorder", token, map[string]any{"ids": []string{second.ID}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/buttons", "", nil)
	active := decode[[]domain.HomeButton](t, rec)
	require.Len(t, active, 1)
	assert.Equal(t, "Ads", active[0].Text)

	rec = do(t, s, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/ads"`)

	rec = do(t, s, http.MethodDelete, "/api/admin/buttons/"+first.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, s, http.MethodDelete, "/api/admin/buttons/"+first.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPagesAPIAndPublicPages(t *testing.T) {
	s, token := setupTestServer(t)

	rec := do(t, s, http.MethodGet, "/consultoria", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Consultoría estratégica")

	rec = do(t, s, http.MethodPost, "/api/admin/pages", token, map[string]any{"name": "Promo", "slug": "promo"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	page := decode[domain.Page](t, rec)

	rec = do(t, s, http.MethodPost, "/api/admin/pages", token, map[string]any{"name": "Dup", "slug": "/promo"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Drafts are not public.
	rec = do(t, s, http.MethodGet, "/promo", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodPut, "/api/admin/pages/"+page.ID+"/content", token, []map[string]any{
		{"element_id": "t", "content_type": "heading", "content": "<Oferta>", "order_index": 0},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodPatch, "/api/admin/pages/"+page.ID, token, map[string]any{"status": "published"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/promo", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "&lt;Oferta&gt;")

	rec = do(t, s, http.MethodGet, "/api/pages/state?slug=/promo", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[domain.PageState](t, rec).Content, 1)

	system, err := s.svc.Pages.GetBySlug(context.Background(), "/ads")
	require.NoError(t, err)
	rec = do(t, s, http.MethodDelete, "/api/admin/pages/"+system.ID, token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/nothing-here", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEditorAPI(t *testing.T) {
	s, token := setupTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/admin/editor?slug=/landing", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	st := decode[service.EditorState](t, rec)
	assert.False(t, st.CanUndo)

	rec = do(t, s, http.MethodPost, "/api/admin/editor/elements?slug=/landing", token, map[string]string{"type": "paragraph"})
	require.Equal(t, http.StatusOK, rec.Code)
	st = decode[service.EditorState](t, rec)
	assert.True(t, st.CanUndo)
	added := st.Elements[len(st.Elements)-1].ID

	rec = do(t, s, http.MethodPatch, "/api/admin/editor/elements/"+added+"?slug=/landing", token, map[string]any{"content": "Hola mundo"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/admin/editor/undo?slug=/landing", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[service.EditorState](t, rec).CanRedo)

	rec = do(t, s, http.MethodPost, "/api/admin/editor/redo?slug=/landing", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/admin/editor/save?slug=/landing", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/landing", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Hola mundo")

	rec = do(t, s, http.MethodGet, "/api/admin/editor/preview?slug=/landing", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Hola mundo")

	rec = do(t, s, http.MethodPost, "/api/admin/editor/undo", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSessionAPI(t *testing.T) {
	s, token := setupTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/admin/session", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[auth.Status](t, rec)
	assert.InDelta(t, 3600, st.RemainingSeconds, 2)
	assert.False(t, st.Warning)

	rec = do(t, s, http.MethodPost, "/api/admin/session/pause", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[auth.Status](t, rec).Paused)

	rec = do(t, s, http.MethodPost, "/api/admin/session/resume", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[auth.Status](t, rec).Paused)
}

func TestAnalyticsEndpoints(t *testing.T) {
	s, token := setupTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/analytics/sessions", strings.NewReader(`{"page_url":"/"}`))
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[map[string]string](t, rec)["session_id"]
	assert.True(t, strings.HasPrefix(id, "session_"))

	rec = do(t, s, http.MethodPost, "/api/analytics/events", "", map[string]any{
		"session_id": id, "event_type": "page_view", "page_url": "/",
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/analytics/events", "", map[string]any{
		"session_id": id, "event_type": "scroll", "page_url": "/",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/analytics/sessions/"+id+"/duration", "", map[string]int{"seconds": 12})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[map[string]bool](t, rec)["updated"])

	rec = do(t, s, http.MethodPost, "/api/analytics/sessions/unknown/duration", "", map[string]int{"seconds": 12})
	assert.False(t, decode[map[string]bool](t, rec)["updated"])

	rec = do(t, s, http.MethodPost, "/api/admin/metrics/rollup", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	m := decode[domain.DailyMetrics](t, rec)
	assert.Equal(t, 1, m.TotalVisits)
	assert.Equal(t, 1, m.TotalPageViews)
	assert.Equal(t, 0.0, m.BounceRate)

	rec = do(t, s, http.MethodPost, "/api/admin/metrics/rollup", token, map[string]string{"date": "yesterday"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTypedTrackingEndpoints(t *testing.T) {
	s, token := setupTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/analytics/sessions", "", map[string]string{"page_url": "/ads"})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[map[string]string](t, rec)["session_id"]

	rec = do(t, s, http.MethodPost, "/api/analytics/pageviews", "", map[string]string{"session_id": id, "page_url": "/ads"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, s, http.MethodPost, "/api/analytics/clicks", "", map[string]string{
		"session_id": id, "page_url": "/ads", "element_id": "cta", "element_text": "Contacto", "element_type": "button",
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, s, http.MethodPost, "/api/analytics/conversions", "", map[string]any{
		"session_id": id, "page_url": "/ads", "conversion_type": "contact_form", "value": 1,
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/analytics/conversions", "", map[string]any{"session_id": id, "page_url": "/ads"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, s, http.MethodPost, "/api/analytics/pageviews", "", map[string]string{"page_url": "/ads"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/admin/metrics/rollup", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	m := decode[domain.DailyMetrics](t, rec)
	assert.Equal(t, 1, m.TotalPageViews)
	assert.Equal(t, 1, m.TotalConversions)
}

func TestClientIPTrustsProxyOnlyWhenConfigured(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/analytics/sessions", nil)
	req.RemoteAddr = "198.51.100.7:51234"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	req.Header.Set("X-Real-IP", "203.0.113.10")

	direct := &Server{}
	assert.Equal(t, "198.51.100.7", direct.clientIP(req))

	proxied := &Server{opts: Options{TrustProxy: true}}
	assert.Equal(t, "203.0.113.9", proxied.clientIP(req))

	req.Header.Del("X-Forwarded-For")
	assert.Equal(t, "203.0.113.10", proxied.clientIP(req))
}

func TestStorageEndpoints(t *testing.T) {
	s, token := setupTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("path", "img/logo.txt"))
	fw, err := mw.CreateFormFile("file", "logo.txt")
	require.NoError(t, err)
	fw.Write([]byte("logo"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/storage/media", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "/files/media/img/logo.txt", decode[service.UploadResult](t, rec).URL)

	rec = do(t, s, http.MethodGet, "/files/media/img/logo.txt", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "logo", rec.Body.String())
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))

	rec = do(t, s, http.MethodGet, "/api/admin/storage/media/url?path=img/logo.txt", token, nil)
	assert.Equal(t, "/files/media/img/logo.txt", decode[map[string]string](t, rec)["url"])

	rec = do(t, s, http.MethodDelete, "/api/admin/storage/media/img/logo.txt", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, "/files/media/img/logo.txt", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTemplateOverride(t *testing.T) {
	dir := t.TempDir()
	templates, err := LoadTemplates(dir)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, templates.Render(&out, "notfound", struct{ Title string }{"x"}))
	assert.Contains(t, out.String(), "404")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notfound.tmpl"), []byte(`{{define "notfound"}}ignored{{end}}`), 0o644))
	require.NoError(t, templates.Reload())
	out.Reset()
	require.NoError(t, templates.Render(&out, "notfound", struct{ Title string }{"x"}))
	assert.Contains(t, out.String(), "404")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notfound.html"), []byte(`{{define "notfound"}}custom {{.Title}}{{end}}`), 0o644))
	require.NoError(t, templates.Reload())
	out.Reset()
	require.NoError(t, templates.Render(&out, "notfound", struct{ Title string }{"x"}))
	assert.Equal(t, "custom x", out.String())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.html"), []byte(`{{define "x"}`), 0o644))
	assert.Error(t, templates.Reload())
	out.Reset()
	require.NoError(t, templates.Render(&out, "notfound", struct{ Title string }{"y"}))
	assert.Equal(t, "custom y", out.String())
}

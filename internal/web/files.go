package web

import (
	"errors"
	"net/http"
	"path"

	"sitecms/internal/domain"
)

const fileCacheControl = "public, max-age=3600"

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	f, err := s.svc.Files.Open(r.PathValue("bucket"), r.PathValue("path"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) || domain.IsValidation(err) {
			http.NotFound(w, r)
			return
		}
		s.writeError(w, r, err)
		return
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", fileCacheControl)
	http.ServeContent(w, r, path.Base(r.PathValue("path")), st.ModTime(), f)
}

const maxUploadBytes = 32 << 20

// handleUpload takes a multipart "file" part and an optional "path" field;
// without one the uploaded file name is used.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.writeError(w, r, domain.Invalid("file", "invalid upload: %v", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, domain.Invalid("file", "is required"))
		return
	}
	defer file.Close()
	key := r.FormValue("path")
	if key == "" {
		key = header.Filename
	}
	res, err := s.svc.Files.Upload(r.Context(), r.PathValue("bucket"), key, file)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handlePublicURL(w http.ResponseWriter, r *http.Request) {
	url, err := s.svc.Files.PublicURL(r.PathValue("bucket"), r.URL.Query().Get("path"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Files.Delete(r.PathValue("bucket"), r.PathValue("path")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package web

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"sitecms/internal/domain"
)

// clientIP returns the visitor address. Forwarding headers count only when
// the server is configured to sit behind a trusted proxy.
func (s *Server) clientIP(r *http.Request) string {
	if s.opts.TrustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type createSessionRequest struct {
	SessionID string `json:"session_id"`
	PageURL   string `json:"page_url"`
	Referrer  string `json:"referrer"`
}

func (s *Server) handleCreateVisitorSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.svc.Analytics.CreateSession(r.Context(), domain.VisitorSession{
		SessionID: req.SessionID,
		UserAgent: r.UserAgent(),
		IPAddress: s.clientIP(r),
		PageURL:   req.PageURL,
		Referrer:  req.Referrer,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": sess.SessionID})
}

type trackEventRequest struct {
	SessionID   string          `json:"session_id"`
	EventType   string          `json:"event_type"`
	PageURL     string          `json:"page_url"`
	ElementID   string          `json:"element_id"`
	ElementText string          `json:"element_text"`
	Metadata    json.RawMessage `json:"metadata"`
}

func (s *Server) handleTrackEvent(w http.ResponseWriter, r *http.Request) {
	var req trackEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	err := s.svc.Analytics.TrackEvent(r.Context(), domain.PageEvent{
		SessionID:   req.SessionID,
		EventType:   domain.EventType(req.EventType),
		PageURL:     req.PageURL,
		ElementID:   req.ElementID,
		ElementText: req.ElementText,
		Metadata:    req.Metadata,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type pageViewRequest struct {
	SessionID string `json:"session_id"`
	PageURL   string `json:"page_url"`
}

func (s *Server) handleTrackPageView(w http.ResponseWriter, r *http.Request) {
	var req pageViewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Analytics.TrackPageView(r.Context(), req.SessionID, req.PageURL); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type clickRequest struct {
	SessionID   string `json:"session_id"`
	PageURL     string `json:"page_url"`
	ElementID   string `json:"element_id"`
	ElementText string `json:"element_text"`
	ElementType string `json:"element_type"`
}

func (s *Server) handleTrackClick(w http.ResponseWriter, r *http.Request) {
	var req clickRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	err := s.svc.Analytics.TrackClick(r.Context(), req.SessionID, req.PageURL, req.ElementID, req.ElementText, req.ElementType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type conversionRequest struct {
	SessionID      string  `json:"session_id"`
	PageURL        string  `json:"page_url"`
	ConversionType string  `json:"conversion_type"`
	Value          float64 `json:"value"`
}

func (s *Server) handleTrackConversion(w http.ResponseWriter, r *http.Request) {
	var req conversionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.ConversionType) == "" {
		s.writeError(w, r, domain.Invalid("conversion_type", "is required"))
		return
	}
	err := s.svc.Analytics.TrackConversion(r.Context(), req.SessionID, req.PageURL, req.ConversionType, req.Value)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type durationRequest struct {
	Seconds int `json:"seconds"`
}

// handleSessionDuration reports whether a visit was updated; unknown
// sessions are not an error.
func (s *Server) handleSessionDuration(w http.ResponseWriter, r *http.Request) {
	var req durationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	ok := s.svc.Analytics.UpdateSessionDuration(r.Context(), r.PathValue("id"), req.Seconds)
	writeJSON(w, http.StatusOK, map[string]bool{"updated": ok})
}

package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"storyweaver/internal/app"
	"storyweaver/internal/story"
	"storyweaver/pkg/httputil"
)

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type generateTextRequest struct {
	story.Request
	Images bool `json:"images,omitempty"`
}

func (s *Server) handleGenerateText(w http.ResponseWriter, r *http.Request) {
	var req generateTextRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, "Invalid request body", err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, "Missing required fields: idea or settings", err)
		return
	}

	var opts []app.GenerateOption
	if req.Images {
		opts = append(opts, app.WithEagerImages())
	}

	result, err := s.pipeline.GenerateStory(r.Context(), req.Request, opts...)
	if err != nil {
		s.writeError(w, "Failed to generate story", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGenerateImage(w http.ResponseWriter, r *http.Request) {
	var req app.ImageRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, "Invalid request body", err)
		return
	}

	result, err := s.pipeline.AcquireImage(r.Context(), req)
	if err != nil {
		if errors.Is(err, story.ErrInvalidInput) {
			s.writeError(w, "Missing required field: imagePrompt", err)
			return
		}
		s.writeError(w, "Failed to generate image", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleImageProxy(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "URL parameter is required"})
		return
	}

	slog.Debug("Proxying image", "url", target)
	fetched, err := s.proxy.Fetch(r.Context(), target)
	if err != nil {
		if errors.Is(err, httputil.ErrInvalidURL) {
			s.writeError(w, "Invalid URL parameter", story.ErrInvalidInput)
			return
		}
		slog.Warn("Image proxy failed", "url", target, "error", err)
		s.writeError(w, "Failed to proxy image", err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", fetched.ContentType)
	h.Set("Content-Length", strconv.Itoa(len(fetched.Body)))
	h.Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(fetched.Body)
}

func (s *Server) handleAPIStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "API is working"})
}

func (s *Server) handleProviderHealth(w http.ResponseWriter, r *http.Request) {
	statuses := s.pipeline.ProbeProviders(r.Context())

	healthy := false
	for _, st := range statuses {
		if st.Reachable {
			healthy = true
			break
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"healthy":   healthy,
		"providers": statuses,
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "Story Generator API is running")
}

// writeError maps err onto a status code. Details are only exposed in development.
func (s *Server) writeError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, story.ErrInvalidInput) {
		status = http.StatusBadRequest
	} else {
		slog.Error(message, "error", err)
	}

	body := errorBody{Error: message}
	if s.cfg.Development && err != nil {
		body.Details = err.Error()
	}
	writeJSON(w, status, body)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errors.Join(story.ErrInvalidInput, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}

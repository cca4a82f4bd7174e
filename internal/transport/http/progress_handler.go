package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

type progressRequest struct {
	User            string    `json:"user"`
	Date            time.Time `json:"date"`
	DurationMinutes int       `json:"duration_minutes"`
	Reflection      string    `json:"reflection"`
}

func (s *Server) handleAddProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.User == "" {
		writeBadRequest(w, "user is required")
		return
	}
	if req.DurationMinutes < 1 {
		writeBadRequest(w, "duration_minutes must be >= 1")
		return
	}

	entry, streak, err := s.Progress.Add(r.Context(), req.User, req.Date, req.DurationMinutes, req.Reflection)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Progress added successfully.",
		"session":     entry,
		"streak_days": streak,
	})
}

func (s *Server) handleListProgress(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		writeBadRequest(w, "user query parameter is required")
		return
	}
	entries, err := s.Progress.List(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleProgressStats(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		writeBadRequest(w, "user query parameter is required")
		return
	}
	stats, err := s.Progress.Stats(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleDeleteProgress(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeBadRequest(w, "invalid progress id")
		return
	}
	if err := s.Progress.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Progress entry deleted successfully.",
	})
}

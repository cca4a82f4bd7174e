package http

import "net/http"

type reflectionRequest struct {
	User           string `json:"user"`
	ReflectionText string `json:"reflection_text"`
}

func (s *Server) handleAddReflection(w http.ResponseWriter, r *http.Request) {
	var req reflectionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.User == "" {
		writeBadRequest(w, "user is required")
		return
	}
	if req.ReflectionText == "" {
		writeBadRequest(w, "reflection_text is required")
		return
	}

	reflection, err := s.Mentor.AddReflection(r.Context(), req.User, req.ReflectionText)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reflection)
}

func (s *Server) handleListReflections(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		writeBadRequest(w, "user query parameter is required")
		return
	}
	reflections, err := s.Mentor.Reflections(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reflections)
}

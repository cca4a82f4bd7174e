package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"studyquest-backend/internal/domain"
)

type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

// writeError maps domain sentinels onto client statuses; anything else is a
// server error.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: "User not found. Please register first."})
	case errors.Is(err, domain.ErrNoBattle):
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: "No active boss battle. Start one first."})
	case errors.Is(err, domain.ErrProgressNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: err.Error()})
	case errors.Is(err, domain.ErrBattleActive):
		writeJSON(w, http.StatusConflict, errorResponse{Detail: "An active boss battle already exists."})
	case errors.Is(err, domain.ErrUserExists):
		writeJSON(w, http.StatusConflict, errorResponse{Detail: "Username already exists."})
	case errors.Is(err, domain.ErrInvalidQuestionCount):
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "total_questions must be >= 1"})
	default:
		log.Printf("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "internal server error"})
	}
}

func writeBadRequest(w http.ResponseWriter, detail string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Detail: detail})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

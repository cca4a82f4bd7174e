package http

import (
	"net/http"

	"studyquest-backend/internal/app"
	"studyquest-backend/internal/domain"
)

type startRequest struct {
	User             string `json:"user"`
	Difficulty       string `json:"difficulty"`
	TotalQuestions   *int   `json:"total_questions"`
	TimeLimitSeconds *int   `json:"time_limit_seconds"`
}

type answerRequest struct {
	User      string `json:"user"`
	ChoiceIdx *int   `json:"choice_idx"`
}

type startResponse struct {
	Message string `json:"message"`
	app.StartResult
}

type questionResponse struct {
	Question       string   `json:"question"`
	Choices        []string `json:"choices"`
	Number         int      `json:"number"`
	Total          int      `json:"total"`
	Lives          int      `json:"lives"`
	TimerRemaining int      `json:"timer_remaining"`
	Score          int      `json:"score"`
}

func (s *Server) handleBossInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Boss Battle API ready",
		"routes": map[string]string{
			"start":    "POST /boss/start",
			"question": "GET /boss/question?user=<username>",
			"answer":   "POST /boss/answer",
			"status":   "GET /boss/status?user=<username>",
			"forfeit":  "POST /boss/forfeit?user=<username>",
			"ws":       "GET /boss/ws?user=<username>",
		},
	})
}

func (s *Server) handleBossStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.User == "" {
		writeBadRequest(w, "user is required")
		return
	}

	cfg := app.StartConfig{
		User:             req.User,
		Difficulty:       req.Difficulty,
		TotalQuestions:   app.DefaultTotalQuestions,
		TimeLimitSeconds: app.DefaultTimeLimitSeconds,
	}
	if req.TotalQuestions != nil {
		cfg.TotalQuestions = *req.TotalQuestions
	}
	if req.TimeLimitSeconds != nil {
		cfg.TimeLimitSeconds = *req.TimeLimitSeconds
	}

	result, err := s.Battles.Start(r.Context(), cfg)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, startResponse{Message: "Boss battle started.", StartResult: result})
}

func (s *Server) handleBossQuestion(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		writeBadRequest(w, "user query parameter is required")
		return
	}

	view, result, err := s.Battles.CurrentQuestion(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	if result != nil {
		writeBattleResult(w, result)
		return
	}
	writeJSON(w, http.StatusOK, questionResponse{
		Question:       view.Question.Prompt,
		Choices:        view.Question.Choices,
		Number:         view.Question.Number,
		Total:          view.Question.Total,
		Lives:          view.Lives,
		TimerRemaining: view.RemainingSeconds,
		Score:          view.Score,
	})
}

func (s *Server) handleBossAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.User == "" {
		writeBadRequest(w, "user is required")
		return
	}
	if req.ChoiceIdx == nil {
		writeBadRequest(w, "choice_idx is required")
		return
	}

	feedback, result, err := s.Battles.SubmitAnswer(r.Context(), req.User, *req.ChoiceIdx)
	if err != nil {
		writeError(w, err)
		return
	}
	if result != nil {
		writeBattleResult(w, result)
		return
	}
	writeJSON(w, http.StatusOK, feedback)
}

func (s *Server) handleBossStatus(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		writeBadRequest(w, "user query parameter is required")
		return
	}

	status, result, err := s.Battles.Status(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	if result != nil {
		writeBattleResult(w, result)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleBossForfeit(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		writeBadRequest(w, "user query parameter is required")
		return
	}

	result, err := s.Battles.Forfeit(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}
	writeBattleResult(w, &result)
}

func writeBattleResult(w http.ResponseWriter, result *domain.BattleResult) {
	if result.Closed {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Session closed."})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

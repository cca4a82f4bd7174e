package http

import (
	"net/http"

	"studyquest-backend/internal/app"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server wires the StudyQuest services into an HTTP handler tree.
type Server struct {
	Battles  *app.BattleService
	Users    app.UserStore
	Progress *app.ProgressService
	Mentor   *app.MentorService
}

func NewServer(battles *app.BattleService, users app.UserStore, progress *app.ProgressService, mentor *app.MentorService) *Server {
	return &Server{Battles: battles, Users: users, Progress: progress, Mentor: mentor}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/", s.handleLanding)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/boss", func(r chi.Router) {
		r.Get("/", s.handleBossInfo)
		r.Post("/start", s.handleBossStart)
		r.Get("/question", s.handleBossQuestion)
		r.Post("/answer", s.handleBossAnswer)
		r.Get("/status", s.handleBossStatus)
		r.Post("/forfeit", s.handleBossForfeit)
		r.Get("/ws", s.handleBossWS)
	})

	r.Route("/users", func(r chi.Router) {
		r.Post("/", s.handleRegisterUser)
		r.Get("/", s.handleListUsers)
		r.Get("/{username}", s.handleGetUser)
	})

	r.Route("/progress", func(r chi.Router) {
		r.Post("/", s.handleAddProgress)
		r.Get("/", s.handleListProgress)
		r.Get("/stats", s.handleProgressStats)
		r.Delete("/{id}", s.handleDeleteProgress)
	})

	r.Route("/text-ai", func(r chi.Router) {
		r.Post("/", s.handleAddReflection)
		r.Get("/", s.handleListReflections)
	})

	r.Get("/social/leaderboard", s.handleLeaderboard)

	return r
}

func (s *Server) handleLanding(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Welcome to the StudyQuest Backend API",
		"status":  "running",
		"main_endpoints": map[string]string{
			"Progress Tracking": "/progress",
			"AI Text Mentor":    "/text-ai",
			"Daily Boss Battle": "/boss",
			"Users":             "/users",
			"Leaderboard":       "/social/leaderboard",
		},
	})
}

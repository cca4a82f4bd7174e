package app

import (
	"context"

	"studyquest-backend/internal/domain"
)

// UserStore is the full user directory surface: thin CRUD plus the
// aggregate query the leaderboard needs.
type UserStore interface {
	UserDirectory
	CreateUser(ctx context.Context, u domain.User) (domain.User, error)
	GetUser(ctx context.Context, username string) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	TopUsersByXP(ctx context.Context, limit int) ([]domain.User, error)
}

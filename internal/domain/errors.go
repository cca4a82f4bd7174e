package domain

import "errors"

var (
	// ErrNoBattle is returned when a user has no active boss battle session.
	ErrNoBattle = errors.New("no active boss battle")
	// ErrBattleActive is returned when a user tries to start a second session.
	ErrBattleActive = errors.New("an active boss battle already exists")
	// ErrUserNotFound is returned when a referenced user is not registered.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned on duplicate registration.
	ErrUserExists = errors.New("username already exists")
	// ErrInvalidQuestionCount rejects a start request with total_questions < 1.
	ErrInvalidQuestionCount = errors.New("total_questions must be >= 1")
	// ErrEmptyCatalog indicates the question catalog could not supply any questions.
	ErrEmptyCatalog = errors.New("question catalog is empty")
	// ErrProgressNotFound is returned for a missing progress entry.
	ErrProgressNotFound = errors.New("progress entry not found")
)

// Package domain contains the core lodging entities and the repository ports
// that every storage backend implements.
package domain

import (
	"context"
	"errors"
)

var (
	// ErrValidation marks malformed input rejected before it reaches storage.
	ErrValidation = errors.New("validation failed")
	// ErrConflict indicates a uniqueness constraint would be violated.
	ErrConflict = errors.New("conflict")
)

// Transactor runs fn as one unit of work. Repository calls made with the
// context passed to fn join that unit of work.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Repositories is the full contract a storage backend satisfies.
type Repositories interface {
	Transactor
	UserRepository
	SessionRepository
	UnitRepository
	GuestRepository
	ProblemRepository
	TokenRepository
	NotificationRepository
	SettingRepository
	ExpenseRepository
}

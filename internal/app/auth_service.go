// Package app holds the application services and business logic.
package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"capsule/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials indicates that the provided username or password was incorrect.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrSessionNotFound indicates that the requested session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrUserNotFound indicates that the user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsersExist is returned when bootstrapping an already populated user table.
	ErrUsersExist = errors.New("users already exist")
)

const defaultSessionTTL = 24 * time.Hour

// AuthService handles authentication and session management.
type AuthService struct {
	users    domain.UserRepository
	sessions domain.SessionRepository
	settings *SettingsService
	now      func() time.Time
}

// NewAuthService creates a new authentication service. settings may be nil,
// in which case sessions last 24 hours.
func NewAuthService(users domain.UserRepository, sessions domain.SessionRepository, settings *SettingsService) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		settings: settings,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Login authenticates a user by username or email and creates a session.
func (s *AuthService) Login(ctx context.Context, login, password string) (string, error) {
	user, err := s.users.GetUserByUsername(ctx, login)
	if err == nil && user == nil {
		user, err = s.users.GetUserByEmail(ctx, login)
	}
	if err != nil || user == nil || user.PasswordHash == "" {
		return "", ErrInvalidCredentials
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.startSession(ctx, user.ID)
}

// LoginWithGoogle opens a session for the account linked to a Google
// identity. An account with a matching email is linked on first use.
func (s *AuthService) LoginWithGoogle(ctx context.Context, googleID, email string) (string, error) {
	user, err := s.users.GetUserByGoogleID(ctx, googleID)
	if err != nil {
		return "", err
	}
	if user == nil && email != "" {
		user, err = s.users.GetUserByEmail(ctx, email)
		if err != nil {
			return "", err
		}
		if user != nil {
			user, err = s.users.UpdateUser(ctx, user.ID, domain.UserPatch{GoogleID: &googleID})
			if err != nil {
				return "", err
			}
		}
	}
	if user == nil {
		return "", ErrUserNotFound
	}
	return s.startSession(ctx, user.ID)
}

func (s *AuthService) startSession(ctx context.Context, userID string) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}

	ttl := defaultSessionTTL
	if s.settings != nil {
		ttl = s.settings.Hours(ctx, SettingSessionExpirationHours)
	}
	if _, err := s.sessions.CreateSession(ctx, userID, token, s.now().Add(ttl)); err != nil {
		return "", err
	}
	return token, nil
}

// Logout invalidates a session.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.DeleteSession(ctx, token)
}

// ValidateSession resolves a session token to its user.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*domain.User, error) {
	session, err := s.sessions.GetSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	user, err := s.users.GetUser(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		_ = s.sessions.DeleteSession(ctx, token)
		return nil, ErrUserNotFound
	}
	return user, nil
}

// CreateInitialUser creates the first admin if no users exist.
func (s *AuthService) CreateInitialUser(ctx context.Context, username, password string) (*domain.User, error) {
	count, err := s.users.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrUsersExist
	}
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.users.CreateUser(ctx, domain.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
	})
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

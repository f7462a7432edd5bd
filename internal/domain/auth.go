package domain

import (
	"context"
	"time"
)

// Roles a staff account can hold.
const (
	RoleStaff = "staff"
	RoleAdmin = "admin"
)

// User represents a staff or admin account.
type User struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	ProfileImageURL string    `json:"profileImageUrl"`
	Role            string    `json:"role"`
	GoogleID        *string   `json:"googleId"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// UserPatch carries the fields of a partial user update; nil means unchanged.
type UserPatch struct {
	Username        *string
	Email           *string
	PasswordHash    *string
	FirstName       *string
	LastName        *string
	ProfileImageURL *string
	Role            *string
	GoogleID        *string
}

// Apply copies the set fields of p onto u.
func (p UserPatch) Apply(u *User) {
	setString(&u.Username, p.Username)
	setString(&u.Email, p.Email)
	setString(&u.PasswordHash, p.PasswordHash)
	setString(&u.FirstName, p.FirstName)
	setString(&u.LastName, p.LastName)
	setString(&u.ProfileImageURL, p.ProfileImageURL)
	setString(&u.Role, p.Role)
	if p.GoogleID != nil {
		u.GoogleID = p.GoogleID
	}
}

// Session represents an active login.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserRepository defines the port for user persistence operations.
type UserRepository interface {
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByGoogleID(ctx context.Context, googleID string) (*User, error)
	GetUsers(ctx context.Context) ([]User, error)
	CreateUser(ctx context.Context, u User) (*User, error)
	UpdateUser(ctx context.Context, id string, patch UserPatch) (*User, error)
	DeleteUser(ctx context.Context, id string) (bool, error)
	CountUsers(ctx context.Context) (int, error)
}

// SessionRepository defines the port for session persistence operations.
type SessionRepository interface {
	CreateSession(ctx context.Context, userID, token string, expiresAt time.Time) (*Session, error)
	GetSession(ctx context.Context, token string) (*Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context) (int, error)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"capsule/internal/domain"
)

// --- UserRepository ---

// GetUser retrieves a user by ID.
func (db *DB) GetUser(ctx context.Context, id string) (*domain.User, error) {
	defer db.lock(ctx)()
	if u, ok := db.users[id]; ok {
		return ptr(cloneUser(u)), nil
	}
	return nil, nil
}

// GetUserByEmail retrieves a user by email.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return db.findUser(ctx, func(u domain.User) bool { return email != "" && u.Email == email })
}

// GetUserByUsername retrieves a user by username.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return db.findUser(ctx, func(u domain.User) bool { return username != "" && u.Username == username })
}

// GetUserByGoogleID retrieves the user linked to an external Google identity.
func (db *DB) GetUserByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	return db.findUser(ctx, func(u domain.User) bool { return u.GoogleID != nil && *u.GoogleID == googleID })
}

func (db *DB) findUser(ctx context.Context, match func(domain.User) bool) (*domain.User, error) {
	defer db.lock(ctx)()
	for _, u := range db.users {
		if match(u) {
			return ptr(cloneUser(u)), nil
		}
	}
	return nil, nil
}

// GetUsers lists users, oldest first.
func (db *DB) GetUsers(ctx context.Context) ([]domain.User, error) {
	defer db.lock(ctx)()
	out := make([]domain.User, 0, len(db.users))
	for _, u := range db.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// CreateUser creates a new user.
func (db *DB) CreateUser(ctx context.Context, u domain.User) (*domain.User, error) {
	defer db.lock(ctx)()
	if err := db.checkUserUnique(u, ""); err != nil {
		return nil, err
	}
	now := db.now()
	u.ID = db.newID()
	if u.Role == "" {
		u.Role = domain.RoleStaff
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	db.users[u.ID] = cloneUser(u)
	return ptr(cloneUser(u)), nil
}

// UpdateUser applies a partial update to a user.
func (db *DB) UpdateUser(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	defer db.lock(ctx)()
	u, ok := db.users[id]
	if !ok {
		return nil, nil
	}
	patch.Apply(&u)
	if err := db.checkUserUnique(u, id); err != nil {
		return nil, err
	}
	u.UpdatedAt = db.now()
	db.users[id] = cloneUser(u)
	return ptr(cloneUser(u)), nil
}

// DeleteUser removes a user together with its sessions and push subscriptions.
func (db *DB) DeleteUser(ctx context.Context, id string) (bool, error) {
	defer db.lock(ctx)()
	if _, ok := db.users[id]; !ok {
		return false, nil
	}
	delete(db.users, id)
	for k, s := range db.sessions {
		if s.UserID == id {
			delete(db.sessions, k)
		}
	}
	for k, s := range db.subscriptions {
		if s.UserID == id {
			delete(db.subscriptions, k)
		}
	}
	return true, nil
}

// CountUsers returns the total number of users.
func (db *DB) CountUsers(ctx context.Context) (int, error) {
	defer db.lock(ctx)()
	return len(db.users), nil
}

func (db *DB) checkUserUnique(u domain.User, selfID string) error {
	for id, other := range db.users {
		if id == selfID {
			continue
		}
		if u.Username != "" && other.Username == u.Username {
			return fmt.Errorf("username %q: %w", u.Username, domain.ErrConflict)
		}
		if u.Email != "" && other.Email == u.Email {
			return fmt.Errorf("email %q: %w", u.Email, domain.ErrConflict)
		}
	}
	return nil
}

// --- SessionRepository ---

// CreateSession creates a new session.
func (db *DB) CreateSession(ctx context.Context, userID, token string, expiresAt time.Time) (*domain.Session, error) {
	defer db.lock(ctx)()
	s := domain.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: db.now(),
	}
	db.sessions[token] = s
	return &s, nil
}

// GetSession retrieves a session by token. Expired sessions are dropped.
func (db *DB) GetSession(ctx context.Context, token string) (*domain.Session, error) {
	defer db.lock(ctx)()
	s, ok := db.sessions[token]
	if !ok {
		return nil, nil
	}
	if !db.now().Before(s.ExpiresAt) {
		delete(db.sessions, token)
		return nil, nil
	}
	return &s, nil
}

// DeleteSession deletes a session.
func (db *DB) DeleteSession(ctx context.Context, token string) error {
	defer db.lock(ctx)()
	delete(db.sessions, token)
	return nil
}

// DeleteExpiredSessions deletes all expired sessions.
func (db *DB) DeleteExpiredSessions(ctx context.Context) (int, error) {
	defer db.lock(ctx)()
	now := db.now()
	n := 0
	for k, v := range db.sessions {
		if !now.Before(v.ExpiresAt) {
			delete(db.sessions, k)
			n++
		}
	}
	return n, nil
}

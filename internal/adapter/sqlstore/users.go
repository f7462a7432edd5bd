package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"capsule/internal/domain"
)

const userColumns = "id, username, email, password_hash, first_name, last_name, profile_image_url, role, google_id, created_at, updated_at"

func scanUser(r rowScanner) (domain.User, error) {
	var u domain.User
	var username, email, googleID sql.NullString
	err := r.Scan(&u.ID, &username, &email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.ProfileImageURL, &u.Role, &googleID, &u.CreatedAt, &u.UpdatedAt)
	u.Username = username.String
	u.Email = email.String
	u.GoogleID = stringPtr(googleID)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, err
}

// GetUser retrieves a user by ID.
func (d *DB) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return one(d.queryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id), scanUser)
}

// GetUserByEmail retrieves a user by email.
func (d *DB) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return one(d.queryRow(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email), scanUser)
}

// GetUserByUsername retrieves a user by username.
func (d *DB) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return one(d.queryRow(ctx, "SELECT "+userColumns+" FROM users WHERE username = ?", username), scanUser)
}

// GetUserByGoogleID retrieves the user linked to an external Google identity.
func (d *DB) GetUserByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	return one(d.queryRow(ctx, "SELECT "+userColumns+" FROM users WHERE google_id = ?", googleID), scanUser)
}

// GetUsers lists users, oldest first.
func (d *DB) GetUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := d.query(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	return all(rows, scanUser)
}

// CreateUser creates a new user.
func (d *DB) CreateUser(ctx context.Context, u domain.User) (*domain.User, error) {
	now := d.now()
	u.ID = d.newID()
	if u.Role == "" {
		u.Role = domain.RoleStaff
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	_, err := d.exec(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		u.ID, nullIfEmpty(u.Username), nullIfEmpty(u.Email), u.PasswordHash, u.FirstName, u.LastName,
		u.ProfileImageURL, u.Role, nullString(u.GoogleID), u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return nil, conflict(err, "user")
	}
	return &u, nil
}

// UpdateUser applies a partial update to a user.
func (d *DB) UpdateUser(ctx context.Context, id string, patch domain.UserPatch) (*domain.User, error) {
	var out *domain.User
	err := d.WithinTx(ctx, func(ctx context.Context) error {
		u, err := d.GetUser(ctx, id)
		if err != nil || u == nil {
			return err
		}
		patch.Apply(u)
		u.UpdatedAt = d.now()
		_, err = d.exec(ctx,
			`UPDATE users SET username = ?, email = ?, password_hash = ?, first_name = ?, last_name = ?,
				profile_image_url = ?, role = ?, google_id = ?, updated_at = ? WHERE id = ?`,
			nullIfEmpty(u.Username), nullIfEmpty(u.Email), u.PasswordHash, u.FirstName, u.LastName,
			u.ProfileImageURL, u.Role, nullString(u.GoogleID), u.UpdatedAt, id,
		)
		if err != nil {
			return conflict(err, "user")
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteUser removes a user; sessions and push subscriptions cascade.
func (d *DB) DeleteUser(ctx context.Context, id string) (bool, error) {
	var n int
	err := d.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := d.exec(ctx, "DELETE FROM sessions WHERE user_id = ?", id); err != nil {
			return err
		}
		if _, err := d.exec(ctx, "DELETE FROM push_subscriptions WHERE user_id = ?", id); err != nil {
			return err
		}
		var err error
		n, err = d.affected(ctx, "DELETE FROM users WHERE id = ?", id)
		return err
	})
	return n > 0, err
}

// CountUsers returns the total number of users.
func (d *DB) CountUsers(ctx context.Context) (int, error) {
	return d.count(ctx, "SELECT COUNT(*) FROM users")
}

// --- SessionRepository ---

// CreateSession creates a new session.
func (d *DB) CreateSession(ctx context.Context, userID, token string, expiresAt time.Time) (*domain.Session, error) {
	s := domain.Session{Token: token, UserID: userID, ExpiresAt: expiresAt.UTC(), CreatedAt: d.now()}
	_, err := d.exec(ctx,
		"INSERT INTO sessions (token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)",
		s.Token, s.UserID, s.ExpiresAt, s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSession retrieves an unexpired session by token.
func (d *DB) GetSession(ctx context.Context, token string) (*domain.Session, error) {
	return one(d.queryRow(ctx,
		"SELECT token, user_id, expires_at, created_at FROM sessions WHERE token = ? AND expires_at > ?",
		token, d.now(),
	), func(r rowScanner) (domain.Session, error) {
		var s domain.Session
		err := r.Scan(&s.Token, &s.UserID, &s.ExpiresAt, &s.CreatedAt)
		s.ExpiresAt = s.ExpiresAt.UTC()
		s.CreatedAt = s.CreatedAt.UTC()
		return s, err
	})
}

// DeleteSession deletes a session by token.
func (d *DB) DeleteSession(ctx context.Context, token string) error {
	_, err := d.exec(ctx, "DELETE FROM sessions WHERE token = ?", token)
	return err
}

// DeleteExpiredSessions deletes all expired sessions.
func (d *DB) DeleteExpiredSessions(ctx context.Context) (int, error) {
	return d.affected(ctx, "DELETE FROM sessions WHERE expires_at <= ?", d.now())
}

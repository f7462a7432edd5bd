package sqlstore

import (
	"context"
	"database/sql"

	"capsule/internal/domain"
)

const tokenColumns = `id, token, unit_number, guest_name, phone_number, email, expected_checkout_date,
	auto_assign, created_by, is_used, used_at, expires_at, created_at`

func scanToken(r rowScanner) (domain.GuestToken, error) {
	var t domain.GuestToken
	var unit, expected sql.NullString
	var usedAt sql.NullTime
	if err := r.Scan(&t.ID, &t.Token, &unit, &t.GuestName, &t.PhoneNumber, &t.Email, &expected,
		&t.AutoAssign, &t.CreatedBy, &t.IsUsed, &usedAt, &t.ExpiresAt, &t.CreatedAt); err != nil {
		return t, err
	}
	t.UnitNumber = stringPtr(unit)
	t.UsedAt = timePtr(usedAt)
	t.ExpiresAt = t.ExpiresAt.UTC()
	t.CreatedAt = t.CreatedAt.UTC()
	var err error
	t.ExpectedCheckoutDate, err = dayPtr(expected)
	return t, err
}

// CreateToken stores a self check-in token. Token strings are unique.
func (d *DB) CreateToken(ctx context.Context, t domain.GuestToken) (*domain.GuestToken, error) {
	t.ID = d.newID()
	t.IsUsed = false
	t.UsedAt = nil
	t.ExpiresAt = t.ExpiresAt.UTC()
	t.CreatedAt = d.now()
	_, err := d.exec(ctx,
		"INSERT INTO guest_tokens ("+tokenColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		t.ID, t.Token, nullString(t.UnitNumber), t.GuestName, t.PhoneNumber, t.Email, dayValue(t.ExpectedCheckoutDate),
		t.AutoAssign, t.CreatedBy, false, nil, t.ExpiresAt, t.CreatedAt,
	)
	if err != nil {
		return nil, conflict(err, "token")
	}
	return &t, nil
}

// GetTokenByToken retrieves a token by its opaque string.
func (d *DB) GetTokenByToken(ctx context.Context, token string) (*domain.GuestToken, error) {
	return one(d.queryRow(ctx, "SELECT "+tokenColumns+" FROM guest_tokens WHERE token = ?", token), scanToken)
}

// GetTokenByID retrieves a token by ID.
func (d *DB) GetTokenByID(ctx context.Context, id string) (*domain.GuestToken, error) {
	return one(d.queryRow(ctx, "SELECT "+tokenColumns+" FROM guest_tokens WHERE id = ?", id), scanToken)
}

// GetActiveTokens pages through unused, unexpired tokens, newest first.
func (d *DB) GetActiveTokens(ctx context.Context, p domain.PageParams) (domain.Page[domain.GuestToken], error) {
	now := d.now()
	return page(ctx, d, p,
		"SELECT COUNT(*) FROM guest_tokens WHERE is_used = ? AND expires_at > ?",
		"SELECT "+tokenColumns+" FROM guest_tokens WHERE is_used = ? AND expires_at > ? ORDER BY created_at DESC",
		scanToken, false, now)
}

// MarkTokenUsed redeems a token. A used token is returned unchanged.
func (d *DB) MarkTokenUsed(ctx context.Context, token string) (*domain.GuestToken, error) {
	if _, err := d.exec(ctx,
		"UPDATE guest_tokens SET is_used = ?, used_at = ? WHERE token = ? AND is_used = ?",
		true, d.now(), token, false,
	); err != nil {
		return nil, err
	}
	return d.GetTokenByToken(ctx, token)
}

// ClaimToken redeems an active token. The conditional UPDATE is the claim:
// a concurrent claimer waiting on the row lock matches no rows.
func (d *DB) ClaimToken(ctx context.Context, token string) (*domain.GuestToken, error) {
	now := d.now()
	n, err := d.affected(ctx,
		"UPDATE guest_tokens SET is_used = ?, used_at = ? WHERE token = ? AND is_used = ? AND expires_at > ?",
		true, now, token, false, now,
	)
	if err != nil || n == 0 {
		return nil, err
	}
	return d.GetTokenByToken(ctx, token)
}

// UpdateTokenUnit reassigns (or clears) the token's pre-assigned unit.
func (d *DB) UpdateTokenUnit(ctx context.Context, id string, unitNumber *string, autoAssign bool) (*domain.GuestToken, error) {
	n, err := d.affected(ctx,
		"UPDATE guest_tokens SET unit_number = ?, auto_assign = ? WHERE id = ?",
		nullString(unitNumber), autoAssign, id,
	)
	if err != nil || n == 0 {
		return nil, err
	}
	return d.GetTokenByID(ctx, id)
}

// DeleteToken removes a token.
func (d *DB) DeleteToken(ctx context.Context, id string) (bool, error) {
	n, err := d.affected(ctx, "DELETE FROM guest_tokens WHERE id = ?", id)
	return n > 0, err
}

// CleanExpiredTokens deletes every expired token, used or not.
func (d *DB) CleanExpiredTokens(ctx context.Context) (int, error) {
	return d.affected(ctx, "DELETE FROM guest_tokens WHERE expires_at <= ?", d.now())
}

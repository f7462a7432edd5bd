package memory

import (
	"context"
	"fmt"
	"sort"

	"capsule/internal/domain"
)

// CreateToken stores a self check-in token. Token strings are unique.
func (db *DB) CreateToken(ctx context.Context, t domain.GuestToken) (*domain.GuestToken, error) {
	defer db.lock(ctx)()
	for _, other := range db.tokens {
		if other.Token == t.Token {
			return nil, fmt.Errorf("token: %w", domain.ErrConflict)
		}
	}
	t.ID = db.newID()
	t.IsUsed = false
	t.UsedAt = nil
	t.ExpiresAt = t.ExpiresAt.UTC()
	t.CreatedAt = db.now()
	db.tokens[t.ID] = cloneToken(t)
	return ptr(cloneToken(t)), nil
}

// GetTokenByToken retrieves a token by its opaque string.
func (db *DB) GetTokenByToken(ctx context.Context, token string) (*domain.GuestToken, error) {
	defer db.lock(ctx)()
	if t, ok := db.tokenByString(token); ok {
		return ptr(cloneToken(t)), nil
	}
	return nil, nil
}

// GetTokenByID retrieves a token by ID.
func (db *DB) GetTokenByID(ctx context.Context, id string) (*domain.GuestToken, error) {
	defer db.lock(ctx)()
	if t, ok := db.tokens[id]; ok {
		return ptr(cloneToken(t)), nil
	}
	return nil, nil
}

// GetActiveTokens pages through unused, unexpired tokens, newest first.
func (db *DB) GetActiveTokens(ctx context.Context, p domain.PageParams) (domain.Page[domain.GuestToken], error) {
	defer db.lock(ctx)()
	now := db.now()
	out := make([]domain.GuestToken, 0)
	for _, t := range db.tokens {
		if t.Active(now) {
			out = append(out, cloneToken(t))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return domain.Paginate(out, p), nil
}

// MarkTokenUsed redeems a token. A used token is returned unchanged.
func (db *DB) MarkTokenUsed(ctx context.Context, token string) (*domain.GuestToken, error) {
	defer db.lock(ctx)()
	t, ok := db.tokenByString(token)
	if !ok {
		return nil, nil
	}
	if !t.IsUsed {
		t.IsUsed = true
		t.UsedAt = ptr(db.now())
		db.tokens[t.ID] = cloneToken(t)
	}
	return ptr(cloneToken(t)), nil
}

// ClaimToken redeems an active token.
func (db *DB) ClaimToken(ctx context.Context, token string) (*domain.GuestToken, error) {
	defer db.lock(ctx)()
	t, ok := db.tokenByString(token)
	now := db.now()
	if !ok || !t.Active(now) {
		return nil, nil
	}
	t.IsUsed = true
	t.UsedAt = ptr(now)
	db.tokens[t.ID] = cloneToken(t)
	return ptr(cloneToken(t)), nil
}

// UpdateTokenUnit reassigns (or clears) the token's pre-assigned unit.
func (db *DB) UpdateTokenUnit(ctx context.Context, id string, unitNumber *string, autoAssign bool) (*domain.GuestToken, error) {
	defer db.lock(ctx)()
	t, ok := db.tokens[id]
	if !ok {
		return nil, nil
	}
	t.UnitNumber = unitNumber
	t.AutoAssign = autoAssign
	db.tokens[id] = cloneToken(t)
	return ptr(cloneToken(t)), nil
}

// DeleteToken removes a token.
func (db *DB) DeleteToken(ctx context.Context, id string) (bool, error) {
	defer db.lock(ctx)()
	if _, ok := db.tokens[id]; !ok {
		return false, nil
	}
	delete(db.tokens, id)
	return true, nil
}

// CleanExpiredTokens deletes every expired token, used or not.
func (db *DB) CleanExpiredTokens(ctx context.Context) (int, error) {
	defer db.lock(ctx)()
	now := db.now()
	n := 0
	for id, t := range db.tokens {
		if !t.ExpiresAt.After(now) {
			delete(db.tokens, id)
			n++
		}
	}
	return n, nil
}

func (db *DB) tokenByString(token string) (domain.GuestToken, bool) {
	for _, t := range db.tokens {
		if t.Token == token {
			return t, true
		}
	}
	return domain.GuestToken{}, false
}

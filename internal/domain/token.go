package domain

import (
	"context"
	"time"
)

// GuestToken is a single-use, expiring self check-in credential.
type GuestToken struct {
	ID                   string     `json:"id"`
	Token                string     `json:"token"`
	UnitNumber           *string    `json:"unitNumber"`
	GuestName            string     `json:"guestName"`
	PhoneNumber          string     `json:"phoneNumber"`
	Email                string     `json:"email"`
	ExpectedCheckoutDate *time.Time `json:"expectedCheckoutDate"`
	AutoAssign           bool       `json:"autoAssign"`
	CreatedBy            string     `json:"createdBy"`
	IsUsed               bool       `json:"isUsed"`
	UsedAt               *time.Time `json:"usedAt"`
	ExpiresAt            time.Time  `json:"expiresAt"`
	CreatedAt            time.Time  `json:"createdAt"`
}

// Active reports whether the token can still be redeemed at now.
func (t GuestToken) Active(now time.Time) bool {
	return !t.IsUsed && t.ExpiresAt.After(now)
}

// TokenRepository is the port for self check-in token persistence.
type TokenRepository interface {
	CreateToken(ctx context.Context, t GuestToken) (*GuestToken, error)
	GetTokenByToken(ctx context.Context, token string) (*GuestToken, error)
	GetTokenByID(ctx context.Context, id string) (*GuestToken, error)
	GetActiveTokens(ctx context.Context, p PageParams) (Page[GuestToken], error)
	// MarkTokenUsed is one-way; calling it on a used token returns the record
	// unchanged.
	MarkTokenUsed(ctx context.Context, token string) (*GuestToken, error)
	// ClaimToken marks token used only if it is still active and returns the
	// claimed record. It returns nil when nothing was claimed, so of two
	// concurrent claims at most one succeeds.
	ClaimToken(ctx context.Context, token string) (*GuestToken, error)
	UpdateTokenUnit(ctx context.Context, id string, unitNumber *string, autoAssign bool) (*GuestToken, error)
	DeleteToken(ctx context.Context, id string) (bool, error)
	// CleanExpiredTokens removes every expired token, used or not.
	CleanExpiredTokens(ctx context.Context) (int, error)
}

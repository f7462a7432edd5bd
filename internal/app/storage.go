package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"capsule/internal/domain"

	"go.uber.org/zap"
)

// Storage is the single contract route handlers and tools hold: every
// entity port plus the operations that span more than one entity.
type Storage interface {
	domain.UserRepository
	domain.SessionRepository
	domain.UnitRepository
	domain.GuestRepository
	domain.ProblemRepository
	domain.TokenRepository
	domain.NotificationRepository
	domain.SettingRepository
	domain.ExpenseRepository

	Occupancy(ctx context.Context) (Occupancy, error)
	AvailableUnits(ctx context.Context) ([]domain.Unit, error)
	UncleanedAvailableUnits(ctx context.Context) ([]domain.Unit, error)
	IssueToken(ctx context.Context, in TokenInput) (*domain.GuestToken, error)
}

// Occupancy summarises how many rentable units are in use.
type Occupancy struct {
	Total         int `json:"total"`
	Occupied      int `json:"occupied"`
	Available     int `json:"available"`
	OccupancyRate int `json:"occupancyRate"`
}

// TokenInput is what staff supply when issuing a self check-in token. Empty
// Token and nil ExpiresAt are filled in.
type TokenInput struct {
	Token                string
	UnitNumber           *string
	GuestName            string
	PhoneNumber          string
	Email                string
	ExpectedCheckoutDate *time.Time
	AutoAssign           bool
	CreatedBy            string
	ExpiresAt            *time.Time
}

// Facade forwards single-entity calls to a backend and owns the
// cross-entity ones.
type Facade struct {
	domain.Repositories

	settings *SettingsService
	logger   *zap.Logger
	now      func() time.Time
}

var _ Storage = (*Facade)(nil)

// NewFacade wraps a storage backend.
func NewFacade(repos domain.Repositories, logger *zap.Logger) *Facade {
	return &Facade{
		Repositories: repos,
		settings:     NewSettingsService(repos, logger),
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Settings returns the typed settings service bound to this storage.
func (f *Facade) Settings() *SettingsService {
	return f.settings
}

// SetSetting stores a raw setting and drops its cached value.
func (f *Facade) SetSetting(ctx context.Context, st domain.Setting) (*domain.Setting, error) {
	saved, err := f.Repositories.SetSetting(ctx, st)
	f.settings.forget(st.Key)
	return saved, err
}

// DeleteSetting removes a setting and drops its cached value.
func (f *Facade) DeleteSetting(ctx context.Context, key string) (bool, error) {
	ok, err := f.Repositories.DeleteSetting(ctx, key)
	f.settings.forget(key)
	return ok, err
}

// UpdateUnit applies a partial update. When the update makes an unavailable
// unit available again, every open problem on it is resolved by System.
func (f *Facade) UpdateUnit(ctx context.Context, number string, patch domain.UnitPatch) (*domain.Unit, error) {
	var out *domain.Unit
	err := f.WithinTx(ctx, func(ctx context.Context) error {
		before, err := f.Repositories.GetUnitByNumber(ctx, number)
		if err != nil || before == nil {
			return err
		}
		after, err := f.Repositories.UpdateUnit(ctx, number, patch)
		if err != nil || after == nil {
			return err
		}
		out = after
		if !before.IsAvailable && after.IsAvailable {
			return f.resolveOpenProblems(ctx, after.Number)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (f *Facade) resolveOpenProblems(ctx context.Context, unitNumber string) error {
	problems, err := f.GetProblemsByUnit(ctx, unitNumber)
	if err != nil {
		return err
	}
	notes := domain.AutoResolveNotes
	resolved := 0
	for _, p := range problems {
		if p.IsResolved {
			continue
		}
		if _, err := f.ResolveProblem(ctx, p.ID, domain.SystemResolver, &notes); err != nil {
			return fmt.Errorf("auto-resolve problem %s: %w", p.ID, err)
		}
		resolved++
	}
	if resolved > 0 {
		f.logger.Info("auto-resolved problems", zap.String("unit", unitNumber), zap.Int("count", resolved))
	}
	return nil
}

// CheckoutGuest closes a stay and leaves its unit available but dirty.
// Unknown or already checked-out guests yield nil and nothing changes.
func (f *Facade) CheckoutGuest(ctx context.Context, id string) (*domain.Guest, error) {
	var out *domain.Guest
	err := f.WithinTx(ctx, func(ctx context.Context) error {
		g, err := f.Repositories.GetGuest(ctx, id)
		if err != nil || g == nil || !g.IsCheckedIn {
			return err
		}
		g, err = f.Repositories.CheckoutGuest(ctx, id)
		if err != nil || g == nil {
			return err
		}
		out = g

		available := true
		dirty := domain.CleaningStatusToBeCleaned
		u, err := f.UpdateUnit(ctx, g.UnitNumber, domain.UnitPatch{IsAvailable: &available, CleaningStatus: &dirty})
		if err != nil {
			return err
		}
		if u == nil {
			f.logger.Warn("checked out guest of unknown unit", zap.String("guest", id), zap.String("unit", g.UnitNumber))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out != nil {
		f.logger.Info("guest checked out", zap.String("guest", out.ID), zap.String("unit", out.UnitNumber))
	}
	return out, nil
}

// Occupancy counts rentable units and the checked-in guests staying in them.
func (f *Facade) Occupancy(ctx context.Context) (Occupancy, error) {
	var units []domain.Unit
	var guests []domain.Guest
	err := f.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if units, err = f.GetUnits(ctx); err != nil {
			return err
		}
		guests, err = f.checkedInGuests(ctx)
		return err
	})
	if err != nil {
		return Occupancy{}, err
	}
	return computeOccupancy(units, guests), nil
}

func computeOccupancy(units []domain.Unit, guests []domain.Guest) Occupancy {
	rentable := make(map[string]bool, len(units))
	for _, u := range units {
		if u.Rentable() {
			rentable[u.Number] = true
		}
	}
	var o Occupancy
	o.Total = len(rentable)
	for _, g := range guests {
		if rentable[g.UnitNumber] {
			o.Occupied++
		}
	}
	o.Available = max(0, o.Total-o.Occupied)
	if o.Total > 0 {
		o.OccupancyRate = min(100, int(math.Round(float64(o.Occupied)/float64(o.Total)*100)))
	}
	return o
}

// AvailableUnits lists clean, rentable, available units nobody is staying in.
func (f *Facade) AvailableUnits(ctx context.Context) ([]domain.Unit, error) {
	return f.freeUnits(ctx, domain.CleaningStatusCleaned)
}

// UncleanedAvailableUnits lists free units still waiting to be cleaned.
func (f *Facade) UncleanedAvailableUnits(ctx context.Context) ([]domain.Unit, error) {
	return f.freeUnits(ctx, domain.CleaningStatusToBeCleaned)
}

func (f *Facade) freeUnits(ctx context.Context, status string) ([]domain.Unit, error) {
	var units []domain.Unit
	var guests []domain.Guest
	err := f.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if units, err = f.GetUnitsByCleaningStatus(ctx, status); err != nil {
			return err
		}
		guests, err = f.checkedInGuests(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	taken := make(map[string]bool, len(guests))
	for _, g := range guests {
		taken[g.UnitNumber] = true
	}
	out := make([]domain.Unit, 0, len(units))
	for _, u := range units {
		if u.IsAvailable && u.Rentable() && !taken[u.Number] {
			out = append(out, u)
		}
	}
	domain.SortUnits(out)
	return out, nil
}

// checkedInGuests drains every page of current stays.
func (f *Facade) checkedInGuests(ctx context.Context) ([]domain.Guest, error) {
	var out []domain.Guest
	p := domain.PageParams{Page: 1, Limit: 200}
	for {
		page, err := f.GetCheckedInGuests(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Data...)
		if !page.Pagination.HasMore {
			return out, nil
		}
		p.Page++
	}
}

// IssueToken creates a self check-in token. Without an explicit expiry it
// lives for the configured number of hours.
func (f *Facade) IssueToken(ctx context.Context, in TokenInput) (*domain.GuestToken, error) {
	token := in.Token
	if token == "" {
		var err error
		if token, err = generateToken(); err != nil {
			return nil, err
		}
	}
	expires := f.now().Add(f.settings.Hours(ctx, SettingGuestTokenExpirationHours))
	if in.ExpiresAt != nil {
		expires = in.ExpiresAt.UTC()
	}
	t, err := f.CreateToken(ctx, domain.GuestToken{
		Token:                token,
		UnitNumber:           in.UnitNumber,
		GuestName:            in.GuestName,
		PhoneNumber:          in.PhoneNumber,
		Email:                in.Email,
		ExpectedCheckoutDate: in.ExpectedCheckoutDate,
		AutoAssign:           in.AutoAssign,
		CreatedBy:            in.CreatedBy,
		ExpiresAt:            expires,
	})
	if err != nil {
		return nil, err
	}
	f.logger.Info("token issued", zap.String("id", t.ID), zap.Time("expires_at", t.ExpiresAt))
	return t, nil
}

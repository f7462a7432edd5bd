package memory

import (
	"context"
	"sort"
	"time"

	"capsule/internal/domain"
)

// CreateGuest checks a guest in.
func (db *DB) CreateGuest(ctx context.Context, in domain.GuestInput) (*domain.Guest, error) {
	defer db.lock(ctx)()
	g := in.NewGuest(db.newID(), db.now())
	db.guests[g.ID] = cloneGuest(g)
	return ptr(cloneGuest(g)), nil
}

// GetGuest retrieves a guest by ID.
func (db *DB) GetGuest(ctx context.Context, id string) (*domain.Guest, error) {
	defer db.lock(ctx)()
	if g, ok := db.guests[id]; ok {
		return ptr(cloneGuest(g)), nil
	}
	return nil, nil
}

// GetGuests pages through every stay, newest check-in first.
func (db *DB) GetGuests(ctx context.Context, p domain.PageParams) (domain.Page[domain.Guest], error) {
	defer db.lock(ctx)()
	return domain.Paginate(db.guestsByCheckin(func(domain.Guest) bool { return true }), p), nil
}

// GetCheckedInGuests pages through current stays, newest check-in first.
func (db *DB) GetCheckedInGuests(ctx context.Context, p domain.PageParams) (domain.Page[domain.Guest], error) {
	defer db.lock(ctx)()
	return domain.Paginate(db.guestsByCheckin(func(g domain.Guest) bool { return g.IsCheckedIn }), p), nil
}

// GetGuestHistory pages through closed stays matching q.
func (db *DB) GetGuestHistory(ctx context.Context, p domain.PageParams, q domain.HistoryQuery) (domain.Page[domain.Guest], error) {
	defer db.lock(ctx)()
	out := db.guestsWhere(q.Matches)
	domain.SortGuests(out, q)
	return domain.Paginate(out, p), nil
}

// CheckoutGuest closes a stay. It returns nil for unknown or already
// checked-out guests.
func (db *DB) CheckoutGuest(ctx context.Context, id string) (*domain.Guest, error) {
	defer db.lock(ctx)()
	g, ok := db.guests[id]
	if !ok || !g.IsCheckedIn {
		return nil, nil
	}
	g.CheckoutTime = ptr(db.now())
	g.IsCheckedIn = false
	db.guests[id] = cloneGuest(g)
	return ptr(cloneGuest(g)), nil
}

// UpdateGuest applies a partial update to a guest.
func (db *DB) UpdateGuest(ctx context.Context, id string, patch domain.GuestPatch) (*domain.Guest, error) {
	defer db.lock(ctx)()
	g, ok := db.guests[id]
	if !ok {
		return nil, nil
	}
	patch.Apply(&g)
	db.guests[id] = cloneGuest(g)
	return ptr(cloneGuest(g)), nil
}

// GetGuestsWithCheckoutToday lists checked-in guests expected to leave on today.
func (db *DB) GetGuestsWithCheckoutToday(ctx context.Context, today time.Time) ([]domain.Guest, error) {
	defer db.lock(ctx)()
	day := domain.Day(today)
	return db.guestsByCheckin(func(g domain.Guest) bool {
		return g.IsCheckedIn && g.ExpectedCheckoutDate != nil && g.ExpectedCheckoutDate.Equal(day)
	}), nil
}

// GetMostRecentlyCheckedOutGuest returns the last guest to check out.
func (db *DB) GetMostRecentlyCheckedOutGuest(ctx context.Context) (*domain.Guest, error) {
	defer db.lock(ctx)()
	var latest *domain.Guest
	for _, g := range db.guests {
		if g.IsCheckedIn || g.CheckoutTime == nil {
			continue
		}
		if latest == nil || g.CheckoutTime.After(*latest.CheckoutTime) {
			latest = ptr(g)
		}
	}
	return latest, nil
}

// GetGuestByUnitAndName finds the checked-in guest with this name in the unit.
func (db *DB) GetGuestByUnitAndName(ctx context.Context, unitNumber, name string) (*domain.Guest, error) {
	defer db.lock(ctx)()
	return db.firstGuest(func(g domain.Guest) bool {
		return g.IsCheckedIn && g.UnitNumber == unitNumber && g.Name == name
	}), nil
}

// GetGuestByToken finds the guest who checked in with a self check-in token.
func (db *DB) GetGuestByToken(ctx context.Context, token string) (*domain.Guest, error) {
	defer db.lock(ctx)()
	return db.firstGuest(func(g domain.Guest) bool {
		return g.SelfCheckinToken != nil && *g.SelfCheckinToken == token
	}), nil
}

// GetGuestByUnit finds the guest currently staying in the unit.
func (db *DB) GetGuestByUnit(ctx context.Context, unitNumber string) (*domain.Guest, error) {
	defer db.lock(ctx)()
	return db.firstGuest(func(g domain.Guest) bool { return g.IsCheckedIn && g.UnitNumber == unitNumber }), nil
}

// GetGuestsByDateRange lists stays overlapping [start, end].
func (db *DB) GetGuestsByDateRange(ctx context.Context, start, end time.Time) ([]domain.Guest, error) {
	defer db.lock(ctx)()
	return db.guestsByCheckin(func(g domain.Guest) bool { return g.Overlaps(start, end) }), nil
}

func (db *DB) guestsWhere(match func(domain.Guest) bool) []domain.Guest {
	out := make([]domain.Guest, 0)
	for _, g := range db.guests {
		if match(g) {
			out = append(out, cloneGuest(g))
		}
	}
	return out
}

func (db *DB) guestsByCheckin(match func(domain.Guest) bool) []domain.Guest {
	out := db.guestsWhere(match)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CheckinTime.After(out[j].CheckinTime) })
	return out
}

// firstGuest returns the most recent check-in matching match.
func (db *DB) firstGuest(match func(domain.Guest) bool) *domain.Guest {
	out := db.guestsByCheckin(match)
	if len(out) == 0 {
		return nil
	}
	return &out[0]
}

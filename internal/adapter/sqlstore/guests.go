package sqlstore

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"capsule/internal/domain"
)

const guestColumns = `id, name, unit_number, checkin_time, checkout_time, expected_checkout_date, is_checked_in,
	payment_amount, payment_method, payment_collector, is_paid, notes, gender, nationality, phone_number,
	email, id_number, emergency_contact, emergency_phone, age, profile_photo_url, self_checkin_token, created_at`

func scanGuest(r rowScanner) (domain.Guest, error) {
	var g domain.Guest
	var checkout sql.NullTime
	var expected, token sql.NullString
	if err := r.Scan(&g.ID, &g.Name, &g.UnitNumber, &g.CheckinTime, &checkout, &expected, &g.IsCheckedIn,
		&g.PaymentAmount, &g.PaymentMethod, &g.PaymentCollector, &g.IsPaid, &g.Notes, &g.Gender,
		&g.Nationality, &g.PhoneNumber, &g.Email, &g.IDNumber, &g.EmergencyContact, &g.EmergencyPhone,
		&g.Age, &g.ProfilePhotoURL, &token, &g.CreatedAt); err != nil {
		return g, err
	}
	g.CheckinTime = g.CheckinTime.UTC()
	g.CreatedAt = g.CreatedAt.UTC()
	g.CheckoutTime = timePtr(checkout)
	g.SelfCheckinToken = stringPtr(token)
	var err error
	g.ExpectedCheckoutDate, err = dayPtr(expected)
	return g, err
}

func guestArgs(g *domain.Guest) []any {
	return []any{
		g.ID, g.Name, g.UnitNumber, g.CheckinTime, nullTime(g.CheckoutTime), dayValue(g.ExpectedCheckoutDate),
		g.IsCheckedIn, g.PaymentAmount, g.PaymentMethod, g.PaymentCollector, g.IsPaid, g.Notes, g.Gender,
		g.Nationality, g.PhoneNumber, g.Email, g.IDNumber, g.EmergencyContact, g.EmergencyPhone, g.Age,
		g.ProfilePhotoURL, nullString(g.SelfCheckinToken), g.CreatedAt,
	}
}

func (d *DB) guestsWhere(ctx context.Context, where string, args ...any) ([]domain.Guest, error) {
	rows, err := d.query(ctx, "SELECT "+guestColumns+" FROM guests "+where, args...)
	if err != nil {
		return nil, err
	}
	return all(rows, scanGuest)
}

func (d *DB) firstGuest(ctx context.Context, where string, args ...any) (*domain.Guest, error) {
	return one(d.queryRow(ctx, "SELECT "+guestColumns+" FROM guests "+where+" ORDER BY checkin_time DESC LIMIT 1", args...), scanGuest)
}

// CreateGuest checks a guest in.
func (d *DB) CreateGuest(ctx context.Context, in domain.GuestInput) (*domain.Guest, error) {
	g := in.NewGuest(d.newID(), d.now())
	_, err := d.exec(ctx,
		"INSERT INTO guests ("+guestColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		guestArgs(&g)...,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// GetGuest retrieves a guest by ID.
func (d *DB) GetGuest(ctx context.Context, id string) (*domain.Guest, error) {
	return one(d.queryRow(ctx, "SELECT "+guestColumns+" FROM guests WHERE id = ?", id), scanGuest)
}

// GetGuests pages through every stay, newest check-in first.
func (d *DB) GetGuests(ctx context.Context, p domain.PageParams) (domain.Page[domain.Guest], error) {
	return page(ctx, d, p,
		"SELECT COUNT(*) FROM guests",
		"SELECT "+guestColumns+" FROM guests ORDER BY checkin_time DESC", scanGuest)
}

// GetCheckedInGuests pages through current stays, newest check-in first.
func (d *DB) GetCheckedInGuests(ctx context.Context, p domain.PageParams) (domain.Page[domain.Guest], error) {
	return page(ctx, d, p,
		"SELECT COUNT(*) FROM guests WHERE is_checked_in = ?",
		"SELECT "+guestColumns+" FROM guests WHERE is_checked_in = ? ORDER BY checkin_time DESC", scanGuest, true)
}

// GetGuestHistory pages through closed stays matching q. Exact filters run
// in SQL; the text search uses q.Matches so it folds case the same way as
// the memory backend and treats % and _ literally.
func (d *DB) GetGuestHistory(ctx context.Context, p domain.PageParams, q domain.HistoryQuery) (domain.Page[domain.Guest], error) {
	where := []string{"is_checked_in = ?"}
	args := []any{false}
	if q.Nationality != "" {
		where = append(where, "nationality = ?")
		args = append(args, q.Nationality)
	}
	if q.UnitNumber != "" {
		where = append(where, "unit_number = ?")
		args = append(args, q.UnitNumber)
	}
	rows, err := d.guestsWhere(ctx, "WHERE "+strings.Join(where, " AND "), args...)
	if err != nil {
		return domain.Page[domain.Guest]{}, err
	}
	guests := rows[:0]
	for _, g := range rows {
		if q.Matches(g) {
			guests = append(guests, g)
		}
	}
	domain.SortGuests(guests, q)
	return domain.Paginate(guests, p), nil
}

// CheckoutGuest closes a stay. It returns nil for unknown or already
// checked-out guests.
func (d *DB) CheckoutGuest(ctx context.Context, id string) (*domain.Guest, error) {
	n, err := d.affected(ctx,
		"UPDATE guests SET checkout_time = ?, is_checked_in = ? WHERE id = ? AND is_checked_in = ?",
		d.now(), false, id, true,
	)
	if err != nil || n == 0 {
		return nil, err
	}
	return d.GetGuest(ctx, id)
}

// UpdateGuest applies a partial update to a guest.
func (d *DB) UpdateGuest(ctx context.Context, id string, patch domain.GuestPatch) (*domain.Guest, error) {
	var out *domain.Guest
	err := d.WithinTx(ctx, func(ctx context.Context) error {
		g, err := d.GetGuest(ctx, id)
		if err != nil || g == nil {
			return err
		}
		patch.Apply(g)
		args := guestArgs(g)
		_, err = d.exec(ctx,
			`UPDATE guests SET id = ?, name = ?, unit_number = ?, checkin_time = ?, checkout_time = ?,
				expected_checkout_date = ?, is_checked_in = ?, payment_amount = ?, payment_method = ?,
				payment_collector = ?, is_paid = ?, notes = ?, gender = ?, nationality = ?, phone_number = ?,
				email = ?, id_number = ?, emergency_contact = ?, emergency_phone = ?, age = ?,
				profile_photo_url = ?, self_checkin_token = ?, created_at = ?
			WHERE id = ?`,
			append(args, id)...,
		)
		out = g
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetGuestsWithCheckoutToday lists checked-in guests expected to leave on today.
func (d *DB) GetGuestsWithCheckoutToday(ctx context.Context, today time.Time) ([]domain.Guest, error) {
	return d.guestsWhere(ctx,
		"WHERE is_checked_in = ? AND expected_checkout_date = ? ORDER BY checkin_time DESC",
		true, today.Format(domain.DayLayout),
	)
}

// GetMostRecentlyCheckedOutGuest returns the last guest to check out.
func (d *DB) GetMostRecentlyCheckedOutGuest(ctx context.Context) (*domain.Guest, error) {
	return one(d.queryRow(ctx,
		"SELECT "+guestColumns+" FROM guests WHERE is_checked_in = ? AND checkout_time IS NOT NULL ORDER BY checkout_time DESC LIMIT 1",
		false,
	), scanGuest)
}

// GetGuestByUnitAndName finds the checked-in guest with this name in the unit.
func (d *DB) GetGuestByUnitAndName(ctx context.Context, unitNumber, name string) (*domain.Guest, error) {
	return d.firstGuest(ctx, "WHERE is_checked_in = ? AND unit_number = ? AND name = ?", true, unitNumber, name)
}

// GetGuestByToken finds the guest who checked in with a self check-in token.
func (d *DB) GetGuestByToken(ctx context.Context, token string) (*domain.Guest, error) {
	return d.firstGuest(ctx, "WHERE self_checkin_token = ?", token)
}

// GetGuestByUnit finds the guest currently staying in the unit.
func (d *DB) GetGuestByUnit(ctx context.Context, unitNumber string) (*domain.Guest, error) {
	return d.firstGuest(ctx, "WHERE is_checked_in = ? AND unit_number = ?", true, unitNumber)
}

// GetGuestsByDateRange lists stays overlapping [start, end].
func (d *DB) GetGuestsByDateRange(ctx context.Context, start, end time.Time) ([]domain.Guest, error) {
	return d.guestsWhere(ctx,
		"WHERE checkin_time <= ? AND (checkout_time >= ? OR checkout_time IS NULL) ORDER BY checkin_time DESC",
		end.UTC(), start.UTC(),
	)
}

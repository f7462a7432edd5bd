package domain

import (
	"context"
	"sort"
	"strings"
	"time"
)

// DayLayout is the calendar-date format used for date-only fields.
const DayLayout = "2006-01-02"

// Guest is one stay: created at check-in, closed at checkout, never removed.
type Guest struct {
	ID                   string     `json:"id"`
	Name                 string     `json:"name"`
	UnitNumber           string     `json:"unitNumber"`
	CheckinTime          time.Time  `json:"checkinTime"`
	CheckoutTime         *time.Time `json:"checkoutTime"`
	ExpectedCheckoutDate *time.Time `json:"expectedCheckoutDate"`
	IsCheckedIn          bool       `json:"isCheckedIn"`
	PaymentAmount        string     `json:"paymentAmount"`
	PaymentMethod        string     `json:"paymentMethod"`
	PaymentCollector     string     `json:"paymentCollector"`
	IsPaid               bool       `json:"isPaid"`
	Notes                string     `json:"notes"`
	Gender               string     `json:"gender"`
	Nationality          string     `json:"nationality"`
	PhoneNumber          string     `json:"phoneNumber"`
	Email                string     `json:"email"`
	IDNumber             string     `json:"idNumber"`
	EmergencyContact     string     `json:"emergencyContact"`
	EmergencyPhone       string     `json:"emergencyPhone"`
	Age                  string     `json:"age"`
	ProfilePhotoURL      string     `json:"profilePhotoUrl"`
	SelfCheckinToken     *string    `json:"selfCheckinToken"`
	CreatedAt            time.Time  `json:"createdAt"`
}

// GuestInput is what a check-in supplies. CheckinDate, when set, back- or
// forward-dates the stay while keeping the current time of day.
type GuestInput struct {
	Name                 string
	UnitNumber           string
	CheckinDate          *time.Time
	ExpectedCheckoutDate *time.Time
	PaymentAmount        string
	PaymentMethod        string
	PaymentCollector     string
	IsPaid               bool
	Notes                string
	Gender               string
	Nationality          string
	PhoneNumber          string
	Email                string
	IDNumber             string
	EmergencyContact     string
	EmergencyPhone       string
	Age                  string
	ProfilePhotoURL      string
	SelfCheckinToken     *string
}

// NewGuest builds the checked-in guest record for in.
func (in GuestInput) NewGuest(id string, now time.Time) Guest {
	checkin := now.UTC()
	if in.CheckinDate != nil {
		checkin = CheckinTime(*in.CheckinDate, now)
	}
	return Guest{
		ID:                   id,
		Name:                 in.Name,
		UnitNumber:           in.UnitNumber,
		CheckinTime:          checkin,
		ExpectedCheckoutDate: dayPtr(in.ExpectedCheckoutDate),
		IsCheckedIn:          true,
		PaymentAmount:        in.PaymentAmount,
		PaymentMethod:        in.PaymentMethod,
		PaymentCollector:     in.PaymentCollector,
		IsPaid:               in.IsPaid,
		Notes:                in.Notes,
		Gender:               in.Gender,
		Nationality:          in.Nationality,
		PhoneNumber:          in.PhoneNumber,
		Email:                in.Email,
		IDNumber:             in.IDNumber,
		EmergencyContact:     in.EmergencyContact,
		EmergencyPhone:       in.EmergencyPhone,
		Age:                  in.Age,
		ProfilePhotoURL:      in.ProfilePhotoURL,
		SelfCheckinToken:     in.SelfCheckinToken,
		CreatedAt:            now.UTC(),
	}
}

// CheckinTime places now's time of day on the calendar date of day.
func CheckinTime(day, now time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), now.Location()).UTC()
}

// Day truncates t to its calendar date, expressed at UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dayPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := Day(*t)
	return &d
}

// Overlaps reports whether the stay intersects [start, end]. A stay that has
// not ended overlaps every window starting before it.
func (g Guest) Overlaps(start, end time.Time) bool {
	if g.CheckinTime.After(end) {
		return false
	}
	return g.CheckoutTime == nil || !g.CheckoutTime.Before(start)
}

// GuestPatch carries the fields of a partial guest update; nil means unchanged.
type GuestPatch struct {
	Name                 *string
	UnitNumber           *string
	CheckinTime          *time.Time
	ExpectedCheckoutDate *time.Time
	PaymentAmount        *string
	PaymentMethod        *string
	PaymentCollector     *string
	IsPaid               *bool
	Notes                *string
	Gender               *string
	Nationality          *string
	PhoneNumber          *string
	Email                *string
	IDNumber             *string
	EmergencyContact     *string
	EmergencyPhone       *string
	Age                  *string
	ProfilePhotoURL      *string
	SelfCheckinToken     *string
}

// Apply copies the set fields of p onto g.
func (p GuestPatch) Apply(g *Guest) {
	setString(&g.Name, p.Name)
	setString(&g.UnitNumber, p.UnitNumber)
	if p.CheckinTime != nil {
		g.CheckinTime = p.CheckinTime.UTC()
	}
	if p.ExpectedCheckoutDate != nil {
		g.ExpectedCheckoutDate = dayPtr(p.ExpectedCheckoutDate)
	}
	setString(&g.PaymentAmount, p.PaymentAmount)
	setString(&g.PaymentMethod, p.PaymentMethod)
	setString(&g.PaymentCollector, p.PaymentCollector)
	if p.IsPaid != nil {
		g.IsPaid = *p.IsPaid
	}
	setString(&g.Notes, p.Notes)
	setString(&g.Gender, p.Gender)
	setString(&g.Nationality, p.Nationality)
	setString(&g.PhoneNumber, p.PhoneNumber)
	setString(&g.Email, p.Email)
	setString(&g.IDNumber, p.IDNumber)
	setString(&g.EmergencyContact, p.EmergencyContact)
	setString(&g.EmergencyPhone, p.EmergencyPhone)
	setString(&g.Age, p.Age)
	setString(&g.ProfilePhotoURL, p.ProfilePhotoURL)
	if p.SelfCheckinToken != nil {
		g.SelfCheckinToken = p.SelfCheckinToken
	}
}

// Guest history sort keys.
const (
	SortByName         = "name"
	SortByUnitNumber   = "unitNumber"
	SortByCheckinTime  = "checkinTime"
	SortByCheckoutTime = "checkoutTime"
)

// HistoryQuery filters and orders the checked-out guest history.
type HistoryQuery struct {
	SortBy      string
	SortOrder   string // "asc" or "desc"
	Search      string
	Nationality string
	UnitNumber  string
}

// Matches reports whether a closed stay passes the query's filters.
func (q HistoryQuery) Matches(g Guest) bool {
	if g.IsCheckedIn {
		return false
	}
	if q.Nationality != "" && g.Nationality != q.Nationality {
		return false
	}
	if q.UnitNumber != "" && g.UnitNumber != q.UnitNumber {
		return false
	}
	if q.Search == "" {
		return true
	}
	needle := strings.ToLower(q.Search)
	for _, field := range []string{g.Name, g.PhoneNumber, g.Email, g.IDNumber} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// SortGuests orders guests by the query's sort key. Unknown keys fall back to
// checkout time, newest first.
func SortGuests(guests []Guest, q HistoryQuery) {
	desc := q.SortOrder != "asc"
	var cmp func(a, b Guest) int
	switch q.SortBy {
	case SortByName:
		cmp = func(a, b Guest) int { return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) }
	case SortByUnitNumber:
		cmp = func(a, b Guest) int { return CompareUnitNumbers(a.UnitNumber, b.UnitNumber) }
	case SortByCheckinTime:
		cmp = func(a, b Guest) int { return a.CheckinTime.Compare(b.CheckinTime) }
	default:
		cmp = func(a, b Guest) int { return compareOptionalTime(a.CheckoutTime, b.CheckoutTime) }
	}
	sort.SliceStable(guests, func(i, j int) bool {
		c := cmp(guests[i], guests[j])
		if desc {
			return c > 0
		}
		return c < 0
	})
}

// compareOptionalTime orders nil before any set time.
func compareOptionalTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}

// GuestRepository is the port for guest persistence. CheckoutGuest only
// closes the stay; it never touches the guest's unit.
type GuestRepository interface {
	CreateGuest(ctx context.Context, in GuestInput) (*Guest, error)
	GetGuest(ctx context.Context, id string) (*Guest, error)
	GetGuests(ctx context.Context, p PageParams) (Page[Guest], error)
	GetCheckedInGuests(ctx context.Context, p PageParams) (Page[Guest], error)
	GetGuestHistory(ctx context.Context, p PageParams, q HistoryQuery) (Page[Guest], error)
	CheckoutGuest(ctx context.Context, id string) (*Guest, error)
	UpdateGuest(ctx context.Context, id string, patch GuestPatch) (*Guest, error)
	GetGuestsWithCheckoutToday(ctx context.Context, today time.Time) ([]Guest, error)
	GetMostRecentlyCheckedOutGuest(ctx context.Context) (*Guest, error)
	GetGuestByUnitAndName(ctx context.Context, unitNumber, name string) (*Guest, error)
	GetGuestByToken(ctx context.Context, token string) (*Guest, error)
	GetGuestByUnit(ctx context.Context, unitNumber string) (*Guest, error)
	GetGuestsByDateRange(ctx context.Context, start, end time.Time) ([]Guest, error)
}

package domain_test

import (
	"testing"
	"time"

	"capsule/internal/domain"
)

func date(s string) time.Time {
	t, err := time.Parse(time.DateTime, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCheckinTimeKeepsTimeOfDay(t *testing.T) {
	now := date("2024-03-10 14:25:30")
	got := domain.CheckinTime(date("2024-03-08 00:00:00"), now)
	want := date("2024-03-08 14:25:30")
	if !got.Equal(want) {
		t.Errorf("CheckinTime = %v; want %v", got, want)
	}
}

func TestNewGuest(t *testing.T) {
	now := date("2024-03-10 09:00:00")
	checkout := date("2024-03-12 17:45:00")
	g := domain.GuestInput{
		Name:                 "Aiko",
		UnitNumber:           "C4",
		ExpectedCheckoutDate: &checkout,
	}.NewGuest("g1", now)

	if !g.IsCheckedIn {
		t.Error("new guest is not checked in")
	}
	if !g.CheckinTime.Equal(now) {
		t.Errorf("CheckinTime = %v; want %v", g.CheckinTime, now)
	}
	if g.ExpectedCheckoutDate == nil || !g.ExpectedCheckoutDate.Equal(date("2024-03-12 00:00:00")) {
		t.Errorf("ExpectedCheckoutDate = %v; want 2024-03-12", g.ExpectedCheckoutDate)
	}
	if g.CheckoutTime != nil {
		t.Errorf("CheckoutTime = %v; want nil", g.CheckoutTime)
	}
}

func TestGuestOverlaps(t *testing.T) {
	start := date("2024-03-10 00:00:00")
	end := date("2024-03-12 23:59:59")
	out := func(s string) *time.Time { v := date(s); return &v }

	tests := []struct {
		name string
		g    domain.Guest
		want bool
	}{
		{"inside", domain.Guest{CheckinTime: date("2024-03-11 10:00:00"), CheckoutTime: out("2024-03-11 18:00:00")}, true},
		{"still staying", domain.Guest{CheckinTime: date("2024-03-01 10:00:00")}, true},
		{"left before", domain.Guest{CheckinTime: date("2024-03-01 10:00:00"), CheckoutTime: out("2024-03-09 10:00:00")}, false},
		{"arrives after", domain.Guest{CheckinTime: date("2024-03-13 08:00:00")}, false},
		{"spans window", domain.Guest{CheckinTime: date("2024-03-09 08:00:00"), CheckoutTime: out("2024-03-14 08:00:00")}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.g.Overlaps(start, end); got != tc.want {
				t.Errorf("Overlaps = %v; want %v", got, tc.want)
			}
		})
	}
}

func TestHistoryQueryMatches(t *testing.T) {
	g := domain.Guest{
		Name:        "Maria Santos",
		PhoneNumber: "+60123",
		Email:       "maria@example.com",
		Nationality: "PH",
		UnitNumber:  "C7",
	}

	tests := []struct {
		name string
		q    domain.HistoryQuery
		in   bool
		want bool
	}{
		{"no filters", domain.HistoryQuery{}, false, true},
		{"checked in never matches", domain.HistoryQuery{}, true, false},
		{"search name case-insensitive", domain.HistoryQuery{Search: "SANTOS"}, false, true},
		{"search email", domain.HistoryQuery{Search: "example.com"}, false, true},
		{"search misses", domain.HistoryQuery{Search: "nobody"}, false, false},
		{"nationality", domain.HistoryQuery{Nationality: "PH"}, false, true},
		{"wrong nationality", domain.HistoryQuery{Nationality: "MY"}, false, false},
		{"wrong unit", domain.HistoryQuery{UnitNumber: "C8"}, false, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := g
			g.IsCheckedIn = tc.in
			if got := tc.q.Matches(g); got != tc.want {
				t.Errorf("Matches = %v; want %v", got, tc.want)
			}
		})
	}
}

func TestSortGuests(t *testing.T) {
	early := date("2024-03-01 10:00:00")
	late := date("2024-03-05 10:00:00")
	guests := func() []domain.Guest {
		return []domain.Guest{
			{Name: "bob", UnitNumber: "C11", CheckinTime: early, CheckoutTime: &early},
			{Name: "Alice", UnitNumber: "C2", CheckinTime: late, CheckoutTime: &late},
			{Name: "carol", UnitNumber: "C1", CheckinTime: late},
		}
	}
	names := func(gs []domain.Guest) []string {
		out := make([]string, len(gs))
		for i, g := range gs {
			out[i] = g.Name
		}
		return out
	}

	tests := []struct {
		name string
		q    domain.HistoryQuery
		want []string
	}{
		{"default newest checkout first", domain.HistoryQuery{}, []string{"Alice", "bob", "carol"}},
		{"name asc", domain.HistoryQuery{SortBy: domain.SortByName, SortOrder: "asc"}, []string{"Alice", "bob", "carol"}},
		{"unit asc", domain.HistoryQuery{SortBy: domain.SortByUnitNumber, SortOrder: "asc"}, []string{"carol", "Alice", "bob"}},
		{"unit desc", domain.HistoryQuery{SortBy: domain.SortByUnitNumber}, []string{"bob", "Alice", "carol"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gs := guests()
			domain.SortGuests(gs, tc.q)
			got := names(gs)
			for i := range tc.want {
				if got[i] != tc.want[i] {
					t.Fatalf("order = %v; want %v", got, tc.want)
				}
			}
		})
	}
}

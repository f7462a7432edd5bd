package domain_test

import (
	"testing"
	"time"

	"capsule/internal/domain"
)

func TestExpenseFilterMatches(t *testing.T) {
	e := domain.Expense{Category: "supplies", Date: date("2024-03-10 00:00:00")}
	from := date("2024-03-10 15:00:00")
	to := date("2024-03-09 00:00:00")
	later := date("2024-03-11 00:00:00")

	tests := []struct {
		name string
		f    domain.ExpenseFilter
		want bool
	}{
		{"empty", domain.ExpenseFilter{}, true},
		{"category", domain.ExpenseFilter{Category: "supplies"}, true},
		{"other category", domain.ExpenseFilter{Category: "utilities"}, false},
		{"from same day is inclusive", domain.ExpenseFilter{From: &from}, true},
		{"to before", domain.ExpenseFilter{To: &to}, false},
		{"from after", domain.ExpenseFilter{From: &later}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.f.Matches(e); got != tc.want {
				t.Errorf("Matches = %v; want %v", got, tc.want)
			}
		})
	}
}

func TestUnitOccupiable(t *testing.T) {
	no := false
	yes := true
	tests := []struct {
		name string
		u    domain.Unit
		want bool
	}{
		{"ready", domain.Unit{IsAvailable: true, CleaningStatus: domain.CleaningStatusCleaned, ToRent: &yes}, true},
		{"flag unset counts as rentable", domain.Unit{IsAvailable: true, CleaningStatus: domain.CleaningStatusCleaned}, true},
		{"not for rent", domain.Unit{IsAvailable: true, CleaningStatus: domain.CleaningStatusCleaned, ToRent: &no}, false},
		{"dirty", domain.Unit{IsAvailable: true, CleaningStatus: domain.CleaningStatusToBeCleaned}, false},
		{"blocked", domain.Unit{CleaningStatus: domain.CleaningStatusCleaned}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.u.Occupiable(); got != tc.want {
				t.Errorf("Occupiable = %v; want %v", got, tc.want)
			}
		})
	}
}

func TestTokenActive(t *testing.T) {
	now := date("2024-03-10 12:00:00")
	tests := []struct {
		name string
		tok  domain.GuestToken
		want bool
	}{
		{"fresh", domain.GuestToken{ExpiresAt: now.Add(time.Hour)}, true},
		{"used", domain.GuestToken{IsUsed: true, ExpiresAt: now.Add(time.Hour)}, false},
		{"expires exactly now", domain.GuestToken{ExpiresAt: now}, false},
	}
	for _, tc := range tests {
		if got := tc.tok.Active(now); got != tc.want {
			t.Errorf("%s: Active = %v; want %v", tc.name, got, tc.want)
		}
	}
}

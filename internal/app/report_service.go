package app

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"capsule/internal/domain"
)

// ReportService builds per-day summaries of stays and spending.
type ReportService struct {
	guests   domain.GuestRepository
	expenses domain.ExpenseRepository
	now      func() time.Time
}

// NewReportService creates a ReportService backed by the given repositories.
func NewReportService(guests domain.GuestRepository, expenses domain.ExpenseRepository) *ReportService {
	return &ReportService{
		guests:   guests,
		expenses: expenses,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// DayPoint is a single day returned by GetDaily.
type DayPoint struct {
	Day       string `json:"day"`
	Stays     int    `json:"stays"`
	Checkins  int    `json:"checkins"`
	Checkouts int    `json:"checkouts"`
	Expenses  string `json:"expenses"`
}

// GetDaily returns one point per day for the last days days, oldest first.
func (s *ReportService) GetDaily(ctx context.Context, days int) ([]DayPoint, error) {
	if days <= 0 {
		return nil, errors.New("days must be > 0")
	}
	if days > 366 {
		days = 366
	}

	today := domain.Day(s.now())
	first := today.AddDate(0, 0, -(days - 1))
	end := today.AddDate(0, 0, 1).Add(-time.Nanosecond)

	stays, err := s.guests.GetGuestsByDateRange(ctx, first, end)
	if err != nil {
		return nil, err
	}
	spent, err := s.expenses.GetExpenses(ctx, domain.ExpenseFilter{From: &first, To: &today})
	if err != nil {
		return nil, err
	}

	totals := make(map[string]*big.Rat)
	for _, e := range spent {
		amount, ok := new(big.Rat).SetString(e.Amount)
		if !ok {
			return nil, fmt.Errorf("expense %s: bad amount %q", e.ID, e.Amount)
		}
		day := e.Date.Format(domain.DayLayout)
		if totals[day] == nil {
			totals[day] = new(big.Rat)
		}
		totals[day].Add(totals[day], amount)
	}

	points := make([]DayPoint, 0, days)
	for i := 0; i < days; i++ {
		start := first.AddDate(0, 0, i)
		stop := start.AddDate(0, 0, 1).Add(-time.Nanosecond)
		p := DayPoint{Day: start.Format(domain.DayLayout), Expenses: "0.00"}
		for _, g := range stays {
			if g.Overlaps(start, stop) {
				p.Stays++
			}
			if domain.Day(g.CheckinTime).Equal(start) {
				p.Checkins++
			}
			if g.CheckoutTime != nil && domain.Day(*g.CheckoutTime).Equal(start) {
				p.Checkouts++
			}
		}
		if total := totals[p.Day]; total != nil {
			p.Expenses = total.FloatString(2)
		}
		points = append(points, p)
	}
	return points, nil
}

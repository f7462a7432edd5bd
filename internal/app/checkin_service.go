package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"capsule/internal/domain"

	"go.uber.org/zap"
)

var (
	// ErrUnitUnavailable is returned when a check-in targets a unit that is
	// occupied, dirty, out of service or unknown.
	ErrUnitUnavailable = errors.New("unit is not available")
	// ErrTokenInvalid is returned for unknown, used or expired tokens.
	ErrTokenInvalid = errors.New("check-in token is invalid or expired")
)

// Notification types raised by check-ins.
const (
	NotificationSelfCheckin = "self_checkin"
)

// CheckinService places guests into units, either at the desk or through a
// self check-in token.
type CheckinService struct {
	store  *Facade
	logger *zap.Logger
	now    func() time.Time
}

// NewCheckinService creates a CheckinService over the facade.
func NewCheckinService(store *Facade, logger *zap.Logger) *CheckinService {
	return &CheckinService{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CheckIn validates a desk check-in and records the stay.
func (s *CheckinService) CheckIn(ctx context.Context, in domain.GuestInput) (*domain.Guest, error) {
	var out *domain.Guest
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		g, err := s.checkIn(ctx, in)
		out = g
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("guest checked in", zap.String("guest", out.ID), zap.String("unit", out.UnitNumber))
	return out, nil
}

// SelfCheckIn redeems token for a guest. The unit comes from the token when
// it names one, otherwise from the first free unit if the token allows
// auto-assignment, otherwise from the input.
func (s *CheckinService) SelfCheckIn(ctx context.Context, token string, in domain.GuestInput) (*domain.Guest, error) {
	var out *domain.Guest
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		t, err := s.store.GetTokenByToken(ctx, token)
		if err != nil {
			return err
		}
		if t == nil || !t.Active(s.now()) {
			return ErrTokenInvalid
		}

		switch {
		case t.UnitNumber != nil:
			in.UnitNumber = *t.UnitNumber
		case t.AutoAssign:
			free, err := s.store.AvailableUnits(ctx)
			if err != nil {
				return err
			}
			if len(free) == 0 {
				return ErrUnitUnavailable
			}
			in.UnitNumber = free[0].Number
		}
		if in.Name == "" {
			in.Name = t.GuestName
		}
		if in.PhoneNumber == "" {
			in.PhoneNumber = t.PhoneNumber
		}
		if in.Email == "" {
			in.Email = t.Email
		}
		if in.ExpectedCheckoutDate == nil {
			in.ExpectedCheckoutDate = t.ExpectedCheckoutDate
		}
		in.SelfCheckinToken = &t.Token

		g, err := s.checkIn(ctx, in)
		if err != nil {
			return err
		}
		claimed, err := s.store.ClaimToken(ctx, token)
		if err != nil {
			return err
		}
		if claimed == nil {
			// redeemed by a concurrent check-in since it was read
			return ErrTokenInvalid
		}
		guestID, unit := g.ID, g.UnitNumber
		if _, err := s.store.CreateNotification(ctx, domain.Notification{
			Type:       NotificationSelfCheckin,
			Title:      "Self check-in",
			Message:    fmt.Sprintf("%s checked in to %s", g.Name, g.UnitNumber),
			GuestID:    &guestID,
			UnitNumber: &unit,
		}); err != nil {
			return err
		}
		out = g
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("guest self checked in", zap.String("guest", out.ID), zap.String("unit", out.UnitNumber))
	return out, nil
}

func (s *CheckinService) checkIn(ctx context.Context, in domain.GuestInput) (*domain.Guest, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, fmt.Errorf("%w: guest name is required", domain.ErrValidation)
	}
	if in.UnitNumber == "" {
		return nil, fmt.Errorf("%w: unit number is required", domain.ErrValidation)
	}
	if err := s.checkStay(ctx, in); err != nil {
		return nil, err
	}

	free, err := s.store.AvailableUnits(ctx)
	if err != nil {
		return nil, err
	}
	if !containsUnit(free, in.UnitNumber) {
		return nil, fmt.Errorf("%w: %s", ErrUnitUnavailable, in.UnitNumber)
	}
	return s.store.CreateGuest(ctx, in)
}

// checkStay bounds the expected checkout date by the configured maximum stay.
func (s *CheckinService) checkStay(ctx context.Context, in domain.GuestInput) error {
	if in.ExpectedCheckoutDate == nil {
		return nil
	}
	checkin := domain.Day(s.now())
	if in.CheckinDate != nil {
		checkin = domain.Day(*in.CheckinDate)
	}
	checkout := domain.Day(*in.ExpectedCheckoutDate)
	if checkout.Before(checkin) {
		return fmt.Errorf("%w: expected checkout is before check-in", domain.ErrValidation)
	}
	maxDays, err := s.store.Settings().GetInt(ctx, SettingMaxGuestStayDays)
	if err != nil {
		return err
	}
	if maxDays > 0 && checkout.Sub(checkin) > time.Duration(maxDays)*24*time.Hour {
		return fmt.Errorf("%w: stays are limited to %d days", domain.ErrValidation, maxDays)
	}
	return nil
}

func containsUnit(units []domain.Unit, number string) bool {
	for _, u := range units {
		if u.Number == number {
			return true
		}
	}
	return false
}

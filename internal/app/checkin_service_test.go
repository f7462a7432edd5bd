package app_test

import (
	"context"
	"testing"
	"time"

	"capsule/internal/adapter/memory"
	"capsule/internal/adapter/sqlstore"
	"capsule/internal/app"
	"capsule/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCheckin(t *testing.T, units int) (*app.CheckinService, *app.Facade) {
	t.Helper()
	f := app.NewFacade(memory.New(), zap.NewNop())
	seedUnits(t, f, units)
	return app.NewCheckinService(f, zap.NewNop()), f
}

func TestCheckIn(t *testing.T) {
	svc, f := newCheckin(t, 3)
	ctx := context.Background()

	g, err := svc.CheckIn(ctx, domain.GuestInput{Name: "  Aiko  ", UnitNumber: "C2"})
	require.NoError(t, err)
	assert.Equal(t, "Aiko", g.Name)
	assert.True(t, g.IsCheckedIn)

	_, err = svc.CheckIn(ctx, domain.GuestInput{Name: "Bram", UnitNumber: "C2"})
	assert.ErrorIs(t, err, app.ErrUnitUnavailable)

	_, err = svc.CheckIn(ctx, domain.GuestInput{Name: "Bram", UnitNumber: "C99"})
	assert.ErrorIs(t, err, app.ErrUnitUnavailable)

	_, err = f.MarkUnitNeedsCleaning(ctx, "C3")
	require.NoError(t, err)
	_, err = svc.CheckIn(ctx, domain.GuestInput{Name: "Bram", UnitNumber: "C3"})
	assert.ErrorIs(t, err, app.ErrUnitUnavailable)
}

func TestCheckInValidation(t *testing.T) {
	svc, f := newCheckin(t, 1)
	ctx := context.Background()
	_, err := f.Settings().Set(ctx, app.SettingMaxGuestStayDays, 3, "ana")
	require.NoError(t, err)

	now := time.Now()
	tooLong := now.AddDate(0, 0, 5)
	before := now.AddDate(0, 0, -2)
	fine := now.AddDate(0, 0, 2)

	tests := []struct {
		name string
		in   domain.GuestInput
	}{
		{"no name", domain.GuestInput{Name: " ", UnitNumber: "C1"}},
		{"no unit", domain.GuestInput{Name: "Aiko"}},
		{"stay too long", domain.GuestInput{Name: "Aiko", UnitNumber: "C1", ExpectedCheckoutDate: &tooLong}},
		{"checkout before checkin", domain.GuestInput{Name: "Aiko", UnitNumber: "C1", ExpectedCheckoutDate: &before}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CheckIn(ctx, tc.in)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	g, err := svc.CheckIn(ctx, domain.GuestInput{Name: "Aiko", UnitNumber: "C1", ExpectedCheckoutDate: &fine})
	require.NoError(t, err)
	assert.NotNil(t, g.ExpectedCheckoutDate)
}

func TestSelfCheckInWithAssignedUnit(t *testing.T) {
	svc, f := newCheckin(t, 3)
	ctx := context.Background()

	tok, err := f.IssueToken(ctx, app.TokenInput{GuestName: "Aiko", PhoneNumber: "+60123", UnitNumber: ptr("C3"), CreatedBy: "ana"})
	require.NoError(t, err)

	g, err := svc.SelfCheckIn(ctx, tok.Token, domain.GuestInput{Nationality: "JP"})
	require.NoError(t, err)
	assert.Equal(t, "C3", g.UnitNumber)
	assert.Equal(t, "Aiko", g.Name)
	assert.Equal(t, "+60123", g.PhoneNumber)
	assert.Equal(t, "JP", g.Nationality)
	require.NotNil(t, g.SelfCheckinToken)
	assert.Equal(t, tok.Token, *g.SelfCheckinToken)

	used, err := f.GetTokenByToken(ctx, tok.Token)
	require.NoError(t, err)
	assert.True(t, used.IsUsed)

	byToken, err := f.GetGuestByToken(ctx, tok.Token)
	require.NoError(t, err)
	require.NotNil(t, byToken)
	assert.Equal(t, g.ID, byToken.ID)

	notes, err := f.GetUnreadNotifications(ctx, domain.PageParams{})
	require.NoError(t, err)
	require.Len(t, notes.Data, 1)
	assert.Equal(t, app.NotificationSelfCheckin, notes.Data[0].Type)
	require.NotNil(t, notes.Data[0].GuestID)
	assert.Equal(t, g.ID, *notes.Data[0].GuestID)

	_, err = svc.SelfCheckIn(ctx, tok.Token, domain.GuestInput{})
	assert.ErrorIs(t, err, app.ErrTokenInvalid)
}

func TestSelfCheckInAutoAssign(t *testing.T) {
	svc, f := newCheckin(t, 3)
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, domain.GuestInput{Name: "Desk", UnitNumber: "C1"})
	require.NoError(t, err)

	tok, err := f.IssueToken(ctx, app.TokenInput{GuestName: "Bram", AutoAssign: true})
	require.NoError(t, err)

	g, err := svc.SelfCheckIn(ctx, tok.Token, domain.GuestInput{UnitNumber: "C3"})
	require.NoError(t, err)
	assert.Equal(t, "C2", g.UnitNumber, "first free unit wins over the guest's pick")
}

func TestSelfCheckInNoFreeUnit(t *testing.T) {
	svc, f := newCheckin(t, 1)
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, domain.GuestInput{Name: "Desk", UnitNumber: "C1"})
	require.NoError(t, err)
	tok, err := f.IssueToken(ctx, app.TokenInput{GuestName: "Bram", AutoAssign: true})
	require.NoError(t, err)

	_, err = svc.SelfCheckIn(ctx, tok.Token, domain.GuestInput{})
	assert.ErrorIs(t, err, app.ErrUnitUnavailable)

	still, err := f.GetTokenByToken(ctx, tok.Token)
	require.NoError(t, err)
	assert.False(t, still.IsUsed)
}

func TestSelfCheckInRejectsBadTokens(t *testing.T) {
	svc, f := newCheckin(t, 2)
	ctx := context.Background()

	past := time.Now().Add(-time.Minute)
	expired, err := f.IssueToken(ctx, app.TokenInput{GuestName: "Late", UnitNumber: ptr("C1"), ExpiresAt: &past})
	require.NoError(t, err)

	for name, token := range map[string]string{"unknown": "nope", "expired": expired.Token} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.SelfCheckIn(ctx, token, domain.GuestInput{Name: "X"})
			assert.ErrorIs(t, err, app.ErrTokenInvalid)
		})
	}
}

// claimedElsewhere behaves as if a concurrent check-in redeemed every token
// between the read and the claim.
type claimedElsewhere struct {
	*sqlstore.DB
}

func (claimedElsewhere) ClaimToken(context.Context, string) (*domain.GuestToken, error) {
	return nil, nil
}

func TestSelfCheckInLosesClaim(t *testing.T) {
	ctx := context.Background()
	db, err := sqlstore.Open(ctx, sqlstore.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	f := app.NewFacade(claimedElsewhere{db}, zap.NewNop())
	seedUnits(t, f, 2)
	svc := app.NewCheckinService(f, zap.NewNop())

	tok, err := f.IssueToken(ctx, app.TokenInput{GuestName: "Aiko", UnitNumber: ptr("C1")})
	require.NoError(t, err)

	_, err = svc.SelfCheckIn(ctx, tok.Token, domain.GuestInput{})
	assert.ErrorIs(t, err, app.ErrTokenInvalid)

	staying, err := f.GetCheckedInGuests(ctx, domain.PageParams{})
	require.NoError(t, err)
	assert.Empty(t, staying.Data, "the guest write is rolled back")
	unread, err := f.GetUnreadNotifications(ctx, domain.PageParams{})
	require.NoError(t, err)
	assert.Empty(t, unread.Data)
}

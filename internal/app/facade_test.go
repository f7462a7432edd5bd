package app_test

import (
	"context"
	"fmt"
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

func ptr[T any](v T) *T { return &v }

// backends returns a fresh facade per backend under test.
func backends(t *testing.T) map[string]*app.Facade {
	t.Helper()
	db, err := sqlstore.Open(context.Background(), sqlstore.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return map[string]*app.Facade{
		"memory": app.NewFacade(memory.New(), zap.NewNop()),
		"sqlite": app.NewFacade(db, zap.NewNop()),
	}
}

func seedUnits(t *testing.T, f *app.Facade, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		_, err := f.CreateUnit(context.Background(), domain.Unit{Number: fmt.Sprintf("C%d", i), IsAvailable: true})
		require.NoError(t, err)
	}
}

func numbers(units []domain.Unit) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = u.Number
	}
	return out
}

func TestOccupancy(t *testing.T) {
	for name, f := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seedUnits(t, f, 22)
			_, err := f.CreateGuest(ctx, domain.GuestInput{Name: "Aiko", UnitNumber: "C1"})
			require.NoError(t, err)

			free, err := f.AvailableUnits(ctx)
			require.NoError(t, err)
			assert.Len(t, free, 21)
			assert.NotContains(t, numbers(free), "C1")

			occ, err := f.Occupancy(ctx)
			require.NoError(t, err)
			assert.Equal(t, app.Occupancy{Total: 22, Occupied: 1, Available: 21, OccupancyRate: 5}, occ)
		})
	}
}

func TestOccupancySkipsUnitsNotForRent(t *testing.T) {
	for name, f := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seedUnits(t, f, 22)
			_, err := f.CreateGuest(ctx, domain.GuestInput{Name: "Aiko", UnitNumber: "C1"})
			require.NoError(t, err)
			_, err = f.UpdateUnit(ctx, "C1", domain.UnitPatch{ToRent: ptr(false)})
			require.NoError(t, err)

			occ, err := f.Occupancy(ctx)
			require.NoError(t, err)
			assert.Equal(t, app.Occupancy{Total: 21, Occupied: 0, Available: 21, OccupancyRate: 0}, occ)

			free, err := f.AvailableUnits(ctx)
			require.NoError(t, err)
			assert.NotContains(t, numbers(free), "C1")
		})
	}
}

func TestOccupancyEmpty(t *testing.T) {
	f := app.NewFacade(memory.New(), zap.NewNop())
	occ, err := f.Occupancy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, app.Occupancy{}, occ)
}

func TestAvailableUnits(t *testing.T) {
	for name, f := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seedUnits(t, f, 11)
			_, err := f.CreateGuest(ctx, domain.GuestInput{Name: "Aiko", UnitNumber: "C2"})
			require.NoError(t, err)
			_, err = f.MarkUnitNeedsCleaning(ctx, "C3")
			require.NoError(t, err)
			_, err = f.UpdateUnit(ctx, "C4", domain.UnitPatch{IsAvailable: ptr(false)})
			require.NoError(t, err)

			free, err := f.AvailableUnits(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"C1", "C5", "C6", "C7", "C8", "C9", "C10", "C11"}, numbers(free))

			dirty, err := f.UncleanedAvailableUnits(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"C3"}, numbers(dirty))
		})
	}
}

func TestRestoringAvailabilityResolvesProblems(t *testing.T) {
	for name, f := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seedUnits(t, f, 3)
			_, err := f.UpdateUnit(ctx, "C3", domain.UnitPatch{IsAvailable: ptr(false)})
			require.NoError(t, err)
			for _, d := range []string{"leaking vent", "broken light"} {
				_, err := f.CreateProblem(ctx, domain.Problem{UnitNumber: "C3", Description: d, ReportedBy: "sam"})
				require.NoError(t, err)
			}
			_, err = f.CreateProblem(ctx, domain.Problem{UnitNumber: "C1", Description: "elsewhere"})
			require.NoError(t, err)

			// A change that keeps the unit unavailable leaves problems open.
			_, err = f.UpdateUnit(ctx, "C3", domain.UnitPatch{Remark: ptr("waiting on parts")})
			require.NoError(t, err)
			open, err := f.GetActiveProblems(ctx, domain.PageParams{})
			require.NoError(t, err)
			assert.Equal(t, 3, open.Pagination.Total)

			u, err := f.UpdateUnit(ctx, "C3", domain.UnitPatch{IsAvailable: ptr(true)})
			require.NoError(t, err)
			require.NotNil(t, u)
			assert.True(t, u.IsAvailable)

			problems, err := f.GetProblemsByUnit(ctx, "C3")
			require.NoError(t, err)
			require.Len(t, problems, 2)
			for _, p := range problems {
				assert.True(t, p.IsResolved)
				require.NotNil(t, p.ResolvedBy)
				assert.Equal(t, domain.SystemResolver, *p.ResolvedBy)
				require.NotNil(t, p.Notes)
				assert.Equal(t, domain.AutoResolveNotes, *p.Notes)
			}

			open, err = f.GetActiveProblems(ctx, domain.PageParams{})
			require.NoError(t, err)
			require.Len(t, open.Data, 1)
			assert.Equal(t, "C1", open.Data[0].UnitNumber)
		})
	}
}

func TestUpdateUnknownUnit(t *testing.T) {
	f := app.NewFacade(memory.New(), zap.NewNop())
	u, err := f.UpdateUnit(context.Background(), "nowhere", domain.UnitPatch{IsAvailable: ptr(true)})
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestCheckoutGuest(t *testing.T) {
	for name, f := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seedUnits(t, f, 2)
			g, err := f.CreateGuest(ctx, domain.GuestInput{Name: "Aiko", UnitNumber: "C2"})
			require.NoError(t, err)
			_, err = f.UpdateUnit(ctx, "C2", domain.UnitPatch{IsAvailable: ptr(false)})
			require.NoError(t, err)
			_, err = f.CreateProblem(ctx, domain.Problem{UnitNumber: "C2", Description: "noisy fan"})
			require.NoError(t, err)

			out, err := f.CheckoutGuest(ctx, g.ID)
			require.NoError(t, err)
			require.NotNil(t, out)
			assert.False(t, out.IsCheckedIn)
			assert.NotNil(t, out.CheckoutTime)

			u, err := f.GetUnitByNumber(ctx, "C2")
			require.NoError(t, err)
			assert.True(t, u.IsAvailable)
			assert.Equal(t, domain.CleaningStatusToBeCleaned, u.CleaningStatus)

			problems, err := f.GetProblemsByUnit(ctx, "C2")
			require.NoError(t, err)
			require.Len(t, problems, 1)
			assert.True(t, problems[0].IsResolved)

			dirty, err := f.UncleanedAvailableUnits(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"C2"}, numbers(dirty))

			// A second checkout changes nothing, even after cleaning.
			_, err = f.MarkUnitCleaned(ctx, "C2", "sam")
			require.NoError(t, err)
			again, err := f.CheckoutGuest(ctx, g.ID)
			require.NoError(t, err)
			assert.Nil(t, again)
			u, err = f.GetUnitByNumber(ctx, "C2")
			require.NoError(t, err)
			assert.Equal(t, domain.CleaningStatusCleaned, u.CleaningStatus)

			missing, err := f.CheckoutGuest(ctx, "no-such-guest")
			require.NoError(t, err)
			assert.Nil(t, missing)
		})
	}
}

func TestIssueToken(t *testing.T) {
	for name, f := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			tok, err := f.IssueToken(ctx, app.TokenInput{GuestName: "Aiko", CreatedBy: "ana"})
			require.NoError(t, err)
			assert.NotEmpty(t, tok.Token)
			assert.WithinDuration(t, time.Now().Add(24*time.Hour), tok.ExpiresAt, time.Minute)

			_, err = f.Settings().Set(ctx, app.SettingGuestTokenExpirationHours, 2, "ana")
			require.NoError(t, err)
			short, err := f.IssueToken(ctx, app.TokenInput{GuestName: "Bram"})
			require.NoError(t, err)
			assert.WithinDuration(t, time.Now().Add(2*time.Hour), short.ExpiresAt, time.Minute)
			assert.NotEqual(t, tok.Token, short.Token)

			explicit := time.Now().Add(90 * time.Minute)
			fixed, err := f.IssueToken(ctx, app.TokenInput{Token: "fixed", ExpiresAt: &explicit})
			require.NoError(t, err)
			assert.Equal(t, "fixed", fixed.Token)
			assert.WithinDuration(t, explicit, fixed.ExpiresAt, time.Second)

			_, err = f.IssueToken(ctx, app.TokenInput{Token: "fixed"})
			assert.ErrorIs(t, err, domain.ErrConflict)

			used, err := f.MarkTokenUsed(ctx, tok.Token)
			require.NoError(t, err)
			assert.True(t, used.IsUsed)
			active, err := f.GetActiveTokens(ctx, domain.PageParams{})
			require.NoError(t, err)
			assert.Equal(t, 2, active.Pagination.Total)
		})
	}
}

func TestFacadeSettingWritesRefreshCache(t *testing.T) {
	for name, f := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := f.Settings().Set(ctx, "welcomeBanner", "x", "ana")
			require.NoError(t, err)
			v, err := f.Settings().Get(ctx, "welcomeBanner")
			require.NoError(t, err)
			require.Equal(t, "x", v)

			_, err = f.SetSetting(ctx, domain.Setting{Key: "welcomeBanner", Value: "y", Type: domain.SettingTypeString})
			require.NoError(t, err)
			v, err = f.Settings().Get(ctx, "welcomeBanner")
			require.NoError(t, err)
			assert.Equal(t, "y", v)

			deleted, err := f.DeleteSetting(ctx, "welcomeBanner")
			require.NoError(t, err)
			assert.True(t, deleted)
			v, err = f.Settings().Get(ctx, "welcomeBanner")
			require.NoError(t, err)
			assert.Nil(t, v)
		})
	}
}

package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"capsule/internal/adapter/memory"
	"capsule/internal/app"
	"capsule/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// legacyUnits serves units that may lack a toRent flag and can refuse
// updates for chosen numbers.
type legacyUnits struct {
	domain.UnitRepository
	units  map[string]domain.Unit
	refuse map[string]bool
}

func (l *legacyUnits) GetUnits(context.Context) ([]domain.Unit, error) {
	out := make([]domain.Unit, 0, len(l.units))
	for _, u := range l.units {
		out = append(out, u)
	}
	domain.SortUnits(out)
	return out, nil
}

func (l *legacyUnits) UpdateUnit(_ context.Context, number string, patch domain.UnitPatch) (*domain.Unit, error) {
	if l.refuse[number] {
		return nil, errors.New("read-only row")
	}
	u := l.units[number]
	patch.Apply(&u)
	l.units[number] = u
	return &u, nil
}

func TestBackfillUnits(t *testing.T) {
	no := false
	repo := &legacyUnits{
		units: map[string]domain.Unit{
			"C1": {Number: "C1"},
			"C2": {Number: "C2", ToRent: &no},
			"C3": {Number: "C3"},
			"C4": {Number: "C4"},
		},
		refuse: map[string]bool{"C4": true},
	}

	report, err := app.BackfillUnits(context.Background(), repo, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, app.BackfillReport{Scanned: 4, Backfilled: 2, Failed: 1, Remaining: 1}, report)

	require.NotNil(t, repo.units["C1"].ToRent)
	assert.True(t, *repo.units["C1"].ToRent)
	assert.False(t, *repo.units["C2"].ToRent, "explicit false is kept")
	assert.Nil(t, repo.units["C4"].ToRent)
}

func TestBackfillUnitsNothingToDo(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	_, err := db.CreateUnit(ctx, domain.Unit{Number: "C1"})
	require.NoError(t, err)

	report, err := app.BackfillUnits(ctx, db, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, app.BackfillReport{Scanned: 1}, report)
}

func TestSweeper(t *testing.T) {
	db := memory.New()
	ctx := context.Background()

	u, err := db.CreateUser(ctx, domain.User{Username: "ana"})
	require.NoError(t, err)
	_, err = db.CreateSession(ctx, u.ID, "old", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	_, err = db.CreateSession(ctx, u.ID, "new", time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = db.CreateToken(ctx, domain.GuestToken{Token: "old", ExpiresAt: time.Now().Add(-time.Minute)})
	require.NoError(t, err)
	_, err = db.CreateToken(ctx, domain.GuestToken{Token: "used-old", IsUsed: true, ExpiresAt: time.Now().Add(-time.Hour)})
	require.NoError(t, err)
	_, err = db.CreateToken(ctx, domain.GuestToken{Token: "new", ExpiresAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)

	res, err := app.NewSweeper(db, db, time.Hour, zap.NewNop()).Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, app.SweepResult{Tokens: 2, Sessions: 1}, res)

	s, err := db.GetSession(ctx, "new")
	require.NoError(t, err)
	assert.NotNil(t, s)
}

func TestSweeperRunStopsOnCancel(t *testing.T) {
	db := memory.New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.NewSweeper(db, db, time.Millisecond, zap.NewNop()).Run(ctx)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

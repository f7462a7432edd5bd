package memory

import (
	"context"
	"testing"
	"time"

	"capsule/internal/adapter/storetest"
	"capsule/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryContract(t *testing.T) {
	storetest.Run(t, func(*testing.T) domain.Repositories { return New() })
}

func TestWithinTxKeepsEarlierWrites(t *testing.T) {
	db := New()
	ctx := context.Background()

	err := db.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := db.CreateUnit(ctx, domain.Unit{Number: "C1"}); err != nil {
			return err
		}
		_, err := db.CreateUnit(ctx, domain.Unit{Number: "C1"})
		return err
	})
	require.ErrorIs(t, err, domain.ErrConflict)

	u, err := db.GetUnitByNumber(ctx, "C1")
	require.NoError(t, err)
	assert.NotNil(t, u, "memory store does not roll back")
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	db := New()
	ctx := context.Background()

	u, err := db.CreateUnit(ctx, domain.Unit{Number: "C1", Remark: "ok"})
	require.NoError(t, err)
	u.Remark = "mutated"

	again, err := db.GetUnitByNumber(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, "ok", again.Remark)
}

func TestStoredRecordsOwnTheirPointees(t *testing.T) {
	db := New()
	ctx := context.Background()

	bought := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err := db.CreateUnit(ctx, domain.Unit{Number: "C1", PurchaseDate: &bought})
	require.NoError(t, err)
	bought = bought.AddDate(1, 0, 0)

	token := "tok-1"
	g, err := db.CreateGuest(ctx, domain.GuestInput{Name: "Aiko", UnitNumber: "C1", SelfCheckinToken: &token})
	require.NoError(t, err)
	token = "changed"

	notes := "fan rattles"
	p, err := db.CreateProblem(ctx, domain.Problem{UnitNumber: "C1", Description: "fan", Notes: &notes})
	require.NoError(t, err)
	notes = "changed"
	*p.Notes = "changed via result"

	u, err := db.GetUnitByNumber(ctx, "C1")
	require.NoError(t, err)
	require.NotNil(t, u.PurchaseDate)
	assert.Equal(t, 2024, u.PurchaseDate.Year())
	*u.PurchaseDate = time.Time{}

	again, err := db.GetUnitByNumber(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, 2024, again.PurchaseDate.Year())

	stay, err := db.GetGuest(ctx, g.ID)
	require.NoError(t, err)
	require.NotNil(t, stay.SelfCheckinToken)
	assert.Equal(t, "tok-1", *stay.SelfCheckinToken)

	problems, err := db.GetProblemsByUnit(ctx, "C1")
	require.NoError(t, err)
	require.Len(t, problems, 1)
	assert.Equal(t, "fan rattles", *problems[0].Notes)
}

// Package storetest is a behavioural suite every storage backend must pass.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"capsule/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Opener returns a fresh, empty backend for one subtest.
type Opener func(t *testing.T) domain.Repositories

// Run exercises open against the shared repository contract.
func Run(t *testing.T, open Opener) {
	tests := []struct {
		name string
		fn   func(t *testing.T, ctx context.Context, r domain.Repositories)
	}{
		{"Users", testUsers},
		{"Sessions", testSessions},
		{"Units", testUnits},
		{"UnitRename", testUnitRename},
		{"Guests", testGuests},
		{"GuestHistory", testGuestHistory},
		{"GuestHistorySearch", testGuestHistorySearch},
		{"Problems", testProblems},
		{"Tokens", testTokens},
		{"ClaimToken", testClaimToken},
		{"Notifications", testNotifications},
		{"PushSubscriptions", testPushSubscriptions},
		{"Settings", testSettings},
		{"Expenses", testExpenses},
		{"NestedTx", testNestedTx},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, context.Background(), open(t))
		})
	}
}

func ptr[T any](v T) *T { return &v }

func mustUser(t *testing.T, ctx context.Context, r domain.Repositories, username string) *domain.User {
	t.Helper()
	u, err := r.CreateUser(ctx, domain.User{Username: username, Email: username + "@example.com", PasswordHash: "x"})
	require.NoError(t, err)
	return u
}

func mustUnit(t *testing.T, ctx context.Context, r domain.Repositories, number string) *domain.Unit {
	t.Helper()
	u, err := r.CreateUnit(ctx, domain.Unit{Number: number, Section: "front", IsAvailable: true})
	require.NoError(t, err)
	return u
}

func testUsers(t *testing.T, ctx context.Context, r domain.Repositories) {
	u := mustUser(t, ctx, r, "ana")
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, domain.RoleStaff, u.Role)

	_, err := r.CreateUser(ctx, domain.User{Username: "ana", Email: "other@example.com"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := r.GetUserByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	missing, err := r.GetUserByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	updated, err := r.UpdateUser(ctx, u.ID, domain.UserPatch{FirstName: ptr("Ana"), GoogleID: ptr("g-123")})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Ana", updated.FirstName)

	byGoogle, err := r.GetUserByGoogleID(ctx, "g-123")
	require.NoError(t, err)
	require.NotNil(t, byGoogle)
	assert.Equal(t, u.ID, byGoogle.ID)

	nothing, err := r.UpdateUser(ctx, "missing", domain.UserPatch{FirstName: ptr("x")})
	require.NoError(t, err)
	assert.Nil(t, nothing)

	mustUser(t, ctx, r, "ben")
	n, err := r.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ok, err := r.DeleteUser(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = r.DeleteUser(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func testSessions(t *testing.T, ctx context.Context, r domain.Repositories) {
	u := mustUser(t, ctx, r, "ana")

	_, err := r.CreateSession(ctx, u.ID, "live", time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = r.CreateSession(ctx, u.ID, "stale", time.Now().Add(-time.Hour))
	require.NoError(t, err)

	s, err := r.GetSession(ctx, "live")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, u.ID, s.UserID)

	stale, err := r.GetSession(ctx, "stale")
	require.NoError(t, err)
	assert.Nil(t, stale)

	n, err := r.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	assert.LessOrEqual(t, n, 1)

	require.NoError(t, r.DeleteSession(ctx, "live"))
	s, err = r.GetSession(ctx, "live")
	require.NoError(t, err)
	assert.Nil(t, s)

	// Deleting a user takes its sessions with it.
	_, err = r.CreateSession(ctx, u.ID, "again", time.Now().Add(time.Hour))
	require.NoError(t, err)
	_, err = r.DeleteUser(ctx, u.ID)
	require.NoError(t, err)
	s, err = r.GetSession(ctx, "again")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func testUnits(t *testing.T, ctx context.Context, r domain.Repositories) {
	for _, n := range []string{"C11", "C2", "C1"} {
		u := mustUnit(t, ctx, r, n)
		assert.Equal(t, domain.CleaningStatusCleaned, u.CleaningStatus)
		require.NotNil(t, u.ToRent)
		assert.True(t, *u.ToRent)
	}

	_, err := r.CreateUnit(ctx, domain.Unit{Number: "C1"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	units, err := r.GetUnits(ctx)
	require.NoError(t, err)
	var numbers []string
	for _, u := range units {
		numbers = append(numbers, u.Number)
	}
	assert.Equal(t, []string{"C1", "C2", "C11"}, numbers)

	dirty, err := r.MarkUnitNeedsCleaning(ctx, "C2")
	require.NoError(t, err)
	require.NotNil(t, dirty)
	assert.Equal(t, domain.CleaningStatusToBeCleaned, dirty.CleaningStatus)
	assert.Nil(t, dirty.LastCleanedAt)

	list, err := r.GetUnitsByCleaningStatus(ctx, domain.CleaningStatusToBeCleaned)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "C2", list[0].Number)

	clean, err := r.MarkUnitCleaned(ctx, "C2", "sam")
	require.NoError(t, err)
	require.NotNil(t, clean)
	assert.Equal(t, domain.CleaningStatusCleaned, clean.CleaningStatus)
	require.NotNil(t, clean.LastCleanedBy)
	assert.Equal(t, "sam", *clean.LastCleanedBy)
	assert.NotNil(t, clean.LastCleanedAt)

	updated, err := r.UpdateUnit(ctx, "C1", domain.UnitPatch{ToRent: ptr(false), Remark: ptr("broken hatch")})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.False(t, *updated.ToRent)
	assert.Equal(t, "broken hatch", updated.Remark)

	byID, err := r.GetUnitByID(ctx, updated.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "C1", byID.Number)

	missing, err := r.UpdateUnit(ctx, "Z9", domain.UnitPatch{Remark: ptr("x")})
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = r.CreateProblem(ctx, domain.Problem{UnitNumber: "C11", Description: "light"})
	require.NoError(t, err)
	ok, err := r.DeleteUnit(ctx, "C11")
	require.NoError(t, err)
	assert.True(t, ok)
	problems, err := r.GetProblemsByUnit(ctx, "C11")
	require.NoError(t, err)
	assert.Empty(t, problems)

	ok, err = r.DeleteUnit(ctx, "C11")
	require.NoError(t, err)
	assert.False(t, ok)
}

func testUnitRename(t *testing.T, ctx context.Context, r domain.Repositories) {
	mustUnit(t, ctx, r, "C1")
	mustUnit(t, ctx, r, "C2")
	_, err := r.CreateProblem(ctx, domain.Problem{UnitNumber: "C1", Description: "curtain"})
	require.NoError(t, err)

	_, err = r.UpdateUnit(ctx, "C1", domain.UnitPatch{Number: ptr("C2")})
	assert.ErrorIs(t, err, domain.ErrConflict)

	renamed, err := r.UpdateUnit(ctx, "C1", domain.UnitPatch{Number: ptr("C9")})
	require.NoError(t, err)
	require.NotNil(t, renamed)
	assert.Equal(t, "C9", renamed.Number)

	old, err := r.GetUnitByNumber(ctx, "C1")
	require.NoError(t, err)
	assert.Nil(t, old)

	problems, err := r.GetProblemsByUnit(ctx, "C9")
	require.NoError(t, err)
	assert.Len(t, problems, 1)
}

func testGuests(t *testing.T, ctx context.Context, r domain.Repositories) {
	today := domain.Day(time.Now())
	yesterday := today.AddDate(0, 0, -1)

	a, err := r.CreateGuest(ctx, domain.GuestInput{Name: "Aiko", UnitNumber: "C1", CheckinDate: &yesterday, ExpectedCheckoutDate: &today})
	require.NoError(t, err)
	assert.True(t, a.IsCheckedIn)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, -1), a.CheckinTime, 2*time.Hour)

	b, err := r.CreateGuest(ctx, domain.GuestInput{Name: "Bram", UnitNumber: "C2", SelfCheckinToken: ptr("tok-1")})
	require.NoError(t, err)

	got, err := r.GetGuest(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Aiko", got.Name)
	require.NotNil(t, got.ExpectedCheckoutDate)
	assert.True(t, got.ExpectedCheckoutDate.Equal(today))

	leaving, err := r.GetGuestsWithCheckoutToday(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, leaving, 1)
	assert.Equal(t, a.ID, leaving[0].ID)

	byToken, err := r.GetGuestByToken(ctx, "tok-1")
	require.NoError(t, err)
	require.NotNil(t, byToken)
	assert.Equal(t, b.ID, byToken.ID)

	byUnit, err := r.GetGuestByUnit(ctx, "C1")
	require.NoError(t, err)
	require.NotNil(t, byUnit)
	assert.Equal(t, a.ID, byUnit.ID)

	byName, err := r.GetGuestByUnitAndName(ctx, "C2", "Bram")
	require.NoError(t, err)
	require.NotNil(t, byName)

	out, err := r.CheckoutGuest(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.False(t, out.IsCheckedIn)
	require.NotNil(t, out.CheckoutTime)

	again, err := r.CheckoutGuest(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, again)

	gone, err := r.GetGuestByUnit(ctx, "C1")
	require.NoError(t, err)
	assert.Nil(t, gone)

	recent, err := r.GetMostRecentlyCheckedOutGuest(ctx)
	require.NoError(t, err)
	require.NotNil(t, recent)
	assert.Equal(t, a.ID, recent.ID)

	in, err := r.GetCheckedInGuests(ctx, domain.PageParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, in.Pagination.Total)

	everyone, err := r.GetGuests(ctx, domain.PageParams{Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, everyone.Pagination.Total)
	assert.Len(t, everyone.Data, 1)
	assert.True(t, everyone.Pagination.HasMore)
	assert.Equal(t, b.ID, everyone.Data[0].ID, "newest check-in first")

	window, err := r.GetGuestsByDateRange(ctx, today.AddDate(0, 0, -10), today.AddDate(0, 0, -5))
	require.NoError(t, err)
	assert.Empty(t, window)
	window, err = r.GetGuestsByDateRange(ctx, yesterday, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, window, 2)

	paid, err := r.UpdateGuest(ctx, b.ID, domain.GuestPatch{IsPaid: ptr(true), PaymentAmount: ptr("45.00")})
	require.NoError(t, err)
	require.NotNil(t, paid)
	assert.True(t, paid.IsPaid)
	assert.Equal(t, "45.00", paid.PaymentAmount)

	none, err := r.UpdateGuest(ctx, "missing", domain.GuestPatch{Notes: ptr("x")})
	require.NoError(t, err)
	assert.Nil(t, none)
}

func testGuestHistory(t *testing.T, ctx context.Context, r domain.Repositories) {
	for _, in := range []domain.GuestInput{
		{Name: "Maria Santos", UnitNumber: "C3", Nationality: "PH", Email: "maria@example.com"},
		{Name: "Li Wei", UnitNumber: "C11", Nationality: "CN"},
		{Name: "Jonas", UnitNumber: "C2", Nationality: "DE"},
		{Name: "Still Here", UnitNumber: "C4", Nationality: "PH"},
	} {
		g, err := r.CreateGuest(ctx, in)
		require.NoError(t, err)
		if in.Name != "Still Here" {
			_, err = r.CheckoutGuest(ctx, g.ID)
			require.NoError(t, err)
		}
	}

	all, err := r.GetGuestHistory(ctx, domain.PageParams{}, domain.HistoryQuery{SortBy: domain.SortByUnitNumber, SortOrder: "asc"})
	require.NoError(t, err)
	require.Equal(t, 3, all.Pagination.Total)
	var units []string
	for _, g := range all.Data {
		units = append(units, g.UnitNumber)
	}
	assert.Equal(t, []string{"C2", "C3", "C11"}, units)

	ph, err := r.GetGuestHistory(ctx, domain.PageParams{}, domain.HistoryQuery{Nationality: "PH"})
	require.NoError(t, err)
	require.Len(t, ph.Data, 1)
	assert.Equal(t, "Maria Santos", ph.Data[0].Name)

	search, err := r.GetGuestHistory(ctx, domain.PageParams{}, domain.HistoryQuery{Search: "EXAMPLE.COM"})
	require.NoError(t, err)
	assert.Len(t, search.Data, 1)

	byName, err := r.GetGuestHistory(ctx, domain.PageParams{Page: 2, Limit: 2}, domain.HistoryQuery{SortBy: domain.SortByName, SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, byName.Data, 1)
	assert.Equal(t, "Maria Santos", byName.Data[0].Name)
	assert.False(t, byName.Pagination.HasMore)
}

func testGuestHistorySearch(t *testing.T, ctx context.Context, r domain.Repositories) {
	for _, in := range []domain.GuestInput{
		{Name: "Aiko", UnitNumber: "C1"},
		{Name: "Émile", UnitNumber: "C2"},
	} {
		g, err := r.CreateGuest(ctx, in)
		require.NoError(t, err)
		_, err = r.CheckoutGuest(ctx, g.ID)
		require.NoError(t, err)
	}

	tests := []struct {
		search string
		want   int
	}{
		{"_", 0},
		{"%", 0},
		{"a%o", 0},
		{"émile", 1},
		{"ÉMILE", 1},
		{"ik", 1},
	}
	for _, tc := range tests {
		page, err := r.GetGuestHistory(ctx, domain.PageParams{}, domain.HistoryQuery{Search: tc.search})
		require.NoError(t, err)
		assert.Len(t, page.Data, tc.want, "search %q", tc.search)
		assert.Equal(t, tc.want, page.Pagination.Total, "search %q", tc.search)
	}
}

func testClaimToken(t *testing.T, ctx context.Context, r domain.Repositories) {
	_, err := r.CreateToken(ctx, domain.GuestToken{Token: "once", ExpiresAt: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	_, err = r.CreateToken(ctx, domain.GuestToken{Token: "stale", ExpiresAt: time.Now().Add(-time.Minute)})
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		claimed int
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := r.ClaimToken(ctx, "once")
			assert.NoError(t, err)
			if tok != nil {
				mu.Lock()
				claimed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, claimed)

	got, err := r.GetTokenByToken(ctx, "once")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsUsed)
	assert.NotNil(t, got.UsedAt)

	for _, token := range []string{"once", "stale", "nope"} {
		tok, err := r.ClaimToken(ctx, token)
		require.NoError(t, err)
		assert.Nil(t, tok, token)
	}
	stale, err := r.GetTokenByToken(ctx, "stale")
	require.NoError(t, err)
	require.NotNil(t, stale)
	assert.False(t, stale.IsUsed, "expired tokens are not claimed")
}

func testProblems(t *testing.T, ctx context.Context, r domain.Repositories) {
	mustUnit(t, ctx, r, "C1")
	older, err := r.CreateProblem(ctx, domain.Problem{
		UnitNumber: "C1", Description: "fan", ReportedBy: "sam",
		ReportedAt: time.Now().Add(-time.Hour), Notes: ptr("first look"),
	})
	require.NoError(t, err)
	assert.False(t, older.IsResolved)
	newer, err := r.CreateProblem(ctx, domain.Problem{UnitNumber: "C1", Description: "lamp"})
	require.NoError(t, err)

	active, err := r.GetActiveProblems(ctx, domain.PageParams{})
	require.NoError(t, err)
	require.Len(t, active.Data, 2)
	assert.Equal(t, newer.ID, active.Data[0].ID, "newest first")

	resolved, err := r.ResolveProblem(ctx, older.ID, "ana", nil)
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.True(t, resolved.IsResolved)
	require.NotNil(t, resolved.ResolvedBy)
	assert.Equal(t, "ana", *resolved.ResolvedBy)
	assert.NotNil(t, resolved.ResolvedAt)
	require.NotNil(t, resolved.Notes)
	assert.Equal(t, "first look", *resolved.Notes, "nil notes keep existing ones")

	active, err = r.GetActiveProblems(ctx, domain.PageParams{})
	require.NoError(t, err)
	assert.Equal(t, 1, active.Pagination.Total)

	every, err := r.GetProblems(ctx, domain.PageParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, every.Pagination.Total)

	edited, err := r.UpdateProblem(ctx, newer.ID, domain.ProblemPatch{Description: ptr("desk lamp")})
	require.NoError(t, err)
	require.NotNil(t, edited)
	assert.Equal(t, "desk lamp", edited.Description)

	none, err := r.ResolveProblem(ctx, "missing", "ana", nil)
	require.NoError(t, err)
	assert.Nil(t, none)

	ok, err := r.DeleteProblem(ctx, newer.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func testTokens(t *testing.T, ctx context.Context, r domain.Repositories) {
	live, err := r.CreateToken(ctx, domain.GuestToken{
		Token: "live", GuestName: "Aiko", UnitNumber: ptr("C1"),
		ExpiresAt: time.Now().Add(time.Hour), CreatedBy: "ana",
	})
	require.NoError(t, err)
	assert.False(t, live.IsUsed)

	_, err = r.CreateToken(ctx, domain.GuestToken{Token: "live", ExpiresAt: time.Now().Add(time.Hour)})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = r.CreateToken(ctx, domain.GuestToken{Token: "old", ExpiresAt: time.Now().Add(-time.Minute)})
	require.NoError(t, err)

	active, err := r.GetActiveTokens(ctx, domain.PageParams{})
	require.NoError(t, err)
	require.Len(t, active.Data, 1)
	assert.Equal(t, "live", active.Data[0].Token)

	moved, err := r.UpdateTokenUnit(ctx, live.ID, nil, true)
	require.NoError(t, err)
	require.NotNil(t, moved)
	assert.Nil(t, moved.UnitNumber)
	assert.True(t, moved.AutoAssign)

	used, err := r.MarkTokenUsed(ctx, "live")
	require.NoError(t, err)
	require.NotNil(t, used)
	assert.True(t, used.IsUsed)
	require.NotNil(t, used.UsedAt)
	firstUse := *used.UsedAt

	again, err := r.MarkTokenUsed(ctx, "live")
	require.NoError(t, err)
	require.NotNil(t, again)
	require.NotNil(t, again.UsedAt)
	assert.True(t, again.UsedAt.Equal(firstUse), "marking twice keeps the first use time")

	active, err = r.GetActiveTokens(ctx, domain.PageParams{})
	require.NoError(t, err)
	assert.Empty(t, active.Data)

	missing, err := r.MarkTokenUsed(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	n, err := r.CleanExpiredTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	byID, err := r.GetTokenByID(ctx, live.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)

	ok, err := r.DeleteToken(ctx, live.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	gone, err := r.GetTokenByToken(ctx, "live")
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func testNotifications(t *testing.T, ctx context.Context, r domain.Repositories) {
	var ids []string
	for _, title := range []string{"one", "two", "three"} {
		n, err := r.CreateNotification(ctx, domain.Notification{Type: "self_checkin", Title: title, Message: title, UnitNumber: ptr("C1")})
		require.NoError(t, err)
		assert.False(t, n.IsRead)
		ids = append(ids, n.ID)
	}

	read, err := r.MarkNotificationRead(ctx, ids[0])
	require.NoError(t, err)
	require.NotNil(t, read)
	assert.True(t, read.IsRead)

	unread, err := r.GetUnreadNotifications(ctx, domain.PageParams{})
	require.NoError(t, err)
	assert.Equal(t, 2, unread.Pagination.Total)

	n, err := r.MarkAllNotificationsRead(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all, err := r.GetNotifications(ctx, domain.PageParams{})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Pagination.Total)

	ok, err := r.DeleteNotification(ctx, ids[1])
	require.NoError(t, err)
	assert.True(t, ok)

	missing, err := r.MarkNotificationRead(ctx, ids[1])
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testPushSubscriptions(t *testing.T, ctx context.Context, r domain.Repositories) {
	ana := mustUser(t, ctx, r, "ana")
	ben := mustUser(t, ctx, r, "ben")

	first, err := r.SavePushSubscription(ctx, domain.PushSubscription{UserID: ana.ID, Endpoint: "https://push/1", P256dh: "k1", Auth: "a1"})
	require.NoError(t, err)
	replaced, err := r.SavePushSubscription(ctx, domain.PushSubscription{UserID: ben.ID, Endpoint: "https://push/1", P256dh: "k2", Auth: "a2"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, replaced.ID)
	assert.Equal(t, ben.ID, replaced.UserID)
	assert.Equal(t, "k2", replaced.P256dh)

	all, err := r.GetPushSubscriptions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	mine, err := r.GetPushSubscriptionsByUser(ctx, ana.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)

	require.NoError(t, r.TouchPushSubscription(ctx, "https://push/1"))
	subs, err := r.GetPushSubscriptionsByUser(ctx, ben.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.NotNil(t, subs[0].LastUsedAt)

	ok, err := r.DeletePushSubscription(ctx, "https://push/1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = r.DeletePushSubscription(ctx, "https://push/1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func testSettings(t *testing.T, ctx context.Context, r domain.Repositories) {
	_, err := r.SetSetting(ctx, domain.Setting{Key: "b", Value: "1", Type: domain.SettingTypeNumber})
	require.NoError(t, err)
	_, err = r.SetSetting(ctx, domain.Setting{Key: "a", Value: "x", Type: domain.SettingTypeString, UpdatedBy: "ana"})
	require.NoError(t, err)
	saved, err := r.SetSetting(ctx, domain.Setting{Key: "b", Value: "2", Type: domain.SettingTypeNumber})
	require.NoError(t, err)
	assert.Equal(t, "2", saved.Value)

	got, err := r.GetSetting(ctx, "b")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2", got.Value)
	assert.Equal(t, domain.SettingTypeNumber, got.Type)

	all, err := r.GetSettings(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Key)
	assert.Equal(t, "ana", all[0].UpdatedBy)

	ok, err := r.DeleteSetting(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	missing, err := r.GetSetting(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testExpenses(t *testing.T, ctx context.Context, r domain.Repositories) {
	day := func(s string) time.Time {
		d, err := time.Parse(domain.DayLayout, s)
		require.NoError(t, err)
		return d
	}
	_, err := r.CreateExpense(ctx, domain.Expense{Description: "soap", Amount: "12.50", Category: "supplies", Date: day("2024-03-01")})
	require.NoError(t, err)
	power, err := r.CreateExpense(ctx, domain.Expense{Description: "power", Amount: "300.00", Category: "utilities", Date: day("2024-03-05")})
	require.NoError(t, err)
	_, err = r.CreateExpense(ctx, domain.Expense{Description: "towels", Amount: "80.00", Category: "supplies", Date: day("2024-02-20")})
	require.NoError(t, err)

	all, err := r.GetExpenses(ctx, domain.ExpenseFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "power", all[0].Description)
	assert.Equal(t, "towels", all[2].Description)

	supplies, err := r.GetExpenses(ctx, domain.ExpenseFilter{Category: "supplies"})
	require.NoError(t, err)
	assert.Len(t, supplies, 2)

	from := day("2024-03-01")
	march, err := r.GetExpenses(ctx, domain.ExpenseFilter{From: &from})
	require.NoError(t, err)
	assert.Len(t, march, 2)

	to := day("2024-03-01")
	early, err := r.GetExpenses(ctx, domain.ExpenseFilter{To: &to, Category: "supplies"})
	require.NoError(t, err)
	assert.Len(t, early, 2)

	edited, err := r.UpdateExpense(ctx, power.ID, domain.ExpensePatch{Amount: ptr("310.00")})
	require.NoError(t, err)
	require.NotNil(t, edited)
	assert.Equal(t, "310.00", edited.Amount)
	assert.True(t, edited.Date.Equal(day("2024-03-05")))

	ok, err := r.DeleteExpense(ctx, power.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	gone, err := r.GetExpense(ctx, power.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func testNestedTx(t *testing.T, ctx context.Context, r domain.Repositories) {
	err := r.WithinTx(ctx, func(ctx context.Context) error {
		mustUnit(t, ctx, r, "C1")
		return r.WithinTx(ctx, func(ctx context.Context) error {
			_, err := r.UpdateUnit(ctx, "C1", domain.UnitPatch{Remark: ptr("inner")})
			return err
		})
	})
	require.NoError(t, err)

	u, err := r.GetUnitByNumber(ctx, "C1")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "inner", u.Remark)
}

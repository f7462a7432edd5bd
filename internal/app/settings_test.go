package app_test

import (
	"context"
	"testing"
	"time"

	"capsule/internal/adapter/memory"
	"capsule/internal/app"
	"capsule/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSettings(t *testing.T) (*app.SettingsService, *memory.DB) {
	t.Helper()
	db := memory.New()
	return app.NewSettingsService(db, zap.NewNop()), db
}

func TestSettingsDefaults(t *testing.T) {
	s, _ := newSettings(t)
	ctx := context.Background()

	days, err := s.GetInt(ctx, app.SettingMaxGuestStayDays)
	require.NoError(t, err)
	assert.Equal(t, 30, days)

	sections, err := s.GetStrings(ctx, app.SettingUnitSections)
	require.NoError(t, err)
	assert.Equal(t, []string{"back", "middle", "front"}, sections)

	show, err := s.GetBool(ctx, app.SettingShowGuideOnCheckin)
	require.NoError(t, err)
	assert.True(t, show)

	unknown, err := s.Get(ctx, "noSuchKey")
	require.NoError(t, err)
	assert.Nil(t, unknown)

	assert.Equal(t, 24*time.Hour, s.Hours(ctx, app.SettingSessionExpirationHours))
}

func TestSettingsRoundTrip(t *testing.T) {
	s, _ := newSettings(t)
	ctx := context.Background()

	saved, err := s.Set(ctx, app.SettingUnitSections, []string{"upper", "lower"}, "ana")
	require.NoError(t, err)
	assert.Equal(t, domain.SettingTypeArray, saved.Type)
	assert.Equal(t, "ana", saved.UpdatedBy)

	_, err = s.Set(ctx, app.SettingMaxGuestStayDays, 14, "ana")
	require.NoError(t, err)
	_, err = s.Set(ctx, app.SettingShowGuideOnCheckin, false, "ana")
	require.NoError(t, err)
	_, err = s.Set(ctx, app.SettingDefaultCheckoutTime, "11:30", "ana")
	require.NoError(t, err)

	s.Invalidate()

	sections, err := s.Get(ctx, app.SettingUnitSections)
	require.NoError(t, err)
	assert.Equal(t, []string{"upper", "lower"}, sections)

	days, err := s.Get(ctx, app.SettingMaxGuestStayDays)
	require.NoError(t, err)
	assert.Equal(t, 14, days)

	show, err := s.GetBool(ctx, app.SettingShowGuideOnCheckin)
	require.NoError(t, err)
	assert.False(t, show)

	checkout, err := s.GetString(ctx, app.SettingDefaultCheckoutTime)
	require.NoError(t, err)
	assert.Equal(t, "11:30", checkout)
}

func TestSettingsValidation(t *testing.T) {
	s, _ := newSettings(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"empty key", "", "x"},
		{"nil value", app.SettingGuideIntro, nil},
		{"wrong type", app.SettingMaxGuestStayDays, "fourteen"},
		{"hours too low", app.SettingGuestTokenExpirationHours, 0},
		{"hours too high", app.SettingSessionExpirationHours, 169},
		{"fractional days", app.SettingMaxGuestStayDays, 2.5},
		{"bad checkout time", app.SettingDefaultCheckoutTime, "noon"},
		{"unsupported value", "custom", map[string]int{"a": 1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Set(ctx, tc.key, tc.value, "ana")
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}

	// Keys without a default accept any supported type.
	_, err := s.Set(ctx, "customFlag", true, "ana")
	assert.NoError(t, err)
}

func TestSettingsLegacyUntaggedRow(t *testing.T) {
	s, db := newSettings(t)
	ctx := context.Background()

	_, err := db.SetSetting(ctx, domain.Setting{Key: app.SettingMaxGuestStayDays, Value: "14"})
	require.NoError(t, err)
	_, err = db.SetSetting(ctx, domain.Setting{Key: "legacyNote", Value: "hello"})
	require.NoError(t, err)

	days, err := s.GetInt(ctx, app.SettingMaxGuestStayDays)
	require.NoError(t, err)
	assert.Equal(t, 14, days)

	note, err := s.Get(ctx, "legacyNote")
	require.NoError(t, err)
	assert.Equal(t, "hello", note)
}

func TestSettingsReset(t *testing.T) {
	s, _ := newSettings(t)
	ctx := context.Background()

	_, err := s.Set(ctx, app.SettingAccommodationType, "room", "ana")
	require.NoError(t, err)
	require.NoError(t, s.Reset(ctx, app.SettingAccommodationType))

	v, err := s.GetString(ctx, app.SettingAccommodationType)
	require.NoError(t, err)
	assert.Equal(t, "capsule", v)
}

func TestSettingsAllAndKeys(t *testing.T) {
	s, _ := newSettings(t)
	ctx := context.Background()

	_, err := s.Set(ctx, "zzCustom", "x", "ana")
	require.NoError(t, err)

	all, err := s.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(app.DefaultSettings)+1)
	assert.Equal(t, "x", all["zzCustom"])

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	assert.IsNonDecreasing(t, keys)
	assert.Equal(t, "zzCustom", keys[len(keys)-1])
}

func TestSettingsHoursFallsBackOnBadValue(t *testing.T) {
	s, db := newSettings(t)
	ctx := context.Background()

	_, err := db.SetSetting(ctx, domain.Setting{Key: app.SettingGuestTokenExpirationHours, Value: "soon", Type: domain.SettingTypeString})
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, s.Hours(ctx, app.SettingGuestTokenExpirationHours))
}

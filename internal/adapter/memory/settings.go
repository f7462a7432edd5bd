package memory

import (
	"context"
	"sort"

	"capsule/internal/domain"
)

// GetSetting retrieves a setting by key.
func (db *DB) GetSetting(ctx context.Context, key string) (*domain.Setting, error) {
	defer db.lock(ctx)()
	if s, ok := db.settings[key]; ok {
		return &s, nil
	}
	return nil, nil
}

// GetSettings lists every stored setting ordered by key.
func (db *DB) GetSettings(ctx context.Context) ([]domain.Setting, error) {
	defer db.lock(ctx)()
	out := make([]domain.Setting, 0, len(db.settings))
	for _, s := range db.settings {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// SetSetting inserts or replaces a setting.
func (db *DB) SetSetting(ctx context.Context, s domain.Setting) (*domain.Setting, error) {
	defer db.lock(ctx)()
	s.UpdatedAt = db.now()
	db.settings[s.Key] = s
	return &s, nil
}

// DeleteSetting removes a setting.
func (db *DB) DeleteSetting(ctx context.Context, key string) (bool, error) {
	defer db.lock(ctx)()
	if _, ok := db.settings[key]; !ok {
		return false, nil
	}
	delete(db.settings, key)
	return true, nil
}

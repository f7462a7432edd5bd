package sqlstore

import (
	"context"

	"capsule/internal/domain"
)

const settingColumns = "setting_key, setting_value, value_type, description, updated_by, updated_at"

func scanSetting(r rowScanner) (domain.Setting, error) {
	var s domain.Setting
	err := r.Scan(&s.Key, &s.Value, &s.Type, &s.Description, &s.UpdatedBy, &s.UpdatedAt)
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, err
}

// GetSetting retrieves a setting by key.
func (d *DB) GetSetting(ctx context.Context, key string) (*domain.Setting, error) {
	return one(d.queryRow(ctx, "SELECT "+settingColumns+" FROM app_settings WHERE setting_key = ?", key), scanSetting)
}

// GetSettings lists every stored setting ordered by key.
func (d *DB) GetSettings(ctx context.Context) ([]domain.Setting, error) {
	rows, err := d.query(ctx, "SELECT "+settingColumns+" FROM app_settings ORDER BY setting_key")
	if err != nil {
		return nil, err
	}
	return all(rows, scanSetting)
}

// SetSetting inserts or replaces a setting.
func (d *DB) SetSetting(ctx context.Context, s domain.Setting) (*domain.Setting, error) {
	s.UpdatedAt = d.now()
	_, err := d.exec(ctx,
		`INSERT INTO app_settings (`+settingColumns+`) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (setting_key) DO UPDATE SET
			setting_value = excluded.setting_value, value_type = excluded.value_type,
			description = excluded.description, updated_by = excluded.updated_by,
			updated_at = excluded.updated_at`,
		s.Key, s.Value, s.Type, s.Description, s.UpdatedBy, s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// DeleteSetting removes a setting.
func (d *DB) DeleteSetting(ctx context.Context, key string) (bool, error) {
	n, err := d.affected(ctx, "DELETE FROM app_settings WHERE setting_key = ?", key)
	return n > 0, err
}

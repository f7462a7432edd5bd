package sqlstore

import (
	"context"
	"fmt"
	"strings"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT UNIQUE,
		email TEXT UNIQUE,
		password_hash TEXT NOT NULL DEFAULT '',
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		profile_image_url TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'staff',
		google_id TEXT UNIQUE,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		expires_at {{ts}} NOT NULL,
		created_at {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at)`,
	`CREATE TABLE IF NOT EXISTS units (
		id TEXT PRIMARY KEY,
		number TEXT NOT NULL UNIQUE,
		section TEXT NOT NULL DEFAULT '',
		is_available BOOLEAN NOT NULL DEFAULT TRUE,
		cleaning_status TEXT NOT NULL DEFAULT 'cleaned',
		last_cleaned_at {{ts}},
		last_cleaned_by TEXT,
		color TEXT NOT NULL DEFAULT '',
		position TEXT NOT NULL DEFAULT '',
		purchase_date TEXT,
		created_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS guests (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		unit_number TEXT NOT NULL,
		checkin_time {{ts}} NOT NULL,
		checkout_time {{ts}},
		expected_checkout_date TEXT,
		is_checked_in BOOLEAN NOT NULL DEFAULT TRUE,
		payment_amount TEXT NOT NULL DEFAULT '',
		payment_method TEXT NOT NULL DEFAULT '',
		payment_collector TEXT NOT NULL DEFAULT '',
		is_paid BOOLEAN NOT NULL DEFAULT FALSE,
		notes TEXT NOT NULL DEFAULT '',
		gender TEXT NOT NULL DEFAULT '',
		nationality TEXT NOT NULL DEFAULT '',
		phone_number TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		id_number TEXT NOT NULL DEFAULT '',
		emergency_contact TEXT NOT NULL DEFAULT '',
		emergency_phone TEXT NOT NULL DEFAULT '',
		age TEXT NOT NULL DEFAULT '',
		profile_photo_url TEXT NOT NULL DEFAULT '',
		self_checkin_token TEXT,
		created_at {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_guests_checked_in ON guests(is_checked_in, unit_number)`,
	`CREATE TABLE IF NOT EXISTS unit_problems (
		id TEXT PRIMARY KEY,
		unit_number TEXT NOT NULL REFERENCES units(number) ON DELETE CASCADE ON UPDATE CASCADE,
		description TEXT NOT NULL,
		reported_by TEXT NOT NULL DEFAULT '',
		reported_at {{ts}} NOT NULL,
		is_resolved BOOLEAN NOT NULL DEFAULT FALSE,
		resolved_by TEXT,
		resolved_at {{ts}},
		notes TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_unit_problems_unit ON unit_problems(unit_number, is_resolved)`,
	`CREATE TABLE IF NOT EXISTS guest_tokens (
		id TEXT PRIMARY KEY,
		token TEXT NOT NULL UNIQUE,
		unit_number TEXT,
		guest_name TEXT NOT NULL DEFAULT '',
		phone_number TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		expected_checkout_date TEXT,
		auto_assign BOOLEAN NOT NULL DEFAULT FALSE,
		created_by TEXT NOT NULL DEFAULT '',
		is_used BOOLEAN NOT NULL DEFAULT FALSE,
		used_at {{ts}},
		expires_at {{ts}} NOT NULL,
		created_at {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_guest_tokens_expires_at ON guest_tokens(expires_at)`,
	`CREATE TABLE IF NOT EXISTS admin_notifications (
		id TEXT PRIMARY KEY,
		notification_type TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		guest_id TEXT,
		unit_number TEXT,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		created_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS push_subscriptions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		endpoint TEXT NOT NULL UNIQUE,
		p256dh TEXT NOT NULL,
		auth TEXT NOT NULL,
		created_at {{ts}} NOT NULL,
		last_used_at {{ts}}
	)`,
	`CREATE TABLE IF NOT EXISTS app_settings (
		setting_key TEXT PRIMARY KEY,
		setting_value TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		updated_by TEXT NOT NULL DEFAULT '',
		updated_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS expenses (
		id TEXT PRIMARY KEY,
		description TEXT NOT NULL,
		amount TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		subcategory TEXT NOT NULL DEFAULT '',
		expense_date TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		receipt_photo_url TEXT NOT NULL DEFAULT '',
		item_photo_url TEXT NOT NULL DEFAULT '',
		created_by TEXT NOT NULL DEFAULT '',
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_expenses_date ON expenses(expense_date)`,
}

// widenedColumns were added after the first release. Rows that predate them
// get the column default, or NULL where no safe default exists.
var widenedColumns = []struct{ table, column, ddl string }{
	{"units", "to_rent", "BOOLEAN"},
	{"units", "remark", "TEXT NOT NULL DEFAULT ''"},
	{"app_settings", "value_type", "TEXT NOT NULL DEFAULT ''"},
}

func (d *DB) migrate(ctx context.Context) error {
	ts := "TIMESTAMPTZ"
	if d.driver == DriverSQLite {
		ts = "TIMESTAMP"
	}
	for _, stmt := range schema {
		if _, err := d.sql.ExecContext(ctx, strings.ReplaceAll(stmt, "{{ts}}", ts)); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	for _, c := range widenedColumns {
		if err := d.ensureColumn(ctx, c.table, c.column, c.ddl); err != nil {
			return fmt.Errorf("migrate: %s.%s: %w", c.table, c.column, err)
		}
	}
	return nil
}

func (d *DB) ensureColumn(ctx context.Context, table, column, ddl string) error {
	if d.driver == DriverPostgres {
		_, err := d.sql.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s %s", table, column, ddl))
		return err
	}
	var n int
	err := d.sql.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", table, column,
	).Scan(&n)
	if err != nil || n > 0 {
		return err
	}
	_, err = d.sql.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, ddl))
	return err
}

package sqlstore

import (
	"context"
	"database/sql"

	"capsule/internal/domain"
)

const unitColumns = "id, number, section, is_available, cleaning_status, to_rent, last_cleaned_at, last_cleaned_by, color, position, purchase_date, remark, created_at"

func scanUnit(r rowScanner) (domain.Unit, error) {
	var u domain.Unit
	var toRent sql.NullBool
	var cleanedAt sql.NullTime
	var cleanedBy, purchase sql.NullString
	if err := r.Scan(&u.ID, &u.Number, &u.Section, &u.IsAvailable, &u.CleaningStatus, &toRent,
		&cleanedAt, &cleanedBy, &u.Color, &u.Position, &purchase, &u.Remark, &u.CreatedAt); err != nil {
		return u, err
	}
	u.ToRent = boolPtr(toRent)
	u.LastCleanedAt = timePtr(cleanedAt)
	u.LastCleanedBy = stringPtr(cleanedBy)
	u.CreatedAt = u.CreatedAt.UTC()
	var err error
	u.PurchaseDate, err = dayPtr(purchase)
	return u, err
}

func (d *DB) unitsWhere(ctx context.Context, where string, args ...any) ([]domain.Unit, error) {
	rows, err := d.query(ctx, "SELECT "+unitColumns+" FROM units "+where, args...)
	if err != nil {
		return nil, err
	}
	units, err := all(rows, scanUnit)
	if err != nil {
		return nil, err
	}
	domain.SortUnits(units)
	return units, nil
}

// GetUnits returns all units in natural number order.
func (d *DB) GetUnits(ctx context.Context) ([]domain.Unit, error) {
	return d.unitsWhere(ctx, "")
}

// GetUnitByNumber retrieves a unit by its number.
func (d *DB) GetUnitByNumber(ctx context.Context, number string) (*domain.Unit, error) {
	return one(d.queryRow(ctx, "SELECT "+unitColumns+" FROM units WHERE number = ?", number), scanUnit)
}

// GetUnitByID retrieves a unit by ID.
func (d *DB) GetUnitByID(ctx context.Context, id string) (*domain.Unit, error) {
	return one(d.queryRow(ctx, "SELECT "+unitColumns+" FROM units WHERE id = ?", id), scanUnit)
}

// CreateUnit adds a unit. New units are rentable unless told otherwise.
func (d *DB) CreateUnit(ctx context.Context, u domain.Unit) (*domain.Unit, error) {
	u.ID = d.newID()
	if u.CleaningStatus == "" {
		u.CleaningStatus = domain.CleaningStatusCleaned
	}
	if u.ToRent == nil {
		rentable := true
		u.ToRent = &rentable
	}
	u.CreatedAt = d.now()
	_, err := d.exec(ctx,
		"INSERT INTO units ("+unitColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		u.ID, u.Number, u.Section, u.IsAvailable, u.CleaningStatus, nullBool(u.ToRent),
		nullTime(u.LastCleanedAt), nullString(u.LastCleanedBy), u.Color, u.Position,
		dayValue(u.PurchaseDate), u.Remark, u.CreatedAt,
	)
	if err != nil {
		return nil, conflict(err, "unit number")
	}
	return &u, nil
}

// UpdateUnit applies a partial update. Problems follow a renamed unit
// through the ON UPDATE CASCADE foreign key.
func (d *DB) UpdateUnit(ctx context.Context, number string, patch domain.UnitPatch) (*domain.Unit, error) {
	var out *domain.Unit
	err := d.WithinTx(ctx, func(ctx context.Context) error {
		u, err := d.GetUnitByNumber(ctx, number)
		if err != nil || u == nil {
			return err
		}
		patch.Apply(u)
		out = u
		return d.saveUnit(ctx, number, u)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (d *DB) saveUnit(ctx context.Context, number string, u *domain.Unit) error {
	_, err := d.exec(ctx,
		`UPDATE units SET number = ?, section = ?, is_available = ?, cleaning_status = ?, to_rent = ?,
			last_cleaned_at = ?, last_cleaned_by = ?, color = ?, position = ?, purchase_date = ?, remark = ?
		WHERE number = ?`,
		u.Number, u.Section, u.IsAvailable, u.CleaningStatus, nullBool(u.ToRent),
		nullTime(u.LastCleanedAt), nullString(u.LastCleanedBy), u.Color, u.Position,
		dayValue(u.PurchaseDate), u.Remark, number,
	)
	if err != nil {
		return conflict(err, "unit number")
	}
	return nil
}

// DeleteUnit removes a unit and every problem reported against it.
func (d *DB) DeleteUnit(ctx context.Context, number string) (bool, error) {
	var n int
	err := d.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := d.exec(ctx, "DELETE FROM unit_problems WHERE unit_number = ?", number); err != nil {
			return err
		}
		var err error
		n, err = d.affected(ctx, "DELETE FROM units WHERE number = ?", number)
		return err
	})
	return n > 0, err
}

// MarkUnitCleaned records that cleanedBy has just cleaned the unit.
func (d *DB) MarkUnitCleaned(ctx context.Context, number, cleanedBy string) (*domain.Unit, error) {
	n, err := d.affected(ctx,
		"UPDATE units SET cleaning_status = ?, last_cleaned_at = ?, last_cleaned_by = ? WHERE number = ?",
		domain.CleaningStatusCleaned, d.now(), cleanedBy, number,
	)
	if err != nil || n == 0 {
		return nil, err
	}
	return d.GetUnitByNumber(ctx, number)
}

// MarkUnitNeedsCleaning flags the unit dirty and clears the cleaning record.
func (d *DB) MarkUnitNeedsCleaning(ctx context.Context, number string) (*domain.Unit, error) {
	n, err := d.affected(ctx,
		"UPDATE units SET cleaning_status = ?, last_cleaned_at = NULL, last_cleaned_by = NULL WHERE number = ?",
		domain.CleaningStatusToBeCleaned, number,
	)
	if err != nil || n == 0 {
		return nil, err
	}
	return d.GetUnitByNumber(ctx, number)
}

// GetUnitsByCleaningStatus returns units in the given cleaning state.
func (d *DB) GetUnitsByCleaningStatus(ctx context.Context, status string) ([]domain.Unit, error) {
	return d.unitsWhere(ctx, "WHERE cleaning_status = ?", status)
}

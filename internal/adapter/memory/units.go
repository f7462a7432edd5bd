package memory

import (
	"context"
	"fmt"

	"capsule/internal/domain"
)

// GetUnits returns all units in natural number order.
func (db *DB) GetUnits(ctx context.Context) ([]domain.Unit, error) {
	defer db.lock(ctx)()
	return db.unitsWhere(func(domain.Unit) bool { return true }), nil
}

// GetUnitByNumber retrieves a unit by its number.
func (db *DB) GetUnitByNumber(ctx context.Context, number string) (*domain.Unit, error) {
	defer db.lock(ctx)()
	if u, ok := db.units[number]; ok {
		return ptr(cloneUnit(u)), nil
	}
	return nil, nil
}

// GetUnitByID retrieves a unit by ID.
func (db *DB) GetUnitByID(ctx context.Context, id string) (*domain.Unit, error) {
	defer db.lock(ctx)()
	for _, u := range db.units {
		if u.ID == id {
			return ptr(cloneUnit(u)), nil
		}
	}
	return nil, nil
}

// CreateUnit adds a unit. Numbers are unique; new units are rentable unless
// told otherwise.
func (db *DB) CreateUnit(ctx context.Context, u domain.Unit) (*domain.Unit, error) {
	defer db.lock(ctx)()
	if _, exists := db.units[u.Number]; exists {
		return nil, fmt.Errorf("unit %q: %w", u.Number, domain.ErrConflict)
	}
	u.ID = db.newID()
	if u.CleaningStatus == "" {
		u.CleaningStatus = domain.CleaningStatusCleaned
	}
	if u.ToRent == nil {
		u.ToRent = ptr(true)
	}
	u.CreatedAt = db.now()
	db.units[u.Number] = cloneUnit(u)
	return ptr(cloneUnit(u)), nil
}

// UpdateUnit applies a partial update. A renamed unit keeps its problems.
func (db *DB) UpdateUnit(ctx context.Context, number string, patch domain.UnitPatch) (*domain.Unit, error) {
	defer db.lock(ctx)()
	u, ok := db.units[number]
	if !ok {
		return nil, nil
	}
	patch.Apply(&u)
	if u.Number != number {
		if _, exists := db.units[u.Number]; exists {
			return nil, fmt.Errorf("unit %q: %w", u.Number, domain.ErrConflict)
		}
		delete(db.units, number)
		for id, p := range db.problems {
			if p.UnitNumber == number {
				p.UnitNumber = u.Number
				db.problems[id] = cloneProblem(p)
			}
		}
	}
	db.units[u.Number] = cloneUnit(u)
	return ptr(cloneUnit(u)), nil
}

// DeleteUnit removes a unit and every problem reported against it.
func (db *DB) DeleteUnit(ctx context.Context, number string) (bool, error) {
	defer db.lock(ctx)()
	if _, ok := db.units[number]; !ok {
		return false, nil
	}
	for id, p := range db.problems {
		if p.UnitNumber == number {
			delete(db.problems, id)
		}
	}
	delete(db.units, number)
	return true, nil
}

// MarkUnitCleaned records that cleanedBy has just cleaned the unit.
func (db *DB) MarkUnitCleaned(ctx context.Context, number, cleanedBy string) (*domain.Unit, error) {
	defer db.lock(ctx)()
	u, ok := db.units[number]
	if !ok {
		return nil, nil
	}
	u.CleaningStatus = domain.CleaningStatusCleaned
	u.LastCleanedAt = ptr(db.now())
	u.LastCleanedBy = ptr(cleanedBy)
	db.units[number] = cloneUnit(u)
	return ptr(cloneUnit(u)), nil
}

// MarkUnitNeedsCleaning flags the unit dirty and clears the cleaning record.
func (db *DB) MarkUnitNeedsCleaning(ctx context.Context, number string) (*domain.Unit, error) {
	defer db.lock(ctx)()
	u, ok := db.units[number]
	if !ok {
		return nil, nil
	}
	u.CleaningStatus = domain.CleaningStatusToBeCleaned
	u.LastCleanedAt = nil
	u.LastCleanedBy = nil
	db.units[number] = cloneUnit(u)
	return ptr(cloneUnit(u)), nil
}

// GetUnitsByCleaningStatus returns units in the given cleaning state.
func (db *DB) GetUnitsByCleaningStatus(ctx context.Context, status string) ([]domain.Unit, error) {
	defer db.lock(ctx)()
	return db.unitsWhere(func(u domain.Unit) bool { return u.CleaningStatus == status }), nil
}

func (db *DB) unitsWhere(match func(domain.Unit) bool) []domain.Unit {
	out := make([]domain.Unit, 0, len(db.units))
	for _, u := range db.units {
		if match(u) {
			out = append(out, cloneUnit(u))
		}
	}
	domain.SortUnits(out)
	return out
}

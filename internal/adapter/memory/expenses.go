package memory

import (
	"context"
	"sort"

	"capsule/internal/domain"
)

// GetExpenses lists expenses matching f, newest date first.
func (db *DB) GetExpenses(ctx context.Context, f domain.ExpenseFilter) ([]domain.Expense, error) {
	defer db.lock(ctx)()
	out := make([]domain.Expense, 0)
	for _, e := range db.expenses {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// GetExpense retrieves an expense by ID.
func (db *DB) GetExpense(ctx context.Context, id string) (*domain.Expense, error) {
	defer db.lock(ctx)()
	if e, ok := db.expenses[id]; ok {
		return &e, nil
	}
	return nil, nil
}

// CreateExpense records an expense.
func (db *DB) CreateExpense(ctx context.Context, e domain.Expense) (*domain.Expense, error) {
	defer db.lock(ctx)()
	now := db.now()
	e.ID = db.newID()
	e.Date = domain.Day(e.Date)
	e.CreatedAt = now
	e.UpdatedAt = now
	db.expenses[e.ID] = e
	return &e, nil
}

// UpdateExpense applies a partial update to an expense.
func (db *DB) UpdateExpense(ctx context.Context, id string, patch domain.ExpensePatch) (*domain.Expense, error) {
	defer db.lock(ctx)()
	e, ok := db.expenses[id]
	if !ok {
		return nil, nil
	}
	patch.Apply(&e)
	e.UpdatedAt = db.now()
	db.expenses[id] = e
	return &e, nil
}

// DeleteExpense removes an expense.
func (db *DB) DeleteExpense(ctx context.Context, id string) (bool, error) {
	defer db.lock(ctx)()
	if _, ok := db.expenses[id]; !ok {
		return false, nil
	}
	delete(db.expenses, id)
	return true, nil
}

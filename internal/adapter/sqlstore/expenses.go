package sqlstore

import (
	"context"
	"database/sql"
	"strings"

	"capsule/internal/domain"
)

const expenseColumns = `id, description, amount, category, subcategory, expense_date, notes,
	receipt_photo_url, item_photo_url, created_by, created_at, updated_at`

func scanExpense(r rowScanner) (domain.Expense, error) {
	var e domain.Expense
	var date string
	if err := r.Scan(&e.ID, &e.Description, &e.Amount, &e.Category, &e.Subcategory, &date, &e.Notes,
		&e.ReceiptPhotoURL, &e.ItemPhotoURL, &e.CreatedBy, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return e, err
	}
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	day, err := dayPtr(sql.NullString{String: date, Valid: true})
	if day != nil {
		e.Date = *day
	}
	return e, err
}

// GetExpenses lists expenses matching f, newest date first.
func (d *DB) GetExpenses(ctx context.Context, f domain.ExpenseFilter) ([]domain.Expense, error) {
	var where []string
	var args []any
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.From != nil {
		where = append(where, "expense_date >= ?")
		args = append(args, domain.Day(*f.From).Format(domain.DayLayout))
	}
	if f.To != nil {
		where = append(where, "expense_date <= ?")
		args = append(args, domain.Day(*f.To).Format(domain.DayLayout))
	}
	q := "SELECT " + expenseColumns + " FROM expenses"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	rows, err := d.query(ctx, q+" ORDER BY expense_date DESC, created_at DESC", args...)
	if err != nil {
		return nil, err
	}
	return all(rows, scanExpense)
}

// GetExpense retrieves an expense by ID.
func (d *DB) GetExpense(ctx context.Context, id string) (*domain.Expense, error) {
	return one(d.queryRow(ctx, "SELECT "+expenseColumns+" FROM expenses WHERE id = ?", id), scanExpense)
}

// CreateExpense records an expense.
func (d *DB) CreateExpense(ctx context.Context, e domain.Expense) (*domain.Expense, error) {
	now := d.now()
	e.ID = d.newID()
	e.Date = domain.Day(e.Date)
	e.CreatedAt = now
	e.UpdatedAt = now
	_, err := d.exec(ctx,
		"INSERT INTO expenses ("+expenseColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		e.ID, e.Description, e.Amount, e.Category, e.Subcategory, dayValue(&e.Date), e.Notes,
		e.ReceiptPhotoURL, e.ItemPhotoURL, e.CreatedBy, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// UpdateExpense applies a partial update to an expense.
func (d *DB) UpdateExpense(ctx context.Context, id string, patch domain.ExpensePatch) (*domain.Expense, error) {
	var out *domain.Expense
	err := d.WithinTx(ctx, func(ctx context.Context) error {
		e, err := d.GetExpense(ctx, id)
		if err != nil || e == nil {
			return err
		}
		patch.Apply(e)
		e.UpdatedAt = d.now()
		_, err = d.exec(ctx,
			`UPDATE expenses SET description = ?, amount = ?, category = ?, subcategory = ?, expense_date = ?,
				notes = ?, receipt_photo_url = ?, item_photo_url = ?, updated_at = ? WHERE id = ?`,
			e.Description, e.Amount, e.Category, e.Subcategory, dayValue(&e.Date),
			e.Notes, e.ReceiptPhotoURL, e.ItemPhotoURL, e.UpdatedAt, id,
		)
		out = e
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteExpense removes an expense.
func (d *DB) DeleteExpense(ctx context.Context, id string) (bool, error) {
	n, err := d.affected(ctx, "DELETE FROM expenses WHERE id = ?", id)
	return n > 0, err
}

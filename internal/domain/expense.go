package domain

import (
	"context"
	"time"
)

// Expense is a ledger line item. Amount is a decimal string.
type Expense struct {
	ID              string    `json:"id"`
	Description     string    `json:"description"`
	Amount          string    `json:"amount"`
	Category        string    `json:"category"`
	Subcategory     string    `json:"subcategory"`
	Date            time.Time `json:"date"`
	Notes           string    `json:"notes"`
	ReceiptPhotoURL string    `json:"receiptPhotoUrl"`
	ItemPhotoURL    string    `json:"itemPhotoUrl"`
	CreatedBy       string    `json:"createdBy"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ExpensePatch carries the fields of a partial expense update.
type ExpensePatch struct {
	Description     *string
	Amount          *string
	Category        *string
	Subcategory     *string
	Date            *time.Time
	Notes           *string
	ReceiptPhotoURL *string
	ItemPhotoURL    *string
}

// Apply copies the set fields of p onto e.
func (p ExpensePatch) Apply(e *Expense) {
	setString(&e.Description, p.Description)
	setString(&e.Amount, p.Amount)
	setString(&e.Category, p.Category)
	setString(&e.Subcategory, p.Subcategory)
	if p.Date != nil {
		e.Date = Day(*p.Date)
	}
	setString(&e.Notes, p.Notes)
	setString(&e.ReceiptPhotoURL, p.ReceiptPhotoURL)
	setString(&e.ItemPhotoURL, p.ItemPhotoURL)
}

// ExpenseFilter narrows an expense listing; zero values match everything.
type ExpenseFilter struct {
	Category string
	From     *time.Time
	To       *time.Time
}

// Matches reports whether e passes the filter. From and To are inclusive days.
func (f ExpenseFilter) Matches(e Expense) bool {
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.From != nil && e.Date.Before(Day(*f.From)) {
		return false
	}
	if f.To != nil && e.Date.After(Day(*f.To)) {
		return false
	}
	return true
}

// ExpenseRepository is the port for expense persistence. Listings are
// ordered by date, newest first.
type ExpenseRepository interface {
	GetExpenses(ctx context.Context, f ExpenseFilter) ([]Expense, error)
	GetExpense(ctx context.Context, id string) (*Expense, error)
	CreateExpense(ctx context.Context, e Expense) (*Expense, error)
	UpdateExpense(ctx context.Context, id string, patch ExpensePatch) (*Expense, error)
	DeleteExpense(ctx context.Context, id string) (bool, error)
}

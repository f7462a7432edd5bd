package app

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"capsule/internal/domain"
)

// ExpenseService encapsulates expense-ledger use cases.
type ExpenseService struct {
	repo domain.ExpenseRepository
}

// NewExpenseService creates an ExpenseService backed by the given repository.
func NewExpenseService(repo domain.ExpenseRepository) *ExpenseService {
	return &ExpenseService{repo: repo}
}

// Record validates and stores an expense. The amount is normalised to two
// decimal places.
func (s *ExpenseService) Record(ctx context.Context, e domain.Expense) (*domain.Expense, error) {
	if strings.TrimSpace(e.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", domain.ErrValidation)
	}
	amount, err := normaliseAmount(e.Amount)
	if err != nil {
		return nil, err
	}
	e.Amount = amount
	if e.Date.IsZero() {
		e.Date = time.Now().UTC()
	}
	return s.repo.CreateExpense(ctx, e)
}

// Update validates and applies a partial update.
func (s *ExpenseService) Update(ctx context.Context, id string, patch domain.ExpensePatch) (*domain.Expense, error) {
	if patch.Description != nil && strings.TrimSpace(*patch.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", domain.ErrValidation)
	}
	if patch.Amount != nil {
		amount, err := normaliseAmount(*patch.Amount)
		if err != nil {
			return nil, err
		}
		patch.Amount = &amount
	}
	return s.repo.UpdateExpense(ctx, id, patch)
}

// List returns expenses matching f, newest first.
func (s *ExpenseService) List(ctx context.Context, f domain.ExpenseFilter) ([]domain.Expense, error) {
	return s.repo.GetExpenses(ctx, f)
}

// Total sums the expenses matching f.
func (s *ExpenseService) Total(ctx context.Context, f domain.ExpenseFilter) (string, error) {
	items, err := s.repo.GetExpenses(ctx, f)
	if err != nil {
		return "", err
	}
	sum := new(big.Rat)
	for _, e := range items {
		r, ok := new(big.Rat).SetString(e.Amount)
		if !ok {
			return "", fmt.Errorf("expense %s: bad amount %q", e.ID, e.Amount)
		}
		sum.Add(sum, r)
	}
	return sum.FloatString(2), nil
}

// Delete removes an expense.
func (s *ExpenseService) Delete(ctx context.Context, id string) (bool, error) {
	return s.repo.DeleteExpense(ctx, id)
}

func normaliseAmount(raw string) (string, error) {
	r, ok := new(big.Rat).SetString(strings.TrimSpace(raw))
	if !ok || r.Sign() <= 0 {
		return "", fmt.Errorf("%w: amount must be a positive decimal", domain.ErrValidation)
	}
	return r.FloatString(2), nil
}

package sqlstore

import (
	"context"
	"database/sql"

	"capsule/internal/domain"
)

const problemColumns = "id, unit_number, description, reported_by, reported_at, is_resolved, resolved_by, resolved_at, notes"

func scanProblem(r rowScanner) (domain.Problem, error) {
	var p domain.Problem
	var resolvedBy, notes sql.NullString
	var resolvedAt sql.NullTime
	err := r.Scan(&p.ID, &p.UnitNumber, &p.Description, &p.ReportedBy, &p.ReportedAt, &p.IsResolved,
		&resolvedBy, &resolvedAt, &notes)
	p.ReportedAt = p.ReportedAt.UTC()
	p.ResolvedBy = stringPtr(resolvedBy)
	p.ResolvedAt = timePtr(resolvedAt)
	p.Notes = stringPtr(notes)
	return p, err
}

// CreateProblem records a maintenance problem. The unit must exist.
func (d *DB) CreateProblem(ctx context.Context, p domain.Problem) (*domain.Problem, error) {
	p.ID = d.newID()
	if p.ReportedAt.IsZero() {
		p.ReportedAt = d.now()
	}
	p.ReportedAt = p.ReportedAt.UTC()
	p.IsResolved = false
	p.ResolvedBy = nil
	p.ResolvedAt = nil
	_, err := d.exec(ctx,
		"INSERT INTO unit_problems ("+problemColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		p.ID, p.UnitNumber, p.Description, p.ReportedBy, p.ReportedAt, false, nil, nil, nullString(p.Notes),
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProblemsByUnit lists every problem reported against a unit.
func (d *DB) GetProblemsByUnit(ctx context.Context, unitNumber string) ([]domain.Problem, error) {
	rows, err := d.query(ctx,
		"SELECT "+problemColumns+" FROM unit_problems WHERE unit_number = ? ORDER BY reported_at DESC", unitNumber)
	if err != nil {
		return nil, err
	}
	return all(rows, scanProblem)
}

// GetActiveProblems pages through unresolved problems.
func (d *DB) GetActiveProblems(ctx context.Context, p domain.PageParams) (domain.Page[domain.Problem], error) {
	return page(ctx, d, p,
		"SELECT COUNT(*) FROM unit_problems WHERE is_resolved = ?",
		"SELECT "+problemColumns+" FROM unit_problems WHERE is_resolved = ? ORDER BY reported_at DESC", scanProblem, false)
}

// GetProblems pages through all problems.
func (d *DB) GetProblems(ctx context.Context, p domain.PageParams) (domain.Page[domain.Problem], error) {
	return page(ctx, d, p,
		"SELECT COUNT(*) FROM unit_problems",
		"SELECT "+problemColumns+" FROM unit_problems ORDER BY reported_at DESC", scanProblem)
}

func (d *DB) getProblem(ctx context.Context, id string) (*domain.Problem, error) {
	return one(d.queryRow(ctx, "SELECT "+problemColumns+" FROM unit_problems WHERE id = ?", id), scanProblem)
}

// UpdateProblem applies a partial update to a problem.
func (d *DB) UpdateProblem(ctx context.Context, id string, patch domain.ProblemPatch) (*domain.Problem, error) {
	var out *domain.Problem
	err := d.WithinTx(ctx, func(ctx context.Context) error {
		p, err := d.getProblem(ctx, id)
		if err != nil || p == nil {
			return err
		}
		patch.Apply(p)
		_, err = d.exec(ctx,
			"UPDATE unit_problems SET description = ?, reported_by = ?, notes = ? WHERE id = ?",
			p.Description, p.ReportedBy, nullString(p.Notes), id,
		)
		out = p
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ResolveProblem closes a problem on behalf of resolvedBy. Nil notes keep
// whatever notes the problem already has.
func (d *DB) ResolveProblem(ctx context.Context, id, resolvedBy string, notes *string) (*domain.Problem, error) {
	n, err := d.affected(ctx,
		"UPDATE unit_problems SET is_resolved = ?, resolved_by = ?, resolved_at = ?, notes = COALESCE(?, notes) WHERE id = ?",
		true, resolvedBy, d.now(), nullString(notes), id,
	)
	if err != nil || n == 0 {
		return nil, err
	}
	return d.getProblem(ctx, id)
}

// DeleteProblem removes a problem.
func (d *DB) DeleteProblem(ctx context.Context, id string) (bool, error) {
	n, err := d.affected(ctx, "DELETE FROM unit_problems WHERE id = ?", id)
	return n > 0, err
}

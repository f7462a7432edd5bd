package memory

import (
	"context"
	"sort"

	"capsule/internal/domain"
)

// CreateProblem records a maintenance problem.
func (db *DB) CreateProblem(ctx context.Context, p domain.Problem) (*domain.Problem, error) {
	defer db.lock(ctx)()
	p.ID = db.newID()
	if p.ReportedAt.IsZero() {
		p.ReportedAt = db.now()
	}
	p.IsResolved = false
	p.ResolvedAt = nil
	p.ResolvedBy = nil
	db.problems[p.ID] = cloneProblem(p)
	return ptr(cloneProblem(p)), nil
}

// GetProblemsByUnit lists every problem reported against a unit.
func (db *DB) GetProblemsByUnit(ctx context.Context, unitNumber string) ([]domain.Problem, error) {
	defer db.lock(ctx)()
	return db.problemsWhere(func(p domain.Problem) bool { return p.UnitNumber == unitNumber }), nil
}

// GetActiveProblems pages through unresolved problems.
func (db *DB) GetActiveProblems(ctx context.Context, p domain.PageParams) (domain.Page[domain.Problem], error) {
	defer db.lock(ctx)()
	return domain.Paginate(db.problemsWhere(func(pr domain.Problem) bool { return !pr.IsResolved }), p), nil
}

// GetProblems pages through all problems.
func (db *DB) GetProblems(ctx context.Context, p domain.PageParams) (domain.Page[domain.Problem], error) {
	defer db.lock(ctx)()
	return domain.Paginate(db.problemsWhere(func(domain.Problem) bool { return true }), p), nil
}

// UpdateProblem applies a partial update to a problem.
func (db *DB) UpdateProblem(ctx context.Context, id string, patch domain.ProblemPatch) (*domain.Problem, error) {
	defer db.lock(ctx)()
	p, ok := db.problems[id]
	if !ok {
		return nil, nil
	}
	patch.Apply(&p)
	db.problems[id] = cloneProblem(p)
	return ptr(cloneProblem(p)), nil
}

// ResolveProblem closes a problem on behalf of resolvedBy.
func (db *DB) ResolveProblem(ctx context.Context, id, resolvedBy string, notes *string) (*domain.Problem, error) {
	defer db.lock(ctx)()
	p, ok := db.problems[id]
	if !ok {
		return nil, nil
	}
	p.IsResolved = true
	p.ResolvedBy = ptr(resolvedBy)
	p.ResolvedAt = ptr(db.now())
	if notes != nil {
		p.Notes = notes
	}
	db.problems[id] = cloneProblem(p)
	return ptr(cloneProblem(p)), nil
}

// DeleteProblem removes a problem.
func (db *DB) DeleteProblem(ctx context.Context, id string) (bool, error) {
	defer db.lock(ctx)()
	if _, ok := db.problems[id]; !ok {
		return false, nil
	}
	delete(db.problems, id)
	return true, nil
}

func (db *DB) problemsWhere(match func(domain.Problem) bool) []domain.Problem {
	out := make([]domain.Problem, 0)
	for _, p := range db.problems {
		if match(p) {
			out = append(out, cloneProblem(p))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ReportedAt.After(out[j].ReportedAt) })
	return out
}

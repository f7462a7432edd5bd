package domain

import (
	"context"
	"time"
)

// Attribution used when a problem is closed automatically.
const (
	SystemResolver   = "System"
	AutoResolveNotes = "auto-resolved on availability restore"
)

// Problem is a maintenance issue reported against a unit.
type Problem struct {
	ID          string     `json:"id"`
	UnitNumber  string     `json:"unitNumber"`
	Description string     `json:"description"`
	ReportedBy  string     `json:"reportedBy"`
	ReportedAt  time.Time  `json:"reportedAt"`
	IsResolved  bool       `json:"isResolved"`
	ResolvedBy  *string    `json:"resolvedBy"`
	ResolvedAt  *time.Time `json:"resolvedAt"`
	Notes       *string    `json:"notes"`
}

// ProblemPatch carries the fields of a partial problem update.
type ProblemPatch struct {
	Description *string
	ReportedBy  *string
	Notes       *string
}

// Apply copies the set fields of p onto pr.
func (p ProblemPatch) Apply(pr *Problem) {
	setString(&pr.Description, p.Description)
	setString(&pr.ReportedBy, p.ReportedBy)
	if p.Notes != nil {
		pr.Notes = p.Notes
	}
}

// ProblemRepository is the port for maintenance problem persistence. Lists
// are ordered newest-reported first.
type ProblemRepository interface {
	CreateProblem(ctx context.Context, p Problem) (*Problem, error)
	GetProblemsByUnit(ctx context.Context, unitNumber string) ([]Problem, error)
	GetActiveProblems(ctx context.Context, p PageParams) (Page[Problem], error)
	GetProblems(ctx context.Context, p PageParams) (Page[Problem], error)
	UpdateProblem(ctx context.Context, id string, patch ProblemPatch) (*Problem, error)
	ResolveProblem(ctx context.Context, id, resolvedBy string, notes *string) (*Problem, error)
	DeleteProblem(ctx context.Context, id string) (bool, error)
}

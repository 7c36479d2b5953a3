package org

import (
	"context"
	"time"
)

// StoreAPI is the record-store boundary the snapshot and rating services
// depend on.
type StoreAPI interface {
	ListBranches(ctx context.Context) ([]Branch, error)
	CreateBranch(ctx context.Context, name string) (Branch, error)
	DeleteBranch(ctx context.Context, branchID string) error
	ListEmployees(ctx context.Context) ([]Employee, error)
	CreateEmployee(ctx context.Context, fullName, position, branchID string) (Employee, error)
	DeleteEmployee(ctx context.Context, employeeID string) error
	EvaluationExists(ctx context.Context, employeeID string) (bool, error)
	InsertEvaluation(ctx context.Context, employeeID string, rating Rating, raterID string, at time.Time) error
	UpdateEvaluation(ctx context.Context, employeeID string, rating Rating, raterID string, at time.Time) error
}

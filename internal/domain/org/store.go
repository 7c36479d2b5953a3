package org

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"upr360/internal/platform/db"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
)

type Store struct {
	DB db.Queryer
}

func NewStore(q db.Queryer) *Store {
	return &Store{DB: q}
}

func (s *Store) ListBranches(ctx context.Context) ([]Branch, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, name
    FROM branches
    ORDER BY name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	branches := make([]Branch, 0, 16)
	for rows.Next() {
		var b Branch
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}
	return branches, rows.Err()
}

func (s *Store) CreateBranch(ctx context.Context, name string) (Branch, error) {
	var b Branch
	err := s.DB.QueryRow(ctx, `
    INSERT INTO branches (name)
    VALUES ($1)
    RETURNING id, name
  `, name).Scan(&b.ID, &b.Name)
	if isPgError(err, uniqueViolationCode) {
		return Branch{}, ErrBranchNameTaken
	}
	if err != nil {
		return Branch{}, err
	}
	return b, nil
}

// DeleteBranch removes the branch; employees and their evaluations go with it
// through the ON DELETE CASCADE rules.
func (s *Store) DeleteBranch(ctx context.Context, branchID string) error {
	tag, err := s.DB.Exec(ctx, `
    DELETE FROM branches
    WHERE id = $1
  `, branchID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListEmployees returns every employee joined with its branch name and
// at-most-one evaluation row, flattened into the merged Employee view.
func (s *Store) ListEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT e.id, e.full_name, e.position, e.branch_id, b.name,
           COALESCE(ev.rating, ''),
           ev.evaluated_at,
           COALESCE(ev.evaluated_by::text, '')
    FROM employees e
    JOIN branches b ON b.id = e.branch_id
    LEFT JOIN evaluations ev ON ev.employee_id = e.id
    ORDER BY e.full_name
  `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]Employee, 0, 64)
	for rows.Next() {
		var emp Employee
		var rating string
		if err := rows.Scan(&emp.ID, &emp.FullName, &emp.Position, &emp.BranchID, &emp.BranchName,
			&rating, &emp.EvaluatedAt, &emp.EvaluatedBy); err != nil {
			return nil, err
		}
		emp.Rating = Rating(rating)
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

func (s *Store) CreateEmployee(ctx context.Context, fullName, position, branchID string) (Employee, error) {
	var emp Employee
	err := s.DB.QueryRow(ctx, `
    WITH created AS (
      INSERT INTO employees (full_name, position, branch_id)
      VALUES ($1, $2, $3)
      RETURNING id, full_name, position, branch_id
    )
    SELECT c.id, c.full_name, c.position, c.branch_id, b.name
    FROM created c
    JOIN branches b ON b.id = c.branch_id
  `, fullName, position, branchID).Scan(&emp.ID, &emp.FullName, &emp.Position, &emp.BranchID, &emp.BranchName)
	if isPgError(err, foreignKeyViolationCode) {
		return Employee{}, ErrUnknownBranch
	}
	if err != nil {
		return Employee{}, err
	}
	return emp, nil
}

func (s *Store) DeleteEmployee(ctx context.Context, employeeID string) error {
	tag, err := s.DB.Exec(ctx, `
    DELETE FROM employees
    WHERE id = $1
  `, employeeID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) EvaluationExists(ctx context.Context, employeeID string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM evaluations
    WHERE employee_id = $1
  `, employeeID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) InsertEvaluation(ctx context.Context, employeeID string, rating Rating, raterID string, at time.Time) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO evaluations (employee_id, rating, evaluated_by, evaluated_at)
    VALUES ($1, $2, $3, $4)
  `, employeeID, string(rating), raterID, at)
	return err
}

func (s *Store) UpdateEvaluation(ctx context.Context, employeeID string, rating Rating, raterID string, at time.Time) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE evaluations
    SET rating = $1, evaluated_by = $2, evaluated_at = $3
    WHERE employee_id = $4
  `, string(rating), raterID, at, employeeID)
	return err
}

func isPgError(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

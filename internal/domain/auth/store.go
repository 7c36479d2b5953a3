package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"upr360/internal/platform/db"
)

const uniqueViolationCode = "23505"

type Store struct {
	DB db.Queryer
}

func NewStore(q db.Queryer) *Store {
	return &Store{DB: q}
}

// Credentials returns the user id and password hash for an email, or
// ErrInvalidCredentials when no such user exists.
func (s *Store) Credentials(ctx context.Context, email string) (string, string, error) {
	var id, hash string
	err := s.DB.QueryRow(ctx, `
    SELECT id, password_hash
    FROM users
    WHERE email = $1
  `, email).Scan(&id, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", "", ErrInvalidCredentials
	}
	if err != nil {
		return "", "", err
	}
	return id, hash, nil
}

// Identity resolves a user id into the merged identity view: profile fields
// plus the role row (if any) and branch assignment. Role assignment lives in
// user_roles, not on the user itself.
func (s *Store) Identity(ctx context.Context, userID string) (Identity, error) {
	var ident Identity
	var role, branchID *string
	err := s.DB.QueryRow(ctx, `
    SELECT u.id, p.email, p.full_name, r.role, p.branch_id::text
    FROM users u
    JOIN profiles p ON p.id = u.id
    LEFT JOIN user_roles r ON r.user_id = u.id
    WHERE u.id = $1
  `, userID).Scan(&ident.UserID, &ident.Email, &ident.FullName, &role, &branchID)
	if err != nil {
		return Identity{}, err
	}
	if role != nil {
		ident.Role = *role
	}
	if branchID != nil {
		ident.BranchID = *branchID
	}
	return ident, nil
}

// Register creates the user and its profile in one statement. The email
// unique constraint maps to ErrEmailTaken.
func (s *Store) Register(ctx context.Context, email, passwordHash, fullName string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    WITH created AS (
      INSERT INTO users (email, password_hash)
      VALUES ($1, $2)
      RETURNING id, email
    )
    INSERT INTO profiles (id, email, full_name)
    SELECT id, email, $3 FROM created
    RETURNING id
  `, email, passwordHash, fullName).Scan(&id)
	if isUniqueViolation(err) {
		return "", ErrEmailTaken
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) AdminExists(ctx context.Context) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM user_roles
    WHERE role = $1
  `, RoleAdmin).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ClaimAdmin performs the first-run bootstrap: the admin-existence check runs
// at claim time, and the partial unique index on user_roles turns a lost race
// into ErrAdminExists rather than a second admin.
func (s *Store) ClaimAdmin(ctx context.Context, userID string) error {
	exists, err := s.AdminExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return ErrAdminExists
	}

	_, err = s.DB.Exec(ctx, `
    INSERT INTO user_roles (user_id, role)
    VALUES ($1, $2)
  `, userID, RoleAdmin)
	if isUniqueViolation(err) {
		return ErrAdminExists
	}
	return err
}

func (s *Store) AssignRole(ctx context.Context, userID, role string) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO user_roles (user_id, role)
    VALUES ($1, $2)
    ON CONFLICT (user_id, role) DO NOTHING
  `, userID, role)
	return err
}

func (s *Store) SetProfileBranch(ctx context.Context, userID, branchID string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE profiles
    SET branch_id = $1
    WHERE id = $2
  `, branchID, userID)
	return err
}

func (s *Store) ListManagers(ctx context.Context) ([]Manager, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT p.id, p.email, p.full_name,
           COALESCE(p.branch_id::text, ''),
           COALESCE(b.name, '')
    FROM user_roles r
    JOIN profiles p ON p.id = r.user_id
    LEFT JOIN branches b ON b.id = p.branch_id
    WHERE r.role = $1
    ORDER BY p.full_name
  `, RoleManager)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	managers := make([]Manager, 0, 8)
	for rows.Next() {
		var m Manager
		if err := rows.Scan(&m.ID, &m.Email, &m.FullName, &m.BranchID, &m.BranchName); err != nil {
			return nil, err
		}
		managers = append(managers, m)
	}
	return managers, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

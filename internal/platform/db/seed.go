package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"upr360/internal/platform/config"
)

// Seed provisions the optional bootstrap admin and, for development setups,
// a demo roster so the dashboard renders out of the box.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	var adminID string
	if cfg.SeedAdminEmail != "" && cfg.SeedAdminPassword != "" {
		id, err := ensureAdminUser(ctx, pool, cfg.SeedAdminEmail, cfg.SeedAdminPassword, cfg.SeedAdminName)
		if err != nil {
			return err
		}
		adminID = id
	}

	if cfg.SeedDemoData {
		if err := ensureDemoRoster(ctx, pool, adminID); err != nil {
			return err
		}
	}

	return nil
}

func ensureAdminUser(ctx context.Context, pool *pgxpool.Pool, email, password, fullName string) (string, error) {
	var id string
	err := pool.QueryRow(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&id)
	if err == nil {
		return id, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	err = pool.QueryRow(ctx, `
    WITH created AS (
      INSERT INTO users (email, password_hash)
      VALUES ($1, $2)
      RETURNING id, email
    )
    INSERT INTO profiles (id, email, full_name)
    SELECT id, email, $3 FROM created
    RETURNING id
  `, email, string(hash), fullName).Scan(&id)
	if err != nil {
		return "", err
	}

	// The single-admin index makes this a no-op when an admin already exists.
	if _, err := pool.Exec(ctx, `
    INSERT INTO user_roles (user_id, role)
    VALUES ($1, 'admin')
    ON CONFLICT DO NOTHING
  `, id); err != nil {
		return "", err
	}

	return id, nil
}

var demoBranches = []string{
	"Toshkent filiali",
	"Samarqand filiali",
	"Buxoro filiali",
	"Andijon filiali",
	"Farg'ona filiali",
	"Namangan filiali",
	"Xorazm filiali",
	"Navoiy filiali",
	"Qashqadaryo filiali",
	"Surxondaryo filiali",
}

var (
	demoPositions = []string{"Menejer", "Kassir", "Konsultant", "Operatsionist", "Hisobchi", "Xavfsizlik xodimi"}
	demoFirst     = []string{"Aziz", "Bekzod", "Dilshod", "Eldor", "Farrux", "Gulnora", "Hilola", "Iroda", "Javlon", "Kamola"}
	demoLast      = []string{"Karimov", "Rahimov", "Toshmatov", "Umarov", "Xoliqov", "Yusupov", "Zokirov", "Aliyev", "Boboev", "Davronov"}
	demoGrades    = []string{"A", "B", "C"}
)

// ensureDemoRoster inserts demo branches with ~18 employees each, roughly a
// third pre-rated, and only runs against an empty branches table.
func ensureDemoRoster(ctx context.Context, pool *pgxpool.Pool, adminID string) error {
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM branches").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	for bi, name := range demoBranches {
		var branchID string
		if err := pool.QueryRow(ctx, "INSERT INTO branches (name) VALUES ($1) RETURNING id", name).Scan(&branchID); err != nil {
			return fmt.Errorf("seed branch %s: %w", name, err)
		}

		for i := 0; i < 18; i++ {
			fullName := demoFirst[(bi+i)%len(demoFirst)] + " " + demoLast[(bi*3+i)%len(demoLast)]
			position := demoPositions[i%len(demoPositions)]

			var employeeID string
			err := pool.QueryRow(ctx, `
        INSERT INTO employees (full_name, position, branch_id)
        VALUES ($1, $2, $3)
        RETURNING id
      `, fullName, position, branchID).Scan(&employeeID)
			if err != nil {
				return fmt.Errorf("seed employee: %w", err)
			}

			if adminID == "" || i%3 != 0 {
				continue
			}
			grade := demoGrades[(bi+i/3)%len(demoGrades)]
			if _, err := pool.Exec(ctx, `
        INSERT INTO evaluations (employee_id, rating, evaluated_by)
        VALUES ($1, $2, $3)
      `, employeeID, grade, adminID); err != nil {
				return fmt.Errorf("seed evaluation: %w", err)
			}
		}
	}

	return nil
}

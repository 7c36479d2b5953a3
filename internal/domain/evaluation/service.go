package evaluation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"upr360/internal/domain/org"
)

// Snapshot is the process-local view of the record store: all branches in
// name order and all employees in their merged shape. The store remains the
// source of truth; the snapshot is replaced wholesale on refresh.
type Snapshot struct {
	Branches  []org.Branch   `json:"branches"`
	Employees []org.Employee `json:"employees"`
}

// Service owns the snapshot and the two operations that mutate it: Refresh
// (wholesale replace) and SetRating (single-employee replace). Readers always
// observe a complete snapshot because both mutations swap under the lock.
type Service struct {
	store org.StoreAPI
	now   func() time.Time

	mu   sync.RWMutex
	snap Snapshot
}

func NewService(store org.StoreAPI) *Service {
	return &Service{store: store, now: time.Now}
}

// Current returns the snapshot as of the last successful refresh. The slices
// must be treated as read-only.
func (s *Service) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Refresh reloads branches and employees from the store and swaps the
// snapshot in one step. On any fetch error the previous snapshot is retained.
func (s *Service) Refresh(ctx context.Context) error {
	branches, err := s.store.ListBranches(ctx)
	if err != nil {
		return fmt.Errorf("refresh branches: %w", err)
	}
	employees, err := s.store.ListEmployees(ctx)
	if err != nil {
		return fmt.Errorf("refresh employees: %w", err)
	}

	s.mu.Lock()
	s.snap = Snapshot{Branches: branches, Employees: employees}
	s.mu.Unlock()
	return nil
}

// SetRating validates and applies a rating change for one employee. The
// evaluation row is updated if present and inserted otherwise; the store does
// not expose a native upsert, so existence decides the branch. Any store
// error aborts the operation and leaves the snapshot untouched.
func (s *Service) SetRating(ctx context.Context, employeeID string, rating org.Rating, raterID string) (org.Employee, error) {
	if !rating.Valid() {
		return org.Employee{}, ErrInvalidRating
	}
	if strings.TrimSpace(raterID) == "" {
		return org.Employee{}, ErrMissingRater
	}
	if _, ok := s.findEmployee(employeeID); !ok {
		return org.Employee{}, ErrUnknownEmployee
	}

	at := s.now().UTC()
	exists, err := s.store.EvaluationExists(ctx, employeeID)
	if err != nil {
		return org.Employee{}, fmt.Errorf("evaluation lookup: %w", err)
	}
	if exists {
		err = s.store.UpdateEvaluation(ctx, employeeID, rating, raterID, at)
	} else {
		err = s.store.InsertEvaluation(ctx, employeeID, rating, raterID, at)
	}
	if err != nil {
		return org.Employee{}, fmt.Errorf("evaluation upsert: %w", err)
	}

	return s.replaceEmployee(employeeID, rating, raterID, at), nil
}

// EmployeesByBranch filters the current snapshot. An unknown branch yields an
// empty slice, not an error.
func (s *Service) EmployeesByBranch(branchID string) []org.Employee {
	snap := s.Current()
	matched := make([]org.Employee, 0, len(snap.Employees))
	for _, emp := range snap.Employees {
		if emp.BranchID == branchID {
			matched = append(matched, emp)
		}
	}
	return matched
}

func (s *Service) StatsByBranch(branchID string) Stats {
	return StatsFor(s.EmployeesByBranch(branchID))
}

func (s *Service) OverallStats() Stats {
	return StatsFor(s.Current().Employees)
}

// AllBranchStats returns one entry per branch in the snapshot's branch order,
// which follows the refresh fetch order (branch name).
func (s *Service) AllBranchStats() []BranchStats {
	snap := s.Current()
	all := make([]BranchStats, 0, len(snap.Branches))
	for _, branch := range snap.Branches {
		byBranch := make([]org.Employee, 0, 32)
		for _, emp := range snap.Employees {
			if emp.BranchID == branch.ID {
				byBranch = append(byBranch, emp)
			}
		}
		all = append(all, BranchStats{
			BranchID:   branch.ID,
			BranchName: branch.Name,
			Stats:      StatsFor(byBranch),
		})
	}
	return all
}

func (s *Service) findEmployee(employeeID string) (org.Employee, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, emp := range s.snap.Employees {
		if emp.ID == employeeID {
			return emp, true
		}
	}
	return org.Employee{}, false
}

// replaceEmployee swaps in a new employee slice with only the targeted entry
// changed. Readers holding the previous snapshot are unaffected.
func (s *Service) replaceEmployee(employeeID string, rating org.Rating, raterID string, at time.Time) org.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated := org.Employee{}
	employees := make([]org.Employee, len(s.snap.Employees))
	copy(employees, s.snap.Employees)
	for i := range employees {
		if employees[i].ID == employeeID {
			employees[i].Rating = rating
			evaluatedAt := at
			employees[i].EvaluatedAt = &evaluatedAt
			employees[i].EvaluatedBy = raterID
			updated = employees[i]
			break
		}
	}
	s.snap.Employees = employees
	return updated
}

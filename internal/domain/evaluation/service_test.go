package evaluation

import (
	"context"
	"errors"
	"testing"
	"time"

	"upr360/internal/domain/org"
)

type evaluationRow struct {
	rating  org.Rating
	raterID string
	at      time.Time
}

// fakeStore keeps evaluations in a map keyed by employee, mirroring the
// one-row-per-employee constraint, and can be told to fail any call.
type fakeStore struct {
	branches    []org.Branch
	employees   []org.Employee
	evaluations map[string]evaluationRow

	inserts int
	updates int

	failBranches  error
	failEmployees error
	failExists    error
	failInsert    error
	failUpdate    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		branches: []org.Branch{
			{ID: "b1", Name: "Samarqand filiali"},
			{ID: "b2", Name: "Toshkent filiali"},
		},
		employees: []org.Employee{
			{ID: "e1", FullName: "Aziz Karimov", Position: "Kassir", BranchID: "b1", BranchName: "Samarqand filiali"},
			{ID: "e2", FullName: "Gulnora Rahimova", Position: "Hisobchi", BranchID: "b1", BranchName: "Samarqand filiali"},
			{ID: "e3", FullName: "Javlon Umarov", Position: "Menejer", BranchID: "b2", BranchName: "Toshkent filiali"},
		},
		evaluations: make(map[string]evaluationRow),
	}
}

func (f *fakeStore) ListBranches(ctx context.Context) ([]org.Branch, error) {
	if f.failBranches != nil {
		return nil, f.failBranches
	}
	return f.branches, nil
}

func (f *fakeStore) ListEmployees(ctx context.Context) ([]org.Employee, error) {
	if f.failEmployees != nil {
		return nil, f.failEmployees
	}
	merged := make([]org.Employee, len(f.employees))
	copy(merged, f.employees)
	for i := range merged {
		if row, ok := f.evaluations[merged[i].ID]; ok {
			at := row.at
			merged[i].Rating = row.rating
			merged[i].EvaluatedAt = &at
			merged[i].EvaluatedBy = row.raterID
		}
	}
	return merged, nil
}

func (f *fakeStore) CreateBranch(ctx context.Context, name string) (org.Branch, error) {
	return org.Branch{}, errors.New("not used")
}

func (f *fakeStore) DeleteBranch(ctx context.Context, branchID string) error {
	return errors.New("not used")
}

func (f *fakeStore) CreateEmployee(ctx context.Context, fullName, position, branchID string) (org.Employee, error) {
	return org.Employee{}, errors.New("not used")
}

func (f *fakeStore) DeleteEmployee(ctx context.Context, employeeID string) error {
	return errors.New("not used")
}

func (f *fakeStore) EvaluationExists(ctx context.Context, employeeID string) (bool, error) {
	if f.failExists != nil {
		return false, f.failExists
	}
	_, ok := f.evaluations[employeeID]
	return ok, nil
}

func (f *fakeStore) InsertEvaluation(ctx context.Context, employeeID string, rating org.Rating, raterID string, at time.Time) error {
	if f.failInsert != nil {
		return f.failInsert
	}
	if _, ok := f.evaluations[employeeID]; ok {
		return errors.New("duplicate evaluation row")
	}
	f.inserts++
	f.evaluations[employeeID] = evaluationRow{rating: rating, raterID: raterID, at: at}
	return nil
}

func (f *fakeStore) UpdateEvaluation(ctx context.Context, employeeID string, rating org.Rating, raterID string, at time.Time) error {
	if f.failUpdate != nil {
		return f.failUpdate
	}
	if _, ok := f.evaluations[employeeID]; !ok {
		return errors.New("no evaluation row to update")
	}
	f.updates++
	f.evaluations[employeeID] = evaluationRow{rating: rating, raterID: raterID, at: at}
	return nil
}

func newTestService(t *testing.T, store *fakeStore) *Service {
	t.Helper()
	svc := NewService(store)
	svc.now = func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("initial refresh: %v", err)
	}
	return svc
}

func TestSetRatingInsertsThenUpdates(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store)

	if _, err := svc.SetRating(context.Background(), "e1", org.RatingA, "rater1"); err != nil {
		t.Fatalf("first SetRating: %v", err)
	}
	if _, err := svc.SetRating(context.Background(), "e1", org.RatingB, "rater2"); err != nil {
		t.Fatalf("second SetRating: %v", err)
	}

	if store.inserts != 1 || store.updates != 1 {
		t.Fatalf("expected 1 insert and 1 update, got %d/%d", store.inserts, store.updates)
	}
	if len(store.evaluations) != 1 {
		t.Fatalf("expected exactly one evaluation row, got %d", len(store.evaluations))
	}
	row := store.evaluations["e1"]
	if row.rating != org.RatingB || row.raterID != "rater2" {
		t.Fatalf("expected last write to win, got %+v", row)
	}

	snap := svc.Current()
	for _, emp := range snap.Employees {
		if emp.ID == "e1" {
			if emp.Rating != org.RatingB || emp.EvaluatedBy != "rater2" || emp.EvaluatedAt == nil {
				t.Fatalf("snapshot not updated: %+v", emp)
			}
		}
	}
}

func TestSetRatingIdempotent(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store)

	first, err := svc.SetRating(context.Background(), "e2", org.RatingC, "rater1")
	if err != nil {
		t.Fatalf("SetRating: %v", err)
	}
	second, err := svc.SetRating(context.Background(), "e2", org.RatingC, "rater1")
	if err != nil {
		t.Fatalf("repeat SetRating: %v", err)
	}
	if first.Rating != second.Rating || first.EvaluatedBy != second.EvaluatedBy {
		t.Fatalf("expected identical result, got %+v then %+v", first, second)
	}
	if len(store.evaluations) != 1 {
		t.Fatalf("expected one row after repeat, got %d", len(store.evaluations))
	}
}

func TestSetRatingValidation(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store)
	before := svc.Current()

	cases := []struct {
		name       string
		employeeID string
		rating     org.Rating
		raterID    string
		want       error
	}{
		{"unknown employee", "nope", org.RatingA, "rater1", ErrUnknownEmployee},
		{"invalid rating", "e1", org.Rating("D"), "rater1", ErrInvalidRating},
		{"unset rating", "e1", org.RatingUnrated, "rater1", ErrInvalidRating},
		{"missing rater", "e1", org.RatingA, "  ", ErrMissingRater},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.SetRating(context.Background(), tc.employeeID, tc.rating, tc.raterID); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	if store.inserts != 0 || store.updates != 0 {
		t.Fatal("validation failures must not reach the store")
	}
	after := svc.Current()
	if len(before.Employees) == 0 || &before.Employees[0] != &after.Employees[0] {
		t.Fatal("expected employee list untouched by failed calls")
	}
}

func TestSetRatingStoreFailureLeavesSnapshot(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store)
	before := svc.Current()

	store.failInsert = errors.New("connection reset")
	_, err := svc.SetRating(context.Background(), "e1", org.RatingA, "rater1")
	if err == nil || !errors.Is(err, store.failInsert) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}

	after := svc.Current()
	if &before.Employees[0] != &after.Employees[0] {
		t.Fatal("snapshot must be untouched after store failure")
	}
}

func TestRefreshFailureRetainsSnapshot(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store)
	before := svc.Current()

	store.failEmployees = errors.New("query timeout")
	if err := svc.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh failure")
	}

	after := svc.Current()
	if len(after.Branches) != len(before.Branches) || len(after.Employees) != len(before.Employees) {
		t.Fatal("previous snapshot must be retained on failed refresh")
	}
	if &before.Employees[0] != &after.Employees[0] {
		t.Fatal("employee list must be the same slice after failed refresh")
	}
}

func TestOverallStatsWorkedExample(t *testing.T) {
	store := newFakeStore()
	store.employees = []org.Employee{
		{ID: "e1", BranchID: "b1", BranchName: "Samarqand filiali"},
		{ID: "e2", BranchID: "b1", BranchName: "Samarqand filiali"},
		{ID: "e3", BranchID: "b1", BranchName: "Samarqand filiali"},
		{ID: "e4", BranchID: "b2", BranchName: "Toshkent filiali"},
	}
	store.evaluations = map[string]evaluationRow{
		"e1": {rating: org.RatingA, raterID: "r1", at: time.Now()},
		"e2": {rating: org.RatingA, raterID: "r1", at: time.Now()},
		"e4": {rating: org.RatingB, raterID: "r2", at: time.Now()},
	}
	svc := newTestService(t, store)

	got := svc.OverallStats()
	want := Stats{Total: 4, Evaluated: 3, RatingA: 2, RatingB: 1, RatingC: 0}
	if got != want {
		t.Fatalf("OverallStats() = %+v, want %+v", got, want)
	}
}

func TestAllBranchStatsFollowsBranchOrder(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store)

	all := svc.AllBranchStats()
	if len(all) != 2 {
		t.Fatalf("expected one entry per branch, got %d", len(all))
	}
	// Branch order is the refresh fetch order: name-sorted.
	if all[0].BranchName != "Samarqand filiali" || all[1].BranchName != "Toshkent filiali" {
		t.Fatalf("unexpected branch order: %s, %s", all[0].BranchName, all[1].BranchName)
	}
	if all[0].Total != 2 || all[1].Total != 1 {
		t.Fatalf("unexpected per-branch totals: %+v", all)
	}
}

func TestStatsByBranchUnknownBranch(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store)

	if got := svc.StatsByBranch("missing"); got != (Stats{}) {
		t.Fatalf("expected zero stats for unknown branch, got %+v", got)
	}
}

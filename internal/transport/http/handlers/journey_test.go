package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"upr360/internal/app/server"
	"upr360/internal/platform/config"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   any             `json:"error"`
}

func newTestApp(t *testing.T) (*server.App, *httptest.Server, config.Config) {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	chdirRepoRoot(t)

	cfg := config.Config{
		Addr:              ":0",
		DatabaseURL:       dbURL,
		JWTSecret:         "test-secret",
		FrontendDir:       "frontend/dist",
		Environment:       "test",
		SeedAdminEmail:    "admin@test.local",
		SeedAdminPassword: "ChangeMe123!",
		SeedAdminName:     "Seed Admin",
		AllowSelfSignup:   true,
		RunMigrations:     true,
		RunSeed:           true,
		MaxBodyBytes:      1048576,
	}

	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	t.Cleanup(app.Close)

	ts := httptest.NewServer(app.Router)
	t.Cleanup(ts.Close)

	return app, ts, cfg
}

// chdirRepoRoot walks up until go.mod so the relative migrations path works no
// matter which package directory the test runs from.
func chdirRepoRoot(t *testing.T) {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			if err := os.Chdir(dir); err != nil {
				t.Fatalf("chdir: %v", err)
			}
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("go.mod not found above test directory")
		}
		dir = parent
	}
}

func TestRatingJourney(t *testing.T) {
	_, ts, cfg := newTestApp(t)
	client := ts.Client()

	adminToken := login(t, client, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword)

	suffix := time.Now().UnixNano()
	branchName := fmt.Sprintf("Jizzax filiali %d", suffix)
	branchID := createBranch(t, client, ts.URL, adminToken, branchName)

	employeeID := createEmployee(t, client, ts.URL, adminToken, branchID, "Journey Tester", "Kassir")

	managerEmail := fmt.Sprintf("manager-%d@example.com", suffix)
	managerPassword := "Manager123!"
	createManager(t, client, ts.URL, adminToken, managerEmail, managerPassword, branchID)

	managerToken := login(t, client, ts.URL, managerEmail, managerPassword)

	// The manager sees only its branch.
	data := getJSON(t, client, ts.URL+"/api/v1/data", managerToken)
	var snap struct {
		Branches  []map[string]any `json:"branches"`
		Employees []map[string]any `json:"employees"`
	}
	if err := json.Unmarshal(data.Data, &snap); err != nil {
		t.Fatalf("failed to decode data response: %v", err)
	}
	if len(snap.Branches) != 1 {
		t.Fatalf("expected manager to see exactly its branch, got %d", len(snap.Branches))
	}
	if len(snap.Employees) != 1 {
		t.Fatalf("expected 1 employee in branch, got %d", len(snap.Employees))
	}

	rated := setRating(t, client, ts.URL, managerToken, employeeID, "B")
	if rated["rating"] != "B" {
		t.Fatalf("expected rating B, got %v", rated["rating"])
	}
	if rated["evaluatedAt"] == nil {
		t.Fatal("expected evaluatedAt to be set")
	}

	// Re-rating replaces in place.
	rated = setRating(t, client, ts.URL, managerToken, employeeID, "A")
	if rated["rating"] != "A" {
		t.Fatalf("expected rating A after update, got %v", rated["rating"])
	}

	stats := getJSON(t, client, ts.URL+"/api/v1/stats/branches/"+branchID, managerToken)
	var branchStats struct {
		Total     int `json:"total"`
		Evaluated int `json:"evaluated"`
		RatingA   int `json:"ratingA"`
		Progress  int `json:"progress"`
	}
	if err := json.Unmarshal(stats.Data, &branchStats); err != nil {
		t.Fatalf("failed to decode branch stats: %v", err)
	}
	if branchStats.Total != 1 || branchStats.Evaluated != 1 || branchStats.RatingA != 1 || branchStats.Progress != 100 {
		t.Fatalf("unexpected branch stats: %+v", branchStats)
	}
}

func TestClaimAdminPrecondition(t *testing.T) {
	_, ts, _ := newTestApp(t)
	client := ts.Client()

	email := fmt.Sprintf("second-%d@example.com", time.Now().UnixNano())
	token := register(t, client, ts.URL, email, "Password123!", "Second User")

	// The seed admin already holds the role, so the claim must fail closed.
	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/auth/claim-admin", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for second admin claim, got %d", resp.StatusCode)
	}
}

func TestManagerCannotRateOtherBranch(t *testing.T) {
	_, ts, cfg := newTestApp(t)
	client := ts.Client()

	adminToken := login(t, client, ts.URL, cfg.SeedAdminEmail, cfg.SeedAdminPassword)

	suffix := time.Now().UnixNano()
	branchA := createBranch(t, client, ts.URL, adminToken, fmt.Sprintf("Branch A %d", suffix))
	branchB := createBranch(t, client, ts.URL, adminToken, fmt.Sprintf("Branch B %d", suffix))
	outsider := createEmployee(t, client, ts.URL, adminToken, branchB, "Outsider", "Menejer")

	managerEmail := fmt.Sprintf("scoped-%d@example.com", suffix)
	createManager(t, client, ts.URL, adminToken, managerEmail, "Manager123!", branchA)
	managerToken := login(t, client, ts.URL, managerEmail, "Manager123!")

	body, _ := json.Marshal(map[string]any{"rating": "A"})
	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/v1/employees/"+outsider+"/rating", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+managerToken)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for cross-branch rating, got %d", resp.StatusCode)
	}
}

func login(t *testing.T, client *http.Client, baseURL, email, password string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/auth/login", "", map[string]any{
		"email":    email,
		"password": password,
	})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode login response: %v", err)
	}
	token, _ := payload["token"].(string)
	if token == "" {
		t.Fatal("expected token")
	}
	return token
}

func register(t *testing.T, client *http.Client, baseURL, email, password, fullName string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/auth/register", "", map[string]any{
		"email":    email,
		"password": password,
		"fullName": fullName,
	})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode register response: %v", err)
	}
	token, _ := payload["token"].(string)
	if token == "" {
		t.Fatal("expected token")
	}
	return token
}

func createBranch(t *testing.T, client *http.Client, baseURL, token, name string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/admin/branches", token, map[string]any{
		"name": name,
	})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode branch response: %v", err)
	}
	id, _ := payload["id"].(string)
	if id == "" {
		t.Fatal("expected branch id")
	}
	return id
}

func createEmployee(t *testing.T, client *http.Client, baseURL, token, branchID, fullName, position string) string {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/admin/employees", token, map[string]any{
		"fullName": fullName,
		"position": position,
		"branchId": branchID,
	})
	var payload map[string]any
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		t.Fatalf("failed to decode employee response: %v", err)
	}
	id, _ := payload["id"].(string)
	if id == "" {
		t.Fatal("expected employee id")
	}
	return id
}

func createManager(t *testing.T, client *http.Client, baseURL, token, email, password, branchID string) {
	t.Helper()
	postJSON(t, client, baseURL+"/api/v1/admin/managers", token, map[string]any{
		"email":    email,
		"password": password,
		"fullName": "Branch Manager",
		"branchId": branchID,
	})
}

func setRating(t *testing.T, client *http.Client, baseURL, token, employeeID, rating string) map[string]any {
	t.Helper()
	body, err := json.Marshal(map[string]any{"rating": rating})
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPut, baseURL+"/api/v1/employees/"+employeeID+"/rating", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	if resp.StatusCode >= 400 {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, string(raw))
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		t.Fatalf("failed to decode rating response: %v", err)
	}
	return payload
}

func postJSON(t *testing.T, client *http.Client, url, token string, body any) envelope {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewBuffer(raw)
	}
	req, err := http.NewRequest(http.MethodPost, url, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.StatusCode >= 400 {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, string(raw))
	}
	return env
}

func getJSON(t *testing.T, client *http.Client, url, token string) envelope {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.StatusCode >= 400 {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, string(raw))
	}
	return env
}

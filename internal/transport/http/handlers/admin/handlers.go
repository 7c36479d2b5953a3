package adminhandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"upr360/internal/domain/auth"
	"upr360/internal/domain/evaluation"
	"upr360/internal/domain/org"
	"upr360/internal/platform/requestctx"
	"upr360/internal/transport/http/api"
	"upr360/internal/transport/http/middleware"
	"upr360/internal/transport/http/shared"
)

// Handler serves the admin roster operations: branches, employees and
// manager accounts.
type Handler struct {
	Org  *org.Store
	Auth *auth.Store
	Data *evaluation.Service
}

func NewHandler(orgStore *org.Store, authStore *auth.Store, data *evaluation.Service) *Handler {
	return &Handler{Org: orgStore, Auth: authStore, Data: data}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleAdmin))

		r.Route("/branches", func(r chi.Router) {
			r.Get("/", h.handleListBranches)
			r.Post("/", h.handleCreateBranch)
			r.Delete("/{branchID}", h.handleDeleteBranch)
		})
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.handleListEmployees)
			r.Post("/", h.handleCreateEmployee)
			r.Delete("/{employeeID}", h.handleDeleteEmployee)
		})
		r.Route("/managers", func(r chi.Router) {
			r.Get("/", h.handleListManagers)
			r.Post("/", h.handleCreateManager)
		})
	})
}

type createBranchRequest struct {
	Name string `json:"name"`
}

type createEmployeeRequest struct {
	FullName string `json:"fullName"`
	Position string `json:"position"`
	BranchID string `json:"branchId"`
}

type createManagerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	BranchID string `json:"branchId"`
}

func (h *Handler) handleListBranches(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	branches, err := h.Org.ListBranches(r.Context())
	if err != nil {
		api.Fail(w, http.StatusBadGateway, "store_error", "failed to list branches", requestID)
		return
	}
	api.Success(w, branches, requestID)
}

func (h *Handler) handleCreateBranch(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	var payload createBranchRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("name", payload.Name, "branch name is required")
	if v.Respond(w, requestID) {
		return
	}

	branch, err := h.Org.CreateBranch(r.Context(), strings.TrimSpace(payload.Name))
	if errors.Is(err, org.ErrBranchNameTaken) {
		api.Fail(w, http.StatusConflict, "branch_name_taken", "branch name already exists", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusBadGateway, "store_error", "failed to create branch", requestID)
		return
	}

	h.refreshSnapshot(r.Context())
	api.Created(w, branch, requestID)
}

func (h *Handler) handleDeleteBranch(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	branchID := chi.URLParam(r, "branchID")

	err := h.Org.DeleteBranch(r.Context(), branchID)
	if errors.Is(err, org.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "branch not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusBadGateway, "store_error", "failed to delete branch", requestID)
		return
	}

	h.refreshSnapshot(r.Context())
	api.Success(w, map[string]string{"status": "deleted"}, requestID)
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	employees, err := h.Org.ListEmployees(r.Context())
	if err != nil {
		api.Fail(w, http.StatusBadGateway, "store_error", "failed to list employees", requestID)
		return
	}
	api.Success(w, employees, requestID)
}

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	var payload createEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("fullName", payload.FullName, "full name is required")
	v.Required("position", payload.Position, "position is required")
	v.Required("branchId", payload.BranchID, "branch is required")
	if v.Respond(w, requestID) {
		return
	}

	employee, err := h.Org.CreateEmployee(r.Context(), strings.TrimSpace(payload.FullName), strings.TrimSpace(payload.Position), payload.BranchID)
	if errors.Is(err, org.ErrUnknownBranch) {
		api.Fail(w, http.StatusBadRequest, "validation_failed", "branch does not exist", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusBadGateway, "store_error", "failed to create employee", requestID)
		return
	}

	h.refreshSnapshot(r.Context())
	api.Created(w, employee, requestID)
}

func (h *Handler) handleDeleteEmployee(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	employeeID := chi.URLParam(r, "employeeID")

	err := h.Org.DeleteEmployee(r.Context(), employeeID)
	if errors.Is(err, org.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusBadGateway, "store_error", "failed to delete employee", requestID)
		return
	}

	h.refreshSnapshot(r.Context())
	api.Success(w, map[string]string{"status": "deleted"}, requestID)
}

func (h *Handler) handleListManagers(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	managers, err := h.Auth.ListManagers(r.Context())
	if err != nil {
		api.Fail(w, http.StatusBadGateway, "store_error", "failed to list managers", requestID)
		return
	}
	api.Success(w, managers, requestID)
}

// handleCreateManager registers the account, assigns its branch and grants
// the manager role in one request.
func (h *Handler) handleCreateManager(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	var payload createManagerRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("email", payload.Email, "email is required")
	v.Required("fullName", payload.FullName, "full name is required")
	v.Required("branchId", payload.BranchID, "branch is required")
	v.MinLength("password", payload.Password, auth.MinPasswordLength, auth.ErrWeakPassword.Error())
	if v.Respond(w, requestID) {
		return
	}

	hash, err := auth.HashPassword(payload.Password)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "hash_error", "failed to hash password", requestID)
		return
	}

	userID, err := h.Auth.Register(r.Context(), strings.TrimSpace(payload.Email), hash, strings.TrimSpace(payload.FullName))
	if errors.Is(err, auth.ErrEmailTaken) {
		api.Fail(w, http.StatusConflict, "email_taken", "email already registered", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusBadGateway, "store_error", "failed to create manager account", requestID)
		return
	}

	if err := h.Auth.SetProfileBranch(r.Context(), userID, payload.BranchID); err != nil {
		api.Fail(w, http.StatusBadGateway, "store_error", "failed to assign branch", requestID)
		return
	}
	if err := h.Auth.AssignRole(r.Context(), userID, auth.RoleManager); err != nil {
		api.Fail(w, http.StatusBadGateway, "store_error", "failed to assign manager role", requestID)
		return
	}

	api.Created(w, auth.Manager{
		ID:       userID,
		Email:    strings.TrimSpace(payload.Email),
		FullName: strings.TrimSpace(payload.FullName),
		BranchID: payload.BranchID,
	}, requestID)
}

// refreshSnapshot keeps the in-memory view in step after roster mutations.
// The store already holds the change, so a failed refresh only delays
// visibility until the next successful one.
func (h *Handler) refreshSnapshot(ctx context.Context) {
	if err := h.Data.Refresh(ctx); err != nil {
		slog.Warn("snapshot refresh after mutation failed", "err", err)
	}
}

package evaluationhandler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"upr360/internal/domain/auth"
	"upr360/internal/domain/evaluation"
	"upr360/internal/domain/org"
	"upr360/internal/platform/requestctx"
	"upr360/internal/transport/http/api"
	"upr360/internal/transport/http/middleware"
)

// Handler serves the snapshot, the statistics views and the rating mutation.
type Handler struct {
	Data *evaluation.Service
}

func NewHandler(data *evaluation.Service) *Handler {
	return &Handler{Data: data}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleAdmin, auth.RoleManager))

		r.Get("/data", h.handleData)
		r.Put("/employees/{employeeID}/rating", h.handleSetRating)
		r.Get("/stats/branches/{branchID}", h.handleBranchStats)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleAdmin))

		r.Get("/stats/overall", h.handleOverallStats)
		r.Get("/stats/branches", h.handleAllBranchStats)
	})
}

type setRatingRequest struct {
	Rating string `json:"rating"`
}

type statsResponse struct {
	evaluation.Stats
	Progress int `json:"progress"`
}

type branchStatsResponse struct {
	BranchID   string `json:"branchId"`
	BranchName string `json:"branchName"`
	statsResponse
}

func withProgress(stats evaluation.Stats) statsResponse {
	return statsResponse{Stats: stats, Progress: evaluation.Percent(stats.Evaluated, stats.Total)}
}

// handleData refreshes the snapshot and returns it scoped to the caller:
// admins see everything, managers only their branch. A manager without a
// branch assignment gets an empty roster, not an error.
func (h *Handler) handleData(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	if err := h.Data.Refresh(r.Context()); err != nil {
		api.Fail(w, http.StatusBadGateway, "store_error", "failed to load data", requestID)
		return
	}

	snap := h.Data.Current()
	if user.Role == auth.RoleAdmin {
		api.Success(w, snap, requestID)
		return
	}

	scoped := evaluation.Snapshot{
		Branches:  make([]org.Branch, 0, 1),
		Employees: h.Data.EmployeesByBranch(user.BranchID),
	}
	for _, branch := range snap.Branches {
		if branch.ID == user.BranchID {
			scoped.Branches = append(scoped.Branches, branch)
		}
	}
	api.Success(w, scoped, requestID)
}

func (h *Handler) handleSetRating(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeID")

	var payload setRatingRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	if user.Role == auth.RoleManager {
		if user.BranchID == "" {
			api.Fail(w, http.StatusForbidden, "no_branch_assigned", "no branch assigned to this account", requestID)
			return
		}
		if !h.employeeInBranch(employeeID, user.BranchID) {
			api.Fail(w, http.StatusForbidden, "forbidden", "employee is not in your branch", requestID)
			return
		}
	}

	employee, err := h.Data.SetRating(r.Context(), employeeID, org.Rating(payload.Rating), user.UserID)
	switch {
	case errors.Is(err, evaluation.ErrInvalidRating),
		errors.Is(err, evaluation.ErrMissingRater):
		api.Fail(w, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		return
	case errors.Is(err, evaluation.ErrUnknownEmployee):
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", requestID)
		return
	case err != nil:
		api.Fail(w, http.StatusBadGateway, "store_error", "failed to save rating", requestID)
		return
	}

	api.Success(w, employee, requestID)
}

func (h *Handler) handleOverallStats(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	api.Success(w, withProgress(h.Data.OverallStats()), requestID)
}

func (h *Handler) handleAllBranchStats(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	all := h.Data.AllBranchStats()
	out := make([]branchStatsResponse, 0, len(all))
	for _, b := range all {
		out = append(out, branchStatsResponse{
			BranchID:      b.BranchID,
			BranchName:    b.BranchName,
			statsResponse: withProgress(b.Stats),
		})
	}
	api.Success(w, out, requestID)
}

func (h *Handler) handleBranchStats(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())
	branchID := chi.URLParam(r, "branchID")

	if user.Role == auth.RoleManager && user.BranchID != branchID {
		api.Fail(w, http.StatusForbidden, "forbidden", "not your branch", requestID)
		return
	}

	api.Success(w, withProgress(h.Data.StatsByBranch(branchID)), requestID)
}

func (h *Handler) employeeInBranch(employeeID, branchID string) bool {
	for _, emp := range h.Data.EmployeesByBranch(branchID) {
		if emp.ID == employeeID {
			return true
		}
	}
	return false
}

package reportshandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"upr360/internal/domain/auth"
	"upr360/internal/domain/evaluation"
	"upr360/internal/domain/reports"
	"upr360/internal/platform/requestctx"
	"upr360/internal/transport/http/api"
	"upr360/internal/transport/http/middleware"
)

// Handler streams the branch statistics table in downloadable formats.
type Handler struct {
	Data *evaluation.Service
}

func NewHandler(data *evaluation.Service) *Handler {
	return &Handler{Data: data}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(auth.RoleAdmin))

		r.Get("/reports/branches.csv", h.handleCSV)
		r.Get("/reports/branches.xlsx", h.handleXLSX)
		r.Get("/reports/branches.pdf", h.handlePDF)
	})
}

func (h *Handler) branchStats(w http.ResponseWriter, r *http.Request) ([]evaluation.BranchStats, bool) {
	if err := h.Data.Refresh(r.Context()); err != nil {
		api.Fail(w, http.StatusBadGateway, "store_error", "failed to load data", requestctx.GetRequestID(r.Context()))
		return nil, false
	}
	return h.Data.AllBranchStats(), true
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	stats, ok := h.branchStats(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="branch-stats.csv"`)
	_ = reports.BranchStatsCSV(w, stats)
}

func (h *Handler) handleXLSX(w http.ResponseWriter, r *http.Request) {
	stats, ok := h.branchStats(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="branch-stats.xlsx"`)
	_ = reports.BranchStatsXLSX(w, stats)
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	stats, ok := h.branchStats(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="branch-stats.pdf"`)
	_ = reports.BranchStatsPDF(w, stats)
}

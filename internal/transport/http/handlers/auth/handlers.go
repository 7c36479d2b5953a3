package authhandler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"upr360/internal/domain/auth"
	"upr360/internal/domain/session"
	"upr360/internal/platform/requestctx"
	"upr360/internal/transport/http/api"
	"upr360/internal/transport/http/middleware"
	"upr360/internal/transport/http/shared"
)

const tokenTTL = 8 * time.Hour

type Handler struct {
	Store       *auth.Store
	Secret      string
	AllowSignup bool
}

func NewHandler(store *auth.Store, secret string, allowSignup bool) *Handler {
	return &Handler{Store: store, Secret: secret, AllowSignup: allowSignup}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/logout", h.handleLogout)
	r.Get("/auth/session", h.handleSession)
	r.With(middleware.RequireAuth).Post("/auth/claim-admin", h.handleClaimAdmin)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

type sessionResponse struct {
	Token string         `json:"token,omitempty"`
	User  *auth.Identity `json:"user,omitempty"`
	State session.State  `json:"state"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("email", payload.Email, "email is required")
	v.Required("password", payload.Password, "password is required")
	if v.Respond(w, requestID) {
		return
	}

	userID, hash, err := h.Store.Credentials(r.Context(), payload.Email)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusBadGateway, "store_error", "failed to look up user", requestID)
		return
	}
	if err := auth.CheckPassword(hash, payload.Password); err != nil {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password", requestID)
		return
	}

	h.respondWithSession(w, r, userID, requestID)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	if !h.AllowSignup {
		api.Fail(w, http.StatusForbidden, "signup_disabled", "self signup is disabled", requestID)
		return
	}

	var payload registerRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	v := shared.NewValidator()
	v.Required("email", payload.Email, "email is required")
	v.Required("fullName", payload.FullName, "full name is required")
	v.MinLength("password", payload.Password, auth.MinPasswordLength, auth.ErrWeakPassword.Error())
	if v.Respond(w, requestID) {
		return
	}

	hash, err := auth.HashPassword(payload.Password)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "hash_error", "failed to hash password", requestID)
		return
	}

	userID, err := h.Store.Register(r.Context(), strings.TrimSpace(payload.Email), hash, strings.TrimSpace(payload.FullName))
	if errors.Is(err, auth.ErrEmailTaken) {
		api.Fail(w, http.StatusConflict, "email_taken", "email already registered", requestID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusBadGateway, "store_error", "failed to create account", requestID)
		return
	}

	h.respondWithSession(w, r, userID, requestID)
}

// handleLogout exists for symmetry with the login endpoint; session tokens
// are stateless, so the client discards its copy.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	api.Success(w, map[string]string{"status": "logged_out"}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())

	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Success(w, sessionResponse{State: session.StateUnauthenticated}, requestID)
		return
	}

	// Re-resolve from the store so a role granted after login is visible.
	ident, err := h.Store.Identity(r.Context(), user.UserID)
	if err != nil {
		api.Fail(w, http.StatusBadGateway, "store_error", "failed to resolve session", requestID)
		return
	}

	api.Success(w, sessionResponse{User: &ident, State: session.Resolve(&ident)}, requestID)
}

// handleClaimAdmin is the first-run bootstrap: an authenticated user with no
// role may claim the admin role while no admin row exists. The precondition
// is checked at claim time, never cached.
func (h *Handler) handleClaimAdmin(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	if err := h.Store.ClaimAdmin(r.Context(), user.UserID); err != nil {
		if errors.Is(err, auth.ErrAdminExists) {
			api.Fail(w, http.StatusConflict, "precondition_failed", "an admin already exists", requestID)
			return
		}
		api.Fail(w, http.StatusBadGateway, "store_error", "failed to claim admin role", requestID)
		return
	}

	// The old token carries no role; issue a fresh one so the client can
	// route straight to the admin view.
	h.respondWithSession(w, r, user.UserID, requestID)
}

func (h *Handler) respondWithSession(w http.ResponseWriter, r *http.Request, userID, requestID string) {
	ident, err := h.Store.Identity(r.Context(), userID)
	if err != nil {
		api.Fail(w, http.StatusBadGateway, "store_error", "failed to resolve identity", requestID)
		return
	}

	token, err := auth.GenerateToken(h.Secret, auth.Claims{
		UserID:   ident.UserID,
		Email:    ident.Email,
		FullName: ident.FullName,
		Role:     ident.Role,
		BranchID: ident.BranchID,
	}, tokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", requestID)
		return
	}

	api.Success(w, sessionResponse{
		Token: token,
		User:  &ident,
		State: session.Resolve(&ident),
	}, requestID)
}

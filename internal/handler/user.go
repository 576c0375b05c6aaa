package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/blog-api/internal/auth"
	"github.com/sakif/blog-api/internal/service"
)

// UserHandler exposes account and credential endpoints.
//
// Each handler follows the same shape: decode+validate the DTO, read the
// caller's identity from the context where relevant, call the service, map
// the result. Authorisation decisions (who may call this at all) are made
// by the gate middlewares in the router, not here.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleRegister creates a new account.
//
// HTTP: POST /users/register
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.users.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Registered successfully",
		"user":    user,
	})
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin verifies credentials and returns a bearer token.
//
// HTTP: POST /users/login
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"access": result.Token,
		"user":   result.User,
	})
}

// HandleDetails returns the caller's own profile.
//
// HTTP: GET /users/details (authenticated)
func (h *UserHandler) HandleDetails(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		// Unreachable when the route is gated; kept as a guard against
		// wiring mistakes.
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "auth_required", Message: "valid authentication required",
		})
		return
	}

	user, err := h.users.Profile(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// HandleSetAdmin grants the admin capability to the user in the URL.
//
// HTTP: PATCH /users/{id}/set-as-admin (authenticated + admin)
func (h *UserHandler) HandleSetAdmin(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "validation_error", Message: "user ID is required",
		})
		return
	}

	user, err := h.users.SetAdmin(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User granted admin successfully",
		"user":    user,
	})
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required"`
}

// HandleUpdatePassword rotates the caller's password.
//
// HTTP: PATCH /users/update-password (authenticated)
func (h *UserHandler) HandleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	var req updatePasswordRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.users.UpdatePassword(r.Context(), claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": "Password updated successfully"})
}

type checkEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// HandleCheckEmail reports whether an email is already registered.
//
// HTTP: POST /users/check-email (public)
func (h *UserHandler) HandleCheckEmail(w http.ResponseWriter, r *http.Request) {
	var req checkEmailRequest
	if !decodeBody(w, r, &req) {
		return
	}

	exists, err := h.users.CheckEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"exists": exists})
}

type updateProfileRequest struct {
	Username string `json:"username" validate:"omitempty,max=50"`
	Email    string `json:"email"    validate:"omitempty,email"`
}

// HandleUpdateProfile changes the caller's username and/or email.
//
// HTTP: PUT /users/profile (authenticated)
func (h *UserHandler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())

	var req updateProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), claims.UserID, req.Username, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

// HandleListAll returns every account.
//
// HTTP: GET /users/all (authenticated + admin)
func (h *UserHandler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"orgmeet/internal/httpx"
)

type LoginHandler struct {
	Service *Service
	Logger  *slog.Logger
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string  `json:"token"`
	User  Profile `json:"user"`
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	res, err := h.Service.Authenticate(r.Context(), req.Email, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, ErrStoreUnavailable):
		// Same body as a bad password so account existence never leaks.
		h.Logger.ErrorContext(r.Context(), "login failed: store unavailable", "err", err)
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	case errors.Is(err, ErrInvalidCredentials):
		h.Logger.InfoContext(r.Context(), "invalid credentials")
		httpx.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	default:
		httpx.InternalError(w, r, h.Logger, "login", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, loginResponse{Token: res.Token, User: res.Account.Profile()})
}

type RegisterAdminHandler struct {
	Service *Service
	Logger  *slog.Logger
}

func (h *RegisterAdminHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var in RegisterAdminInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	acc, err := h.Service.RegisterAdmin(r.Context(), in)
	switch {
	case err == nil:
	case errors.Is(err, ErrValidation):
		httpx.WriteError(w, http.StatusBadRequest, validationMessage(err))
		return
	case errors.Is(err, ErrAccountExists):
		httpx.WriteError(w, http.StatusConflict, "Email already registered")
		return
	default:
		httpx.InternalError(w, r, h.Logger, "register admin", err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "Admin user created",
		"user":    acc,
	})
}

// validationMessage strips the sentinel prefix from a wrapped ErrValidation.
func validationMessage(err error) string {
	return strings.TrimPrefix(err.Error(), ErrValidation.Error()+": ")
}

type MeHandler struct{}

func (MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"id":        id.ID,
		"email":     id.Email,
		"role":      id.Role,
		"entity_id": id.EntityID,
	})
}

package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"orgmeet/internal/auth"
	"orgmeet/internal/httpx"
)

type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

type Handler struct {
	Store     *Store
	Passwords PasswordHasher
	Logger    *slog.Logger
}

type userInput struct {
	EntityID int64  `json:"entity_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func (in *userInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Role = strings.TrimSpace(in.Role)
	if in.Role == "" {
		in.Role = DefaultRole
	}
}

func (in userInput) validate() string {
	if in.Name == "" {
		return "name is required"
	}
	if err := auth.ValidateEmail(in.Email); err != nil {
		return "email is invalid"
	}
	return ""
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.List(r.Context())
	if err != nil {
		httpx.InternalError(w, r, h.Logger, "list users", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) ListByEntity(w http.ResponseWriter, r *http.Request) {
	entityID, err := httpx.PathID(r, "entityId")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !auth.RequireEntityAccess(w, r, entityID) {
		return
	}
	list, err := h.Store.ListByEntity(r.Context(), entityID)
	if err != nil {
		httpx.InternalError(w, r, h.Logger, "list users", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

// Create stores a member with a random unusable password.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in userInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	in.normalize()
	if in.EntityID <= 0 {
		httpx.WriteError(w, http.StatusBadRequest, "entity_id is required")
		return
	}
	if msg := in.validate(); msg != "" {
		httpx.WriteError(w, http.StatusBadRequest, msg)
		return
	}
	if !auth.RequireEntityAccess(w, r, in.EntityID) {
		return
	}
	hash, err := h.Passwords.HashPassword(uuid.NewString())
	if err != nil {
		httpx.InternalError(w, r, h.Logger, "hash user password", err)
		return
	}
	u := &User{EntityID: in.EntityID, Name: in.Name, Email: in.Email, Role: in.Role, PasswordHash: hash}
	if err := h.Store.Create(r.Context(), u); err != nil {
		h.storeError(w, r, "create user", err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.load(w, r)
	if !ok {
		return
	}
	var in userInput
	if err := httpx.Decode(r, &in); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	in.normalize()
	if msg := in.validate(); msg != "" {
		httpx.WriteError(w, http.StatusBadRequest, msg)
		return
	}
	u := &User{ID: existing.ID, EntityID: existing.EntityID, Name: in.Name, Email: in.Email, Role: in.Role}
	if err := h.Store.Update(r.Context(), u); err != nil {
		h.storeError(w, r, "update user", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, u)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := h.Store.Delete(r.Context(), existing.ID); err != nil {
		h.storeError(w, r, "delete user", err)
		return
	}
	httpx.WriteMessage(w, "User deleted successfully")
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*User, bool) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	u, err := h.Store.Get(r.Context(), id)
	if err != nil {
		h.storeError(w, r, "get user", err)
		return nil, false
	}
	if !auth.RequireEntityAccess(w, r, u.EntityID) {
		return nil, false
	}
	return u, true
}

func (h *Handler) storeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, ErrEmailExists):
		httpx.WriteError(w, http.StatusConflict, "Email already registered")
	default:
		httpx.InternalError(w, r, h.Logger, op, err)
	}
}

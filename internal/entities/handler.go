package entities

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

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

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Store.List(r.Context())
	if err != nil {
		httpx.InternalError(w, r, h.Logger, "list entities", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !auth.RequireEntityAccess(w, r, id) {
		return
	}
	e, err := h.Store.Get(r.Context(), id)
	if err != nil {
		h.storeError(w, r, "get entity", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in SignUp
	if err := httpx.Decode(r, &in); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	trimEntity(&in.Entity)
	in.UserName = strings.TrimSpace(in.UserName)
	in.UserEmail = strings.TrimSpace(in.UserEmail)
	if in.UserName == "" {
		in.UserName = in.Name
	}
	// The login is tied to its entity by email, so default to the entity's.
	if in.UserEmail == "" {
		in.UserEmail = in.Email
	}
	if msg := validateEntity(&in.Entity); msg != "" {
		httpx.WriteError(w, http.StatusBadRequest, msg)
		return
	}
	if err := auth.ValidateEmail(in.UserEmail); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "usuario_email is invalid")
		return
	}
	if err := auth.ValidatePassword(in.UserPassword); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "usuario_senha must be between 6 and 72 characters")
		return
	}

	hash, err := h.Passwords.HashPassword(in.UserPassword)
	if err != nil {
		httpx.InternalError(w, r, h.Logger, "hash entity user password", err)
		return
	}
	user := &auth.EntityUserAccount{Name: in.UserName, Email: in.UserEmail, PasswordHash: hash}
	e := in.Entity
	if err := h.Store.CreateWithUser(r.Context(), &e, user); err != nil {
		if errors.Is(err, auth.ErrAccountExists) {
			httpx.WriteError(w, http.StatusConflict, "usuario_email already registered")
			return
		}
		httpx.InternalError(w, r, h.Logger, "create entity", err)
		return
	}
	h.Logger.InfoContext(r.Context(), "entity created", "entity_id", e.ID, "entity_user_id", user.ID)
	httpx.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "Entity and user created",
		"empresa": e,
	})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !auth.RequireEntityAccess(w, r, id) {
		return
	}
	var e Entity
	if err := httpx.Decode(r, &e); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	trimEntity(&e)
	if msg := validateEntity(&e); msg != "" {
		httpx.WriteError(w, http.StatusBadRequest, msg)
		return
	}
	e.ID = id
	if err := h.Store.Update(r.Context(), &e); err != nil {
		h.storeError(w, r, "update entity", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.Store.Delete(r.Context(), id); err != nil {
		h.storeError(w, r, "delete entity", err)
		return
	}
	httpx.WriteMessage(w, "Entity deleted successfully")
}

func (h *Handler) storeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.WriteError(w, http.StatusNotFound, "Entity not found")
		return
	}
	httpx.InternalError(w, r, h.Logger, op, err)
}

func trimEntity(e *Entity) {
	e.Name = strings.TrimSpace(e.Name)
	e.Email = strings.TrimSpace(e.Email)
	e.CNPJ = strings.TrimSpace(e.CNPJ)
	e.State = strings.ToUpper(strings.TrimSpace(e.State))
}

func validateEntity(e *Entity) string {
	if e.Name == "" {
		return "nome is required"
	}
	if err := auth.ValidateEmail(e.Email); err != nil {
		return "email is invalid"
	}
	return ""
}

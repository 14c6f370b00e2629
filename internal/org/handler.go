package org

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"orgmeet/internal/auth"
	"orgmeet/internal/httpx"
)

// Handler serves CRUD for one Kind of unit.
type Handler struct {
	Store  *Store
	Logger *slog.Logger
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
		httpx.InternalError(w, r, h.Logger, "list "+h.Store.Kind().table, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var u Unit
	if err := httpx.Decode(r, &u); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	u.Name = strings.TrimSpace(u.Name)
	if u.EntityID <= 0 {
		httpx.WriteError(w, http.StatusBadRequest, "entity_id is required")
		return
	}
	if u.Name == "" {
		httpx.WriteError(w, http.StatusBadRequest, "name is required")
		return
	}
	if !auth.RequireEntityAccess(w, r, u.EntityID) {
		return
	}
	if !h.checkParent(w, r, &u) {
		return
	}
	if err := h.Store.Create(r.Context(), &u); err != nil {
		httpx.InternalError(w, r, h.Logger, "create "+h.Store.Kind().table, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, u)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.load(w, r)
	if !ok {
		return
	}
	var u Unit
	if err := httpx.Decode(r, &u); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	u.Name = strings.TrimSpace(u.Name)
	if u.Name == "" {
		httpx.WriteError(w, http.StatusBadRequest, "name is required")
		return
	}
	u.ID = existing.ID
	u.EntityID = existing.EntityID
	if !h.checkParent(w, r, &u) {
		return
	}
	if err := h.Store.Update(r.Context(), &u); err != nil {
		h.storeError(w, r, "update", err)
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
		h.storeError(w, r, "delete", err)
		return
	}
	httpx.WriteMessage(w, h.Store.Kind().Name+" deleted successfully")
}

// load fetches the unit named by the {id} path value and checks the caller
// may touch its entity.
func (h *Handler) load(w http.ResponseWriter, r *http.Request) (*Unit, bool) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	u, err := h.Store.Get(r.Context(), id)
	if err != nil {
		h.storeError(w, r, "get", err)
		return nil, false
	}
	if !auth.RequireEntityAccess(w, r, u.EntityID) {
		return nil, false
	}
	return u, true
}

// checkParent rejects a parent unit that belongs to another entity.
func (h *Handler) checkParent(w http.ResponseWriter, r *http.Request, u *Unit) bool {
	kind := h.Store.Kind()
	p := kind.parent(u)
	if p == nil || *p == nil {
		return true
	}
	owner, err := h.Store.ParentEntity(r.Context(), **p)
	switch {
	case errors.Is(err, ErrNotFound), err == nil && owner != u.EntityID:
		httpx.WriteError(w, http.StatusBadRequest, fmt.Sprintf("%s does not belong to entity %d", kind.parentColumn, u.EntityID))
		return false
	case err != nil:
		httpx.InternalError(w, r, h.Logger, "check parent", err)
		return false
	}
	return true
}

func (h *Handler) storeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.WriteError(w, http.StatusNotFound, h.Store.Kind().Name+" not found")
		return
	}
	httpx.InternalError(w, r, h.Logger, op+" "+h.Store.Kind().table, err)
}

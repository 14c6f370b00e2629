package meetings

import (
	"net/http"
	"strings"

	"orgmeet/internal/httpx"
)

func (h *Handler) ListAgenda(w http.ResponseWriter, r *http.Request) {
	meetingID, err := httpx.PathID(r, "meetingId")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.requireMeetingAccess(w, r, meetingID) {
		return
	}
	items, err := h.Store.ListAgenda(r.Context(), meetingID)
	if err != nil {
		h.writeError(w, r, "list agenda", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) CreateAgendaItem(w http.ResponseWriter, r *http.Request) {
	var a AgendaItem
	if err := httpx.Decode(r, &a); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	a.Description = strings.TrimSpace(a.Description)
	switch {
	case a.MeetingID <= 0:
		httpx.WriteError(w, http.StatusBadRequest, "meeting_id is required")
		return
	case a.Description == "":
		httpx.WriteError(w, http.StatusBadRequest, "description is required")
		return
	case a.Order < 0:
		httpx.WriteError(w, http.StatusBadRequest, "item_order must not be negative")
		return
	}
	if !h.requireMeetingAccess(w, r, a.MeetingID) {
		return
	}
	if err := h.Store.CreateAgendaItem(r.Context(), &a); err != nil {
		h.writeError(w, r, "create agenda item", err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, a)
}

func (h *Handler) UpdateAgendaItem(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadAgendaItem(w, r)
	if !ok {
		return
	}
	var a AgendaItem
	if err := httpx.Decode(r, &a); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	a.Description = strings.TrimSpace(a.Description)
	if a.Description == "" {
		httpx.WriteError(w, http.StatusBadRequest, "description is required")
		return
	}
	if a.Order <= 0 {
		a.Order = existing.Order
	}
	a.ID = existing.ID
	if err := h.Store.UpdateAgendaItem(r.Context(), &a); err != nil {
		h.writeError(w, r, "update agenda item", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) DeleteAgendaItem(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadAgendaItem(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeleteAgendaItem(r.Context(), existing.ID); err != nil {
		h.writeError(w, r, "delete agenda item", err)
		return
	}
	httpx.WriteMessage(w, "Agenda item deleted successfully")
}

type reorderRequest struct {
	IDs []int64 `json:"ids"`
}

// ReorderAgenda renumbers a meeting's agenda in the order the ids are given.
func (h *Handler) ReorderAgenda(w http.ResponseWriter, r *http.Request) {
	meetingID, err := httpx.PathID(r, "meetingId")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req reorderRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		httpx.WriteError(w, http.StatusBadRequest, "ids is required")
		return
	}
	if !h.requireMeetingAccess(w, r, meetingID) {
		return
	}
	if err := h.Store.ReorderAgenda(r.Context(), meetingID, req.IDs); err != nil {
		h.writeError(w, r, "reorder agenda", err)
		return
	}
	items, err := h.Store.ListAgenda(r.Context(), meetingID)
	if err != nil {
		h.writeError(w, r, "list agenda", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

func (h *Handler) loadAgendaItem(w http.ResponseWriter, r *http.Request) (*AgendaItem, bool) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	a, err := h.Store.GetAgendaItem(r.Context(), id)
	if err != nil {
		h.writeError(w, r, "get agenda item", err)
		return nil, false
	}
	if !h.requireMeetingAccess(w, r, a.MeetingID) {
		return nil, false
	}
	return a, true
}

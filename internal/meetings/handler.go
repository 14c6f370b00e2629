package meetings

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"orgmeet/internal/auth"
	"orgmeet/internal/httpx"
	"orgmeet/internal/storage"
)

// FileStore presigns transfers of attachment bytes. *storage.Presigner
// satisfies it.
type FileStore interface {
	PresignUpload(ctx context.Context, key, contentType string) (*storage.Presigned, error)
	PresignDownload(ctx context.Context, key, fileName string) (*storage.Presigned, error)
	Remove(ctx context.Context, key string) error
}

type Handler struct {
	Store  *Store
	Files  FileStore
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
	f, err := parseFilter(r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	list, err := h.Store.ListByEntity(r.Context(), entityID, f)
	if err != nil {
		httpx.InternalError(w, r, h.Logger, "list meetings", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

func parseFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()
	f := ListFilter{Query: q.Get("q")}
	var err error
	if v := q.Get("from"); v != "" {
		if f.From, err = time.Parse(time.RFC3339, v); err != nil {
			return f, errors.New("from must be an RFC 3339 timestamp")
		}
	}
	if v := q.Get("to"); v != "" {
		if f.To, err = time.Parse(time.RFC3339, v); err != nil {
			return f, errors.New("to must be an RFC 3339 timestamp")
		}
	}
	if v := q.Get("limit"); v != "" {
		if f.Limit, err = strconv.Atoi(v); err != nil {
			return f, errors.New("limit must be a number")
		}
	}
	return f, nil
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	m, ok := h.loadMeeting(w, r)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var m Meeting
	if err := httpx.Decode(r, &m); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	m.normalize()
	if m.EntityID <= 0 {
		httpx.WriteError(w, http.StatusBadRequest, "entity_id is required")
		return
	}
	if err := m.validate(); err != nil {
		h.writeError(w, r, "create meeting", err)
		return
	}
	if !auth.RequireEntityAccess(w, r, m.EntityID) {
		return
	}
	if id, ok := auth.IdentityFromContext(r.Context()); ok {
		m.CreatedBy = id.Email
	}
	if err := h.Store.Create(r.Context(), &m); err != nil {
		h.writeError(w, r, "create meeting", err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, m)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadMeeting(w, r)
	if !ok {
		return
	}
	var m Meeting
	if err := httpx.Decode(r, &m); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	m.normalize()
	if err := m.validate(); err != nil {
		h.writeError(w, r, "update meeting", err)
		return
	}
	m.ID = existing.ID
	if err := h.Store.Update(r.Context(), &m); err != nil {
		h.writeError(w, r, "update meeting", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.loadMeeting(w, r)
	if !ok {
		return
	}
	keys, err := h.Store.Delete(r.Context(), existing.ID)
	if err != nil {
		h.writeError(w, r, "delete meeting", err)
		return
	}
	h.removeObjects(r.Context(), keys...)
	httpx.WriteMessage(w, "Meeting deleted successfully")
}

// removeObjects deletes stored files whose rows are already gone. Failures
// only leave orphaned objects behind, so they are logged, not returned.
func (h *Handler) removeObjects(ctx context.Context, keys ...string) {
	for _, k := range keys {
		if err := h.Files.Remove(ctx, k); err != nil {
			h.Logger.WarnContext(ctx, "remove attachment object", "key", k, "err", err)
		}
	}
}

func (h *Handler) loadMeeting(w http.ResponseWriter, r *http.Request) (*Meeting, bool) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	m, err := h.Store.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, "get meeting", err)
		return nil, false
	}
	if !auth.RequireEntityAccess(w, r, m.EntityID) {
		return nil, false
	}
	return m, true
}

// requireMeetingAccess resolves the meeting's entity and checks the caller
// may touch it. Unknown meetings answer 404.
func (h *Handler) requireMeetingAccess(w http.ResponseWriter, r *http.Request, meetingID int64) bool {
	entityID, err := h.Store.EntityOf(r.Context(), meetingID)
	if err != nil {
		h.writeError(w, r, "resolve meeting", err)
		return false
	}
	return auth.RequireEntityAccess(w, r, entityID)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		httpx.WriteError(w, http.StatusBadRequest, strings.TrimPrefix(err.Error(), ErrValidation.Error()+": "))
	case errors.Is(err, ErrMeetingNotFound):
		httpx.WriteError(w, http.StatusNotFound, "Meeting not found")
	case errors.Is(err, ErrAgendaItemNotFound):
		httpx.WriteError(w, http.StatusNotFound, "Agenda item not found")
	case errors.Is(err, ErrAttachmentNotFound):
		httpx.WriteError(w, http.StatusNotFound, "Attachment not found")
	default:
		httpx.InternalError(w, r, h.Logger, op, err)
	}
}

package meetings

import (
	"net/http"
	"path"
	"strings"

	"orgmeet/internal/httpx"
	"orgmeet/internal/storage"
)

type attachmentRequest struct {
	MeetingID   int64  `json:"meeting_id"`
	FileName    string `json:"file_name"`
	Description string `json:"description"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

type attachmentResponse struct {
	Attachment *Attachment        `json:"attachment"`
	Transfer   *storage.Presigned `json:"transfer"`
}

func (h *Handler) ListAttachments(w http.ResponseWriter, r *http.Request) {
	meetingID, err := httpx.PathID(r, "meetingId")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !h.requireMeetingAccess(w, r, meetingID) {
		return
	}
	list, err := h.Store.ListAttachments(r.Context(), meetingID)
	if err != nil {
		h.writeError(w, r, "list attachments", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

// CreateAttachment records the file's metadata and returns a presigned URL
// the client uploads the bytes to.
func (h *Handler) CreateAttachment(w http.ResponseWriter, r *http.Request) {
	var req attachmentRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.FileName = path.Base(strings.TrimSpace(req.FileName))
	switch {
	case req.MeetingID <= 0:
		httpx.WriteError(w, http.StatusBadRequest, "meeting_id is required")
		return
	case req.FileName == "" || req.FileName == "." || req.FileName == "/":
		httpx.WriteError(w, http.StatusBadRequest, "file_name is required")
		return
	case req.SizeBytes < 0:
		httpx.WriteError(w, http.StatusBadRequest, "size_bytes must not be negative")
		return
	}
	if req.ContentType == "" {
		req.ContentType = "application/octet-stream"
	}
	if !h.requireMeetingAccess(w, r, req.MeetingID) {
		return
	}

	key := storage.NewKey(req.MeetingID)
	upload, err := h.Files.PresignUpload(r.Context(), key, req.ContentType)
	if err != nil {
		httpx.InternalError(w, r, h.Logger, "presign upload", err)
		return
	}
	a := &Attachment{
		MeetingID:   req.MeetingID,
		FileName:    req.FileName,
		StorageKey:  key,
		Description: req.Description,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
	}
	if err := h.Store.CreateAttachment(r.Context(), a); err != nil {
		h.writeError(w, r, "create attachment", err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, attachmentResponse{Attachment: a, Transfer: upload})
}

func (h *Handler) DownloadAttachment(w http.ResponseWriter, r *http.Request) {
	a, ok := h.loadAttachment(w, r)
	if !ok {
		return
	}
	dl, err := h.Files.PresignDownload(r.Context(), a.StorageKey, a.FileName)
	if err != nil {
		httpx.InternalError(w, r, h.Logger, "presign download", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, attachmentResponse{Attachment: a, Transfer: dl})
}

func (h *Handler) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	a, ok := h.loadAttachment(w, r)
	if !ok {
		return
	}
	if err := h.Store.DeleteAttachment(r.Context(), a.ID); err != nil {
		h.writeError(w, r, "delete attachment", err)
		return
	}
	h.removeObjects(r.Context(), a.StorageKey)
	httpx.WriteMessage(w, "Attachment deleted successfully")
}

func (h *Handler) loadAttachment(w http.ResponseWriter, r *http.Request) (*Attachment, bool) {
	id, err := httpx.PathID(r, "id")
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	a, err := h.Store.GetAttachment(r.Context(), id)
	if err != nil {
		h.writeError(w, r, "get attachment", err)
		return nil, false
	}
	if !h.requireMeetingAccess(w, r, a.MeetingID) {
		return nil, false
	}
	return a, true
}

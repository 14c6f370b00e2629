package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Result is a read answered either by the server or, when the server is
// unreachable, by the last snapshot of the same read.
type Result[T any] struct {
	Data      T
	Stale     bool
	FetchedAt time.Time
}

// FallbackRepository reads through the API and falls back to cached
// snapshots on transport failures or 5xx answers. Client errors such as 401
// or 404 are always returned as-is. Writes go straight to the server; a
// successful write invalidates the snapshots it affects.
type FallbackRepository struct {
	api    *API
	cache  *SnapshotStore
	logger *slog.Logger
	now    func() time.Time
}

func NewFallbackRepository(api *API, cache *SnapshotStore, logger *slog.Logger) *FallbackRepository {
	return &FallbackRepository{api: api, cache: cache, logger: logger, now: time.Now}
}

func fetch[T any](ctx context.Context, r *FallbackRepository, sess *Session, path string) (Result[T], error) {
	var res Result[T]
	if sess == nil {
		return res, ErrNoSession
	}
	body, err := r.api.get(ctx, sess, path)
	if err == nil {
		if err := json.Unmarshal(body, &res.Data); err != nil {
			return res, fmt.Errorf("decode %s: %w", path, err)
		}
		res.FetchedAt = r.now().UTC()
		if cerr := r.cache.Put(ctx, sess.owner(), path, body, res.FetchedAt); cerr != nil {
			r.logger.WarnContext(ctx, "cache write failed", "path", path, "err", cerr)
		}
		return res, nil
	}
	if !IsUnavailable(err) {
		return res, err
	}

	cached, fetchedAt, cerr := r.cache.Get(ctx, sess.owner(), path)
	if cerr != nil {
		if !errors.Is(cerr, ErrNoSnapshot) {
			r.logger.WarnContext(ctx, "cache read failed", "path", path, "err", cerr)
		}
		return res, err
	}
	if uerr := json.Unmarshal(cached, &res.Data); uerr != nil {
		return res, err
	}
	res.Stale = true
	res.FetchedAt = fetchedAt
	return res, nil
}

// write sends a mutating request and drops the snapshots it may have made
// out of date.
func (r *FallbackRepository) write(ctx context.Context, sess *Session, method, path string, in, out any, invalidate ...string) error {
	if sess == nil {
		return ErrNoSession
	}
	if err := r.api.do(ctx, sess, method, path, in, out); err != nil {
		return err
	}
	if err := r.cache.Invalidate(ctx, sess.owner(), invalidate...); err != nil {
		r.logger.WarnContext(ctx, "cache invalidation failed", "err", err)
	}
	return nil
}

func (r *FallbackRepository) Me(ctx context.Context, sess *Session) (Result[map[string]any], error) {
	return fetch[map[string]any](ctx, r, sess, "/api/auth/me")
}

func (r *FallbackRepository) Entities(ctx context.Context, sess *Session) (Result[[]Entity], error) {
	return fetch[[]Entity](ctx, r, sess, "/api/entities")
}

func (r *FallbackRepository) Entity(ctx context.Context, sess *Session, id int64) (Result[Entity], error) {
	return fetch[Entity](ctx, r, sess, fmt.Sprintf("/api/entities/%d", id))
}

func (r *FallbackRepository) Units(ctx context.Context, sess *Session, kind UnitKind, entityID int64) (Result[[]Unit], error) {
	return fetch[[]Unit](ctx, r, sess, fmt.Sprintf("/api/%s/entity/%d", kind, entityID))
}

func (r *FallbackRepository) Users(ctx context.Context, sess *Session, entityID int64) (Result[[]User], error) {
	return fetch[[]User](ctx, r, sess, fmt.Sprintf("/api/users/entity/%d", entityID))
}

func (r *FallbackRepository) Meetings(ctx context.Context, sess *Session, entityID int64) (Result[[]Meeting], error) {
	return fetch[[]Meeting](ctx, r, sess, fmt.Sprintf("/api/meetings/entity/%d", entityID))
}

func (r *FallbackRepository) Meeting(ctx context.Context, sess *Session, id int64) (Result[Meeting], error) {
	return fetch[Meeting](ctx, r, sess, fmt.Sprintf("/api/meetings/%d", id))
}

func (r *FallbackRepository) Agenda(ctx context.Context, sess *Session, meetingID int64) (Result[[]AgendaItem], error) {
	return fetch[[]AgendaItem](ctx, r, sess, fmt.Sprintf("/api/agenda-items/meeting/%d", meetingID))
}

func (r *FallbackRepository) Attachments(ctx context.Context, sess *Session, meetingID int64) (Result[[]Attachment], error) {
	return fetch[[]Attachment](ctx, r, sess, fmt.Sprintf("/api/attachments/meeting/%d", meetingID))
}

func (r *FallbackRepository) CreateMeeting(ctx context.Context, sess *Session, m *Meeting) error {
	return r.write(ctx, sess, http.MethodPost, "/api/meetings", m, m,
		fmt.Sprintf("/api/meetings/entity/%d", m.EntityID))
}

func (r *FallbackRepository) UpdateMeeting(ctx context.Context, sess *Session, m *Meeting) error {
	return r.write(ctx, sess, http.MethodPut, fmt.Sprintf("/api/meetings/%d", m.ID), m, m,
		"/api/meetings/")
}

func (r *FallbackRepository) DeleteMeeting(ctx context.Context, sess *Session, id int64) error {
	return r.write(ctx, sess, http.MethodDelete, fmt.Sprintf("/api/meetings/%d", id), nil, nil,
		"/api/meetings/",
		fmt.Sprintf("/api/agenda-items/meeting/%d", id),
		fmt.Sprintf("/api/attachments/meeting/%d", id))
}

func (r *FallbackRepository) CreateAgendaItem(ctx context.Context, sess *Session, a *AgendaItem) error {
	return r.write(ctx, sess, http.MethodPost, "/api/agenda-items", a, a,
		fmt.Sprintf("/api/agenda-items/meeting/%d", a.MeetingID))
}

// CreateAttachment registers the file and returns where to upload its bytes.
func (r *FallbackRepository) CreateAttachment(ctx context.Context, sess *Session, in NewAttachment) (*AttachmentTransfer, error) {
	var out AttachmentTransfer
	err := r.write(ctx, sess, http.MethodPost, "/api/attachments", in, &out,
		fmt.Sprintf("/api/attachments/meeting/%d", in.MeetingID))
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DownloadAttachment is never served from cache: presigned URLs expire.
func (r *FallbackRepository) DownloadAttachment(ctx context.Context, sess *Session, id int64) (*AttachmentTransfer, error) {
	var out AttachmentTransfer
	if err := r.api.do(ctx, sess, http.MethodGet, fmt.Sprintf("/api/attachments/%d/download", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

package httpserver

import (
	"log/slog"
	"net/http"

	"orgmeet/internal/auth"
	"orgmeet/internal/entities"
	"orgmeet/internal/httpx"
	"orgmeet/internal/meetings"
	"orgmeet/internal/org"
	"orgmeet/internal/users"
)

type Deps struct {
	Logger      *slog.Logger
	Auth        *auth.Service
	Entities    *entities.Store
	Departments *org.Store
	Sectors     *org.Store
	Positions   *org.Store
	Users       *users.Store
	Meetings    *meetings.Store
	Files       meetings.FileStore
	CORSOrigin  string
}

func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()
	logger := d.Logger

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "OK", "message": "API is running"})
	})

	secured := auth.JWTMiddleware(d.Auth.Issuer())
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return secured(auth.RequireRole(h, auth.RoleAdmin))
	}
	// Entity-scoped routes; handlers narrow entity users to their own entity.
	member := func(h http.HandlerFunc) http.Handler {
		return secured(auth.RequireRole(h, auth.RoleAdmin, auth.RoleEntity))
	}

	// Auth
	mux.Handle("POST /api/auth/login", &auth.LoginHandler{Service: d.Auth, Logger: logger})
	// Admins register admins; the first one comes from the seed file.
	mux.Handle("POST /api/auth/register-admin", secured(auth.RequireRole(
		(&auth.RegisterAdminHandler{Service: d.Auth, Logger: logger}).ServeHTTP, auth.RoleAdmin)))
	mux.Handle("GET /api/auth/me", secured(auth.MeHandler{}))

	// Entities
	eh := &entities.Handler{Store: d.Entities, Passwords: d.Auth, Logger: logger}
	mux.Handle("GET /api/entities", adminOnly(eh.List))
	mux.Handle("GET /api/entities/{id}", member(eh.Get))
	mux.Handle("POST /api/entities", adminOnly(eh.Create))
	mux.Handle("PUT /api/entities/{id}", adminOnly(eh.Update))
	mux.Handle("DELETE /api/entities/{id}", adminOnly(eh.Delete))

	// Departments, sectors, positions
	for prefix, store := range map[string]*org.Store{
		"/api/departments": d.Departments,
		"/api/sectors":     d.Sectors,
		"/api/positions":   d.Positions,
	} {
		h := &org.Handler{Store: store, Logger: logger}
		mux.Handle("GET "+prefix+"/entity/{entityId}", member(h.ListByEntity))
		mux.Handle("POST "+prefix, member(h.Create))
		mux.Handle("PUT "+prefix+"/{id}", member(h.Update))
		mux.Handle("DELETE "+prefix+"/{id}", member(h.Delete))
	}

	// Users
	uh := &users.Handler{Store: d.Users, Passwords: d.Auth, Logger: logger}
	mux.Handle("GET /api/users", adminOnly(uh.List))
	mux.Handle("GET /api/users/entity/{entityId}", member(uh.ListByEntity))
	mux.Handle("POST /api/users", member(uh.Create))
	mux.Handle("PUT /api/users/{id}", member(uh.Update))
	mux.Handle("DELETE /api/users/{id}", member(uh.Delete))

	// Meetings, agenda items, attachments
	mh := &meetings.Handler{Store: d.Meetings, Files: d.Files, Logger: logger}
	mux.Handle("GET /api/meetings/entity/{entityId}", member(mh.ListByEntity))
	mux.Handle("GET /api/meetings/{id}", member(mh.Get))
	mux.Handle("POST /api/meetings", member(mh.Create))
	mux.Handle("PUT /api/meetings/{id}", member(mh.Update))
	mux.Handle("DELETE /api/meetings/{id}", member(mh.Delete))

	mux.Handle("GET /api/agenda-items/meeting/{meetingId}", member(mh.ListAgenda))
	mux.Handle("PUT /api/agenda-items/meeting/{meetingId}/order", member(mh.ReorderAgenda))
	mux.Handle("POST /api/agenda-items", member(mh.CreateAgendaItem))
	mux.Handle("PUT /api/agenda-items/{id}", member(mh.UpdateAgendaItem))
	mux.Handle("DELETE /api/agenda-items/{id}", member(mh.DeleteAgendaItem))

	mux.Handle("GET /api/attachments/{a}/{b}", member(attachmentReads(mh)))
	mux.Handle("POST /api/attachments", member(mh.CreateAttachment))
	mux.Handle("DELETE /api/attachments/{id}", member(mh.DeleteAttachment))

	return withCORS(d.CORSOrigin, withRequestLog(logger, mux))
}

// attachmentReads serves both /api/attachments/meeting/{meetingId} and
// /api/attachments/{id}/download. ServeMux rejects registering the two
// patterns side by side since "meeting/download" would match either.
func attachmentReads(h *meetings.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, b := r.PathValue("a"), r.PathValue("b")
		switch {
		case a == "meeting":
			r.SetPathValue("meetingId", b)
			h.ListAttachments(w, r)
		case b == "download":
			r.SetPathValue("id", a)
			h.DownloadAttachment(w, r)
		default:
			httpx.WriteError(w, http.StatusNotFound, "Not found")
		}
	}
}

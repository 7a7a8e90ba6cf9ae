package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/student-dashboard/internal/apperror"
	"github.com/sakif/student-dashboard/internal/auth"
	"github.com/sakif/student-dashboard/internal/model"
	"github.com/sakif/student-dashboard/internal/repository"
	"github.com/sakif/student-dashboard/internal/service"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// UserHandler serves /api/users: accounts, platform links, bulk imports and
// per-user analytics.
type UserHandler struct {
	svc    *service.UserService
	logger *slog.Logger
}

func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// actor returns the authenticated user's ID. Routes that call it sit
// behind RequireAuth, so a miss means the router is wired wrong.
func actor(r *http.Request) (string, error) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return "", apperror.Unauthorized("Not authorized, no token")
	}
	return id, nil
}

// HandleCreate creates one account.
//
// HTTP: POST /api/users
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in service.CreateUserInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	u, err := h.svc.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, "User created successfully", u)
}

// HandleList returns one page of users.
//
// HTTP: GET /api/users?limit=50&offset=0
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	opts, err := pageOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}
	users, err := h.svc.List(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, users)
}

// HTTP: GET /api/users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", u)
}

// HandleUpdate applies a partial update to the caller's own account.
//
// HTTP: PUT /api/users/{id}
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in service.UpdateUserInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}
	u, err := h.svc.Update(r.Context(), actorID, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "User updated successfully", u)
}

// HTTP: DELETE /api/users/{id}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.svc.Delete(r.Context(), actorID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "User deleted successfully", nil)
}

// HTTP: GET /api/users/{id}/links
func (h *UserHandler) HandleGetLinks(w http.ResponseWriter, r *http.Request) {
	l, err := h.svc.Links(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", l)
}

// HandleUpdateLinks patches the caller's own links. Absent fields are kept,
// an empty string clears a link.
//
// HTTP: PUT /api/users/{id}/links
func (h *UserHandler) HandleUpdateLinks(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var patch model.LinksPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, err)
		return
	}
	l, err := h.svc.UpdateLinks(r.Context(), actorID, chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "Links updated successfully", l)
}

// HTTP: GET /api/users/links/{rollNumber}
func (h *UserHandler) HandleGetLinksByRollNumber(w http.ResponseWriter, r *http.Request) {
	l, err := h.svc.LinksByRollNumber(r.Context(), chi.URLParam(r, "rollNumber"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", l)
}

// HTTP: PUT /api/users/links/{rollNumber}
func (h *UserHandler) HandleUpdateLinksByRollNumber(w http.ResponseWriter, r *http.Request) {
	actorID, err := actor(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var patch model.LinksPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, err)
		return
	}
	l, err := h.svc.UpdateLinksByRollNumber(r.Context(), actorID, chi.URLParam(r, "rollNumber"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "Links updated successfully", l)
}

type bulkCreateRequest struct {
	Users []service.CreateUserInput `json:"users"`
}

// HandleBulkCreate imports many accounts; items fail independently.
//
// HTTP: POST /api/users/bulk/create
func (h *UserHandler) HandleBulkCreate(w http.ResponseWriter, r *http.Request) {
	var req bulkCreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.svc.BulkCreate(r.Context(), req.Users)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Bulk user creation completed",
		Summary: res.Summary,
		Data:    res,
	})
}

type bulkLinksRequest struct {
	Updates []service.BulkLinksUpdate `json:"updates"`
}

// HTTP: PUT /api/users/links/bulk/update
func (h *UserHandler) HandleBulkUpdateLinks(w http.ResponseWriter, r *http.Request) {
	var req bulkLinksRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := h.svc.BulkUpdateLinks(r.Context(), req.Updates)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Bulk links update completed",
		Summary: res.Summary,
		Data:    res,
	})
}

// HandleAnalytics returns the combined analytics of the user's linked handles.
//
// HTTP: GET /api/users/{id}/analytics[?refresh=true]
func (h *UserHandler) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	res, err := h.svc.Analytics(r.Context(), chi.URLParam(r, "id"), refresh)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", res)
}

func pageOptions(r *http.Request) (repository.ListOptions, error) {
	opts := repository.ListOptions{Limit: defaultPageSize}
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return opts, apperror.ValidationFailed("limit", "limit must be a positive integer")
		}
		opts.Limit = min(n, maxPageSize)
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, apperror.ValidationFailed("offset", "offset must be a non-negative integer")
		}
		opts.Offset = n
	}
	return opts, nil
}

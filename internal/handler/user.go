package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aaronwittchen/Firefly/internal/apperror"
	"github.com/aaronwittchen/Firefly/internal/service"
)

// UserHandler exposes the user listing endpoints. Any authenticated caller
// may read any user's public profile — the listing is intentionally not
// restricted to the caller's own record. The response type strips
// everything non-public (see UserResponse).
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: logger,
	}
}

// HandleList returns user profiles with skip/limit pagination.
//
// HTTP: GET /users/?skip=&limit=
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	skip, err := parseIntParam(q.Get("skip"), "skip")
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := parseIntParam(q.Get("limit"), "limit")
	if err != nil {
		writeError(w, err)
		return
	}

	users, err := h.users.List(r.Context(), limit, skip)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, toUserResponse(&users[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGet returns a single user's profile.
//
// HTTP: GET /users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, apperror.NotFound("User", 0))
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aaronwittchen/Firefly/internal/apperror"
	"github.com/aaronwittchen/Firefly/internal/auth"
	"github.com/aaronwittchen/Firefly/internal/model"
	"github.com/aaronwittchen/Firefly/internal/repository"
	"github.com/aaronwittchen/Firefly/internal/service"
)

// ErrorLogHandler exposes the error-log CRUD endpoints. Every route sits
// behind RequireAuth; the caller's identity comes from the request context
// and is passed to the service, which scopes all reads and writes to it.
type ErrorLogHandler struct {
	errorLogs *service.ErrorLogService
	logger    *slog.Logger
}

func NewErrorLogHandler(errorLogs *service.ErrorLogService, logger *slog.Logger) *ErrorLogHandler {
	return &ErrorLogHandler{
		errorLogs: errorLogs,
		logger:    logger,
	}
}

// HandleList returns the caller's error logs, newest first.
//
// HTTP: GET /errors/?project=&tag=&resolved=&language=&error_type=&skip=&limit=
func (h *ErrorLogHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("Could not validate credentials"))
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, err)
		return
	}

	logs, err := h.errorLogs.List(r.Context(), user.ID, filter)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]ErrorLogResponse, 0, len(logs))
	for i := range logs {
		out = append(out, toErrorLogResponse(&logs[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGet returns a single error log.
//
// HTTP: GET /errors/{id}
func (h *ErrorLogHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, id, err := callerAndID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	log, err := h.errorLogs.Get(r.Context(), user.ID, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toErrorLogResponse(log))
}

// HandleCreate creates an error log owned by the caller.
//
// HTTP: POST /errors/
func (h *ErrorLogHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("Could not validate credentials"))
		return
	}

	var draft service.ErrorLogDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	log, err := h.errorLogs.Create(r.Context(), user.ID, draft)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toErrorLogResponse(log))
}

// HandleUpdate applies a partial update: only fields present in the body
// change, everything else keeps its stored value.
//
// HTTP: PUT /errors/{id}
func (h *ErrorLogHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user, id, err := callerAndID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var patch service.ErrorLogPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}

	log, err := h.errorLogs.Update(r.Context(), user.ID, id, patch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toErrorLogResponse(log))
}

// HandleDelete hard-deletes an error log.
//
// HTTP: DELETE /errors/{id} — 204 with an empty body on success.
func (h *ErrorLogHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, id, err := callerAndID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.errorLogs.Delete(r.Context(), user.ID, id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// callerAndID pulls the authenticated user from the context and the record
// id from the URL. A non-numeric id is reported as NotFound, the same as a
// numeric id that matches nothing.
func callerAndID(r *http.Request) (*model.User, int64, error) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		return nil, 0, apperror.Unauthorized("Could not validate credentials")
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return nil, 0, apperror.NotFound("Error", 0)
	}

	return user, id, nil
}

func parseFilter(r *http.Request) (repository.ErrorLogFilter, error) {
	q := r.URL.Query()

	filter := repository.ErrorLogFilter{
		Project:   q.Get("project"),
		Tag:       q.Get("tag"),
		Language:  q.Get("language"),
		ErrorType: q.Get("error_type"),
	}

	if v := q.Get("resolved"); v != "" {
		resolved, err := strconv.ParseBool(v)
		if err != nil {
			return filter, apperror.ValidationFailed("resolved", "resolved must be true or false")
		}
		filter.Resolved = &resolved
	}

	var err error
	if filter.Offset, err = parseIntParam(q.Get("skip"), "skip"); err != nil {
		return filter, err
	}
	if filter.Limit, err = parseIntParam(q.Get("limit"), "limit"); err != nil {
		return filter, err
	}

	return filter, nil
}

func parseIntParam(value, name string) (int, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0, apperror.ValidationFailed(name, name+" must be a non-negative integer")
	}
	return n, nil
}

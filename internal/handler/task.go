package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/todolist/internal/apperror"
	"github.com/sakif/todolist/internal/auth"
	"github.com/sakif/todolist/internal/model"
)

// TaskService is implemented by service.TaskService.
type TaskService interface {
	List(ctx context.Context, userID int64, filter model.TaskFilter) ([]model.Task, error)
	Get(ctx context.Context, id, userID int64) (*model.Task, error)
	Create(ctx context.Context, userID int64, in model.CreateTaskInput) (*model.Task, error)
	Update(ctx context.Context, id, userID int64, in model.UpdateTaskInput) (*model.Task, error)
	Delete(ctx context.Context, id, userID int64) error
}

// TaskHandler serves /tasks. Every route sits behind RequireAuth; the
// owner is always the authenticated user, never a value from the request.
type TaskHandler struct {
	tasks  TaskService
	logger *slog.Logger
}

func NewTaskHandler(tasks TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{tasks: tasks, logger: logger}
}

// HandleList returns the user's tasks, newest first, each with its
// subtasks and category name and color.
//
// HTTP: GET /tasks?categoria_id=3&data_inicio=2025-01-01&data_fim=2025-01-31
//
// The date bounds are inclusive and compare against data_vencimento.
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)

	var filter model.TaskFilter
	q := r.URL.Query()
	if raw := q.Get("categoria_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, apperror.ValidationFailed("categoria_id", "categoria_id must be an integer"))
			return
		}
		filter.CategoryID = &id
	}
	if raw := q.Get("data_inicio"); raw != "" {
		filter.DueFrom = &raw
	}
	if raw := q.Get("data_fim"); raw != "" {
		filter.DueTo = &raw
	}

	tasks, err := h.tasks.List(r.Context(), user.ID, filter)
	if err != nil {
		h.fail(w, "listing tasks", err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

// HandleGet returns one task.
//
// HTTP: GET /tasks/{id}
func (h *TaskHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	task, err := h.tasks.Get(r.Context(), id, user.ID)
	if err != nil {
		h.fail(w, "getting task", err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// HandleCreate adds a task.
//
// HTTP: POST /tasks
// REQUEST BODY: {"titulo": "X", "descricao": "...", "categoria_id": 3, "data_vencimento": "2025-01-31"}
// RESPONSE: 201 {"id": 7, "ok": true}
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)

	var in model.CreateTaskInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	task, err := h.tasks.Create(r.Context(), user.ID, in)
	if err != nil {
		h.fail(w, "creating task", err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: task.ID, OK: true})
}

// HandleUpdate applies a partial update. Keys left out of the body keep
// their stored value; an explicit null clears descricao, categoria_id or
// data_vencimento.
//
// HTTP: PUT /tasks/{id}
func (h *TaskHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var in model.UpdateTaskInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.tasks.Update(r.Context(), id, user.ID, in); err != nil {
		h.fail(w, "updating task", err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// HandleDelete removes a task and its subtasks.
//
// HTTP: DELETE /tasks/{id}
func (h *TaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.tasks.Delete(r.Context(), id, user.ID); err != nil {
		h.fail(w, "deleting task", err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *TaskHandler) fail(w http.ResponseWriter, op string, err error) {
	logFailure(h.logger, op, err)
	writeError(w, err)
}

// mustUser returns the user RequireAuth stored in the context. Handlers
// using it are only ever mounted behind RequireAuth.
func mustUser(r *http.Request) *model.User {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		panic("handler: route mounted without auth.RequireAuth")
	}
	return user
}

// logFailure keeps 4xx outcomes out of the error log.
func logFailure(logger *slog.Logger, op string, err error) {
	if isClientError(err) {
		logger.Debug(op, slog.String("error", err.Error()))
		return
	}
	logger.Error(op+" failed", slog.String("error", err.Error()))
}

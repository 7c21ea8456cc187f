package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/todolist/internal/model"
)

// SubtaskService is implemented by service.SubtaskService.
type SubtaskService interface {
	ListByTask(ctx context.Context, taskID, userID int64) ([]model.Subtask, error)
	Create(ctx context.Context, taskID, userID int64, in model.CreateSubtaskInput) (*model.Subtask, error)
	Update(ctx context.Context, id, userID int64, in model.UpdateSubtaskInput) (*model.Subtask, error)
	Delete(ctx context.Context, id, userID int64) error
}

// SubtaskHandler serves /tasks/{id}/subtasks and /subtasks/{id}. A subtask
// belongs to whoever owns its parent task.
type SubtaskHandler struct {
	subtasks SubtaskService
	logger   *slog.Logger
}

func NewSubtaskHandler(subtasks SubtaskService, logger *slog.Logger) *SubtaskHandler {
	return &SubtaskHandler{subtasks: subtasks, logger: logger}
}

// HTTP: GET /tasks/{id}/subtasks
func (h *SubtaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)
	taskID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	subtasks, err := h.subtasks.ListByTask(r.Context(), taskID, user.ID)
	if err != nil {
		h.fail(w, "listing subtasks", err)
		return
	}
	writeJSON(w, http.StatusOK, subtasks)
}

// HandleCreate appends a subtask; its ordem is one past the task's last.
//
// HTTP: POST /tasks/{id}/subtasks
// REQUEST BODY: {"titulo": "step one", "concluida": false}
func (h *SubtaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)
	taskID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var in model.CreateSubtaskInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	subtask, err := h.subtasks.Create(r.Context(), taskID, user.ID, in)
	if err != nil {
		h.fail(w, "creating subtask", err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: subtask.ID, OK: true})
}

// HTTP: PUT /subtasks/{id}
// REQUEST BODY: any of {"titulo", "concluida", "ordem"}
func (h *SubtaskHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var in model.UpdateSubtaskInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.subtasks.Update(r.Context(), id, user.ID, in); err != nil {
		h.fail(w, "updating subtask", err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// HTTP: DELETE /subtasks/{id}
func (h *SubtaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.subtasks.Delete(r.Context(), id, user.ID); err != nil {
		h.fail(w, "deleting subtask", err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *SubtaskHandler) fail(w http.ResponseWriter, op string, err error) {
	logFailure(h.logger, op, err)
	writeError(w, err)
}

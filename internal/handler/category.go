package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/todolist/internal/model"
)

// CategoryService is implemented by service.CategoryService.
type CategoryService interface {
	List(ctx context.Context, userID int64) ([]model.Category, error)
	Get(ctx context.Context, id, userID int64) (*model.Category, error)
	Create(ctx context.Context, userID int64, in model.CreateCategoryInput) (*model.Category, error)
	Update(ctx context.Context, id, userID int64, in model.UpdateCategoryInput) (*model.Category, error)
	Delete(ctx context.Context, id, userID int64) error
}

type CategoryHandler struct {
	categories CategoryService
	logger     *slog.Logger
}

func NewCategoryHandler(categories CategoryService, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{categories: categories, logger: logger}
}

// HandleList returns the user's categories sorted by name.
//
// HTTP: GET /categories
func (h *CategoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)

	categories, err := h.categories.List(r.Context(), user.ID)
	if err != nil {
		h.fail(w, "listing categories", err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

// HTTP: GET /categories/{id}
func (h *CategoryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	category, err := h.categories.Get(r.Context(), id, user.ID)
	if err != nil {
		h.fail(w, "getting category", err)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

// HandleCreate adds a category. cor defaults to model.DefaultCategoryColor.
//
// HTTP: POST /categories
// REQUEST BODY: {"nome": "Work", "cor": "#3B82F6"}
func (h *CategoryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)

	var in model.CreateCategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	category, err := h.categories.Create(r.Context(), user.ID, in)
	if err != nil {
		h.fail(w, "creating category", err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: category.ID, OK: true})
}

// HTTP: PUT /categories/{id}
func (h *CategoryHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var in model.UpdateCategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.categories.Update(r.Context(), id, user.ID, in); err != nil {
		h.fail(w, "updating category", err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// HandleDelete removes a category. Its tasks are kept without a category.
//
// HTTP: DELETE /categories/{id}
func (h *CategoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user := mustUser(r)
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.categories.Delete(r.Context(), id, user.ID); err != nil {
		h.fail(w, "deleting category", err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *CategoryHandler) fail(w http.ResponseWriter, op string, err error) {
	logFailure(h.logger, op, err)
	writeError(w, err)
}

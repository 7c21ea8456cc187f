// Package repository declares the storage contracts the service layer
// depends on. Every method that touches user-owned data takes the owner's
// id and reports rows belonging to someone else as apperror.ErrNotFound.
package repository

import (
	"context"

	"github.com/sakif/todolist/internal/model"
)

type UserRepository interface {
	// Create fills user.ID. A duplicate email yields apperror.ErrConflict.
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

type CategoryRepository interface {
	List(ctx context.Context, userID int64) ([]model.Category, error)
	Create(ctx context.Context, category *model.Category) error
	Get(ctx context.Context, id, userID int64) (*model.Category, error)
	// Update loads the row, hands it to apply and writes the result back
	// in the same transaction.
	Update(ctx context.Context, id, userID int64, apply func(*model.Category) error) (*model.Category, error)
	// Delete detaches the category's tasks instead of deleting them.
	Delete(ctx context.Context, id, userID int64) error
}

type TaskRepository interface {
	List(ctx context.Context, userID int64, filter model.TaskFilter) ([]model.Task, error)
	Create(ctx context.Context, task *model.Task) error
	Get(ctx context.Context, id, userID int64) (*model.Task, error)
	Update(ctx context.Context, id, userID int64, apply func(*model.Task) error) error
	// Delete also removes the task's subtasks.
	Delete(ctx context.Context, id, userID int64) error
}

type SubtaskRepository interface {
	ListByTask(ctx context.Context, taskID, userID int64) ([]model.Subtask, error)
	// Create appends after the last sibling; ErrNotFound when the parent
	// task is not the user's.
	Create(ctx context.Context, userID int64, subtask *model.Subtask) error
	Get(ctx context.Context, id, userID int64) (*model.Subtask, error)
	Update(ctx context.Context, id, userID int64, apply func(*model.Subtask) error) (*model.Subtask, error)
	Delete(ctx context.Context, id, userID int64) error
}

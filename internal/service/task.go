package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/todolist/internal/apperror"
	"github.com/sakif/todolist/internal/model"
	"github.com/sakif/todolist/internal/repository"
)

// TaskService enforces task rules. Every method is scoped to userID; tasks
// of other users behave as if they did not exist.
type TaskService struct {
	tasks      repository.TaskRepository
	categories repository.CategoryRepository
	logger     *slog.Logger
	now        func() time.Time
}

func NewTaskService(tasks repository.TaskRepository, categories repository.CategoryRepository, logger *slog.Logger) *TaskService {
	return &TaskService{
		tasks:      tasks,
		categories: categories,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *TaskService) List(ctx context.Context, userID int64, filter model.TaskFilter) ([]model.Task, error) {
	if filter.DueFrom != nil {
		if _, err := parseDate("data_inicio", *filter.DueFrom); err != nil {
			return nil, err
		}
	}
	if filter.DueTo != nil {
		if _, err := parseDate("data_fim", *filter.DueTo); err != nil {
			return nil, err
		}
	}

	tasks, err := s.tasks.List(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, id, userID int64) (*model.Task, error) {
	return s.tasks.Get(ctx, id, userID)
}

func (s *TaskService) Create(ctx context.Context, userID int64, in model.CreateTaskInput) (*model.Task, error) {
	title, err := requiredText("titulo", in.Title, MaxTitleLength)
	if err != nil {
		return nil, err
	}
	if err := optionalText("descricao", in.Description, MaxDescriptionLength); err != nil {
		return nil, err
	}

	status := model.StatusPending
	if strings.TrimSpace(in.Status) != "" {
		if status, err = requiredText("status", in.Status, MaxStatusLength); err != nil {
			return nil, err
		}
	}

	if in.DueDate != nil {
		if err := validateDueDate(*in.DueDate, s.now()); err != nil {
			return nil, err
		}
	}
	if in.CategoryID != nil {
		if err := s.requireCategory(ctx, *in.CategoryID, userID); err != nil {
			return nil, err
		}
	}

	task := &model.Task{
		UserID:      userID,
		CategoryID:  in.CategoryID,
		Title:       title,
		Description: in.Description,
		Status:      status,
		DueDate:     in.DueDate,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		s.logger.Error("failed to create task",
			slog.Int64("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating task: %w", err)
	}

	s.logger.Info("task created", slog.Int64("id", task.ID), slog.Int64("userID", userID))
	return task, nil
}

// Update changes only the fields present in the input. The merge runs
// inside the repository's transaction, against the row as stored at that
// moment.
func (s *TaskService) Update(ctx context.Context, id, userID int64, in model.UpdateTaskInput) (*model.Task, error) {
	var (
		title, status string
		err           error
	)
	if in.Title != nil {
		if title, err = requiredText("titulo", *in.Title, MaxTitleLength); err != nil {
			return nil, err
		}
	}
	if in.Status != nil {
		if status, err = requiredText("status", *in.Status, MaxStatusLength); err != nil {
			return nil, err
		}
	}
	if in.Description.Valid {
		if err := optionalText("descricao", &in.Description.Value, MaxDescriptionLength); err != nil {
			return nil, err
		}
	}
	if in.DueDate.Valid {
		if err := validateDueDate(in.DueDate.Value, s.now()); err != nil {
			return nil, err
		}
	}
	if in.CategoryID.Valid {
		if err := s.requireCategory(ctx, in.CategoryID.Value, userID); err != nil {
			return nil, err
		}
	}

	err = s.tasks.Update(ctx, id, userID, func(t *model.Task) error {
		if in.Title != nil {
			t.Title = title
		}
		if in.Status != nil {
			t.Status = status
		}
		if in.Description.Set {
			t.Description = in.Description.Ptr()
		}
		if in.DueDate.Set {
			t.DueDate = in.DueDate.Ptr()
		}
		if in.CategoryID.Set {
			t.CategoryID = in.CategoryID.Ptr()
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("updating task: %w", err)
	}

	s.logger.Info("task updated", slog.Int64("id", id), slog.Int64("userID", userID))
	return s.tasks.Get(ctx, id, userID)
}

func (s *TaskService) Delete(ctx context.Context, id, userID int64) error {
	if err := s.tasks.Delete(ctx, id, userID); err != nil {
		return err
	}
	s.logger.Info("task deleted", slog.Int64("id", id), slog.Int64("userID", userID))
	return nil
}

// requireCategory reports a category that is missing or someone else's as
// a validation error on the task, without saying which.
func (s *TaskService) requireCategory(ctx context.Context, categoryID, userID int64) error {
	_, err := s.categories.Get(ctx, categoryID, userID)
	if errors.Is(err, apperror.ErrNotFound) {
		return apperror.ValidationFailed("categoria_id", "category not found")
	}
	if err != nil {
		return fmt.Errorf("checking category %d: %w", categoryID, err)
	}
	return nil
}

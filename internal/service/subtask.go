package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/todolist/internal/apperror"
	"github.com/sakif/todolist/internal/model"
	"github.com/sakif/todolist/internal/repository"
)

// SubtaskService scopes subtasks through the owner of their parent task.
type SubtaskService struct {
	subtasks repository.SubtaskRepository
	logger   *slog.Logger
}

func NewSubtaskService(subtasks repository.SubtaskRepository, logger *slog.Logger) *SubtaskService {
	return &SubtaskService{subtasks: subtasks, logger: logger}
}

func (s *SubtaskService) ListByTask(ctx context.Context, taskID, userID int64) ([]model.Subtask, error) {
	return s.subtasks.ListByTask(ctx, taskID, userID)
}

func (s *SubtaskService) Create(ctx context.Context, taskID, userID int64, in model.CreateSubtaskInput) (*model.Subtask, error) {
	title, err := requiredText("titulo", in.Title, MaxTitleLength)
	if err != nil {
		return nil, err
	}

	subtask := &model.Subtask{TaskID: taskID, Title: title, Completed: in.Completed}
	if err := s.subtasks.Create(ctx, userID, subtask); err != nil {
		return nil, err
	}

	s.logger.Info("subtask created",
		slog.Int64("id", subtask.ID),
		slog.Int64("taskID", taskID),
		slog.Int64("userID", userID),
	)
	return subtask, nil
}

func (s *SubtaskService) Update(ctx context.Context, id, userID int64, in model.UpdateSubtaskInput) (*model.Subtask, error) {
	var title string
	var err error
	if in.Title != nil {
		if title, err = requiredText("titulo", *in.Title, MaxTitleLength); err != nil {
			return nil, err
		}
	}
	if in.Order != nil && *in.Order < 0 {
		return nil, apperror.ValidationFailed("ordem", "ordem must not be negative")
	}

	subtask, err := s.subtasks.Update(ctx, id, userID, func(st *model.Subtask) error {
		if in.Title != nil {
			st.Title = title
		}
		if in.Completed != nil {
			st.Completed = *in.Completed
		}
		if in.Order != nil {
			st.Order = *in.Order
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("subtask updated", slog.Int64("id", id), slog.Int64("userID", userID))
	return subtask, nil
}

func (s *SubtaskService) Delete(ctx context.Context, id, userID int64) error {
	if err := s.subtasks.Delete(ctx, id, userID); err != nil {
		return fmt.Errorf("deleting subtask: %w", err)
	}
	s.logger.Info("subtask deleted", slog.Int64("id", id), slog.Int64("userID", userID))
	return nil
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/todolist/internal/model"
	"github.com/sakif/todolist/internal/repository"
)

type CategoryService struct {
	categories repository.CategoryRepository
	logger     *slog.Logger
}

func NewCategoryService(categories repository.CategoryRepository, logger *slog.Logger) *CategoryService {
	return &CategoryService{categories: categories, logger: logger}
}

func (s *CategoryService) List(ctx context.Context, userID int64) ([]model.Category, error) {
	categories, err := s.categories.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return categories, nil
}

func (s *CategoryService) Get(ctx context.Context, id, userID int64) (*model.Category, error) {
	return s.categories.Get(ctx, id, userID)
}

func (s *CategoryService) Create(ctx context.Context, userID int64, in model.CreateCategoryInput) (*model.Category, error) {
	name, err := requiredText("nome", in.Name, MaxCategoryNameLength)
	if err != nil {
		return nil, err
	}
	color := strings.TrimSpace(in.Color)
	if color == "" {
		color = model.DefaultCategoryColor
	}
	if err := validateColor(color); err != nil {
		return nil, err
	}

	category := &model.Category{UserID: userID, Name: name, Color: color}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("creating category: %w", err)
	}

	s.logger.Info("category created", slog.Int64("id", category.ID), slog.Int64("userID", userID))
	return category, nil
}

func (s *CategoryService) Update(ctx context.Context, id, userID int64, in model.UpdateCategoryInput) (*model.Category, error) {
	var name, color string
	var err error
	if in.Name != nil {
		if name, err = requiredText("nome", *in.Name, MaxCategoryNameLength); err != nil {
			return nil, err
		}
	}
	if in.Color != nil {
		color = strings.TrimSpace(*in.Color)
		if err := validateColor(color); err != nil {
			return nil, err
		}
	}

	category, err := s.categories.Update(ctx, id, userID, func(c *model.Category) error {
		if in.Name != nil {
			c.Name = name
		}
		if in.Color != nil {
			c.Color = color
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("category updated", slog.Int64("id", id), slog.Int64("userID", userID))
	return category, nil
}

// Delete keeps the category's tasks; they lose their category.
func (s *CategoryService) Delete(ctx context.Context, id, userID int64) error {
	if err := s.categories.Delete(ctx, id, userID); err != nil {
		return err
	}
	s.logger.Info("category deleted", slog.Int64("id", id), slog.Int64("userID", userID))
	return nil
}

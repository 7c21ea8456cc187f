package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sakif/todolist/internal/apperror"
	"github.com/sakif/todolist/internal/model"
	"github.com/sakif/todolist/internal/repository"
)

var _ repository.CategoryRepository = (*CategoryDB)(nil)

type CategoryDB struct {
	conn *sqlx.DB
}

const selectCategory = `SELECT id, user_id, nome, cor FROM categories`

func (c *CategoryDB) List(ctx context.Context, userID int64) ([]model.Category, error) {
	categories := []model.Category{}
	err := c.conn.SelectContext(ctx, &categories,
		selectCategory+` WHERE user_id = ? ORDER BY nome, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing categories: %w", err)
	}
	return categories, nil
}

func (c *CategoryDB) Create(ctx context.Context, category *model.Category) error {
	res, err := c.conn.ExecContext(ctx,
		`INSERT INTO categories (user_id, nome, cor) VALUES (?, ?, ?)`,
		category.UserID, category.Name, category.Color,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new category id: %w", err)
	}
	category.ID = id
	return nil
}

func (c *CategoryDB) Get(ctx context.Context, id, userID int64) (*model.Category, error) {
	return getCategory(ctx, c.conn, id, userID)
}

func getCategory(ctx context.Context, q sqlx.QueryerContext, id, userID int64) (*model.Category, error) {
	var category model.Category
	err := sqlx.GetContext(ctx, q, &category,
		selectCategory+` WHERE id = ? AND user_id = ?`, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("category", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting category %d: %w", id, err)
	}
	return &category, nil
}

func (c *CategoryDB) Update(ctx context.Context, id, userID int64, apply func(*model.Category) error) (*model.Category, error) {
	var updated *model.Category
	err := withTx(ctx, c.conn, func(tx *sqlx.Tx) error {
		category, err := getCategory(ctx, tx, id, userID)
		if err != nil {
			return err
		}
		if err := apply(category); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE categories SET nome = ?, cor = ? WHERE id = ? AND user_id = ?`,
			category.Name, category.Color, id, userID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating category %d: %w", id, err)
		}
		updated = category
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the category and clears categoria_id on its tasks; the
// tasks themselves stay.
func (c *CategoryDB) Delete(ctx context.Context, id, userID int64) error {
	return withTx(ctx, c.conn, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
		if err != nil {
			return fmt.Errorf("sqlite: deleting category %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if n == 0 {
			return apperror.NotFound("category", id)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE tasks SET categoria_id = NULL WHERE categoria_id = ? AND user_id = ?`, id, userID)
		if err != nil {
			return fmt.Errorf("sqlite: detaching tasks from category %d: %w", id, err)
		}
		return nil
	})
}

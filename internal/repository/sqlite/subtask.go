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

var _ repository.SubtaskRepository = (*SubtaskDB)(nil)

// SubtaskDB scopes every query through the parent task's user_id.
type SubtaskDB struct {
	conn *sqlx.DB
}

const selectSubtask = `SELECT id, task_id, titulo, concluida, ordem FROM subtasks`

func (d *SubtaskDB) ListByTask(ctx context.Context, taskID, userID int64) ([]model.Subtask, error) {
	if err := requireTask(ctx, d.conn, taskID, userID); err != nil {
		return nil, err
	}

	subtasks := []model.Subtask{}
	err := d.conn.SelectContext(ctx, &subtasks,
		selectSubtask+` WHERE task_id = ? ORDER BY ordem, id`, taskID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing subtasks of task %d: %w", taskID, err)
	}
	return subtasks, nil
}

// Create appends the subtask after its last sibling and sets ID and Order.
func (d *SubtaskDB) Create(ctx context.Context, userID int64, subtask *model.Subtask) error {
	return withTx(ctx, d.conn, func(tx *sqlx.Tx) error {
		if err := requireTask(ctx, tx, subtask.TaskID, userID); err != nil {
			return err
		}

		var next int
		err := tx.GetContext(ctx, &next,
			`SELECT COALESCE(MAX(ordem), -1) + 1 FROM subtasks WHERE task_id = ?`, subtask.TaskID)
		if err != nil {
			return fmt.Errorf("sqlite: computing subtask order: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO subtasks (task_id, titulo, concluida, ordem) VALUES (?, ?, ?, ?)`,
			subtask.TaskID, subtask.Title, subtask.Completed, next,
		)
		if err != nil {
			return fmt.Errorf("sqlite: creating subtask: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("sqlite: reading new subtask id: %w", err)
		}

		subtask.ID = id
		subtask.Order = next
		return nil
	})
}

func (d *SubtaskDB) Get(ctx context.Context, id, userID int64) (*model.Subtask, error) {
	return getSubtask(ctx, d.conn, id, userID)
}

func getSubtask(ctx context.Context, q sqlx.QueryerContext, id, userID int64) (*model.Subtask, error) {
	var subtask model.Subtask
	err := sqlx.GetContext(ctx, q, &subtask,
		`SELECT s.id, s.task_id, s.titulo, s.concluida, s.ordem
		 FROM subtasks s
		 JOIN tasks t ON t.id = s.task_id
		 WHERE s.id = ? AND t.user_id = ?`, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("subtask", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting subtask %d: %w", id, err)
	}
	return &subtask, nil
}

func (d *SubtaskDB) Update(ctx context.Context, id, userID int64, apply func(*model.Subtask) error) (*model.Subtask, error) {
	var updated *model.Subtask
	err := withTx(ctx, d.conn, func(tx *sqlx.Tx) error {
		subtask, err := getSubtask(ctx, tx, id, userID)
		if err != nil {
			return err
		}
		if err := apply(subtask); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE subtasks SET titulo = ?, concluida = ?, ordem = ? WHERE id = ?`,
			subtask.Title, subtask.Completed, subtask.Order, id,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating subtask %d: %w", id, err)
		}
		updated = subtask
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (d *SubtaskDB) Delete(ctx context.Context, id, userID int64) error {
	res, err := d.conn.ExecContext(ctx,
		`DELETE FROM subtasks
		 WHERE id = ? AND task_id IN (SELECT id FROM tasks WHERE user_id = ?)`, id, userID)
	if err != nil {
		return fmt.Errorf("sqlite: deleting subtask %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound("subtask", id)
	}
	return nil
}

// requireTask returns NotFound unless taskID exists and belongs to userID.
func requireTask(ctx context.Context, q sqlx.QueryerContext, taskID, userID int64) error {
	var n int
	err := sqlx.GetContext(ctx, q, &n,
		`SELECT COUNT(*) FROM tasks WHERE id = ? AND user_id = ?`, taskID, userID)
	if err != nil {
		return fmt.Errorf("sqlite: checking task %d: %w", taskID, err)
	}
	if n == 0 {
		return apperror.NotFound("task", taskID)
	}
	return nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sakif/todolist/internal/apperror"
	"github.com/sakif/todolist/internal/model"
	"github.com/sakif/todolist/internal/repository"
)

var _ repository.TaskRepository = (*TaskDB)(nil)

type TaskDB struct {
	conn *sqlx.DB
}

// selectTask joins the category so listings carry its name and color.
const selectTask = `
	SELECT t.id, t.user_id, t.categoria_id, t.titulo, t.descricao, t.status,
	       t.data_criacao, t.data_vencimento,
	       c.nome AS categoria_nome, c.cor AS categoria_cor
	FROM tasks t
	LEFT JOIN categories c ON c.id = t.categoria_id`

// List returns the user's tasks, newest first, each with its subtasks.
func (d *TaskDB) List(ctx context.Context, userID int64, filter model.TaskFilter) ([]model.Task, error) {
	where := []string{"t.user_id = ?"}
	args := []any{userID}

	if filter.CategoryID != nil {
		where = append(where, "t.categoria_id = ?")
		args = append(args, *filter.CategoryID)
	}
	if filter.DueFrom != nil {
		where = append(where, "t.data_vencimento >= ?")
		args = append(args, *filter.DueFrom)
	}
	if filter.DueTo != nil {
		where = append(where, "t.data_vencimento <= ?")
		args = append(args, *filter.DueTo)
	}

	query := selectTask + " WHERE " + strings.Join(where, " AND ") + " ORDER BY t.data_criacao DESC"

	tasks := []model.Task{}
	if err := d.conn.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("sqlite: listing tasks: %w", err)
	}
	if err := d.attachSubtasks(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// attachSubtasks loads the subtasks of all given tasks in one query.
func (d *TaskDB) attachSubtasks(ctx context.Context, tasks []model.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	ids := make([]int64, len(tasks))
	index := make(map[int64]int, len(tasks))
	for i := range tasks {
		ids[i] = tasks[i].ID
		index[tasks[i].ID] = i
		tasks[i].Subtasks = []model.Subtask{}
	}

	query, args, err := sqlx.In(selectSubtask+` WHERE task_id IN (?) ORDER BY ordem, id`, ids)
	if err != nil {
		return fmt.Errorf("sqlite: building subtask query: %w", err)
	}

	var subtasks []model.Subtask
	if err := d.conn.SelectContext(ctx, &subtasks, d.conn.Rebind(query), args...); err != nil {
		return fmt.Errorf("sqlite: loading subtasks: %w", err)
	}
	for _, s := range subtasks {
		i := index[s.TaskID]
		tasks[i].Subtasks = append(tasks[i].Subtasks, s)
	}
	return nil
}

// Create inserts the task and sets ID and CreatedAt.
func (d *TaskDB) Create(ctx context.Context, task *model.Task) error {
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	if task.Status == "" {
		task.Status = model.StatusPending
	}

	res, err := d.conn.ExecContext(ctx,
		`INSERT INTO tasks (user_id, categoria_id, titulo, descricao, status, data_criacao, data_vencimento)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		task.UserID,
		task.CategoryID,
		task.Title,
		task.Description,
		task.Status,
		task.CreatedAt,
		task.DueDate,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new task id: %w", err)
	}
	task.ID = id
	task.Subtasks = []model.Subtask{}
	return nil
}

func (d *TaskDB) Get(ctx context.Context, id, userID int64) (*model.Task, error) {
	var task model.Task
	err := d.conn.GetContext(ctx, &task, selectTask+` WHERE t.id = ? AND t.user_id = ?`, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("task", id)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting task %d: %w", id, err)
	}

	tasks := []model.Task{task}
	if err := d.attachSubtasks(ctx, tasks); err != nil {
		return nil, err
	}
	return &tasks[0], nil
}

// Update reads the stored row, lets apply merge the changes into it and
// writes every column back, all under one write transaction.
func (d *TaskDB) Update(ctx context.Context, id, userID int64, apply func(*model.Task) error) error {
	return withTx(ctx, d.conn, func(tx *sqlx.Tx) error {
		var task model.Task
		err := tx.GetContext(ctx, &task,
			`SELECT id, user_id, categoria_id, titulo, descricao, status, data_criacao, data_vencimento
			 FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperror.NotFound("task", id)
		}
		if err != nil {
			return fmt.Errorf("sqlite: loading task %d: %w", id, err)
		}

		if err := apply(&task); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE tasks
			 SET categoria_id = ?, titulo = ?, descricao = ?, status = ?, data_vencimento = ?
			 WHERE id = ? AND user_id = ?`,
			task.CategoryID,
			task.Title,
			task.Description,
			task.Status,
			task.DueDate,
			id, userID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating task %d: %w", id, err)
		}
		return nil
	})
}

// Delete removes the task together with its subtasks.
func (d *TaskDB) Delete(ctx context.Context, id, userID int64) error {
	return withTx(ctx, d.conn, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM subtasks WHERE task_id IN (SELECT id FROM tasks WHERE id = ? AND user_id = ?)`,
			id, userID)
		if err != nil {
			return fmt.Errorf("sqlite: deleting subtasks of task %d: %w", id, err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, userID)
		if err != nil {
			return fmt.Errorf("sqlite: deleting task %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if n == 0 {
			return apperror.NotFound("task", id)
		}
		return nil
	})
}

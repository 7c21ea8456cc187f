package model

import "time"

const (
	StatusPending = "pendente"
	StatusDone    = "concluida"
)

// DateLayout is the wire and storage format of due dates.
const DateLayout = "2006-01-02"

// Task is a to-do item owned by one user.
//
// CategoryName and CategoryColor are filled from a join on categories and
// are only present while the task is attached to a category. Subtasks are
// loaded separately and never scanned from the tasks row.
type Task struct {
	ID            int64     `json:"id"                       db:"id"`
	UserID        int64     `json:"user_id"                  db:"user_id"`
	CategoryID    *int64    `json:"categoria_id"             db:"categoria_id"`
	Title         string    `json:"titulo"                   db:"titulo"`
	Description   *string   `json:"descricao"                db:"descricao"`
	Status        string    `json:"status"                   db:"status"`
	CreatedAt     time.Time `json:"data_criacao"             db:"data_criacao"`
	DueDate       *string   `json:"data_vencimento"          db:"data_vencimento"`
	CategoryName  *string   `json:"categoria_nome,omitempty" db:"categoria_nome"`
	CategoryColor *string   `json:"categoria_cor,omitempty"  db:"categoria_cor"`
	Subtasks      []Subtask `json:"subtasks"                 db:"-"`
}

// TaskFilter narrows a task listing. Due dates are inclusive bounds in
// DateLayout format.
type TaskFilter struct {
	CategoryID *int64
	DueFrom    *string
	DueTo      *string
}

type CreateTaskInput struct {
	Title       string  `json:"titulo"`
	Description *string `json:"descricao"`
	Status      string  `json:"status"`
	CategoryID  *int64  `json:"categoria_id"`
	DueDate     *string `json:"data_vencimento"`
}

// UpdateTaskInput applies partial updates. A nil pointer or an unset
// Nullable keeps the stored value; an explicit JSON null clears the
// nullable columns.
type UpdateTaskInput struct {
	Title       *string          `json:"titulo"`
	Description Nullable[string] `json:"descricao"`
	Status      *string          `json:"status"`
	CategoryID  Nullable[int64]  `json:"categoria_id"`
	DueDate     Nullable[string] `json:"data_vencimento"`
}

package model

// Subtask belongs to a task; ownership is inherited from the parent.
type Subtask struct {
	ID        int64  `json:"id"        db:"id"`
	TaskID    int64  `json:"task_id"   db:"task_id"`
	Title     string `json:"titulo"    db:"titulo"`
	Completed bool   `json:"concluida" db:"concluida"`
	Order     int    `json:"ordem"     db:"ordem"`
}

// CreateSubtaskInput has no position; new subtasks go after their siblings.
type CreateSubtaskInput struct {
	Title     string `json:"titulo"`
	Completed bool   `json:"concluida"`
}

type UpdateSubtaskInput struct {
	Title     *string `json:"titulo"`
	Completed *bool   `json:"concluida"`
	Order     *int    `json:"ordem"`
}

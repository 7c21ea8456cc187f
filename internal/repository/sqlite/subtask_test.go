package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/todolist/internal/apperror"
	"github.com/sakif/todolist/internal/model"
)

func TestSubtaskCreate_AppendsOrder(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "a@x.com")
	task := createTestTask(t, db, user.ID, "X")

	for i, title := range []string{"one", "two", "three"} {
		s := createTestSubtask(t, db, user.ID, task.ID, title)
		if s.Order != i {
			t.Errorf("%s: Order = %d, want %d", title, s.Order, i)
		}
	}
}

func TestSubtaskList_OrderedByOrdemThenID(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "a@x.com")
	task := createTestTask(t, db, user.ID, "X")
	ctx := context.Background()

	a := createTestSubtask(t, db, user.ID, task.ID, "a")
	createTestSubtask(t, db, user.ID, task.ID, "b")
	c := createTestSubtask(t, db, user.ID, task.ID, "c")

	// Move c to the front, and a level with it.
	for _, id := range []int64{c.ID, a.ID} {
		_, err := db.Subtasks().Update(ctx, id, user.ID, func(s *model.Subtask) error {
			s.Order = 0
			return nil
		})
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
	}

	subtasks, err := db.Subtasks().ListByTask(ctx, task.ID, user.ID)
	if err != nil {
		t.Fatalf("ListByTask() error = %v", err)
	}
	var got []string
	for _, s := range subtasks {
		got = append(got, s.Title)
	}
	want := []string{"a", "c", "b"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestSubtaskUpdate(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "a@x.com")
	task := createTestTask(t, db, user.ID, "X")
	subtask := createTestSubtask(t, db, user.ID, task.ID, "step")
	ctx := context.Background()

	updated, err := db.Subtasks().Update(ctx, subtask.ID, user.ID, func(s *model.Subtask) error {
		s.Completed = true
		return nil
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if !updated.Completed || updated.Title != "step" {
		t.Errorf("Update() = %+v", updated)
	}

	found, err := db.Subtasks().Get(ctx, subtask.ID, user.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found.Completed {
		t.Error("Completed was not persisted")
	}
}

func TestSubtask_OtherUserSeesNotFound(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "a@x.com")
	intruder := createTestUser(t, db, "b@x.com")
	task := createTestTask(t, db, owner.ID, "X")
	subtask := createTestSubtask(t, db, owner.ID, task.ID, "step")
	ctx := context.Background()

	err := db.Subtasks().Create(ctx, intruder.ID, &model.Subtask{TaskID: task.ID, Title: "sneaky"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Create: expected ErrNotFound, got %v", err)
	}
	if _, err := db.Subtasks().ListByTask(ctx, task.ID, intruder.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("ListByTask: expected ErrNotFound, got %v", err)
	}
	if _, err := db.Subtasks().Get(ctx, subtask.ID, intruder.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Get: expected ErrNotFound, got %v", err)
	}
	_, err = db.Subtasks().Update(ctx, subtask.ID, intruder.ID, func(s *model.Subtask) error {
		s.Title = "stolen"
		return nil
	})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update: expected ErrNotFound, got %v", err)
	}
	if err := db.Subtasks().Delete(ctx, subtask.ID, intruder.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete: expected ErrNotFound, got %v", err)
	}

	subtasks, err := db.Subtasks().ListByTask(ctx, task.ID, owner.ID)
	if err != nil {
		t.Fatalf("owner ListByTask() error = %v", err)
	}
	if len(subtasks) != 1 || subtasks[0].Title != "step" {
		t.Errorf("owner subtasks = %+v", subtasks)
	}
}

func TestSubtaskDelete(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "a@x.com")
	task := createTestTask(t, db, user.ID, "X")
	subtask := createTestSubtask(t, db, user.ID, task.ID, "step")
	ctx := context.Background()

	if err := db.Subtasks().Delete(ctx, subtask.ID, user.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := db.Subtasks().Delete(ctx, subtask.ID, user.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete: expected ErrNotFound, got %v", err)
	}
}

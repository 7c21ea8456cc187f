package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sakif/todolist/internal/model"
)

// newTestDB opens a private in-memory database that is closed when the test ends.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(MemoryPath)
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, PasswordHash: "$2a$04$notarealhashbutnonempty"}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func createTestCategory(t *testing.T, db *DB, userID int64, name, color string) *model.Category {
	t.Helper()
	category := &model.Category{UserID: userID, Name: name, Color: color}
	if err := db.Categories().Create(context.Background(), category); err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

func createTestTask(t *testing.T, db *DB, userID int64, title string) *model.Task {
	t.Helper()
	task := &model.Task{UserID: userID, Title: title}
	if err := db.Tasks().Create(context.Background(), task); err != nil {
		t.Fatalf("failed to create test task: %v", err)
	}
	return task
}

func createTestSubtask(t *testing.T, db *DB, userID, taskID int64, title string) *model.Subtask {
	t.Helper()
	subtask := &model.Subtask{TaskID: taskID, Title: title}
	if err := db.Subtasks().Create(context.Background(), userID, subtask); err != nil {
		t.Fatalf("failed to create test subtask: %v", err)
	}
	return subtask
}

func strPtr(s string) *string { return &s }

func int64Ptr(v int64) *int64 { return &v }

// =========================================================================
// MIGRATION TESTS
// =========================================================================

func TestNew_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todolist.db")

	db, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	user := createTestUser(t, db, "a@x.com")
	db.Close()

	// Opening again must not re-run or fail on the applied migration.
	db, err = New(path)
	if err != nil {
		t.Fatalf("second New() error = %v", err)
	}
	defer db.Close()

	found, err := db.Users().GetByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if found.ID != user.ID {
		t.Errorf("ID = %d, want %d", found.ID, user.ID)
	}

	var applied int
	if err := db.conn.Get(&applied, `SELECT COUNT(*) FROM schema_migrations`); err != nil {
		t.Fatalf("counting migrations: %v", err)
	}
	if applied != 1 {
		t.Errorf("schema_migrations rows = %d, want 1", applied)
	}
}

func TestNew_ForeignKeysEnabled(t *testing.T) {
	db := newTestDB(t)

	var enabled int
	if err := db.conn.Get(&enabled, `PRAGMA foreign_keys`); err != nil {
		t.Fatalf("reading pragma: %v", err)
	}
	if enabled != 1 {
		t.Errorf("foreign_keys = %d, want 1", enabled)
	}
}

func TestUpSection(t *testing.T) {
	got := upSection("-- +migrate Up\nCREATE TABLE a (id INTEGER);\n-- +migrate Down\nDROP TABLE a;\n")
	if got != "\nCREATE TABLE a (id INTEGER);\n" {
		t.Errorf("upSection() = %q", got)
	}
	if got := upSection("SELECT 1;"); got != "SELECT 1;" {
		t.Errorf("upSection() without markers = %q", got)
	}
}

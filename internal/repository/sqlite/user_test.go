package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/model"
)

// newTestDB opens an in-memory database with the full schema. Each test gets
// its own database, fully isolated from every other test's rows.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("opening in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testUser(email string) *model.User {
	return &model.User{
		Username:     "alice",
		Email:        email,
		PasswordHash: "$2a$04$fakehashfortestingonly",
		IsAdmin:      false,
	}
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := testUser("alice@example.com")
	if err := db.Create(ctx, user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if user.ID == "" {
		t.Error("Create() should assign an ID")
	}
	if user.CreatedAt.IsZero() || user.UpdatedAt.IsZero() {
		t.Error("Create() should set timestamps")
	}
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.Create(ctx, testUser("alice@example.com")); err != nil {
		t.Fatalf("first Create() error = %v", err)
	}

	err := db.Create(ctx, testUser("alice@example.com"))
	if err == nil {
		t.Fatal("Create() should fail for a duplicate email")
	}
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}

// =========================================================================
// GET TESTS
// =========================================================================

func TestUserGetByID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created := testUser("alice@example.com")
	if err := db.Create(ctx, created); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := db.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.ID != created.ID || got.Username != "alice" || got.Email != "alice@example.com" {
		t.Errorf("GetByID() = %+v, want the created user", got)
	}
}

func TestUserGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByID(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestUserGetByEmail(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created := testUser("bob@example.com")
	created.Username = "bob"
	if err := db.Create(ctx, created); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := db.GetByEmail(ctx, "bob@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("GetByEmail() ID = %q, want %q", got.ID, created.ID)
	}
	if got.PasswordHash != created.PasswordHash {
		t.Error("GetByEmail() must return the password hash for login verification")
	}
}

func TestUserGetByEmail_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByEmail(context.Background(), "ghost@example.com")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestUserList_Empty(t *testing.T) {
	db := newTestDB(t)

	users, err := db.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if users == nil {
		t.Error("List() should return an empty slice, not nil")
	}
	if len(users) != 0 {
		t.Errorf("List() returned %d users, want 0", len(users))
	}
}

func TestUserList(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		if err := db.Create(ctx, testUser(email)); err != nil {
			t.Fatalf("Create(%s) error = %v", email, err)
		}
	}

	users, err := db.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(users) != 3 {
		t.Errorf("List() returned %d users, want 3", len(users))
	}
}

// =========================================================================
// UPDATE TESTS
// =========================================================================

func TestUserUpdate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	user := testUser("alice@example.com")
	if err := db.Create(ctx, user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	user.Username = "alice-renamed"
	user.IsAdmin = true
	if err := db.Update(ctx, user); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := db.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Username != "alice-renamed" {
		t.Errorf("Username = %q, want %q", got.Username, "alice-renamed")
	}
	if !got.IsAdmin {
		t.Error("IsAdmin should persist as true")
	}
}

func TestUserUpdate_NotFound(t *testing.T) {
	db := newTestDB(t)

	ghost := testUser("ghost@example.com")
	ghost.ID = "nonexistent"
	err := db.Update(context.Background(), ghost)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestUserUpdate_EmailConflict(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.Create(ctx, testUser("taken@example.com")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	other := testUser("mine@example.com")
	if err := db.Create(ctx, other); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	other.Email = "taken@example.com"
	err := db.Update(ctx, other)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}

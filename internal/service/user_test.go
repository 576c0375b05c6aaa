package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/sakif/blog-api/internal/apperror"
	"github.com/sakif/blog-api/internal/auth"
	"github.com/sakif/blog-api/internal/model"
)

// mockUserRepo is a hand-written in-memory implementation of
// repository.UserRepository. No mocking framework — a map and a counter are
// all these tests need, and the behaviour stays obvious.
type mockUserRepo struct {
	users       map[string]*model.User // keyed by ID
	nextID      int
	updateCalls int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return apperror.Conflict("user", "email "+user.Email+" is already registered")
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (m *mockUserRepo) List(_ context.Context) ([]model.User, error) {
	out := []model.User{}
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return apperror.NotFound("user", user.ID)
	}
	m.updateCalls++
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestUserService(t *testing.T) (*UserService, *mockUserRepo) {
	t.Helper()
	repo := newMockUserRepo()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!", 0)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	// bcrypt cost 4 keeps the suite fast.
	svc := NewUserService(repo, tokens, auth.NewPasswordService(4), testLogger())
	return svc, repo
}

func registerTestUser(t *testing.T, svc *UserService, email string) *model.User {
	t.Helper()
	user, err := svc.Register(context.Background(), "alice", email, "password123")
	if err != nil {
		t.Fatalf("Register(%s) error = %v", email, err)
	}
	return user
}

// =========================================================================
// REGISTER TESTS
// =========================================================================

func TestRegister(t *testing.T) {
	svc, _ := newTestUserService(t)

	user, err := svc.Register(context.Background(), "alice", "Alice@Example.COM", "password123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if user.ID == "" {
		t.Error("registered user should have an ID")
	}
	if user.Email != "alice@example.com" {
		t.Errorf("Email = %q, want lowercased %q", user.Email, "alice@example.com")
	}
	if user.IsAdmin {
		t.Error("a freshly registered user must never be an admin")
	}
	if user.PasswordHash == "password123" || user.PasswordHash == "" {
		t.Error("password must be stored hashed, never plaintext")
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestUserService(t)
	ctx := context.Background()

	longName := make([]byte, MaxUsernameLength+1)
	for i := range longName {
		longName[i] = 'a'
	}

	tests := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"empty username", "", "a@example.com", "password123"},
		{"whitespace username", "   ", "a@example.com", "password123"},
		{"username too long", string(longName), "a@example.com", "password123"},
		{"empty email", "alice", "", "password123"},
		{"email without @", "alice", "not-an-email", "password123"},
		{"password too short", "alice", "a@example.com", "short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.username, tt.email, tt.password)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestUserService(t)
	registerTestUser(t, svc, "alice@example.com")

	_, err := svc.Register(context.Background(), "other", "alice@example.com", "password123")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}

// =========================================================================
// LOGIN TESTS
// =========================================================================

func TestLogin(t *testing.T) {
	svc, _ := newTestUserService(t)
	registered := registerTestUser(t, svc, "alice@example.com")

	result, err := svc.Login(context.Background(), "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.Token == "" {
		t.Error("Login() should issue a token")
	}
	if result.User.ID != registered.ID {
		t.Errorf("User.ID = %q, want %q", result.User.ID, registered.ID)
	}
}

func TestLogin_TokenCarriesIdentity(t *testing.T) {
	svc, _ := newTestUserService(t)
	registered := registerTestUser(t, svc, "alice@example.com")

	result, err := svc.Login(context.Background(), "alice@example.com", "password123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	tokens, _ := auth.NewTokenService("test-secret-at-least-16-chars!!", 0)
	claims, err := tokens.Verify(result.Token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.UserID != registered.ID || claims.Email != "alice@example.com" {
		t.Errorf("claims = %+v, want the registered identity", claims)
	}
	if claims.IsAdmin {
		t.Error("claims should not carry admin for a regular user")
	}
}

func TestLogin_CaseInsensitiveEmail(t *testing.T) {
	svc, _ := newTestUserService(t)
	registerTestUser(t, svc, "alice@example.com")

	if _, err := svc.Login(context.Background(), "ALICE@example.COM", "password123"); err != nil {
		t.Errorf("Login() with differently-cased email error = %v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newTestUserService(t)
	registerTestUser(t, svc, "alice@example.com")

	_, err := svc.Login(context.Background(), "alice@example.com", "wrong-password")
	if !errors.Is(err, apperror.ErrAuthRejected) {
		t.Errorf("error = %v, want ErrAuthRejected", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, _ := newTestUserService(t)
	registerTestUser(t, svc, "alice@example.com")

	_, err := svc.Login(context.Background(), "ghost@example.com", "password123")
	if !errors.Is(err, apperror.ErrAuthRejected) {
		t.Errorf("error = %v, want ErrAuthRejected", err)
	}
}

func TestLogin_SameErrorForBothFailureModes(t *testing.T) {
	// Unknown email and wrong password must be indistinguishable, or the
	// endpoint becomes an account-enumeration oracle.
	svc, _ := newTestUserService(t)
	registerTestUser(t, svc, "alice@example.com")
	ctx := context.Background()

	_, errUnknown := svc.Login(ctx, "ghost@example.com", "password123")
	_, errWrongPw := svc.Login(ctx, "alice@example.com", "wrong-password")

	if errUnknown == nil || errWrongPw == nil {
		t.Fatal("both logins should fail")
	}
	if errUnknown.Error() != errWrongPw.Error() {
		t.Errorf("messages differ: %q vs %q", errUnknown.Error(), errWrongPw.Error())
	}
}

func TestLogin_EmptyCredentials(t *testing.T) {
	svc, _ := newTestUserService(t)

	_, err := svc.Login(context.Background(), "", "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

// =========================================================================
// PROFILE TESTS
// =========================================================================

func TestProfile(t *testing.T) {
	svc, _ := newTestUserService(t)
	registered := registerTestUser(t, svc, "alice@example.com")

	user, err := svc.Profile(context.Background(), registered.ID)
	if err != nil {
		t.Fatalf("Profile() error = %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("Email = %q", user.Email)
	}
}

func TestProfile_NotFound(t *testing.T) {
	svc, _ := newTestUserService(t)

	_, err := svc.Profile(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestUpdateProfile_EmptyFieldsKeepCurrent(t *testing.T) {
	svc, _ := newTestUserService(t)
	registered := registerTestUser(t, svc, "alice@example.com")

	user, err := svc.UpdateProfile(context.Background(), registered.ID, "new-name", "")
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if user.Username != "new-name" {
		t.Errorf("Username = %q, want %q", user.Username, "new-name")
	}
	if user.Email != "alice@example.com" {
		t.Errorf("Email = %q, should be unchanged", user.Email)
	}
}

func TestUpdateProfile_InvalidEmail(t *testing.T) {
	svc, _ := newTestUserService(t)
	registered := registerTestUser(t, svc, "alice@example.com")

	_, err := svc.UpdateProfile(context.Background(), registered.ID, "", "not-an-email")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

// =========================================================================
// PASSWORD TESTS
// =========================================================================

func TestUpdatePassword(t *testing.T) {
	svc, _ := newTestUserService(t)
	registered := registerTestUser(t, svc, "alice@example.com")
	ctx := context.Background()

	if err := svc.UpdatePassword(ctx, registered.ID, "password123", "new-password-456"); err != nil {
		t.Fatalf("UpdatePassword() error = %v", err)
	}

	// Old password is dead, new one works.
	if _, err := svc.Login(ctx, "alice@example.com", "password123"); err == nil {
		t.Error("login with the old password should fail")
	}
	if _, err := svc.Login(ctx, "alice@example.com", "new-password-456"); err != nil {
		t.Errorf("login with the new password error = %v", err)
	}
}

func TestUpdatePassword_WrongCurrent(t *testing.T) {
	svc, _ := newTestUserService(t)
	registered := registerTestUser(t, svc, "alice@example.com")

	err := svc.UpdatePassword(context.Background(), registered.ID, "not-my-password", "new-password-456")
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("error = %v, want ErrForbidden", err)
	}
}

func TestUpdatePassword_TooShort(t *testing.T) {
	svc, _ := newTestUserService(t)
	registered := registerTestUser(t, svc, "alice@example.com")

	err := svc.UpdatePassword(context.Background(), registered.ID, "password123", "short")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

// =========================================================================
// CHECK EMAIL TESTS
// =========================================================================

func TestCheckEmail(t *testing.T) {
	svc, _ := newTestUserService(t)
	registerTestUser(t, svc, "alice@example.com")
	ctx := context.Background()

	exists, err := svc.CheckEmail(ctx, "Alice@Example.com")
	if err != nil {
		t.Fatalf("CheckEmail() error = %v", err)
	}
	if !exists {
		t.Error("CheckEmail() = false for a registered email (lookup must be case-insensitive)")
	}

	exists, err = svc.CheckEmail(ctx, "ghost@example.com")
	if err != nil {
		t.Fatalf("CheckEmail() error = %v (a missing account is not an error)", err)
	}
	if exists {
		t.Error("CheckEmail() = true for an unregistered email")
	}
}

func TestCheckEmail_Empty(t *testing.T) {
	svc, _ := newTestUserService(t)

	_, err := svc.CheckEmail(context.Background(), "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

// =========================================================================
// SET ADMIN TESTS
// =========================================================================

func TestSetAdmin(t *testing.T) {
	svc, repo := newTestUserService(t)
	registered := registerTestUser(t, svc, "alice@example.com")

	user, err := svc.SetAdmin(context.Background(), registered.ID)
	if err != nil {
		t.Fatalf("SetAdmin() error = %v", err)
	}
	if !user.IsAdmin {
		t.Error("user should be an admin after SetAdmin")
	}
	if repo.updateCalls != 1 {
		t.Errorf("updateCalls = %d, want 1", repo.updateCalls)
	}
}

func TestSetAdmin_Idempotent(t *testing.T) {
	svc, repo := newTestUserService(t)
	registered := registerTestUser(t, svc, "alice@example.com")
	ctx := context.Background()

	if _, err := svc.SetAdmin(ctx, registered.ID); err != nil {
		t.Fatalf("first SetAdmin() error = %v", err)
	}
	user, err := svc.SetAdmin(ctx, registered.ID)
	if err != nil {
		t.Fatalf("second SetAdmin() error = %v", err)
	}
	if !user.IsAdmin {
		t.Error("user should stay admin")
	}
	// Granting to an existing admin writes nothing.
	if repo.updateCalls != 1 {
		t.Errorf("updateCalls = %d, want 1 (second grant must be a no-op)", repo.updateCalls)
	}
}

func TestSetAdmin_NotFound(t *testing.T) {
	svc, _ := newTestUserService(t)

	_, err := svc.SetAdmin(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestUserListAll(t *testing.T) {
	svc, _ := newTestUserService(t)
	registerTestUser(t, svc, "a@example.com")
	registerTestUser(t, svc, "b@example.com")

	users, err := svc.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(users) != 2 {
		t.Errorf("ListAll() returned %d users, want 2", len(users))
	}
}

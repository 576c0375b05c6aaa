package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/sakif/blog-api/internal/apperror"
)

// newTestTokenService creates a TokenService with a fixed, known secret and
// no expiry, so tests are deterministic.
func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	ts, err := NewTokenService("test-secret-at-least-16-chars!!", 0)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func testClaims() Claims {
	return Claims{
		UserID:   "user-123",
		Username: "alice",
		Email:    "alice@example.com",
		IsAdmin:  false,
	}
}

// =========================================================================
// CONSTRUCTION TESTS
// =========================================================================

func TestNewTokenService_ShortSecret(t *testing.T) {
	_, err := NewTokenService("short", 0)
	if err == nil {
		t.Fatal("NewTokenService() should reject secrets shorter than 16 chars")
	}
}

func TestNewTokenService_ValidSecret(t *testing.T) {
	_, err := NewTokenService("this-is-16-chars", 0)
	if err != nil {
		t.Fatalf("NewTokenService() unexpected error for valid secret: %v", err)
	}
}

// =========================================================================
// ISSUE TESTS
// =========================================================================

func TestIssue_ReturnsNonEmptyToken(t *testing.T) {
	ts := newTestTokenService(t)

	token, err := ts.Issue(testClaims())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if token == "" {
		t.Error("Issue() returned empty token")
	}

	// JWTs have 3 dot-separated parts: header.payload.signature
	dots := 0
	for _, c := range token {
		if c == '.' {
			dots++
		}
	}
	if dots != 2 {
		t.Errorf("Issue() token doesn't look like a JWT (expected 2 dots, got %d)", dots)
	}
}

func TestIssue_DifferentUsersGetDifferentTokens(t *testing.T) {
	ts := newTestTokenService(t)

	token1, _ := ts.Issue(Claims{UserID: "user-aaa", Username: "a", Email: "a@x.com"})
	token2, _ := ts.Issue(Claims{UserID: "user-bbb", Username: "b", Email: "b@x.com"})

	if token1 == token2 {
		t.Error("Issue() returned identical tokens for different users")
	}
}

// =========================================================================
// VERIFY TESTS
// =========================================================================

func TestVerify_RoundTrip(t *testing.T) {
	ts := newTestTokenService(t)
	want := Claims{
		UserID:   "user-abc-123",
		Username: "bob",
		Email:    "bob@example.com",
		IsAdmin:  true,
	}

	token, err := ts.Issue(want)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	got, err := ts.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if *got != want {
		t.Errorf("Verify() claims = %+v, want %+v", *got, want)
	}
}

func TestVerify_UnboundedTokenHasNoExpiry(t *testing.T) {
	// ttl 0 means the token carries no "exp" claim at all and verifies
	// regardless of age.
	ts := newTestTokenService(t)

	token, err := ts.Issue(testClaims())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := ts.Verify(token); err != nil {
		t.Fatalf("Verify() error on unbounded token = %v", err)
	}
}

func TestVerify_ExpiredToken(t *testing.T) {
	ts := newTestTokenService(t)

	// Mint a token that expired 1 second ago.
	token, err := ts.issueWithExpiry(testClaims(), -1*time.Second)
	if err != nil {
		t.Fatalf("issueWithExpiry() error = %v", err)
	}

	_, err = ts.Verify(token)
	if err == nil {
		t.Fatal("Verify() should reject an expired token")
	}
	if !errors.Is(err, apperror.ErrAuthRejected) {
		t.Errorf("error = %v, want ErrAuthRejected", err)
	}
}

func TestVerify_TTLRespectedOnIssue(t *testing.T) {
	ts, err := NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	token, err := ts.Issue(testClaims())
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := ts.Verify(token); err != nil {
		t.Fatalf("Verify() error on 1h token = %v", err)
	}
}

func TestVerify_TamperedToken(t *testing.T) {
	ts := newTestTokenService(t)

	token, _ := ts.Issue(testClaims())
	tampered := token[:len(token)-3] + "xxx"

	_, err := ts.Verify(tampered)
	if err == nil {
		t.Fatal("Verify() should reject a tampered token")
	}
	if !errors.Is(err, apperror.ErrAuthRejected) {
		t.Errorf("error = %v, want ErrAuthRejected", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	ts1, _ := NewTokenService("correct-secret-32-chars-long!!!!", 0)
	ts2, _ := NewTokenService("wrong-secret-32-chars-long!!!!!!", 0)

	token, _ := ts1.Issue(testClaims())

	_, err := ts2.Verify(token)
	if err == nil {
		t.Fatal("Verify() should fail when using a different secret")
	}
	if !errors.Is(err, apperror.ErrAuthRejected) {
		t.Errorf("error = %v, want ErrAuthRejected", err)
	}
}

func TestVerify_EmptyToken(t *testing.T) {
	ts := newTestTokenService(t)

	_, err := ts.Verify("")
	if err == nil {
		t.Fatal("Verify() should reject an empty string")
	}
}

func TestVerify_GarbageString(t *testing.T) {
	ts := newTestTokenService(t)

	_, err := ts.Verify("not.a.jwt.token")
	if err == nil {
		t.Fatal("Verify() should reject a garbage string")
	}
	if !errors.Is(err, apperror.ErrAuthRejected) {
		t.Errorf("error = %v, want ErrAuthRejected", err)
	}
}

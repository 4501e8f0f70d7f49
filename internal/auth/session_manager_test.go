package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

var testSecret = []byte("test-secret")

func TestManagerIssueAndRefresh(t *testing.T) {
	store := NewMemorySessionStore()
	manager := NewManager(testSecret, time.Minute, time.Hour, store)

	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected non-empty tokens: %+v", tokens)
	}
	if !store.Has(tokens.RefreshToken) {
		t.Fatal("expected refresh token to be persisted")
	}

	refreshed, err := manager.Refresh(context.Background(), tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.RefreshToken == tokens.RefreshToken {
		t.Fatal("expected new refresh token")
	}
	if store.Has(tokens.RefreshToken) {
		t.Fatal("old token should have been removed")
	}
	if !store.Has(refreshed.RefreshToken) {
		t.Fatal("new token should have been stored")
	}
	if got := store.UserSessions("user-1", time.Now()); got != 1 {
		t.Fatalf("expected one live session after rotation, got %d", got)
	}
}

func TestManagerIssueValidation(t *testing.T) {
	manager := NewManager(testSecret, time.Minute, time.Hour, NewMemorySessionStore())
	if _, err := manager.Issue(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty user id")
	}
}

func TestManagerRefreshFailures(t *testing.T) {
	manager := NewManager(testSecret, time.Minute, time.Millisecond, NewMemorySessionStore())

	if _, err := manager.Refresh(context.Background(), ""); err != ErrSessionNotFound {
		t.Fatalf("expected session not found got %v", err)
	}

	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	time.Sleep(2 * time.Millisecond)

	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); err != ErrRefreshTokenExpired {
		t.Fatalf("expected refresh expired got %v", err)
	}

	tokens, err = manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	manager.Revoke(context.Background(), tokens.RefreshToken)
	if _, err := manager.Refresh(context.Background(), tokens.RefreshToken); err != ErrSessionNotFound {
		t.Fatalf("expected session not found after revoke got %v", err)
	}
}

func TestManagerVerify(t *testing.T) {
	manager := NewManager(testSecret, time.Minute, time.Hour, NewMemorySessionStore())

	tokens, err := manager.Issue(context.Background(), "user-42")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	userID, err := manager.Verify(tokens.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != "user-42" {
		t.Fatalf("expected user-42 got %q", userID)
	}
}

func TestManagerVerifyFailures(t *testing.T) {
	manager := NewManager(testSecret, time.Minute, time.Hour, NewMemorySessionStore())
	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other := NewManager([]byte("another-secret"), time.Minute, time.Hour, NewMemorySessionStore())
	if _, err := other.Verify(tokens.AccessToken); !errors.Is(err, ErrInvalidAccessToken) {
		t.Fatalf("expected invalid token for foreign signature got %v", err)
	}

	if _, err := manager.Verify(""); !errors.Is(err, ErrInvalidAccessToken) {
		t.Fatalf("expected invalid token for empty input got %v", err)
	}

	if _, err := manager.Verify("not-a-jwt"); !errors.Is(err, ErrInvalidAccessToken) {
		t.Fatalf("expected invalid token for garbage got %v", err)
	}

	manager.now = func() time.Time { return time.Now().UTC().Add(2 * time.Minute) }
	if _, err := manager.Verify(tokens.AccessToken); !errors.Is(err, ErrAccessTokenExpired) {
		t.Fatalf("expected expired token got %v", err)
	}
}

func TestNewManagerPanicsWithoutStore(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for nil store")
		}
	}()
	NewManager(testSecret, time.Minute, time.Hour, nil)
}

func TestUserIDContext(t *testing.T) {
	if _, ok := UserIDFromContext(context.Background()); ok {
		t.Fatal("expected no user id on empty context")
	}

	ctx := WithUserID(context.Background(), "user-1")
	userID, ok := UserIDFromContext(ctx)
	if !ok || userID != "user-1" {
		t.Fatalf("expected user-1 got %q (ok=%v)", userID, ok)
	}
}

package operators

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/playmatatu/pooltable/internal/models"
)

func cheapHash(t *testing.T, token string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return string(h)
}

func TestVerifyToken(t *testing.T) {
	hash := cheapHash(t, "s3cret")
	if !VerifyToken(hash, "s3cret") {
		t.Error("expected matching token to verify")
	}
	if VerifyToken(hash, "wrong") {
		t.Error("wrong token should not verify")
	}
	if VerifyToken("not-a-hash", "s3cret") {
		t.Error("garbage hash should not verify")
	}
}

func TestHashToken(t *testing.T) {
	hash, err := HashToken("abc")
	if err != nil {
		t.Fatalf("HashToken: %v", err)
	}
	if !VerifyToken(hash, "abc") {
		t.Error("hash should verify its own token")
	}
}

func TestFallbackAuthentication(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil, cheapHash(t, "letmein"))

	op, err := store.Authenticate(ctx, FallbackName, "letmein")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if op.Name != FallbackName || !op.CanOperate("any-table") {
		t.Errorf("unexpected fallback operator: %+v", op)
	}

	if _, err := store.Authenticate(ctx, FallbackName, "nope"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := store.Authenticate(ctx, "someone", "letmein"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown name, got %v", err)
	}
}

func TestNoOperatorsConfigured(t *testing.T) {
	store := NewStore(nil, "")
	if _, err := store.Authenticate(context.Background(), FallbackName, "x"); !errors.Is(err, ErrNoOperators) {
		t.Errorf("expected ErrNoOperators, got %v", err)
	}
	if err := store.Create(context.Background(), "a", "A", "t", nil); !errors.Is(err, ErrNoOperators) {
		t.Errorf("expected ErrNoOperators from Create, got %v", err)
	}
	entries, err := store.RecentCommands(context.Background(), "main", 10)
	if err != nil || len(entries) != 0 {
		t.Errorf("RecentCommands without DB: %v %v", entries, err)
	}
}

func TestCanOperate(t *testing.T) {
	op := models.OperatorAccount{Name: "ann", Tables: []string{"hall-1", "hall-2"}}
	if !op.CanOperate("hall-2") {
		t.Error("listed table should be allowed")
	}
	if op.CanOperate("main") {
		t.Error("unlisted table should be refused")
	}
	op.Tables = []string{"*"}
	if !op.CanOperate("main") {
		t.Error("wildcard should allow every table")
	}
}

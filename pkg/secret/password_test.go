package secret_test

import (
	"errors"
	"testing"

	"github.com/aura-meetings/backend/pkg/secret"
)

func TestHashAndCheck(t *testing.T) {
	hash, err := secret.HashPassword("s3cret-room")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "s3cret-room" {
		t.Fatal("hash equals plain text")
	}
	if !secret.CheckPassword("s3cret-room", hash) {
		t.Error("expected matching password to check")
	}
	if secret.CheckPassword("wrong", hash) {
		t.Error("expected wrong password to fail")
	}
}

func TestHashPassword_TooShort(t *testing.T) {
	if _, err := secret.HashPassword("abc"); !errors.Is(err, secret.ErrPasswordTooShort) {
		t.Errorf("got %v, want ErrPasswordTooShort", err)
	}
}

func TestCheckPassword_EmptyHash(t *testing.T) {
	if secret.CheckPassword("", "") {
		t.Error("empty hash must never match")
	}
}

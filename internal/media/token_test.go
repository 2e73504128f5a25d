package media_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aura-meetings/backend/internal/media"
	"github.com/aura-meetings/backend/internal/models"
)

func TestIssue(t *testing.T) {
	issuer := media.NewIssuer("key-123", "media-secret", 0)
	now := time.Now().Truncate(time.Second)

	tok, err := issuer.Issue("user_1", "stream-abc", models.RoleObserver, now)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if tok.APIKey != "key-123" || tok.StreamID != "stream-abc" {
		t.Errorf("token metadata: got %+v", tok)
	}
	if !tok.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Errorf("ExpiresAt: got %v, want %v", tok.ExpiresAt, now.Add(time.Hour))
	}

	var claims media.Claims
	_, err = jwt.ParseWithClaims(tok.Token, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte("media-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "user_1" || claims.Role != "guest" {
		t.Errorf("claims: got %+v", claims)
	}
	if len(claims.CallCIDs) != 1 || claims.CallCIDs[0] != "default:stream-abc" {
		t.Errorf("call_cids: got %v", claims.CallCIDs)
	}
}

func TestIssue_NotConfigured(t *testing.T) {
	var nilIssuer *media.Issuer
	if _, err := nilIssuer.Issue("u", "s", models.RoleHost, time.Now()); !errors.Is(err, media.ErrNotConfigured) {
		t.Errorf("nil issuer: got %v", err)
	}
	if _, err := media.NewIssuer("", "secret", 0).Issue("u", "s", models.RoleHost, time.Now()); !errors.Is(err, media.ErrNotConfigured) {
		t.Errorf("missing key: got %v", err)
	}
}

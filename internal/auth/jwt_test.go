package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aura-meetings/backend/internal/auth"
)

func TestGenerateValidate(t *testing.T) {
	svc := auth.NewJWTService("test-secret", "aura-identity", 1)
	token, err := svc.Generate("user_2abc", "Ada", "ada@example.com")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.Subject != "user_2abc" || claims.Name != "Ada" || claims.Email != "ada@example.com" {
		t.Errorf("claims: got %+v", claims)
	}
}

func TestValidate_Rejects(t *testing.T) {
	svc := auth.NewJWTService("test-secret", "aura-identity", 1)

	otherSecret, _ := auth.NewJWTService("other-secret", "aura-identity", 1).Generate("u1", "", "")
	otherIssuer, _ := auth.NewJWTService("test-secret", "someone-else", 1).Generate("u1", "", "")
	expired, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			Issuer:    "aura-identity",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString([]byte("test-secret"))
	noSubject, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "aura-identity",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("test-secret"))

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"garbage", "not-a-jwt", auth.ErrInvalidToken},
		{"wrong secret", otherSecret, auth.ErrInvalidToken},
		{"wrong issuer", otherIssuer, auth.ErrInvalidToken},
		{"expired", expired, auth.ErrInvalidToken},
		{"missing subject", noSubject, auth.ErrMissingSubject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Validate(tt.token); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

// Package media issues user tokens for the external real-time media provider.
// The provider owns the room; tokens only bind a user to the meeting's stream.
package media

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aura-meetings/backend/internal/models"
)

// DefaultValidity matches the provider's one-hour user token lifetime.
const DefaultValidity = time.Hour

// ErrNotConfigured is returned when no API key or secret is set.
var ErrNotConfigured = errors.New("media: api key and secret required")

// Claims is the payload the media provider verifies.
type Claims struct {
	UserID   string   `json:"user_id"`
	CallCIDs []string `json:"call_cids,omitempty"`
	Role     string   `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Token is an issued user token.
type Token struct {
	Token     string    `json:"token"`
	APIKey    string    `json:"apiKey"`
	StreamID  string    `json:"streamId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Issuer signs media user tokens with the provider's API secret.
type Issuer struct {
	apiKey   string
	secret   []byte
	validity time.Duration
}

// NewIssuer creates a token issuer. validity of 0 uses DefaultValidity.
func NewIssuer(apiKey, secret string, validity time.Duration) *Issuer {
	if validity <= 0 {
		validity = DefaultValidity
	}
	return &Issuer{apiKey: apiKey, secret: []byte(secret), validity: validity}
}

// Configured reports whether tokens can be issued.
func (i *Issuer) Configured() bool {
	return i != nil && i.apiKey != "" && len(i.secret) > 0
}

// Issue signs a token letting userID join streamID with the capabilities of role.
// Hosts and co-hosts may publish; participants join as users; observers only watch.
func (i *Issuer) Issue(userID, streamID string, role models.Role, now time.Time) (Token, error) {
	if !i.Configured() {
		return Token{}, ErrNotConfigured
	}
	if userID == "" || streamID == "" {
		return Token{}, fmt.Errorf("media: user id and stream id required")
	}
	exp := now.Add(i.validity)
	claims := Claims{
		UserID:   userID,
		CallCIDs: []string{"default:" + streamID},
		Role:     providerRole(role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return Token{}, fmt.Errorf("media: sign token: %w", err)
	}
	return Token{Token: signed, APIKey: i.apiKey, StreamID: streamID, ExpiresAt: exp}, nil
}

func providerRole(r models.Role) string {
	switch r {
	case models.RoleHost, models.RoleCoHost:
		return "admin"
	case models.RoleObserver:
		return "guest"
	default:
		return "user"
	}
}

package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aura-meetings/backend/internal/auth"
	"github.com/aura-meetings/backend/pkg/response"
)

const (
	// ContextSubject is the key for the identity provider's subject in gin context.
	ContextSubject = "subject"
	// ContextName is the key for the caller's display name.
	ContextName = "subject_name"
	// ContextPicture is the key for the caller's avatar URL.
	ContextPicture = "subject_picture"
)

// JWT returns a middleware that validates the bearer identity token and sets the
// caller's subject in context.
func JWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextSubject, claims.Subject)
		c.Set(ContextName, claims.Name)
		c.Set(ContextPicture, claims.Picture)
		c.Next()
	}
}

// Subject returns the authenticated subject, or "" when the request is anonymous.
func Subject(c *gin.Context) string {
	return c.GetString(ContextSubject)
}

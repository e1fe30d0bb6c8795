package middlewares

import (
	"context"
	"strings"

	"github.com/geocoder89/assethub/internal/actorctx"
	"github.com/geocoder89/assethub/internal/apperr"
	"github.com/geocoder89/assethub/internal/auth"
	"github.com/geocoder89/assethub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// SessionCookie carries the signed session token.
const SessionCookie = "token"

// Keep these small so tests can fake them easily.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type RoleLookup interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type AuthMiddleware struct {
	tokens TokenVerifier
	users  RoleLookup
}

func NewAuthMiddleware(tokens TokenVerifier, users RoleLookup) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// RequireAuth verifies the session token and attaches the caller's email.
// Nothing downstream runs on failure.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := sessionToken(c)
		if raw == "" {
			abortWith(c, apperr.Unauthorized("Missing session token"))
			return
		}

		claims, err := m.tokens.Verify(raw)
		if err != nil {
			abortWith(c, apperr.Unauthorized("Invalid or expired session"))
			return
		}

		c.Set(CtxEmail, claims.Email)
		c.Request = c.Request.WithContext(actorctx.WithEmail(c.Request.Context(), claims.Email))

		c.Next()
	}
}

// cookie first, browsers never send the header
func sessionToken(c *gin.Context) string {
	if v, err := c.Cookie(SessionCookie); err == nil && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}

	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
}

// EmailFromContext returns the identity attached by RequireAuth.
func EmailFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxEmail)
	if !ok {
		return "", false
	}
	email, ok := v.(string)
	return email, ok && email != ""
}

package middlewares

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/assethub/internal/apperr"
	"github.com/geocoder89/assethub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

const roleLookupTimeout = 5 * time.Second

// RequireAdmin reads the caller's role from the store on every request; a
// role baked into the token could outlive a demotion.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		email, ok := EmailFromContext(c)
		if !ok {
			abortWith(c, apperr.Unauthorized("Missing identity context"))
			return
		}

		cctx, cancel := context.WithTimeout(c.Request.Context(), roleLookupTimeout)
		defer cancel()

		u, err := m.users.GetByEmail(cctx, email)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				abortWith(c, apperr.Forbidden("Admin role required"))
				return
			}
			abortWith(c, apperr.Internal("Could not verify role", err))
			return
		}

		if !u.IsAdmin() {
			abortWith(c, apperr.Forbidden("Admin role required"))
			return
		}
		c.Next()
	}
}

// RequireSelf rejects requests whose target email (path :email, else
// ?email=) is absent or differs from the caller. Admins get no bypass.
func RequireSelf() gin.HandlerFunc {
	return func(c *gin.Context) {
		email, ok := EmailFromContext(c)
		if !ok {
			abortWith(c, apperr.Unauthorized("Missing identity context"))
			return
		}

		// compared byte for byte: a padded or re-cased email names another
		// document, not the caller's
		target := c.Param("email")
		if target == "" {
			target = c.Query("email")
		}

		if target == "" || target != email {
			abortWith(c, apperr.Forbidden("Forbidden access"))
			return
		}
		c.Next()
	}
}

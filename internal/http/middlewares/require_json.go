package middlewares

import (
	"net/http"
	"strings"

	"github.com/geocoder89/assethub/internal/apperr"
	"github.com/gin-gonic/gin"
)

// RequireJSON checks the content type of write requests that carry a body.
// Body-less transitions such as PATCH .../approve pass through.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			if c.Request.ContentLength == 0 {
				break
			}
			ct := c.GetHeader("Content-Type")
			// allow "application/json; charset=utf-8"
			if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
				abortWith(c, apperr.UnsupportedMedia("Content-Type must be application/json"))
				return
			}
		}
		c.Next()
	}
}

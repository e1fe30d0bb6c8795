package middlewares

import (
	"bytes"
	"net/http"
	"net/http/httptest"

	"github.com/geocoder89/assethub/internal/apperr"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// renderErrors is a minimal stand-in for the central error handler: it turns
// the last pushed error into its status code and code string.
func renderErrors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		e, ok := apperr.As(c.Errors.Last().Err)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"code": "internal_error"})
			return
		}
		c.JSON(e.Kind.Status(), gin.H{"code": e.Code})
	}
}

func newTestRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(renderErrors())
	r.Use(mw...)
	return r
}

func ok(c *gin.Context) {
	email, _ := EmailFromContext(c)
	c.JSON(http.StatusOK, gin.H{"email": email})
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/assethub/internal/http/handlers"
	"github.com/geocoder89/assethub/internal/http/middlewares"
	"github.com/geocoder89/assethub/internal/jobs"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// asCaller stands in for RequireAuth.
func asCaller(email string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if email != "" {
			c.Set(middlewares.CtxEmail, email)
		}
		c.Next()
	}
}

// setupRouter mounts one handler behind the error handler and a fixed caller.
func setupRouter(method, path, caller string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(handlers.ErrorHandler(nil))
	r.Use(asCaller(caller))
	r.Handle(method, path, h)
	return r
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var env errorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("body is not an error envelope: %v body=%s", err, w.Body.String())
	}
	return env.Error.Code
}

type fakeQueue struct {
	jobs []jobs.Job
	err  error
}

func (q *fakeQueue) Enqueue(_ context.Context, j jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, j)
	return nil
}

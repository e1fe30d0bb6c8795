package worker

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/assethub/internal/queue/redisqueue"
	"github.com/gin-gonic/gin"
)

// QueueStats is satisfied by *redisqueue.Queue.
type QueueStats interface {
	Stats(ctx context.Context) (redisqueue.Stats, error)
}

// HealthHandler serves liveness, readiness, stats and, when given, the
// Prometheus exposition for this worker process.
func (w *Worker) HealthHandler(stats QueueStats, metrics http.Handler) http.Handler {
	r := gin.New()

	r.Use(gin.Recovery())

	// liveness: process is up
	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": true})
	})

	// readiness: not shutting down and Redis answers
	r.GET("/readyz", func(c *gin.Context) {
		if !w.isReady() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
			return
		}

		cctx, cancel := context.WithTimeout(c.Request.Context(), 500*time.Millisecond)
		defer cancel()

		if err := w.queue.Ping(cctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "queue_unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/stats", func(c *gin.Context) {
		body := gin.H{"jobs": w.metrics.Snapshot()}

		if stats != nil {
			cctx, cancel := context.WithTimeout(c.Request.Context(), 500*time.Millisecond)
			defer cancel()

			if s, err := stats.Stats(cctx); err == nil {
				body["queue"] = s
			}
		}

		if state, ok := w.notifier.(interface{ State() string }); ok {
			body["notifierCircuit"] = state.State()
		}

		c.JSON(http.StatusOK, body)
	})

	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}

	return r
}

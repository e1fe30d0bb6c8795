package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/assethub/internal/http/middlewares"
	"github.com/geocoder89/assethub/internal/jobs"
	"github.com/gin-gonic/gin"
)

type JobsEnqueuer interface {
	Enqueue(ctx context.Context, j jobs.Job) error
}

const enqueueTimeout = 2 * time.Second

// enqueueBestEffort hands a follow-up job to the queue. The request has
// already succeeded, so a failure here is logged and swallowed.
func enqueueBestEffort(ctx *gin.Context, q JobsEnqueuer, t jobs.JobType, payload any) {
	if q == nil {
		return
	}

	j, err := jobs.Build(t, payload)
	if err != nil {
		slog.Default().WarnContext(ctx.Request.Context(), "job not built", "job_type", t, "err", err)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), enqueueTimeout)
	defer cancel()

	if err := q.Enqueue(cctx, j); err != nil {
		slog.Default().WarnContext(ctx.Request.Context(), "job not enqueued", "job_type", t, "job_id", j.ID, "err", err)
		return
	}

	ctx.Set(middlewares.CtxJobID, j.ID)
}

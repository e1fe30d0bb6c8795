package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/assethub/internal/jobs"
	"github.com/geocoder89/assethub/internal/notifications"
	"github.com/geocoder89/assethub/internal/queue/redisqueue"
)

// ProcessOne handles at most one job. It reports whether a job was claimed.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	j, err := w.queue.Dequeue(ctx, w.cfg.PollTimeout)
	if err != nil {
		if errors.Is(err, redisqueue.ErrEmpty) {
			return false, nil
		}
		if errors.Is(err, redisqueue.ErrUndecodable) {
			w.metrics.IncClaimed()
			w.metrics.IncDeadLettered()
			w.log.WarnContext(ctx, "job dead-lettered", "err", err)
			return true, nil
		}
		return false, err
	}

	w.metrics.IncClaimed()
	if w.prom != nil {
		defer w.prom.JobStarted()()
	}

	// a claimed job is finished even if shutdown starts meanwhile
	jobCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.cfg.JobTimeout)
	defer cancel()

	start := time.Now()
	err = w.execute(jobCtx, j)
	elapsed := time.Since(start)
	w.metrics.ObserveDuration(elapsed)

	if err != nil {
		result := w.handleFailure(jobCtx, j, err)
		w.observe(j, result, elapsed)
		return true, nil
	}

	j.Status = jobs.JobSucceeded
	w.metrics.IncDone()
	w.observe(j, "done", elapsed)
	w.log.InfoContext(jobCtx, "job done", "job_id", j.ID, "job_type", j.Type, "status", j.Status, "attempt", j.Attempts+1)
	return true, nil
}

func (w *Worker) execute(ctx context.Context, j jobs.Job) error {
	payload, err := jobs.DecodePayload(j)
	if err != nil {
		return err
	}

	switch p := payload.(type) {
	case jobs.AssetStatusChangedPayload:
		return w.notifier.SendAssetStatusNotice(ctx, notifications.AssetStatusNotice{
			Email:     p.Email,
			AssetID:   p.AssetID,
			AssetName: p.AssetName,
			Status:    p.Status,
			DecidedBy: p.ActorEmail,
		})

	case jobs.PaymentRecordedPayload:
		return w.notifier.SendPaymentReceipt(ctx, notifications.PaymentReceipt{
			Email:         p.Email,
			PaymentID:     p.PaymentID,
			Price:         p.Price,
			TransactionID: p.TransactionID,
		})

	default:
		return fmt.Errorf("%w: %T", jobs.ErrPayloadTypeMismatch, payload)
	}
}

// handleFailure retries with backoff until the job runs out of tries. An
// undecodable job is dead-lettered at once since retrying cannot fix it.
func (w *Worker) handleFailure(ctx context.Context, j jobs.Job, cause error) string {
	w.metrics.IncFailed()

	j.Attempts++
	msg := cause.Error()
	j.LastError = &msg

	permanent := errors.Is(cause, jobs.ErrInvalidJobPayload) ||
		errors.Is(cause, jobs.ErrInvalidJobType) ||
		errors.Is(cause, jobs.ErrPayloadTypeMismatch)

	if permanent || j.Exhausted() {
		if err := w.queue.DeadLetter(ctx, j); err != nil {
			w.log.ErrorContext(ctx, "dead-letter failed", "job_id", j.ID, "err", err)
		}
		w.metrics.IncDeadLettered()
		w.log.WarnContext(ctx, "job dead-lettered", "job_id", j.ID, "job_type", j.Type, "attempts", j.Attempts, "err", cause)
		return "dead"
	}

	delay := ExponentialBackoff(j.Attempts - 1)
	if err := w.queue.Retry(ctx, j, delay); err != nil {
		w.log.ErrorContext(ctx, "retry schedule failed", "job_id", j.ID, "err", err)
	}
	w.metrics.IncRetried()
	w.log.WarnContext(ctx, "job failed, retrying", "job_id", j.ID, "job_type", j.Type, "attempt", j.Attempts, "delay", delay, "err", cause)
	return "retry"
}

func (w *Worker) observe(j jobs.Job, result string, d time.Duration) {
	w.metrics.ObserveResult(string(j.Type), result, time.Now().UTC())
	if w.prom == nil {
		return
	}
	w.prom.ObserveJob(string(j.Type), result, d)
}

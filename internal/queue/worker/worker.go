package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/geocoder89/assethub/internal/jobs"
	"github.com/geocoder89/assethub/internal/notifications"
	"github.com/geocoder89/assethub/internal/observability"
)

type Queue interface {
	Dequeue(ctx context.Context, timeout time.Duration) (jobs.Job, error)
	Retry(ctx context.Context, j jobs.Job, delay time.Duration) error
	DeadLetter(ctx context.Context, j jobs.Job) error
	PromoteDue(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

type Config struct {
	WorkerID        string
	Concurrency     int
	PollTimeout     time.Duration // how long one BRPOP blocks
	PromoteInterval time.Duration // how often due retries are moved back
	JobTimeout      time.Duration
	ShutdownGrace   time.Duration
}

type Worker struct {
	cfg      Config
	queue    Queue
	notifier notifications.Notifier
	log      *slog.Logger
	metrics  *observability.JobMetrics
	prom     *observability.Prom

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, queue Queue, notifier notifications.Notifier, log *slog.Logger) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = time.Second
	}
	if cfg.PromoteInterval <= 0 {
		cfg.PromoteInterval = time.Second
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 30 * time.Second
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 10 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	return &Worker{
		cfg:      cfg,
		queue:    queue,
		notifier: notifier,
		log:      log.With("worker_id", cfg.WorkerID),
		metrics:  observability.NewJobMetrics(),
	}
}

// WithProm adds Prometheus job metrics on top of the process-local counters.
func (w *Worker) WithProm(p *observability.Prom) *Worker {
	w.prom = p
	return w
}

func (w *Worker) Metrics() *observability.JobMetrics {
	return w.metrics
}

// Run blocks until ctx is cancelled, then waits up to ShutdownGrace for
// in-flight jobs.
func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.promoteLoop(ctx)
	}()

	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx)
		}()
	}

	<-ctx.Done()
	w.setReady(false)
	w.log.Info("worker received shutdown signal")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(w.cfg.ShutdownGrace):
		w.log.Warn("worker shutdown grace elapsed with jobs in flight")
		return context.DeadlineExceeded
	}
}

func (w *Worker) loop(ctx context.Context) {
	for ctx.Err() == nil {
		_, err := w.ProcessOne(ctx)
		if err != nil && ctx.Err() == nil {
			w.log.Error("process job failed", "err", err)

			// back off a little so a dead Redis does not spin the loop
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

func (w *Worker) promoteLoop(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PromoteInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := w.queue.PromoteDue(ctx)
			if err != nil {
				if ctx.Err() == nil {
					w.log.Error("promote due jobs failed", "err", err)
				}
				continue
			}
			if n > 0 {
				w.log.Debug("promoted due jobs", "count", n)
			}
		}
	}
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}

func (w *Worker) isReady() bool {
	w.readyMu.RLock()
	defer w.readyMu.RUnlock()
	return w.ready
}

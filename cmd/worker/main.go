package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/geocoder89/assethub/internal/config"
	"github.com/geocoder89/assethub/internal/notifications"
	"github.com/geocoder89/assethub/internal/observability"
	"github.com/geocoder89/assethub/internal/queue/redisclient"
	"github.com/geocoder89/assethub/internal/queue/redisqueue"
	"github.com/geocoder89/assethub/internal/queue/worker"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const pollTimeout = 2 * time.Second

func main() {
	cfg := config.Load()
	log := observability.NewLogger(cfg.Env)

	if !cfg.RedisEnabled() {
		log.Error("REDIS_ADDR is required for the worker")
		os.Exit(1)
	}
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerOptions{
		ServiceName: "assethub-worker",
		Env:         cfg.Env,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRatio: cfg.OTELSampleRatio,
	})
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	// BRPOP blocks for pollTimeout, the socket must wait longer
	redisCfg := redisclient.FromAppConfig(cfg)
	redisCfg.ReadTimeout = pollTimeout + time.Second

	rdb, err := redisclient.Connect(ctx, redisCfg)
	if err != nil {
		log.Error("redis connect failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	queue := redisqueue.New(rdb.Raw(), "")

	notifier := notifications.NewProtectedNotifier(
		notifications.NewLogNotifier(log),
		notifications.ProtectedNotifierConfig{
			Timeout:          3 * time.Second,
			FailureThreshold: 3,
			Cooldown:         15 * time.Second,
			HalfOpenMaxCalls: 1,
		},
	).OnStateChange(func(from, to string) {
		log.Warn("notifier circuit changed", "from", from, "to", to)
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	host, _ := os.Hostname()
	workerID := host + "-" + strconv.Itoa(os.Getpid())

	w := worker.New(worker.Config{
		WorkerID:        workerID,
		Concurrency:     cfg.WorkerConcurrency,
		PollTimeout:     pollTimeout,
		PromoteInterval: time.Second,
		JobTimeout:      30 * time.Second,
		ShutdownGrace:   10 * time.Second,
	}, queue, notifier, log).WithProm(prom)

	healthSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WorkerHealthPort),
		Handler:           w.HealthHandler(queue, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("worker health server starting", "port", cfg.WorkerHealthPort)
		if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("worker health server failed", "err", err)
		}
	}()

	log.Info("worker has started", "worker_id", workerID, "concurrency", cfg.WorkerConcurrency)

	if err := w.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	shutdownCtx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("worker health server shutdown failed", "err", err)
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		log.Error("tracer shutdown failed", "err", err)
	}

	log.Info("worker shutdown complete")
}

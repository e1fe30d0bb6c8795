package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/geocoder89/assethub/internal/auth"
	"github.com/geocoder89/assethub/internal/config"
	"github.com/geocoder89/assethub/internal/db"
	"github.com/geocoder89/assethub/internal/gateway"
	httpx "github.com/geocoder89/assethub/internal/http"
	"github.com/geocoder89/assethub/internal/http/handlers"
	"github.com/geocoder89/assethub/internal/http/middlewares"
	"github.com/geocoder89/assethub/internal/observability"
	"github.com/geocoder89/assethub/internal/queue/redisclient"
	"github.com/geocoder89/assethub/internal/queue/redisqueue"
	"github.com/geocoder89/assethub/internal/repo/memory"
	"github.com/geocoder89/assethub/internal/repo/mongodb"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerOptions{
		ServiceName: "assethub-api",
		Env:         cfg.Env,
		Endpoint:    cfg.OTLPEndpoint,
		SampleRatio: cfg.OTELSampleRatio,
	})
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	deps := httpx.Deps{
		Config:   cfg,
		Log:      log,
		Tokens:   auth.NewManager(cfg.SessionSecret, cfg.SessionTTL),
		Gateway:  gateway.NewStripe(cfg.StripeSecretKey, prom),
		Prom:     prom,
		Gatherer: reg,
		Checks:   map[string]handlers.Pinger{},
	}

	// stores
	var mongoClient *mongo.Client
	switch cfg.Store {
	case config.StoreMongo:
		client, database, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			log.Error("mongodb connect failed", "err", err)
			os.Exit(1)
		}
		mongoClient = client

		idxCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err = db.EnsureIndexes(idxCtx, database)
		cancel()
		if err != nil {
			log.Error("mongodb indexes failed", "err", err)
			os.Exit(1)
		}

		users := mongodb.NewUsersRepo(database, prom)
		deps.Users = users
		deps.Assets = mongodb.NewAssetsRepo(database, prom)
		deps.Products = mongodb.NewProductsRepo(database, prom)
		deps.Payments = mongodb.NewPaymentsRepo(database, prom)
		deps.Checks["mongodb"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }

		log.Info("using mongodb store", "db", cfg.MongoDB)
	default:
		deps.Users = memory.NewUsersRepo()
		deps.Assets = memory.NewAssetsRepo()
		deps.Products = memory.NewProductsRepo()
		deps.Payments = memory.NewPaymentsRepo()

		log.Warn("using in-memory store, data is lost on restart")
	}

	seedCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := db.EnsureAdminUser(seedCtx, deps.Users, cfg); err != nil {
		log.Error("admin seed failed", "err", err)
	}
	cancel()

	// redis backs the shared rate limiter and the follow-up job queue
	var rdb *redisclient.Client
	if cfg.RedisEnabled() {
		rdb, err = redisclient.Connect(ctx, redisclient.FromAppConfig(cfg))
		if err != nil {
			log.Error("redis connect failed", "err", err)
			os.Exit(1)
		}

		q := redisqueue.New(rdb.Raw(), "").OnEnqueue(prom.ObserveEnqueue)
		deps.Jobs = q
		deps.Limits = middlewares.NewRedisLimitStore(rdb.Raw())
		deps.Checks["redis"] = rdb.Ping

		log.Info("redis enabled", "addr", cfg.RedisAddr)
	} else {
		log.Warn("REDIS_ADDR not set: per-process rate limits, no notifications")
	}

	// set up routers with the log
	router := httpx.NewRouter(deps)

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.Store)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		if err := shutdownTracer(ctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
		if rdb != nil {
			_ = rdb.Close()
		}
		if err := db.Disconnect(mongoClient); err != nil {
			log.Error("mongodb disconnect failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

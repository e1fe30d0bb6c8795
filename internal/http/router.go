package http

import (
	"log/slog"
	"time"

	"github.com/geocoder89/assethub/internal/apperr"
	"github.com/geocoder89/assethub/internal/auth"
	"github.com/geocoder89/assethub/internal/config"
	"github.com/geocoder89/assethub/internal/http/handlers"
	"github.com/geocoder89/assethub/internal/http/middlewares"
	"github.com/geocoder89/assethub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const (
	serviceName      = "assethub-api"
	productsCacheTTL = 10 * time.Second
)

// Deps is everything the router wires into handlers. Optional parts may be
// nil: Jobs (no follow-up notifications), Limits (in-process limiter), Prom
// and Gatherer (no metrics).
type Deps struct {
	Config   config.Config
	Log      *slog.Logger
	Tokens   *auth.Manager
	Users    handlers.UsersStore
	Assets   handlers.AssetsStore
	Products handlers.ProductsStore
	Payments handlers.PaymentsStore
	Gateway  handlers.PaymentGateway
	Jobs     handlers.JobsEnqueuer
	Limits   middlewares.LimitStore
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	Checks   map[string]handlers.Pinger
}

func NewRouter(d Deps) *gin.Engine {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.Limits == nil {
		d.Limits = middlewares.NewMemoryLimitStore()
	}

	r := gin.New()

	// middleware, outermost first. Logging, tracing and metrics read the
	// final status, so they wrap ErrorHandler, which writes error bodies.
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(otelgin.Middleware(serviceName))
	if d.Prom != nil {
		r.Use(d.Prom.Middleware())
	}
	r.Use(handlers.ErrorHandler(d.Log))
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		_ = c.Error(apperr.Internal("Internal server error", nil))
		d.Log.ErrorContext(c.Request.Context(), "panic recovered", "panic", recovered)
		c.Abort()
	}))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Config.CORSOrigins))
	r.Use(middlewares.MaxBodyBytes(d.Config.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	limiter := middlewares.NewRateLimiter(d.Limits, d.Config.RateLimitPerMinute, time.Minute)
	if d.Prom != nil {
		limiter.OnLimited(d.Prom.ObserveRateLimited)
	}

	// health
	health := handlers.NewHealthHandler(d.Checks)
	r.GET("/", health.Root)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	// session
	session := handlers.NewSessionHandler(d.Tokens, d.Config.SessionCookieMaxAge, d.Config.CookieSecure)
	r.POST("/jwt", limiter.RateLimiterMiddleware(middlewares.KeyByIP), session.Issue)
	r.POST("/logout", session.Logout)

	authMW := middlewares.NewAuthMiddleware(d.Tokens, d.Users)
	admin := authMW.RequireAdmin()
	self := middlewares.RequireSelf()

	api := r.Group("/api/v1")
	api.Use(authMW.RequireAuth())
	api.Use(limiter.RateLimiterMiddleware(middlewares.KeyByUserOrIP))

	// users
	users := handlers.NewUsersHandler(d.Users)
	api.PUT("/users/:email", self, users.UpsertProfile)
	api.GET("/users/:email", self, users.GetProfile)
	api.GET("/users/admin/:email", self, users.IsAdmin)
	api.GET("/users", admin, users.List)
	api.PATCH("/users/admin/:id", admin, users.SetRole)
	api.DELETE("/remove-employee/:id", admin, users.Remove)

	// assets
	assets := handlers.NewAssetsHandler(d.Assets, d.Users, d.Jobs)
	api.POST("/assets", assets.Create)
	api.GET("/assets", admin, assets.ListAll)
	api.GET("/my-assets", self, assets.ListMine)
	api.GET("/assets/:id", assets.Get)
	api.PATCH("/assets/:id", self, assets.Edit)
	api.PATCH("/assets/:id/approve", admin, assets.Approve)
	api.PATCH("/assets/:id/reject", admin, assets.Reject)
	api.PATCH("/assets/:id/return", self, assets.Return)
	api.DELETE("/assets/:id", self, assets.Delete)

	// products
	products := handlers.NewProductsHandler(d.Products, productsCacheTTL)
	api.POST("/products", admin, products.Create)
	api.GET("/products", products.List)
	api.GET("/products/:id", products.Get)
	api.PATCH("/products/:id", admin, products.Update)
	api.DELETE("/products/:id", admin, products.Delete)

	// payments
	payments := handlers.NewPaymentsHandler(d.Payments, d.Gateway, d.Jobs)
	api.POST("/make-payment-intent", payments.CreateIntent)
	api.POST("/payments", payments.Record)
	api.GET("/payments", self, payments.List)

	return r
}

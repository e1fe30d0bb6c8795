package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "assethub"

// Prom holds every collector the API and the worker export. Each process
// registers the full set; series it never touches simply stay empty.
type Prom struct {
	HTTPRequests *prometheus.CounterVec   // method, route, status
	HTTPDuration *prometheus.HistogramVec // method, route, status
	HTTPInFlight *prometheus.GaugeVec     // method, route
	RateLimited  *prometheus.CounterVec   // route

	DBDuration *prometheus.HistogramVec // op, status
	DBErrors   *prometheus.CounterVec   // op, class

	GatewayDuration *prometheus.HistogramVec // op, status

	JobsEnqueued *prometheus.CounterVec   // job_type, status
	JobDuration  *prometheus.HistogramVec // job_type, result
	JobResults   *prometheus.CounterVec   // job_type, result
	JobsInFlight prometheus.Gauge
}

func counter(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: subsystem, Name: name, Help: help,
	}, labels)
}

func histogram(subsystem, name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: subsystem, Name: name, Help: help, Buckets: buckets,
	}, labels)
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		HTTPRequests: counter("http", "requests_total", "HTTP requests by route template and status.",
			"method", "route", "status"),
		HTTPDuration: histogram("http", "request_duration_seconds", "HTTP request latency.",
			[]float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			"method", "route", "status"),
		HTTPInFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "http", Name: "in_flight_requests",
			Help: "Requests currently being served.",
		}, []string{"method", "route"}),
		RateLimited: counter("http", "rate_limited_total", "Requests rejected by the rate limiter.",
			"route"),

		DBDuration: histogram("db", "op_duration_seconds", "Document store latency by collection.operation.",
			[]float64{0.002, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			"op", "status"),
		DBErrors: counter("db", "errors_total", "Document store errors by op and class.",
			"op", "class"),

		GatewayDuration: histogram("gateway", "call_duration_seconds", "Payment processor call latency.",
			[]float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			"op", "status"),

		JobsEnqueued: counter("jobs", "enqueued_total", "Jobs handed to the queue.",
			"job_type", "status"),
		JobDuration: histogram("jobs", "duration_seconds", "Notification job run time.",
			[]float64{0.01, 0.05, 0.1, 0.5, 1, 3, 10, 30},
			"job_type", "result"),
		JobResults: counter("jobs", "results_total", "Job attempts by result (done, retry, dead).",
			"job_type", "result"),
		JobsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "jobs", Name: "in_flight",
			Help: "Jobs executing in this process.",
		}),
	}

	reg.MustRegister(
		p.HTTPRequests, p.HTTPDuration, p.HTTPInFlight, p.RateLimited,
		p.DBDuration, p.DBErrors,
		p.GatewayDuration,
		p.JobsEnqueued, p.JobDuration, p.JobResults, p.JobsInFlight,
	)
	return p
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Middleware records every request under its route template, so
// /assets/:id is one series however many ids are requested.
func (p *Prom) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := ctx.Request.Method

		inFlight := p.HTTPInFlight.WithLabelValues(method, route)
		inFlight.Inc()
		defer inFlight.Dec()

		start := time.Now()
		ctx.Next()

		status := strconv.Itoa(ctx.Writer.Status())
		p.HTTPRequests.WithLabelValues(method, route, status).Inc()
		p.HTTPDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
	}
}

func (p *Prom) ObserveGateway(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	p.GatewayDuration.WithLabelValues(op, outcome(err)).Observe(time.Since(start).Seconds())
	return err
}

func (p *Prom) ObserveEnqueue(jobType string, err error) {
	p.JobsEnqueued.WithLabelValues(jobType, outcome(err)).Inc()
}

func (p *Prom) ObserveRateLimited(route string) {
	if route == "" {
		route = "unmatched"
	}
	p.RateLimited.WithLabelValues(route).Inc()
}

// JobStarted marks one job as executing; call the returned func when it ends.
func (p *Prom) JobStarted() func() {
	p.JobsInFlight.Inc()
	return p.JobsInFlight.Dec
}

func (p *Prom) ObserveJob(jobType, result string, d time.Duration) {
	p.JobDuration.WithLabelValues(jobType, result).Observe(d.Seconds())
	p.JobResults.WithLabelValues(jobType, result).Inc()
}

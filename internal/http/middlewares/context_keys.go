package middlewares

const (
	CtxRequestID = "request_id"
	CtxEmail     = "auth.email"
	CtxJobID     = "job_id"
)

package actorctx

import "context"

type ctxKey string

const keyEmail ctxKey = "actor_email"

// WithEmail records the authenticated caller on a request context so code
// below the HTTP layer (logging, jobs) can see who acted.
func WithEmail(ctx context.Context, email string) context.Context {
	return context.WithValue(ctx, keyEmail, email)
}

func EmailFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyEmail).(string)

	return v, ok && v != ""
}

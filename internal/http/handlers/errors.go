package handlers

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/assethub/internal/apperr"
	"github.com/geocoder89/assethub/internal/auth"
	"github.com/geocoder89/assethub/internal/domain/asset"
	"github.com/geocoder89/assethub/internal/domain/payment"
	"github.com/geocoder89/assethub/internal/domain/product"
	"github.com/geocoder89/assethub/internal/domain/user"
	"github.com/geocoder89/assethub/internal/gateway"
	"github.com/gin-gonic/gin"
)

// ErrorHandler is the one place errors become responses. Register it ahead
// of every middleware that can fail a request and behind those that read
// the final status (access log, tracing, metrics).
func ErrorHandler(log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}

	return func(ctx *gin.Context) {
		ctx.Next()

		if len(ctx.Errors) == 0 || ctx.Writer.Written() {
			return
		}

		err := ctx.Errors.Last().Err
		e := classify(err)

		if e.Kind == apperr.KindInternal {
			log.ErrorContext(ctx.Request.Context(), "request failed",
				"err", err,
				"route", ctx.FullPath(),
				"request_id", requestIDFrom(ctx),
			)
		}

		RespondError(ctx, e.Kind.Status(), e.Code, e.Message, nil)
	}
}

func classify(err error) *apperr.Error {
	if e, ok := apperr.As(err); ok {
		return e
	}

	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		return apperr.Unauthorized("Invalid or expired session")
	case errors.Is(err, asset.ErrNotFound):
		return apperr.NotFound("Asset request not found")
	case errors.Is(err, asset.ErrNotOwner):
		return apperr.Forbidden("Asset request belongs to another user")
	case errors.Is(err, asset.ErrInvalidTransition):
		return apperr.Conflict("invalid_transition", "Asset request cannot move to that status")
	case errors.Is(err, product.ErrNotFound):
		return apperr.NotFound("Product not found")
	case errors.Is(err, user.ErrNotFound):
		return apperr.NotFound("User not found")
	case errors.Is(err, payment.ErrInvalidAmount):
		return apperr.Invalid("invalid_amount", "Price must be greater than zero")
	case errors.Is(err, gateway.ErrNotConfigured):
		return apperr.Internal("Payments are not configured", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperr.Internal("Request timed out", err)
	default:
		return apperr.Internal("Internal server error", err)
	}
}

package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/assethub/internal/apperr"
	"github.com/geocoder89/assethub/internal/utils"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const storeTimeout = 5 * time.Second

// storeCtx bounds a single store call by the request's own lifetime.
func storeCtx(ctx *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), storeTimeout)
}

// stores keep millisecond precision, so the handlers never hand them more
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func parseObjectID(ctx *gin.Context, param string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(ctx.Param(param))
	if err != nil {
		fail(ctx, apperr.Invalid("invalid_id", "id must be a 24 character hex string"))
		return primitive.NilObjectID, false
	}
	return id, true
}

type pageQuery struct {
	Limit  int
	After  *utils.PageCursor
	Cursor string
}

func parsePage(ctx *gin.Context) (pageQuery, bool) {
	limit, err := utils.ParseLimit(ctx.Query("limit"))
	if err != nil {
		fail(ctx, apperr.Invalid("invalid_limit", err.Error()))
		return pageQuery{}, false
	}

	q := pageQuery{Limit: limit, Cursor: strings.TrimSpace(ctx.Query("cursor"))}
	if q.Cursor == "" {
		return q, true
	}

	c, err := utils.DecodeCursor(q.Cursor)
	if err != nil {
		fail(ctx, apperr.Invalid("invalid_cursor", "cursor is malformed"))
		return pageQuery{}, false
	}
	if _, err := primitive.ObjectIDFromHex(c.ID); err != nil {
		fail(ctx, apperr.Invalid("invalid_cursor", "cursor is malformed"))
		return pageQuery{}, false
	}

	q.After = &c
	return q, true
}

// fetchLimit asks the store for one extra item so hasMore needs no count.
func (q pageQuery) fetchLimit() int {
	return q.Limit + 1
}

type pageResponse[T any] struct {
	Items      []T     `json:"items"`
	Count      int     `json:"count"`
	NextCursor *string `json:"nextCursor"`
	HasMore    bool    `json:"hasMore"`
}

// buildPage trims the probe item and derives the cursor from the last item kept.
func buildPage[T any](items []T, limit int, key func(T) (time.Time, primitive.ObjectID)) (pageResponse[T], error) {
	if items == nil {
		items = []T{}
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	resp := pageResponse[T]{Items: items, Count: len(items), HasMore: hasMore}
	if hasMore && len(items) > 0 {
		ts, id := key(items[len(items)-1])
		next, err := utils.EncodeCursor(ts, id.Hex())
		if err != nil {
			return pageResponse[T]{}, err
		}
		resp.NextCursor = &next
	}
	return resp, nil
}

func respondPage[T any](ctx *gin.Context, items []T, limit int, key func(T) (time.Time, primitive.ObjectID)) {
	resp, err := buildPage(items, limit, key)
	if err != nil {
		fail(ctx, apperr.Internal("Could not build next cursor", err))
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// optionalQuery returns nil for an absent or blank query parameter.
func optionalQuery(ctx *gin.Context, name string) *string {
	v := strings.TrimSpace(ctx.Query(name))
	if v == "" {
		return nil
	}
	return &v
}

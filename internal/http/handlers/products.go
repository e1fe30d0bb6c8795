package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/assethub/internal/apperr"
	"github.com/geocoder89/assethub/internal/cache"
	"github.com/geocoder89/assethub/internal/domain/product"
	"github.com/geocoder89/assethub/internal/http/middlewares"
	"github.com/geocoder89/assethub/internal/repo"
	"github.com/geocoder89/assethub/internal/utils"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductsStore interface {
	Create(ctx context.Context, p product.Product) (repo.InsertResult, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (product.Product, error)
	List(ctx context.Context, f product.ListFilter) ([]product.Product, error)
	Update(ctx context.Context, id primitive.ObjectID, req product.UpsertRequest, now time.Time) (repo.UpdateResult, error)
	Delete(ctx context.Context, id primitive.ObjectID) (repo.DeleteResult, error)
}

type productsPage = pageResponse[product.Product]

type ProductsHandler struct {
	repo      ProductsStore
	listCache *cache.Cache[productsPage]
}

// NewProductsHandler caches list pages for cacheTTL; any write clears the
// cache. A zero TTL disables caching.
func NewProductsHandler(repo ProductsStore, cacheTTL time.Duration) *ProductsHandler {
	h := &ProductsHandler{repo: repo}
	if cacheTTL > 0 {
		h.listCache = cache.New[productsPage](cacheTTL)
	}
	return h
}

func (h *ProductsHandler) Create(ctx *gin.Context) {
	email, ok := middlewares.EmailFromContext(ctx)
	if !ok {
		fail(ctx, apperr.Unauthorized("Missing identity"))
		return
	}

	var req product.UpsertRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	res, err := h.repo.Create(cctx, product.New(email, req, now()))
	if err != nil {
		fail(ctx, apperr.Internal("Could not create product", err))
		return
	}

	h.invalidate()
	ctx.JSON(http.StatusOK, res)
}

func (h *ProductsHandler) List(ctx *gin.Context) {
	page, ok := parsePage(ctx)
	if !ok {
		return
	}

	productType := optionalQuery(ctx, "type")
	query := optionalQuery(ctx, "q")

	cacheKey := utils.BuildProductsListCacheKey(page.Limit, deref(productType), deref(query), page.Cursor)
	if h.listCache != nil {
		if v, ok := h.listCache.Get(cacheKey); ok {
			ctx.Header("X-Cache", "HIT")
			RespondJSONWithETag(ctx, http.StatusOK, v)
			return
		}
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	items, err := h.repo.List(cctx, product.ListFilter{
		Type:  productType,
		Query: query,
		Limit: page.fetchLimit(),
		After: page.After,
	})
	if err != nil {
		fail(ctx, apperr.Internal("Could not list products", err))
		return
	}

	resp, err := buildPage(items, page.Limit, func(p product.Product) (time.Time, primitive.ObjectID) {
		return p.Timestamp, p.ID
	})
	if err != nil {
		fail(ctx, apperr.Internal("Could not build next cursor", err))
		return
	}

	if h.listCache != nil {
		h.listCache.Set(cacheKey, resp)
		ctx.Header("X-Cache", "MISS")
	}
	RespondJSONWithETag(ctx, http.StatusOK, resp)
}

func (h *ProductsHandler) Get(ctx *gin.Context) {
	id, ok := parseObjectID(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	p, err := h.repo.GetByID(cctx, id)
	if err != nil {
		fail(ctx, err)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, p)
}

// Update replaces name, type and quantity and restamps the product.
func (h *ProductsHandler) Update(ctx *gin.Context) {
	id, ok := parseObjectID(ctx, "id")
	if !ok {
		return
	}

	var req product.UpsertRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	res, err := h.repo.Update(cctx, id, req, now())
	if err != nil {
		fail(ctx, apperr.Internal("Could not update product", err))
		return
	}

	h.invalidate()
	ctx.JSON(http.StatusOK, res)
}

func (h *ProductsHandler) Delete(ctx *gin.Context) {
	id, ok := parseObjectID(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	res, err := h.repo.Delete(cctx, id)
	if err != nil {
		fail(ctx, apperr.Internal("Could not delete product", err))
		return
	}

	h.invalidate()
	ctx.JSON(http.StatusOK, res)
}

func (h *ProductsHandler) invalidate() {
	if h.listCache != nil {
		h.listCache.Clear()
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

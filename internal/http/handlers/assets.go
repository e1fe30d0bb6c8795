package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/assethub/internal/apperr"
	"github.com/geocoder89/assethub/internal/domain/asset"
	"github.com/geocoder89/assethub/internal/domain/user"
	"github.com/geocoder89/assethub/internal/http/middlewares"
	"github.com/geocoder89/assethub/internal/jobs"
	"github.com/geocoder89/assethub/internal/repo"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AssetsStore interface {
	Create(ctx context.Context, a asset.Request) (repo.InsertResult, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (asset.Request, error)
	List(ctx context.Context, f asset.ListFilter) ([]asset.Request, error)
	Edit(ctx context.Context, id primitive.ObjectID, owner string, req asset.EditRequest, now time.Time) (repo.UpdateResult, error)
	Apply(ctx context.Context, id primitive.ObjectID, action asset.Action, owner string, at time.Time) (repo.UpdateResult, error)
	Delete(ctx context.Context, id primitive.ObjectID, owner string) (repo.DeleteResult, error)
}

type RoleReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type AssetsHandler struct {
	repo  AssetsStore
	users RoleReader
	jobs  JobsEnqueuer
}

func NewAssetsHandler(repo AssetsStore, users RoleReader, jobs JobsEnqueuer) *AssetsHandler {
	return &AssetsHandler{repo: repo, users: users, jobs: jobs}
}

// Create files a new request for the caller. The body email, when present,
// must be the caller's own.
func (h *AssetsHandler) Create(ctx *gin.Context) {
	email, ok := middlewares.EmailFromContext(ctx)
	if !ok {
		fail(ctx, apperr.Unauthorized("Missing identity"))
		return
	}

	var req asset.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	if req.Email != "" && strings.TrimSpace(req.Email) != email {
		fail(ctx, apperr.Forbidden("Forbidden access"))
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	res, err := h.repo.Create(cctx, asset.NewRequest(email, req, now()))
	if err != nil {
		fail(ctx, apperr.Internal("Could not create asset request", err))
		return
	}

	ctx.JSON(http.StatusOK, res)
}

// ListAll is the admin view over every request.
func (h *AssetsHandler) ListAll(ctx *gin.Context) {
	h.list(ctx, nil)
}

// ListMine lists the caller's own requests; RequireSelf has already
// matched ?email= to the caller.
func (h *AssetsHandler) ListMine(ctx *gin.Context) {
	email, _ := middlewares.EmailFromContext(ctx)
	h.list(ctx, &email)
}

func (h *AssetsHandler) list(ctx *gin.Context, email *string) {
	page, ok := parsePage(ctx)
	if !ok {
		return
	}

	f := asset.ListFilter{
		Email: email,
		Type:  optionalQuery(ctx, "type"),
		Query: optionalQuery(ctx, "q"),
		Limit: page.fetchLimit(),
		After: page.After,
	}

	if raw := optionalQuery(ctx, "status"); raw != nil {
		status := asset.Status(strings.ToLower(*raw))
		if !status.IsValid() {
			fail(ctx, apperr.Invalid("invalid_status", "status must be one of pending, approved, rejected, returned"))
			return
		}
		f.Status = &status
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	items, err := h.repo.List(cctx, f)
	if err != nil {
		fail(ctx, apperr.Internal("Could not list asset requests", err))
		return
	}

	respondPage(ctx, items, page.Limit, func(a asset.Request) (time.Time, primitive.ObjectID) {
		return a.Timestamp, a.ID
	})
}

// Get returns one request to its owner or to an admin.
func (h *AssetsHandler) Get(ctx *gin.Context) {
	id, ok := parseObjectID(ctx, "id")
	if !ok {
		return
	}

	email, ok := middlewares.EmailFromContext(ctx)
	if !ok {
		fail(ctx, apperr.Unauthorized("Missing identity"))
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	a, err := h.repo.GetByID(cctx, id)
	if err != nil {
		fail(ctx, err)
		return
	}

	if a.Email != email {
		u, err := h.users.GetByEmail(cctx, email)
		if err != nil && !errors.Is(err, user.ErrNotFound) {
			fail(ctx, apperr.Internal("Could not verify role", err))
			return
		}
		if err != nil || !u.IsAdmin() {
			fail(ctx, apperr.Forbidden("Forbidden access"))
			return
		}
	}

	ctx.JSON(http.StatusOK, a)
}

// Edit replaces the owner-editable fields; the request goes back to pending.
func (h *AssetsHandler) Edit(ctx *gin.Context) {
	id, ok := parseObjectID(ctx, "id")
	if !ok {
		return
	}

	var req asset.EditRequest
	if !BindJSON(ctx, &req) {
		return
	}

	email, _ := middlewares.EmailFromContext(ctx)

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	res, err := h.repo.Edit(cctx, id, email, req, now())
	if err != nil {
		fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, res)
}

func (h *AssetsHandler) Approve(ctx *gin.Context) {
	h.decide(ctx, asset.ActionApprove)
}

func (h *AssetsHandler) Reject(ctx *gin.Context) {
	h.decide(ctx, asset.ActionReject)
}

// decide applies an admin decision and queues a notice for the requester.
func (h *AssetsHandler) decide(ctx *gin.Context, action asset.Action) {
	id, ok := parseObjectID(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	res, err := h.repo.Apply(cctx, id, action, "", now())
	if err != nil {
		fail(ctx, err)
		return
	}

	if h.jobs != nil {
		if a, err := h.repo.GetByID(cctx, id); err == nil {
			admin, _ := middlewares.EmailFromContext(ctx)
			enqueueBestEffort(ctx, h.jobs, jobs.JobAssetStatusChanged, jobs.AssetStatusChangedPayload{
				AssetID:    a.ID.Hex(),
				Email:      a.Email,
				AssetName:  a.AssetName,
				Status:     string(a.Status),
				ActorEmail: admin,
				RequestID:  requestIDFrom(ctx),
			})
		}
	}

	ctx.JSON(http.StatusOK, res)
}

// Return hands an approved asset back. Returned is terminal.
func (h *AssetsHandler) Return(ctx *gin.Context) {
	id, ok := parseObjectID(ctx, "id")
	if !ok {
		return
	}

	email, _ := middlewares.EmailFromContext(ctx)

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	res, err := h.repo.Apply(cctx, id, asset.ActionReturn, email, now())
	if err != nil {
		fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, res)
}

func (h *AssetsHandler) Delete(ctx *gin.Context) {
	id, ok := parseObjectID(ctx, "id")
	if !ok {
		return
	}

	email, _ := middlewares.EmailFromContext(ctx)

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	res, err := h.repo.Delete(cctx, id, email)
	if err != nil {
		fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, res)
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/assethub/internal/apperr"
	"github.com/geocoder89/assethub/internal/domain/user"
	"github.com/geocoder89/assethub/internal/http/middlewares"
	"github.com/geocoder89/assethub/internal/repo"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UsersStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	UpsertProfile(ctx context.Context, u user.User) (repo.UpdateResult, error)
	List(ctx context.Context, f user.ListFilter) ([]user.User, error)
	SetRole(ctx context.Context, id primitive.ObjectID, role string, now time.Time) (repo.UpdateResult, error)
	Delete(ctx context.Context, id primitive.ObjectID) (repo.DeleteResult, error)
}

type UsersHandler struct {
	repo UsersStore
}

func NewUsersHandler(repo UsersStore) *UsersHandler {
	return &UsersHandler{repo: repo}
}

// selfEmail is the caller's identity. Self-gated routes act on it rather
// than on the path, which RequireSelf has already matched against it.
func selfEmail(ctx *gin.Context) (string, bool) {
	email, ok := middlewares.EmailFromContext(ctx)
	if !ok {
		fail(ctx, apperr.Unauthorized("Missing identity context"))
		return "", false
	}
	return email, true
}

// UpsertProfile creates the caller's profile once. Repeat calls report the
// existing profile and write nothing.
func (h *UsersHandler) UpsertProfile(ctx *gin.Context) {
	email, ok := selfEmail(ctx)
	if !ok {
		return
	}

	var req user.UpsertProfileRequest
	if ctx.Request.ContentLength != 0 && !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	_, err := h.repo.GetByEmail(cctx, email)
	if err == nil {
		ctx.JSON(http.StatusOK, gin.H{"message": "user already exists", "insertedId": nil})
		return
	}
	if !errors.Is(err, user.ErrNotFound) {
		fail(ctx, apperr.Internal("Could not look up user", err))
		return
	}

	res, err := h.repo.UpsertProfile(cctx, user.User{
		Email:     email,
		Name:      strings.TrimSpace(req.Name),
		DOB:       strings.TrimSpace(req.DOB),
		PhotoURL:  strings.TrimSpace(req.PhotoURL),
		Role:      req.Role,
		Timestamp: now(),
	})
	if err != nil {
		fail(ctx, apperr.Internal("Could not save user", err))
		return
	}

	ctx.JSON(http.StatusOK, res)
}

func (h *UsersHandler) GetProfile(ctx *gin.Context) {
	email, ok := selfEmail(ctx)
	if !ok {
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	u, err := h.repo.GetByEmail(cctx, email)
	if err != nil {
		fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, u)
}

// IsAdmin reports the persisted role; an unknown user is simply not an admin.
func (h *UsersHandler) IsAdmin(ctx *gin.Context) {
	email, ok := selfEmail(ctx)
	if !ok {
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	u, err := h.repo.GetByEmail(cctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			ctx.JSON(http.StatusOK, gin.H{"admin": false})
			return
		}
		fail(ctx, apperr.Internal("Could not look up user", err))
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"admin": u.IsAdmin()})
}

func (h *UsersHandler) List(ctx *gin.Context) {
	page, ok := parsePage(ctx)
	if !ok {
		return
	}

	role := optionalQuery(ctx, "role")
	if role != nil && *role != user.RoleAdmin && *role != user.RoleEmployee {
		fail(ctx, apperr.Invalid("invalid_role", "role must be one of employee, admin"))
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	users, err := h.repo.List(cctx, user.ListFilter{Role: role, Limit: page.fetchLimit(), After: page.After})
	if err != nil {
		fail(ctx, apperr.Internal("Could not list users", err))
		return
	}

	respondPage(ctx, users, page.Limit, func(u user.User) (time.Time, primitive.ObjectID) {
		return u.Timestamp, u.ID
	})
}

// SetRole promotes a user to admin unless the body names another role.
func (h *UsersHandler) SetRole(ctx *gin.Context) {
	id, ok := parseObjectID(ctx, "id")
	if !ok {
		return
	}

	var req user.UpdateRoleRequest
	if ctx.Request.ContentLength != 0 && !BindJSON(ctx, &req) {
		return
	}
	if req.Role == "" {
		req.Role = user.RoleAdmin
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	res, err := h.repo.SetRole(cctx, id, req.Role, now())
	if err != nil {
		fail(ctx, apperr.Internal("Could not update role", err))
		return
	}

	ctx.JSON(http.StatusOK, res)
}

func (h *UsersHandler) Remove(ctx *gin.Context) {
	id, ok := parseObjectID(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := storeCtx(ctx)
	defer cancel()

	res, err := h.repo.Delete(cctx, id)
	if err != nil {
		fail(ctx, apperr.Internal("Could not remove user", err))
		return
	}

	ctx.JSON(http.StatusOK, res)
}

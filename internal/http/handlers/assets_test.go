package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/geocoder89/assethub/internal/domain/asset"
	"github.com/geocoder89/assethub/internal/domain/user"
	"github.com/geocoder89/assethub/internal/http/handlers"
	"github.com/geocoder89/assethub/internal/jobs"
	"github.com/geocoder89/assethub/internal/repo"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeAssetsRepo struct {
	createFn func(ctx context.Context, a asset.Request) (repo.InsertResult, error)
	getFn    func(ctx context.Context, id primitive.ObjectID) (asset.Request, error)
	listFn   func(ctx context.Context, f asset.ListFilter) ([]asset.Request, error)
	editFn   func(ctx context.Context, id primitive.ObjectID, owner string, req asset.EditRequest, now time.Time) (repo.UpdateResult, error)
	applyFn  func(ctx context.Context, id primitive.ObjectID, action asset.Action, owner string, at time.Time) (repo.UpdateResult, error)
	deleteFn func(ctx context.Context, id primitive.ObjectID, owner string) (repo.DeleteResult, error)
}

func (f *fakeAssetsRepo) Create(ctx context.Context, a asset.Request) (repo.InsertResult, error) {
	if f.createFn != nil {
		return f.createFn(ctx, a)
	}
	return repo.InsertResult{Acknowledged: true, InsertedID: primitive.NewObjectID()}, nil
}

func (f *fakeAssetsRepo) GetByID(ctx context.Context, id primitive.ObjectID) (asset.Request, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return asset.Request{}, asset.ErrNotFound
}

func (f *fakeAssetsRepo) List(ctx context.Context, filter asset.ListFilter) ([]asset.Request, error) {
	if f.listFn != nil {
		return f.listFn(ctx, filter)
	}
	return nil, nil
}

func (f *fakeAssetsRepo) Edit(ctx context.Context, id primitive.ObjectID, owner string, req asset.EditRequest, now time.Time) (repo.UpdateResult, error) {
	if f.editFn != nil {
		return f.editFn(ctx, id, owner, req, now)
	}
	return repo.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

func (f *fakeAssetsRepo) Apply(ctx context.Context, id primitive.ObjectID, action asset.Action, owner string, at time.Time) (repo.UpdateResult, error) {
	if f.applyFn != nil {
		return f.applyFn(ctx, id, action, owner, at)
	}
	return repo.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

func (f *fakeAssetsRepo) Delete(ctx context.Context, id primitive.ObjectID, owner string) (repo.DeleteResult, error) {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id, owner)
	}
	return repo.DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
}

type fakeRoles map[string]string

func (f fakeRoles) GetByEmail(_ context.Context, email string) (user.User, error) {
	role, ok := f[email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return user.User{Email: email, Role: role}, nil
}

func TestCreateAssetHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		repoSetUp      func(*fakeAssetsRepo)
		wantStatusCode int
		wantCode       string
	}{
		{
			name:           "success without body email",
			body:           `{"assetName":"Laptop","assetType":"returnable","assetPrice":1200}`,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "success with own email",
			body:           `{"email":"e@x.com","assetName":"Laptop","assetType":"returnable"}`,
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "body email of another user",
			body:           `{"email":"boss@x.com","assetName":"Laptop","assetType":"returnable"}`,
			wantStatusCode: http.StatusForbidden,
			wantCode:       "forbidden",
		},
		{
			name:           "validation error",
			body:           `{"assetName":"L"}`,
			wantStatusCode: http.StatusBadRequest,
			wantCode:       "invalid_request",
		},
		{
			name: "store failure",
			body: `{"assetName":"Laptop","assetType":"returnable"}`,
			repoSetUp: func(f *fakeAssetsRepo) {
				f.createFn = func(ctx context.Context, a asset.Request) (repo.InsertResult, error) {
					return repo.InsertResult{}, errors.New("boom")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
			wantCode:       "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeAssetsRepo{}
			var created *asset.Request
			fake.createFn = func(ctx context.Context, a asset.Request) (repo.InsertResult, error) {
				created = &a
				return repo.InsertResult{Acknowledged: true, InsertedID: primitive.NewObjectID()}, nil
			}
			if tt.repoSetUp != nil {
				tt.repoSetUp(fake)
			}

			h := handlers.NewAssetsHandler(fake, fakeRoles{}, nil)
			r := setupRouter(http.MethodPost, "/assets", "e@x.com", h.Create)

			w := do(r, http.MethodPost, "/assets", tt.body)
			if w.Code != tt.wantStatusCode {
				t.Fatalf("expected status %d, got %d body=%s", tt.wantStatusCode, w.Code, w.Body.String())
			}
			if tt.wantCode != "" && errorCode(t, w) != tt.wantCode {
				t.Fatalf("expected code %q, got %q", tt.wantCode, errorCode(t, w))
			}

			if tt.wantStatusCode == http.StatusOK && tt.repoSetUp == nil {
				if created == nil {
					t.Fatalf("store was not called")
				}
				if created.Email != "e@x.com" || created.Status != asset.StatusPending {
					t.Fatalf("request should be pending and owned by the caller, got %+v", created)
				}
				if created.Timestamp.IsZero() {
					t.Fatalf("timestamp should be set")
				}
			}
		})
	}
}

func TestListAssetsHandler_Filters(t *testing.T) {
	var got asset.ListFilter
	fake := &fakeAssetsRepo{
		listFn: func(ctx context.Context, f asset.ListFilter) ([]asset.Request, error) {
			got = f
			return nil, nil
		},
	}
	h := handlers.NewAssetsHandler(fake, fakeRoles{}, nil)
	r := setupRouter(http.MethodGet, "/my-assets", "e@x.com", h.ListMine)

	w := do(r, http.MethodGet, "/my-assets?email=e@x.com&status=Approved&type=returnable&q=lap&limit=5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	if got.Email == nil || *got.Email != "e@x.com" {
		t.Fatalf("list must be scoped to the caller, got %v", got.Email)
	}
	if got.Status == nil || *got.Status != asset.StatusApproved {
		t.Fatalf("status filter should be normalised, got %v", got.Status)
	}
	if got.Type == nil || *got.Type != "returnable" || got.Query == nil || *got.Query != "lap" {
		t.Fatalf("unexpected filters: %+v", got)
	}
	if got.Limit != 6 {
		t.Fatalf("store should be asked for limit+1, got %d", got.Limit)
	}

	var body struct {
		Items   []asset.Request `json:"items"`
		Count   int             `json:"count"`
		HasMore bool            `json:"hasMore"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Items == nil || body.Count != 0 || body.HasMore {
		t.Fatalf("empty page should have an empty items array, got %s", w.Body.String())
	}
}

func TestListAssetsHandler_BadQuery(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantCode string
	}{
		{name: "unknown status", query: "?status=lost", wantCode: "invalid_status"},
		{name: "bad limit", query: "?limit=abc", wantCode: "invalid_limit"},
		{name: "bad cursor", query: "?cursor=!!!", wantCode: "invalid_cursor"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			fake := &fakeAssetsRepo{
				listFn: func(ctx context.Context, f asset.ListFilter) ([]asset.Request, error) {
					called = true
					return nil, nil
				},
			}
			h := handlers.NewAssetsHandler(fake, fakeRoles{}, nil)
			r := setupRouter(http.MethodGet, "/assets", "admin@x.com", h.ListAll)

			w := do(r, http.MethodGet, "/assets"+tt.query, "")
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d body=%s", w.Code, w.Body.String())
			}
			if got := errorCode(t, w); got != tt.wantCode {
				t.Fatalf("expected code %q, got %q", tt.wantCode, got)
			}
			if called {
				t.Fatalf("store must not be called for a bad query")
			}
		})
	}
}

func TestListAssetsHandler_NextCursor(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	items := make([]asset.Request, 3)
	for i := range items {
		items[i] = asset.Request{ID: primitive.NewObjectID(), Timestamp: base.Add(-time.Duration(i) * time.Minute)}
	}

	fake := &fakeAssetsRepo{
		listFn: func(ctx context.Context, f asset.ListFilter) ([]asset.Request, error) {
			return items[:f.Limit], nil
		},
	}
	h := handlers.NewAssetsHandler(fake, fakeRoles{}, nil)
	r := setupRouter(http.MethodGet, "/assets", "admin@x.com", h.ListAll)

	w := do(r, http.MethodGet, "/assets?limit=2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Count      int     `json:"count"`
		NextCursor *string `json:"nextCursor"`
		HasMore    bool    `json:"hasMore"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 2 || !body.HasMore || body.NextCursor == nil {
		t.Fatalf("expected a full page with a cursor, got %s", w.Body.String())
	}
}

func TestGetAssetHandler(t *testing.T) {
	id := primitive.NewObjectID()
	stored := asset.Request{ID: id, Email: "owner@x.com", AssetName: "Laptop", Status: asset.StatusPending}

	tests := []struct {
		name           string
		caller         string
		path           string
		wantStatusCode int
	}{
		{name: "owner", caller: "owner@x.com", path: "/assets/" + id.Hex(), wantStatusCode: http.StatusOK},
		{name: "admin", caller: "admin@x.com", path: "/assets/" + id.Hex(), wantStatusCode: http.StatusOK},
		{name: "someone else", caller: "other@x.com", path: "/assets/" + id.Hex(), wantStatusCode: http.StatusForbidden},
		{name: "unknown caller", caller: "ghost@x.com", path: "/assets/" + id.Hex(), wantStatusCode: http.StatusForbidden},
		{name: "missing", caller: "owner@x.com", path: "/assets/" + primitive.NewObjectID().Hex(), wantStatusCode: http.StatusNotFound},
		{name: "malformed id", caller: "owner@x.com", path: "/assets/not-an-id", wantStatusCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeAssetsRepo{
				getFn: func(ctx context.Context, got primitive.ObjectID) (asset.Request, error) {
					if got != id {
						return asset.Request{}, asset.ErrNotFound
					}
					return stored, nil
				},
			}
			roles := fakeRoles{"admin@x.com": user.RoleAdmin, "other@x.com": user.RoleEmployee}
			h := handlers.NewAssetsHandler(fake, roles, nil)
			r := setupRouter(http.MethodGet, "/assets/:id", tt.caller, h.Get)

			w := do(r, http.MethodGet, tt.path, "")
			if w.Code != tt.wantStatusCode {
				t.Fatalf("expected %d, got %d body=%s", tt.wantStatusCode, w.Code, w.Body.String())
			}
		})
	}
}

func TestAssetTransitions_MapStoreErrors(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantStatusCode int
		wantCode       string
	}{
		{name: "ok", wantStatusCode: http.StatusOK},
		{name: "missing", err: asset.ErrNotFound, wantStatusCode: http.StatusNotFound, wantCode: "not_found"},
		{name: "not owner", err: asset.ErrNotOwner, wantStatusCode: http.StatusForbidden, wantCode: "forbidden"},
		{name: "wrong state", err: asset.ErrInvalidTransition, wantStatusCode: http.StatusConflict, wantCode: "invalid_transition"},
		{name: "store down", err: errors.New("connection reset"), wantStatusCode: http.StatusInternalServerError, wantCode: "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotOwner string
			var gotAction asset.Action
			fake := &fakeAssetsRepo{
				applyFn: func(ctx context.Context, id primitive.ObjectID, action asset.Action, owner string, at time.Time) (repo.UpdateResult, error) {
					gotOwner, gotAction = owner, action
					if tt.err != nil {
						return repo.UpdateResult{}, tt.err
					}
					return repo.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
				},
			}
			h := handlers.NewAssetsHandler(fake, fakeRoles{}, nil)
			r := setupRouter(http.MethodPatch, "/assets/:id/return", "e@x.com", h.Return)

			w := do(r, http.MethodPatch, "/assets/"+primitive.NewObjectID().Hex()+"/return?email=e@x.com", "")
			if w.Code != tt.wantStatusCode {
				t.Fatalf("expected %d, got %d body=%s", tt.wantStatusCode, w.Code, w.Body.String())
			}
			if tt.wantCode != "" && errorCode(t, w) != tt.wantCode {
				t.Fatalf("expected code %q, got %q", tt.wantCode, errorCode(t, w))
			}
			if gotOwner != "e@x.com" || gotAction != asset.ActionReturn {
				t.Fatalf("return must be scoped to the caller, got owner=%q action=%q", gotOwner, gotAction)
			}
		})
	}
}

func TestApproveAssetHandler_EnqueuesNotice(t *testing.T) {
	id := primitive.NewObjectID()
	var gotOwner = "unset"
	fake := &fakeAssetsRepo{
		applyFn: func(ctx context.Context, got primitive.ObjectID, action asset.Action, owner string, at time.Time) (repo.UpdateResult, error) {
			gotOwner = owner
			if action != asset.ActionApprove {
				t.Fatalf("unexpected action %q", action)
			}
			return repo.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
		},
		getFn: func(ctx context.Context, got primitive.ObjectID) (asset.Request, error) {
			return asset.Request{ID: id, Email: "e@x.com", AssetName: "Laptop", Status: asset.StatusApproved}, nil
		},
	}
	q := &fakeQueue{}
	h := handlers.NewAssetsHandler(fake, fakeRoles{}, q)
	r := setupRouter(http.MethodPatch, "/assets/:id/approve", "admin@x.com", h.Approve)

	w := do(r, http.MethodPatch, "/assets/"+id.Hex()+"/approve", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	if gotOwner != "" {
		t.Fatalf("admin decisions are not owner scoped, got %q", gotOwner)
	}

	if len(q.jobs) != 1 || q.jobs[0].Type != jobs.JobAssetStatusChanged {
		t.Fatalf("expected one status notice, got %+v", q.jobs)
	}

	var payload jobs.AssetStatusChangedPayload
	if err := json.Unmarshal(q.jobs[0].Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.Email != "e@x.com" || payload.Status != string(asset.StatusApproved) || payload.ActorEmail != "admin@x.com" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestRejectAssetHandler_EnqueueFailureIsSwallowed(t *testing.T) {
	fake := &fakeAssetsRepo{
		getFn: func(ctx context.Context, id primitive.ObjectID) (asset.Request, error) {
			return asset.Request{ID: id, Email: "e@x.com", AssetName: "Laptop", Status: asset.StatusRejected}, nil
		},
	}
	q := &fakeQueue{err: errors.New("redis down")}
	h := handlers.NewAssetsHandler(fake, fakeRoles{}, q)
	r := setupRouter(http.MethodPatch, "/assets/:id/reject", "admin@x.com", h.Reject)

	w := do(r, http.MethodPatch, "/assets/"+primitive.NewObjectID().Hex()+"/reject", "")
	if w.Code != http.StatusOK {
		t.Fatalf("a queue outage must not fail the decision, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestEditAssetHandler(t *testing.T) {
	var gotReq asset.EditRequest
	var gotOwner string
	fake := &fakeAssetsRepo{
		editFn: func(ctx context.Context, id primitive.ObjectID, owner string, req asset.EditRequest, now time.Time) (repo.UpdateResult, error) {
			gotOwner, gotReq = owner, req
			return repo.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
		},
	}
	h := handlers.NewAssetsHandler(fake, fakeRoles{}, nil)
	r := setupRouter(http.MethodPatch, "/assets/:id", "e@x.com", h.Edit)

	w := do(r, http.MethodPatch, "/assets/"+primitive.NewObjectID().Hex()+"?email=e@x.com", `{"assetName":"Monitor","assetType":"non-returnable","assetPrice":300}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}
	if gotOwner != "e@x.com" || gotReq.AssetName != "Monitor" || gotReq.AssetPrice != 300 {
		t.Fatalf("unexpected edit: owner=%q req=%+v", gotOwner, gotReq)
	}
}

func TestDeleteAssetHandler_NotOwner(t *testing.T) {
	fake := &fakeAssetsRepo{
		deleteFn: func(ctx context.Context, id primitive.ObjectID, owner string) (repo.DeleteResult, error) {
			return repo.DeleteResult{}, asset.ErrNotOwner
		},
	}
	h := handlers.NewAssetsHandler(fake, fakeRoles{}, nil)
	r := gin.New()
	r.Use(handlers.ErrorHandler(nil), asCaller("e@x.com"))
	r.DELETE("/assets/:id", h.Delete)

	w := do(r, http.MethodDelete, "/assets/"+primitive.NewObjectID().Hex(), "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d body=%s", w.Code, w.Body.String())
	}
}

package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/assethub/internal/domain/asset"
	"github.com/geocoder89/assethub/internal/repo"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AssetsRepo struct {
	mu    sync.RWMutex
	items map[primitive.ObjectID]asset.Request
}

func NewAssetsRepo() *AssetsRepo {
	return &AssetsRepo{
		items: make(map[primitive.ObjectID]asset.Request),
	}
}

func (r *AssetsRepo) Create(_ context.Context, a asset.Request) (repo.InsertResult, error) {
	a.ID = primitive.NewObjectID()

	r.mu.Lock()
	r.items[a.ID] = a
	r.mu.Unlock()

	return repo.InsertResult{Acknowledged: true, InsertedID: a.ID}, nil
}

func (r *AssetsRepo) GetByID(_ context.Context, id primitive.ObjectID) (asset.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.items[id]
	if !ok {
		return asset.Request{}, asset.ErrNotFound
	}
	return a, nil
}

func (r *AssetsRepo) List(_ context.Context, f asset.ListFilter) ([]asset.Request, error) {
	r.mu.RLock()
	all := make([]asset.Request, 0, len(r.items))
	for _, a := range r.items {
		if matchesAsset(a, f) {
			all = append(all, a)
		}
	}
	r.mu.RUnlock()

	return page(all, func(a asset.Request) pageKey { return pageKey{a.Timestamp, a.ID} }, f.After, f.Limit), nil
}

func matchesAsset(a asset.Request, f asset.ListFilter) bool {
	if f.Email != nil && a.Email != *f.Email {
		return false
	}
	if f.Status != nil && a.Status != *f.Status {
		return false
	}
	if f.Type != nil && !strings.EqualFold(a.AssetType, *f.Type) {
		return false
	}
	if f.Query != nil && !strings.Contains(strings.ToLower(a.AssetName), strings.ToLower(*f.Query)) {
		return false
	}
	return true
}

func (r *AssetsRepo) Edit(_ context.Context, id primitive.ObjectID, owner string, req asset.EditRequest, now time.Time) (repo.UpdateResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.items[id]
	if !ok || a.Email != owner || !asset.CanApply(asset.ActionEdit, a.Status) {
		return repo.UpdateResult{}, asset.ExplainMiss(asset.ActionEdit, r.current(id), owner)
	}

	a.AssetName = req.AssetName
	a.AssetPrice = req.AssetPrice
	a.AssetType = req.AssetType
	a.AssetImage = req.AssetImage
	a.WhyNeeded = req.WhyNeeded
	a.AdditionalInfo = req.AdditionalInfo
	a.Status = asset.StatusPending
	a.ApprovalDate = nil
	a.Timestamp = now
	r.items[id] = a

	return repo.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

func (r *AssetsRepo) Apply(_ context.Context, id primitive.ObjectID, action asset.Action, owner string, at time.Time) (repo.UpdateResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.items[id]
	if !ok || (owner != "" && a.Email != owner) || !asset.CanApply(action, a.Status) {
		return repo.UpdateResult{}, asset.ExplainMiss(action, r.current(id), owner)
	}

	res := repo.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}

	a.Status = asset.Target(action)
	if action == asset.ActionApprove {
		stamped := at
		a.ApprovalDate = &stamped
	}
	r.items[id] = a

	return res, nil
}

func (r *AssetsRepo) Delete(_ context.Context, id primitive.ObjectID, owner string) (repo.DeleteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.items[id]
	if !ok {
		return repo.DeleteResult{}, asset.ErrNotFound
	}
	if a.Email != owner {
		return repo.DeleteResult{}, asset.ErrNotOwner
	}
	delete(r.items, id)
	return repo.DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
}

// current must be called with the lock held.
func (r *AssetsRepo) current(id primitive.ObjectID) *asset.Request {
	a, ok := r.items[id]
	if !ok {
		return nil
	}
	return &a
}

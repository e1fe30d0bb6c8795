package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/assethub/internal/domain/user"
	"github.com/geocoder89/assethub/internal/repo"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UsersRepo struct {
	mu    sync.RWMutex
	items map[primitive.ObjectID]user.User
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items: make(map[primitive.ObjectID]user.User),
	}
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.items {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) UpsertProfile(_ context.Context, u user.User) (repo.UpdateResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, existing := range r.items {
		if existing.Email != u.Email {
			continue
		}
		existing.Name = u.Name
		existing.DOB = u.DOB
		existing.PhotoURL = u.PhotoURL
		existing.Timestamp = u.Timestamp
		if u.Role != "" {
			existing.Role = u.Role
		}
		r.items[id] = existing
		return repo.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
	}

	u.ID = primitive.NewObjectID()
	r.items[u.ID] = u

	return repo.UpdateResult{Acknowledged: true, UpsertedCount: 1, UpsertedID: u.ID}, nil
}

func (r *UsersRepo) List(_ context.Context, f user.ListFilter) ([]user.User, error) {
	r.mu.RLock()
	all := make([]user.User, 0, len(r.items))
	for _, u := range r.items {
		if f.Role != nil && u.Role != *f.Role {
			continue
		}
		all = append(all, u)
	}
	r.mu.RUnlock()

	return page(all, func(u user.User) pageKey { return pageKey{u.Timestamp, u.ID} }, f.After, f.Limit), nil
}

func (r *UsersRepo) SetRole(_ context.Context, id primitive.ObjectID, role string, now time.Time) (repo.UpdateResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.items[id]
	if !ok {
		return repo.UpdateResult{Acknowledged: true}, nil
	}

	res := repo.UpdateResult{Acknowledged: true, MatchedCount: 1}
	if u.Role != role {
		res.ModifiedCount = 1
	}
	u.Role = role
	u.Timestamp = now
	r.items[id] = u
	return res, nil
}

func (r *UsersRepo) Delete(_ context.Context, id primitive.ObjectID) (repo.DeleteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return repo.DeleteResult{Acknowledged: true}, nil
	}
	delete(r.items, id)
	return repo.DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
}

// Count is used by tests to assert that rejected requests did not write.
func (r *UsersRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

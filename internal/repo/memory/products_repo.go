package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/assethub/internal/domain/product"
	"github.com/geocoder89/assethub/internal/repo"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductsRepo struct {
	mu    sync.RWMutex
	items map[primitive.ObjectID]product.Product
}

func NewProductsRepo() *ProductsRepo {
	return &ProductsRepo{
		items: make(map[primitive.ObjectID]product.Product),
	}
}

func (r *ProductsRepo) Create(_ context.Context, p product.Product) (repo.InsertResult, error) {
	p.ID = primitive.NewObjectID()

	r.mu.Lock()
	r.items[p.ID] = p
	r.mu.Unlock()

	return repo.InsertResult{Acknowledged: true, InsertedID: p.ID}, nil
}

func (r *ProductsRepo) GetByID(_ context.Context, id primitive.ObjectID) (product.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.items[id]
	if !ok {
		return product.Product{}, product.ErrNotFound
	}
	return p, nil
}

func (r *ProductsRepo) List(_ context.Context, f product.ListFilter) ([]product.Product, error) {
	r.mu.RLock()
	all := make([]product.Product, 0, len(r.items))
	for _, p := range r.items {
		if f.Type != nil && !strings.EqualFold(p.ProductType, *f.Type) {
			continue
		}
		if f.Query != nil && !strings.Contains(strings.ToLower(p.ProductName), strings.ToLower(*f.Query)) {
			continue
		}
		all = append(all, p)
	}
	r.mu.RUnlock()

	return page(all, func(p product.Product) pageKey { return pageKey{p.Timestamp, p.ID} }, f.After, f.Limit), nil
}

func (r *ProductsRepo) Update(_ context.Context, id primitive.ObjectID, req product.UpsertRequest, now time.Time) (repo.UpdateResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.items[id]
	if !ok {
		return repo.UpdateResult{Acknowledged: true}, nil
	}

	p.ProductName = req.ProductName
	p.ProductType = req.ProductType
	p.ProductQuantity = req.ProductQuantity
	p.Timestamp = now
	r.items[id] = p

	return repo.UpdateResult{Acknowledged: true, MatchedCount: 1, ModifiedCount: 1}, nil
}

func (r *ProductsRepo) Delete(_ context.Context, id primitive.ObjectID) (repo.DeleteResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return repo.DeleteResult{Acknowledged: true}, nil
	}
	delete(r.items, id)
	return repo.DeleteResult{Acknowledged: true, DeletedCount: 1}, nil
}

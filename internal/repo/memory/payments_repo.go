package memory

import (
	"context"
	"sync"

	"github.com/geocoder89/assethub/internal/domain/payment"
	"github.com/geocoder89/assethub/internal/repo"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentsRepo is append-only, matching the ledger semantics.
type PaymentsRepo struct {
	mu    sync.RWMutex
	items []payment.Payment
}

func NewPaymentsRepo() *PaymentsRepo {
	return &PaymentsRepo{}
}

func (r *PaymentsRepo) Record(_ context.Context, p payment.Payment) (repo.InsertResult, error) {
	id := primitive.NewObjectID()

	stored := make(payment.Payment, len(p)+1)
	for k, v := range p {
		stored[k] = v
	}
	stored["_id"] = id

	r.mu.Lock()
	r.items = append(r.items, stored)
	r.mu.Unlock()

	return repo.InsertResult{Acknowledged: true, InsertedID: id}, nil
}

func (r *PaymentsRepo) ListByEmail(_ context.Context, f payment.ListFilter) ([]payment.Payment, error) {
	r.mu.RLock()
	all := make([]payment.Payment, 0, len(r.items))
	for _, p := range r.items {
		if p.Email() == f.Email {
			all = append(all, p)
		}
	}
	r.mu.RUnlock()

	key := func(p payment.Payment) pageKey {
		id, _ := payment.ID(p)
		return pageKey{payment.RecordedAt(p), id}
	}
	return page(all, key, f.After, f.Limit), nil
}

func (r *PaymentsRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

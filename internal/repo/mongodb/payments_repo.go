package mongodb

import (
	"context"
	"fmt"

	"github.com/geocoder89/assethub/internal/db"
	"github.com/geocoder89/assethub/internal/domain/payment"
	"github.com/geocoder89/assethub/internal/repo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// PaymentsRepo is an append-only ledger; there is deliberately no update or delete.
type PaymentsRepo struct {
	coll *mongo.Collection
	obs  DBObserver
}

func NewPaymentsRepo(database *mongo.Database, obs DBObserver) *PaymentsRepo {
	return &PaymentsRepo{coll: database.Collection(db.CollectionPayments), obs: observerOrNoop(obs)}
}

func (r *PaymentsRepo) Record(ctx context.Context, p payment.Payment) (repo.InsertResult, error) {
	var res *mongo.InsertOneResult
	err := r.obs.ObserveDB("payments.insert", func() error {
		var err error
		res, err = r.coll.InsertOne(ctx, bson.M(p))
		return err
	})
	if err != nil {
		return repo.InsertResult{}, fmt.Errorf("insert payment: %w", err)
	}
	return repo.InsertResult{Acknowledged: true, InsertedID: res.InsertedID}, nil
}

func (r *PaymentsRepo) ListByEmail(ctx context.Context, f payment.ListFilter) ([]payment.Payment, error) {
	filter := bson.M{"email": f.Email}
	if err := afterCursor(filter, payment.RecordedAtField, f.After); err != nil {
		return nil, fmt.Errorf("payments cursor: %w", err)
	}

	out := make([]payment.Payment, 0)
	err := r.obs.ObserveDB("payments.find", func() error {
		cur, err := r.coll.Find(ctx, filter, newestFirst(payment.RecordedAtField, f.Limit))
		if err != nil {
			return err
		}
		return cur.All(ctx, &out)
	})
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return out, nil
}

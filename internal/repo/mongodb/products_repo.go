package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/assethub/internal/db"
	"github.com/geocoder89/assethub/internal/domain/product"
	"github.com/geocoder89/assethub/internal/repo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type ProductsRepo struct {
	coll *mongo.Collection
	obs  DBObserver
}

func NewProductsRepo(database *mongo.Database, obs DBObserver) *ProductsRepo {
	return &ProductsRepo{coll: database.Collection(db.CollectionProducts), obs: observerOrNoop(obs)}
}

func (r *ProductsRepo) Create(ctx context.Context, p product.Product) (repo.InsertResult, error) {
	var res *mongo.InsertOneResult
	err := r.obs.ObserveDB("products.insert", func() error {
		var err error
		res, err = r.coll.InsertOne(ctx, p)
		return err
	})
	if err != nil {
		return repo.InsertResult{}, fmt.Errorf("insert product: %w", err)
	}
	return repo.InsertResult{Acknowledged: true, InsertedID: res.InsertedID}, nil
}

func (r *ProductsRepo) GetByID(ctx context.Context, id primitive.ObjectID) (product.Product, error) {
	var p product.Product
	err := r.obs.ObserveDB("products.find_one", func() error {
		return r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return product.Product{}, product.ErrNotFound
		}
		return product.Product{}, fmt.Errorf("find product: %w", err)
	}
	return p, nil
}

func (r *ProductsRepo) List(ctx context.Context, f product.ListFilter) ([]product.Product, error) {
	filter := bson.M{}
	if f.Type != nil {
		filter["productType"] = exactFold(*f.Type)
	}
	if f.Query != nil {
		filter["productName"] = containsFold(*f.Query)
	}
	if err := afterCursor(filter, "timestamp", f.After); err != nil {
		return nil, fmt.Errorf("products cursor: %w", err)
	}

	out := make([]product.Product, 0)
	err := r.obs.ObserveDB("products.find", func() error {
		cur, err := r.coll.Find(ctx, filter, newestFirst("timestamp", f.Limit))
		if err != nil {
			return err
		}
		return cur.All(ctx, &out)
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

func (r *ProductsRepo) Update(ctx context.Context, id primitive.ObjectID, req product.UpsertRequest, now time.Time) (repo.UpdateResult, error) {
	update := bson.M{"$set": bson.M{
		"productName":     req.ProductName,
		"productType":     req.ProductType,
		"productQuantity": req.ProductQuantity,
		"timestamp":       now,
	}}

	var res *mongo.UpdateResult
	err := r.obs.ObserveDB("products.update", func() error {
		var err error
		res, err = r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
		return err
	})
	if err != nil {
		return repo.UpdateResult{}, fmt.Errorf("update product: %w", err)
	}
	return updateResult(res), nil
}

func (r *ProductsRepo) Delete(ctx context.Context, id primitive.ObjectID) (repo.DeleteResult, error) {
	var res *mongo.DeleteResult
	err := r.obs.ObserveDB("products.delete", func() error {
		var err error
		res, err = r.coll.DeleteOne(ctx, bson.M{"_id": id})
		return err
	})
	if err != nil {
		return repo.DeleteResult{}, fmt.Errorf("delete product: %w", err)
	}
	return deleteResult(res), nil
}

package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/assethub/internal/db"
	"github.com/geocoder89/assethub/internal/domain/asset"
	"github.com/geocoder89/assethub/internal/repo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type AssetsRepo struct {
	coll *mongo.Collection
	obs  DBObserver
}

func NewAssetsRepo(database *mongo.Database, obs DBObserver) *AssetsRepo {
	return &AssetsRepo{coll: database.Collection(db.CollectionAssets), obs: observerOrNoop(obs)}
}

func (r *AssetsRepo) Create(ctx context.Context, a asset.Request) (repo.InsertResult, error) {
	var res *mongo.InsertOneResult
	err := r.obs.ObserveDB("assets.insert", func() error {
		var err error
		res, err = r.coll.InsertOne(ctx, a)
		return err
	})
	if err != nil {
		return repo.InsertResult{}, fmt.Errorf("insert asset request: %w", err)
	}
	return repo.InsertResult{Acknowledged: true, InsertedID: res.InsertedID}, nil
}

func (r *AssetsRepo) GetByID(ctx context.Context, id primitive.ObjectID) (asset.Request, error) {
	var a asset.Request
	err := r.obs.ObserveDB("assets.find_one", func() error {
		return r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return asset.Request{}, asset.ErrNotFound
		}
		return asset.Request{}, fmt.Errorf("find asset request: %w", err)
	}
	return a, nil
}

func (r *AssetsRepo) List(ctx context.Context, f asset.ListFilter) ([]asset.Request, error) {
	filter := bson.M{}
	if f.Email != nil {
		filter["email"] = *f.Email
	}
	if f.Status != nil {
		filter["status"] = *f.Status
	}
	if f.Type != nil {
		filter["assetType"] = exactFold(*f.Type)
	}
	if f.Query != nil {
		filter["assetName"] = containsFold(*f.Query)
	}
	if err := afterCursor(filter, "timestamp", f.After); err != nil {
		return nil, fmt.Errorf("assets cursor: %w", err)
	}

	out := make([]asset.Request, 0)
	err := r.obs.ObserveDB("assets.find", func() error {
		cur, err := r.coll.Find(ctx, filter, newestFirst("timestamp", f.Limit))
		if err != nil {
			return err
		}
		return cur.All(ctx, &out)
	})
	if err != nil {
		return nil, fmt.Errorf("list asset requests: %w", err)
	}
	return out, nil
}

// Edit replaces the owner-editable fields and sends the request back to
// pending in a single conditional update.
func (r *AssetsRepo) Edit(ctx context.Context, id primitive.ObjectID, owner string, req asset.EditRequest, now time.Time) (repo.UpdateResult, error) {
	update := bson.M{
		"$set": bson.M{
			"assetName":      req.AssetName,
			"assetPrice":     req.AssetPrice,
			"assetType":      req.AssetType,
			"assetImage":     req.AssetImage,
			"whyNeeded":      req.WhyNeeded,
			"additionalInfo": req.AdditionalInfo,
			"status":         asset.StatusPending,
			"timestamp":      now,
		},
		"$unset": bson.M{"approvalDate": ""},
	}

	return r.conditionalUpdate(ctx, "assets.edit", id, asset.ActionEdit, owner, update)
}

func (r *AssetsRepo) Apply(ctx context.Context, id primitive.ObjectID, action asset.Action, owner string, at time.Time) (repo.UpdateResult, error) {
	set := bson.M{"status": asset.Target(action)}
	if action == asset.ActionApprove {
		set["approvalDate"] = at
	}

	return r.conditionalUpdate(ctx, "assets."+string(action), id, action, owner, bson.M{"$set": set})
}

func (r *AssetsRepo) conditionalUpdate(ctx context.Context, op string, id primitive.ObjectID, action asset.Action, owner string, update bson.M) (repo.UpdateResult, error) {
	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$in": asset.AllowedFrom(action)},
	}
	if owner != "" {
		filter["email"] = owner
	}

	var res *mongo.UpdateResult
	err := r.obs.ObserveDB(op, func() error {
		var err error
		res, err = r.coll.UpdateOne(ctx, filter, update)
		return err
	})
	if err != nil {
		return repo.UpdateResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if res.MatchedCount == 0 {
		return repo.UpdateResult{}, r.explainMiss(ctx, id, action, owner)
	}
	return updateResult(res), nil
}

func (r *AssetsRepo) Delete(ctx context.Context, id primitive.ObjectID, owner string) (repo.DeleteResult, error) {
	var res *mongo.DeleteResult
	err := r.obs.ObserveDB("assets.delete", func() error {
		var err error
		res, err = r.coll.DeleteOne(ctx, bson.M{"_id": id, "email": owner})
		return err
	})
	if err != nil {
		return repo.DeleteResult{}, fmt.Errorf("delete asset request: %w", err)
	}

	if res.DeletedCount == 0 {
		current, err := r.lookup(ctx, id)
		if err != nil {
			return repo.DeleteResult{}, err
		}
		if current == nil {
			return repo.DeleteResult{}, asset.ErrNotFound
		}
		return repo.DeleteResult{}, asset.ErrNotOwner
	}
	return deleteResult(res), nil
}

func (r *AssetsRepo) explainMiss(ctx context.Context, id primitive.ObjectID, action asset.Action, owner string) error {
	current, err := r.lookup(ctx, id)
	if err != nil {
		return err
	}
	return asset.ExplainMiss(action, current, owner)
}

func (r *AssetsRepo) lookup(ctx context.Context, id primitive.ObjectID) (*asset.Request, error) {
	a, err := r.GetByID(ctx, id)
	if errors.Is(err, asset.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

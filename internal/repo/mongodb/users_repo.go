package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/assethub/internal/db"
	"github.com/geocoder89/assethub/internal/domain/user"
	"github.com/geocoder89/assethub/internal/repo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UsersRepo struct {
	coll *mongo.Collection
	obs  DBObserver
}

func NewUsersRepo(database *mongo.Database, obs DBObserver) *UsersRepo {
	return &UsersRepo{coll: database.Collection(db.CollectionUsers), obs: observerOrNoop(obs)}
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.obs.ObserveDB("users.find_one", func() error {
		return r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	})

	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

func (r *UsersRepo) UpsertProfile(ctx context.Context, u user.User) (repo.UpdateResult, error) {
	set := bson.M{
		"email":     u.Email,
		"name":      u.Name,
		"dob":       u.DOB,
		"photoURL":  u.PhotoURL,
		"timestamp": u.Timestamp,
	}
	if u.Role != "" {
		set["role"] = u.Role
	}

	var res *mongo.UpdateResult
	err := r.obs.ObserveDB("users.upsert", func() error {
		var err error
		res, err = r.coll.UpdateOne(ctx, bson.M{"email": u.Email}, bson.M{"$set": set}, options.Update().SetUpsert(true))
		return err
	})
	if err != nil {
		return repo.UpdateResult{}, fmt.Errorf("upsert user: %w", err)
	}
	return updateResult(res), nil
}

func (r *UsersRepo) List(ctx context.Context, f user.ListFilter) ([]user.User, error) {
	filter := bson.M{}
	if f.Role != nil {
		filter["role"] = *f.Role
	}
	if err := afterCursor(filter, "timestamp", f.After); err != nil {
		return nil, fmt.Errorf("users cursor: %w", err)
	}

	out := make([]user.User, 0)
	err := r.obs.ObserveDB("users.find", func() error {
		cur, err := r.coll.Find(ctx, filter, newestFirst("timestamp", f.Limit))
		if err != nil {
			return err
		}
		return cur.All(ctx, &out)
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

func (r *UsersRepo) SetRole(ctx context.Context, id primitive.ObjectID, role string, now time.Time) (repo.UpdateResult, error) {
	var res *mongo.UpdateResult
	err := r.obs.ObserveDB("users.set_role", func() error {
		var err error
		res, err = r.coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"role": role, "timestamp": now}})
		return err
	})
	if err != nil {
		return repo.UpdateResult{}, fmt.Errorf("set user role: %w", err)
	}
	return updateResult(res), nil
}

func (r *UsersRepo) Delete(ctx context.Context, id primitive.ObjectID) (repo.DeleteResult, error) {
	var res *mongo.DeleteResult
	err := r.obs.ObserveDB("users.delete", func() error {
		var err error
		res, err = r.coll.DeleteOne(ctx, bson.M{"_id": id})
		return err
	})
	if err != nil {
		return repo.DeleteResult{}, fmt.Errorf("delete user: %w", err)
	}
	return deleteResult(res), nil
}

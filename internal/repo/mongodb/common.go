package mongodb

import (
	"regexp"

	"github.com/geocoder89/assethub/internal/repo"
	"github.com/geocoder89/assethub/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DBObserver times a store call; *observability.Prom satisfies it.
type DBObserver interface {
	ObserveDB(op string, fn func() error) error
}

type noopObserver struct{}

func (noopObserver) ObserveDB(_ string, fn func() error) error { return fn() }

func observerOrNoop(o DBObserver) DBObserver {
	if o == nil {
		return noopObserver{}
	}
	return o
}

// afterCursor restricts a (tsField desc, _id desc) scan to items strictly
// after the cursor.
func afterCursor(filter bson.M, tsField string, after *utils.PageCursor) error {
	if after == nil {
		return nil
	}

	oid, err := primitive.ObjectIDFromHex(after.ID)
	if err != nil {
		return err
	}

	filter["$or"] = bson.A{
		bson.M{tsField: bson.M{"$lt": after.Timestamp}},
		bson.M{tsField: after.Timestamp, "_id": bson.M{"$lt": oid}},
	}
	return nil
}

func newestFirst(tsField string, limit int) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: tsField, Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return opts
}

func containsFold(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}

func exactFold(s string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(s) + "$", Options: "i"}
}

func updateResult(res *mongo.UpdateResult) repo.UpdateResult {
	if res == nil {
		return repo.UpdateResult{}
	}
	return repo.UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
		UpsertedID:    res.UpsertedID,
	}
}

func deleteResult(res *mongo.DeleteResult) repo.DeleteResult {
	if res == nil {
		return repo.DeleteResult{}
	}
	return repo.DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}
}

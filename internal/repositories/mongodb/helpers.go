package mongodb

import (
	"context"
	"errors"

	"github.com/ArowuTest/marketplace-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// translateErr maps driver errors onto the repository sentinels
func translateErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repositories.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return repositories.ErrDuplicate
	default:
		return err
	}
}

// missOrConflict is called after a conditional update matched nothing: the
// document is either gone or no longer in the expected pre-state.
func missOrConflict(ctx context.Context, collection *mongo.Collection, id primitive.ObjectID) error {
	count, err := collection.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if count == 0 {
		return repositories.ErrNotFound
	}
	return repositories.ErrPreconditionFailed
}

// pageOptions builds skip/limit/sort options for a 1-based page
func pageOptions(page, limit int, sort bson.D) *options.FindOptions {
	if page < 1 {
		page = 1
	}
	return options.Find().
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit)).
		SetSort(sort)
}

// findPage runs a paginated find and a count for the same filter
func findPage[T any](ctx context.Context, collection *mongo.Collection, filter bson.M, page, limit int, sort bson.D) ([]*T, int64, error) {
	total, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	cursor, err := collection.Find(ctx, filter, pageOptions(page, limit, sort))
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	items := []*T{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

package mongodb

import (
	"context"
	"time"

	"github.com/ArowuTest/marketplace-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// notBlacklistedAt matches sellers that are not blacklisted at now: never
// flagged, or flagged with an expiry already in the past.
func notBlacklistedAt(now time.Time, prefix string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{prefix + "isBlacklisted": bson.M{"$ne": true}},
		bson.M{prefix + "blacklist.expiresAt": bson.M{"$lt": now}},
	}}
}

// blacklistFilter builds the listing filter for a blacklist state
func blacklistFilter(state models.BlacklistState, now time.Time) bson.M {
	switch state {
	case models.BlacklistStateActive:
		return bson.M{
			"isBlacklisted": true,
			"$or": bson.A{
				bson.M{"blacklist.expiresAt": nil},
				bson.M{"blacklist.expiresAt": bson.M{"$gte": now}},
			},
		}
	case models.BlacklistStateExpired:
		return bson.M{"isBlacklisted": true, "blacklist.expiresAt": bson.M{"$lt": now}}
	default:
		return bson.M{"isBlacklisted": true}
	}
}

// SetBlacklist flags a seller as blacklisted unless a blacklist is already in force
func (r *SellerRepository) SetBlacklist(ctx context.Context, id primitive.ObjectID, entry models.BlacklistEntry, now time.Time) error {
	filter := notBlacklistedAt(now, "")
	filter["_id"] = id
	update := bson.M{"$set": bson.M{
		"isBlacklisted": true,
		"blacklist":     entry,
		"updatedAt":     now,
	}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return missOrConflict(ctx, r.collection, id)
	}
	return nil
}

// ClearBlacklist removes the blacklist from a seller flagged as blacklisted
func (r *SellerRepository) ClearBlacklist(ctx context.Context, id primitive.ObjectID, now time.Time) error {
	filter := bson.M{"_id": id, "isBlacklisted": true}
	update := bson.M{
		"$set":   bson.M{"isBlacklisted": false, "updatedAt": now},
		"$unset": bson.M{"blacklist": ""},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return missOrConflict(ctx, r.collection, id)
	}
	return nil
}

// FindBlacklisted lists blacklisted sellers, most recently blacklisted first
func (r *SellerRepository) FindBlacklisted(ctx context.Context, state models.BlacklistState, now time.Time, page, limit int) ([]*models.Seller, int64, error) {
	return findPage[models.Seller](ctx, r.collection, blacklistFilter(state, now), page, limit, bson.D{{Key: "blacklist.createdAt", Value: -1}})
}

// BlacklistStats counts blacklist entries by state at now
func (r *SellerRepository) BlacklistStats(ctx context.Context, now time.Time) (*models.BlacklistStats, error) {
	stats := &models.BlacklistStats{GeneratedAt: now}
	counts := []struct {
		dst    *int64
		filter bson.M
	}{
		{&stats.Total, blacklistFilter(models.BlacklistStateAll, now)},
		{&stats.Active, blacklistFilter(models.BlacklistStateActive, now)},
		{&stats.Expired, blacklistFilter(models.BlacklistStateExpired, now)},
		{&stats.Indefinite, bson.M{"isBlacklisted": true, "blacklist.expiresAt": nil}},
	}
	for _, c := range counts {
		n, err := r.collection.CountDocuments(ctx, c.filter)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}
	return stats, nil
}

// ClearExpiredBlacklists unflags every seller whose blacklist expired before now
func (r *SellerRepository) ClearExpiredBlacklists(ctx context.Context, now time.Time) (int64, error) {
	filter := blacklistFilter(models.BlacklistStateExpired, now)
	update := bson.M{
		"$set":   bson.M{"isBlacklisted": false, "updatedAt": now},
		"$unset": bson.M{"blacklist": ""},
	}
	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

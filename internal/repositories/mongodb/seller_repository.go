package mongodb

import (
	"context"
	"time"

	"github.com/ArowuTest/marketplace-backend/internal/models"
	"github.com/ArowuTest/marketplace-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Compile-time check to ensure SellerRepository implements the interface
var _ repositories.SellerRepository = (*SellerRepository)(nil)

// SellerRepository handles MongoDB operations for sellers. Blacklist
// operations live in blacklist_repository.go.
type SellerRepository struct {
	collection *mongo.Collection
}

// NewSellerRepository creates a new SellerRepository
func NewSellerRepository(db *mongo.Database) *SellerRepository {
	return &SellerRepository{
		collection: db.Collection(CollectionSellers),
	}
}

// Create inserts a new seller
func (r *SellerRepository) Create(ctx context.Context, seller *models.Seller) error {
	now := time.Now().UTC()
	seller.ID = primitive.NewObjectID()
	seller.CreatedAt = now
	seller.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, seller)
	return translateErr(err)
}

// FindByID finds a seller by ID
func (r *SellerRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Seller, error) {
	var seller models.Seller
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&seller); err != nil {
		return nil, translateErr(err)
	}
	return &seller, nil
}

// FindByEmail finds a seller by email
func (r *SellerRepository) FindByEmail(ctx context.Context, email string) (*models.Seller, error) {
	var seller models.Seller
	if err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&seller); err != nil {
		return nil, translateErr(err)
	}
	return &seller, nil
}

// FindByStatus lists sellers in a status, oldest first so the review queue is FIFO
func (r *SellerRepository) FindByStatus(ctx context.Context, status models.SellerStatus, page, limit int) ([]*models.Seller, int64, error) {
	return findPage[models.Seller](ctx, r.collection, bson.M{"status": status}, page, limit, bson.D{{Key: "createdAt", Value: 1}})
}

// CountByStatus counts sellers in a status
func (r *SellerRepository) CountByStatus(ctx context.Context, status models.SellerStatus) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"status": status})
}

// TransitionStatus atomically moves a seller from one status to another
func (r *SellerRepository) TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to models.SellerStatus, review models.Review) error {
	filter := bson.M{"_id": id, "status": from}
	set := bson.M{
		"status":     to,
		"reviewedBy": review.By,
		"reviewedAt": review.At,
		"updatedAt":  review.At,
	}
	update := bson.M{"$set": set}
	if review.Reason != "" {
		set["rejectionReason"] = review.Reason
	} else {
		update["$unset"] = bson.M{"rejectionReason": ""}
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

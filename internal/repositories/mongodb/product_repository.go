package mongodb

import (
	"context"
	"time"

	"github.com/ArowuTest/marketplace-backend/internal/models"
	"github.com/ArowuTest/marketplace-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check to ensure ProductRepository implements the interface
var _ repositories.ProductRepository = (*ProductRepository)(nil)

// ProductRepository handles MongoDB operations for products
type ProductRepository struct {
	collection *mongo.Collection
}

// NewProductRepository creates a new ProductRepository
func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{
		collection: db.Collection(CollectionProducts),
	}
}

// Create inserts a new product
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	now := time.Now().UTC()
	product.ID = primitive.NewObjectID()
	product.CreatedAt = now
	product.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, product)
	return translateErr(err)
}

// FindByID finds a product by ID
func (r *ProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	var product models.Product
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, translateErr(err)
	}
	return &product, nil
}

// Update writes the editable fields of a product. The seller id is part of
// the filter so a seller can never touch another seller's product.
func (r *ProductRepository) Update(ctx context.Context, product *models.Product, expected models.ApprovalState) error {
	product.UpdatedAt = time.Now().UTC()
	owned := bson.M{"_id": product.ID, "sellerId": product.SellerID}
	filter := bson.M{"_id": product.ID, "sellerId": product.SellerID, "adminApprovalState": expected}
	set := bson.M{
		"name":               product.Name,
		"description":        product.Description,
		"price":              product.Price,
		"currency":           product.Currency,
		"category":           product.Category,
		"status":             product.Status,
		"adminApprovalState": product.AdminApprovalState,
		"updatedAt":          product.UpdatedAt,
	}
	update := bson.M{"$set": set}
	if product.RejectionReason == "" {
		update["$unset"] = bson.M{"rejectionReason": ""}
	} else {
		set["rejectionReason"] = product.RejectionReason
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount > 0 {
		return nil
	}
	count, err := r.collection.CountDocuments(ctx, owned, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if count == 0 {
		return repositories.ErrNotFound
	}
	return repositories.ErrPreconditionFailed
}

// FindBySeller lists a seller's products, newest first
func (r *ProductRepository) FindBySeller(ctx context.Context, sellerID primitive.ObjectID, page, limit int) ([]*models.Product, int64, error) {
	filter := bson.M{"sellerId": sellerID, "status": bson.M{"$ne": models.ProductStatusDeleted}}
	return findPage[models.Product](ctx, r.collection, filter, page, limit, bson.D{{Key: "createdAt", Value: -1}})
}

// FindByApprovalState lists products in an approval state, oldest first
func (r *ProductRepository) FindByApprovalState(ctx context.Context, state models.ApprovalState, page, limit int) ([]*models.Product, int64, error) {
	filter := bson.M{"adminApprovalState": state, "status": bson.M{"$ne": models.ProductStatusDeleted}}
	return findPage[models.Product](ctx, r.collection, filter, page, limit, bson.D{{Key: "createdAt", Value: 1}})
}

// CountByApprovalState counts products in an approval state
func (r *ProductRepository) CountByApprovalState(ctx context.Context, state models.ApprovalState) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"adminApprovalState": state, "status": bson.M{"$ne": models.ProductStatusDeleted}})
}

// TransitionApproval atomically moves a product between approval states
func (r *ProductRepository) TransitionApproval(ctx context.Context, id primitive.ObjectID, from, to models.ApprovalState, status models.ProductStatus, review models.Review) error {
	filter := bson.M{"_id": id, "adminApprovalState": from}
	set := bson.M{
		"adminApprovalState": to,
		"status":             status,
		"reviewedBy":         review.By,
		"reviewedAt":         review.At,
		"updatedAt":          review.At,
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

// FindStorefront joins products to their sellers and keeps only the ones
// that are visible at now. Blacklist expiry is evaluated here, at read
// time, so no product document is rewritten when a seller is blacklisted.
func (r *ProductRepository) FindStorefront(ctx context.Context, now time.Time, page, limit int) ([]*models.Product, int64, error) {
	if page < 1 {
		page = 1
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"adminApprovalState": models.ApprovalApproved,
			"status":             models.ProductStatusActive,
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         CollectionSellers,
			"localField":   "sellerId",
			"foreignField": "_id",
			"as":           "seller",
		}}},
		{{Key: "$unwind", Value: "$seller"}},
		{{Key: "$match", Value: notBlacklistedAt(now, "seller.")}},
		{{Key: "$project", Value: bson.M{"seller": 0}}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$facet", Value: bson.M{
			"items": bson.A{
				bson.M{"$skip": int64((page - 1) * limit)},
				bson.M{"$limit": int64(limit)},
			},
			"total": bson.A{bson.M{"$count": "count"}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var result []struct {
		Items []*models.Product `bson:"items"`
		Total []struct {
			Count int64 `bson:"count"`
		} `bson:"total"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return nil, 0, err
	}
	if len(result) == 0 {
		return []*models.Product{}, 0, nil
	}
	var total int64
	if len(result[0].Total) > 0 {
		total = result[0].Total[0].Count
	}
	items := result[0].Items
	if items == nil {
		items = []*models.Product{}
	}
	return items, total, nil
}

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

var _ repositories.ProductImageRepository = (*ProductImageRepository)(nil)

// ProductImageRepository handles MongoDB operations for product image records
type ProductImageRepository struct {
	collection *mongo.Collection
}

// NewProductImageRepository creates a new ProductImageRepository
func NewProductImageRepository(db *mongo.Database) *ProductImageRepository {
	return &ProductImageRepository{
		collection: db.Collection(CollectionProductImages),
	}
}

// CreateMany inserts image records in one round trip
func (r *ProductImageRepository) CreateMany(ctx context.Context, images []*models.ProductImage) error {
	if len(images) == 0 {
		return nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(images))
	for _, img := range images {
		img.ID = primitive.NewObjectID()
		img.CreatedAt = now
		docs = append(docs, img)
	}
	_, err := r.collection.InsertMany(ctx, docs)
	return translateErr(err)
}

// FindByProduct returns a product's images in display order
func (r *ProductImageRepository) FindByProduct(ctx context.Context, productID primitive.ObjectID) ([]*models.ProductImage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"productId": productID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	images := []*models.ProductImage{}
	if err := cursor.All(ctx, &images); err != nil {
		return nil, err
	}
	return images, nil
}

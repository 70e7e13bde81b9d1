package mongodb

import (
	"context"

	"github.com/ArowuTest/marketplace-backend/internal/models"
	"github.com/ArowuTest/marketplace-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var _ repositories.AuditRepository = (*AuditRepository)(nil)

// AuditRepository appends and lists moderation events
type AuditRepository struct {
	collection *mongo.Collection
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{
		collection: db.Collection(CollectionModerationAudit),
	}
}

// Append inserts a moderation event
func (r *AuditRepository) Append(ctx context.Context, event *models.ModerationEvent) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	_, err := r.collection.InsertOne(ctx, event)
	return err
}

// Find lists moderation events, newest first
func (r *AuditRepository) Find(ctx context.Context, targetID *primitive.ObjectID, page, limit int) ([]*models.ModerationEvent, int64, error) {
	filter := bson.M{}
	if targetID != nil {
		filter["targetId"] = *targetID
	}
	return findPage[models.ModerationEvent](ctx, r.collection, filter, page, limit, bson.D{{Key: "createdAt", Value: -1}})
}

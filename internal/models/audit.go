package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ModerationAction names an admin moderation transition
type ModerationAction string

const (
	ActionSellerApproved      ModerationAction = "SELLER_APPROVED"
	ActionSellerRejected      ModerationAction = "SELLER_REJECTED"
	ActionSellerBlacklisted   ModerationAction = "SELLER_BLACKLISTED"
	ActionSellerUnblacklisted ModerationAction = "SELLER_UNBLACKLISTED"
	ActionProductApproved     ModerationAction = "PRODUCT_APPROVED"
	ActionProductRejected     ModerationAction = "PRODUCT_REJECTED"
)

// Moderation target types
const (
	TargetSeller  = "seller"
	TargetProduct = "product"
)

// ModerationEvent is an append-only record of a moderation transition
type ModerationEvent struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Action     ModerationAction   `bson:"action" json:"action"`
	TargetType string             `bson:"targetType" json:"targetType"`
	TargetID   primitive.ObjectID `bson:"targetId" json:"targetId"`
	ActorID    string             `bson:"actorId" json:"actorId"`
	OldStatus  string             `bson:"oldStatus,omitempty" json:"oldStatus,omitempty"`
	NewStatus  string             `bson:"newStatus,omitempty" json:"newStatus,omitempty"`
	Reason     string             `bson:"reason,omitempty" json:"reason,omitempty"`
	ExpiresAt  *time.Time         `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProductStatus is the lifecycle status of a product
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusArchived ProductStatus = "archived"
	ProductStatusDeleted  ProductStatus = "deleted"
	ProductStatusPending  ProductStatus = "pending"
	ProductStatusRejected ProductStatus = "rejected"
)

// ApprovalState is the admin moderation state of a product
type ApprovalState string

const (
	ApprovalPending  ApprovalState = "pending"
	ApprovalApproved ApprovalState = "approved"
	ApprovalRejected ApprovalState = "rejected"
)

// Product represents a seller's product listing
type Product struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	SellerID           primitive.ObjectID `bson:"sellerId" json:"sellerId"`
	Name               string             `bson:"name" json:"name"`
	Description        string             `bson:"description,omitempty" json:"description,omitempty"`
	Price              float64            `bson:"price" json:"price"`
	Currency           string             `bson:"currency" json:"currency"`
	Category           string             `bson:"category,omitempty" json:"category,omitempty"`
	Status             ProductStatus      `bson:"status" json:"status"`
	AdminApprovalState ApprovalState      `bson:"adminApprovalState" json:"adminApprovalState"`
	RejectionReason    string             `bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`
	ReviewedBy         string             `bson:"reviewedBy,omitempty" json:"reviewedBy,omitempty"`
	ReviewedAt         *time.Time         `bson:"reviewedAt,omitempty" json:"reviewedAt,omitempty"`
	Images             []ProductImage     `bson:"-" json:"images,omitempty"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ProductImage is the stored record of an image attached to a product.
// The binary itself lives with the image host; only its URL is kept here.
type ProductImage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	ProductID primitive.ObjectID `bson:"productId" json:"productId"`
	URL       string             `bson:"url" json:"url"`
	Alt       string             `bson:"alt,omitempty" json:"alt,omitempty"`
	Position  int                `bson:"position" json:"position"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

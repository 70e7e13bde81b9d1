package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SellerStatus is the admin approval status of a seller account
type SellerStatus string

const (
	SellerStatusPending  SellerStatus = "pending"
	SellerStatusApproved SellerStatus = "approved"
	SellerStatusRejected SellerStatus = "rejected"
)

// BlacklistEntry is embedded on the seller document while the seller is
// blacklisted. A nil ExpiresAt means the blacklist never lapses.
type BlacklistEntry struct {
	Reason    string     `bson:"reason" json:"reason"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
	CreatedBy string     `bson:"createdBy,omitempty" json:"createdBy,omitempty"`
	ExpiresAt *time.Time `bson:"expiresAt" json:"expiresAt"`
}

// Seller represents a marketplace seller account
type Seller struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Email           string             `bson:"email" json:"email"`
	Password        string             `bson:"password" json:"-"`
	StoreName       string             `bson:"storeName" json:"storeName"`
	StoreSlug       string             `bson:"storeSlug" json:"storeSlug"`
	ContactPhone    string             `bson:"contactPhone,omitempty" json:"contactPhone,omitempty"`
	Status          SellerStatus       `bson:"status" json:"status"`
	RejectionReason string             `bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`
	ReviewedBy      string             `bson:"reviewedBy,omitempty" json:"reviewedBy,omitempty"`
	ReviewedAt      *time.Time         `bson:"reviewedAt,omitempty" json:"reviewedAt,omitempty"`
	IsBlacklisted   bool               `bson:"isBlacklisted" json:"isBlacklisted"`
	Blacklist       *BlacklistEntry    `bson:"blacklist,omitempty" json:"blacklist,omitempty"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Review captures who moved an entity out of pending, when, and why
type Review struct {
	Reason string
	By     string
	At     time.Time
}

// BlacklistState filters blacklist listings
type BlacklistState string

const (
	BlacklistStateActive  BlacklistState = "active"
	BlacklistStateExpired BlacklistState = "expired"
	BlacklistStateAll     BlacklistState = "all"
)

// BlacklistStats summarises the seller blacklist at a point in time
type BlacklistStats struct {
	Total           int64     `json:"total"`
	Active          int64     `json:"active"`
	Expired         int64     `json:"expired"`
	Indefinite      int64     `json:"indefinite"`
	PendingSellers  int64     `json:"pendingSellers"`
	PendingProducts int64     `json:"pendingProducts"`
	GeneratedAt     time.Time `json:"generatedAt"`
}

// BlacklistActiveAt reports whether the seller's blacklist is in force at
// now. An entry whose expiry is exactly now still blocks; only an expiry
// strictly before now lapses.
func (s *Seller) BlacklistActiveAt(now time.Time) bool {
	if !s.IsBlacklisted {
		return false
	}
	if s.Blacklist == nil || s.Blacklist.ExpiresAt == nil {
		return true
	}
	return !s.Blacklist.ExpiresAt.Before(now)
}

package services

import (
	"context"
	"time"

	"github.com/ArowuTest/marketplace-backend/internal/models"
	"github.com/ArowuTest/marketplace-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GateDecision is the outcome of a blacklist check
type GateDecision struct {
	Allowed   bool       `json:"allowed"`
	Reason    string     `json:"reason,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// EvaluateBlacklist decides whether seller may mutate products at now. A
// blacklist lapses once its expiry is strictly before now.
func EvaluateBlacklist(seller *models.Seller, now time.Time) GateDecision {
	if !seller.BlacklistActiveAt(now) {
		return GateDecision{Allowed: true}
	}
	d := GateDecision{Allowed: false}
	if seller.Blacklist != nil {
		d.Reason = seller.Blacklist.Reason
		d.ExpiresAt = seller.Blacklist.ExpiresAt
	}
	return d
}

// GatingService guards product mutations. The seller is read from the
// store on every call; decisions are never cached.
type GatingService interface {
	CheckSeller(ctx context.Context, sellerID primitive.ObjectID) (GateDecision, error)
	Require(ctx context.Context, sellerID primitive.ObjectID) error
}

type gatingService struct {
	sellers repositories.SellerRepository
	now     func() time.Time
}

// NewGatingService creates a new GatingService
func NewGatingService(sellers repositories.SellerRepository, now func() time.Time) GatingService {
	if now == nil {
		now = time.Now
	}
	return &gatingService{sellers: sellers, now: now}
}

func (g *gatingService) CheckSeller(ctx context.Context, sellerID primitive.ObjectID) (GateDecision, error) {
	seller, err := g.sellers.FindByID(ctx, sellerID)
	if err != nil {
		return GateDecision{}, translate(err, "seller")
	}
	return EvaluateBlacklist(seller, g.now()), nil
}

// Require returns a *GatingError when the seller is currently blacklisted
func (g *gatingService) Require(ctx context.Context, sellerID primitive.ObjectID) error {
	d, err := g.CheckSeller(ctx, sellerID)
	if err != nil {
		return err
	}
	if !d.Allowed {
		return &GatingError{Reason: d.Reason, ExpiresAt: d.ExpiresAt}
	}
	return nil
}

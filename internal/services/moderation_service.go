package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ArowuTest/marketplace-backend/internal/models"
	"github.com/ArowuTest/marketplace-backend/internal/repositories"
	"github.com/ArowuTest/marketplace-backend/pkg/events"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultBlacklistDays is used when no blacklist duration is configured
const DefaultBlacklistDays = 30

// Actor identifies the admin performing a moderation action. It comes from
// the verified bearer token, never from the request body.
type Actor struct {
	ID    string
	Email string
}

// BlacklistInput describes a blacklist request. ExpiresAt and Permanent are
// mutually exclusive; when both are unset the default duration applies.
type BlacklistInput struct {
	SellerID  primitive.ObjectID
	Reason    string
	ExpiresAt *time.Time
	Permanent bool
}

// ModerationService is the single authority for seller and product
// approval and blacklist transitions.
type ModerationService interface {
	ApproveSeller(ctx context.Context, actor Actor, sellerID primitive.ObjectID) (*models.Seller, error)
	RejectSeller(ctx context.Context, actor Actor, sellerID primitive.ObjectID, reason string) (*models.Seller, error)
	BlacklistSeller(ctx context.Context, actor Actor, input BlacklistInput) (*models.Seller, error)
	UnblacklistSeller(ctx context.Context, actor Actor, sellerID primitive.ObjectID) (*models.Seller, error)
	ApproveProduct(ctx context.Context, actor Actor, productID primitive.ObjectID) (*models.Product, error)
	RejectProduct(ctx context.Context, actor Actor, productID primitive.ObjectID, reason string) (*models.Product, error)

	ListPendingSellers(ctx context.Context, page, limit int) ([]*models.Seller, int64, error)
	ListPendingProducts(ctx context.Context, page, limit int) ([]*models.Product, int64, error)
	ListBlacklistedSellers(ctx context.Context, state models.BlacklistState, page, limit int) ([]*models.Seller, int64, error)
	BlacklistStats(ctx context.Context) (*models.BlacklistStats, error)
	ListAudit(ctx context.Context, targetID *primitive.ObjectID, page, limit int) ([]*models.ModerationEvent, int64, error)
}

// ModerationDeps holds the collaborators of the moderation service
type ModerationDeps struct {
	Sellers              repositories.SellerRepository
	Products             repositories.ProductRepository
	Audit                repositories.AuditRepository
	Tx                   repositories.TxManager
	Publisher            events.Publisher
	DefaultBlacklistDays int
	Now                  func() time.Time
	Logger               logrus.FieldLogger
}

type moderationService struct {
	sellers       repositories.SellerRepository
	products      repositories.ProductRepository
	audit         repositories.AuditRepository
	tx            repositories.TxManager
	publisher     events.Publisher
	blacklistDays int
	now           func() time.Time
	log           logrus.FieldLogger
}

// NewModerationService creates a new ModerationService
func NewModerationService(deps ModerationDeps) ModerationService {
	s := &moderationService{
		sellers:       deps.Sellers,
		products:      deps.Products,
		audit:         deps.Audit,
		tx:            deps.Tx,
		publisher:     deps.Publisher,
		blacklistDays: deps.DefaultBlacklistDays,
		now:           deps.Now,
		log:           deps.Logger,
	}
	if s.publisher == nil {
		s.publisher = events.NopPublisher{}
	}
	if s.blacklistDays <= 0 {
		s.blacklistDays = DefaultBlacklistDays
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	return s
}

func requireActor(actor Actor) error {
	if actor.ID == "" {
		return ErrUnauthorized
	}
	return nil
}

func requireReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", validationf("reason is required")
	}
	return reason, nil
}

// commit runs the state change and its audit record in one transaction,
// then publishes the event. A publish failure is logged and otherwise
// ignored; the audit collection remains the record of truth.
func (s *moderationService) commit(ctx context.Context, event *models.ModerationEvent, what string, change func(ctx context.Context) error) error {
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := change(ctx); err != nil {
			return err
		}
		return s.audit.Append(ctx, event)
	})
	if err != nil {
		err = translate(err, what)
		if errors.Is(err, ErrInternal) {
			s.log.WithError(err).WithField("action", event.Action).Error("moderation transaction failed")
		}
		return err
	}

	entry := s.log.WithFields(logrus.Fields{
		"action":   event.Action,
		"targetId": event.TargetID.Hex(),
		"actorId":  event.ActorID,
	})
	entry.Info("moderation transition applied")
	if err := s.publisher.Publish(ctx, event.TargetID.Hex(), event); err != nil {
		entry.WithError(err).Warn("failed to publish moderation event")
	}
	return nil
}

func (s *moderationService) newEvent(action models.ModerationAction, targetType string, targetID primitive.ObjectID, actor Actor, at time.Time) *models.ModerationEvent {
	return &models.ModerationEvent{
		ID:         primitive.NewObjectID(),
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		ActorID:    actor.ID,
		CreatedAt:  at,
	}
}

func (s *moderationService) reload(ctx context.Context, sellerID primitive.ObjectID) (*models.Seller, error) {
	seller, err := s.sellers.FindByID(ctx, sellerID)
	if err != nil {
		return nil, translate(err, "seller")
	}
	return seller, nil
}

func (s *moderationService) transitionSeller(ctx context.Context, actor Actor, sellerID primitive.ObjectID, to models.SellerStatus, reason string) (*models.Seller, error) {
	now := s.now().UTC()
	action := models.ActionSellerApproved
	if to == models.SellerStatusRejected {
		action = models.ActionSellerRejected
	}
	event := s.newEvent(action, models.TargetSeller, sellerID, actor, now)
	event.OldStatus = string(models.SellerStatusPending)
	event.NewStatus = string(to)
	event.Reason = reason

	review := models.Review{Reason: reason, By: actor.ID, At: now}
	err := s.commit(ctx, event, "seller", func(ctx context.Context) error {
		return s.sellers.TransitionStatus(ctx, sellerID, models.SellerStatusPending, to, review)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, sellerID)
}

func (s *moderationService) ApproveSeller(ctx context.Context, actor Actor, sellerID primitive.ObjectID) (*models.Seller, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.transitionSeller(ctx, actor, sellerID, models.SellerStatusApproved, "")
}

func (s *moderationService) RejectSeller(ctx context.Context, actor Actor, sellerID primitive.ObjectID, reason string) (*models.Seller, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	reason, err := requireReason(reason)
	if err != nil {
		return nil, err
	}
	return s.transitionSeller(ctx, actor, sellerID, models.SellerStatusRejected, reason)
}

func (s *moderationService) BlacklistSeller(ctx context.Context, actor Actor, input BlacklistInput) (*models.Seller, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	reason, err := requireReason(input.Reason)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	var expiresAt *time.Time
	switch {
	case input.Permanent && input.ExpiresAt != nil:
		return nil, validationf("expiresAt cannot be combined with permanent")
	case input.Permanent:
	case input.ExpiresAt != nil:
		if !input.ExpiresAt.After(now) {
			return nil, validationf("expiresAt must be in the future")
		}
		t := input.ExpiresAt.UTC()
		expiresAt = &t
	default:
		t := now.Add(time.Duration(s.blacklistDays) * 24 * time.Hour)
		expiresAt = &t
	}

	entry := models.BlacklistEntry{
		Reason:    reason,
		CreatedAt: now,
		CreatedBy: actor.ID,
		ExpiresAt: expiresAt,
	}
	event := s.newEvent(models.ActionSellerBlacklisted, models.TargetSeller, input.SellerID, actor, now)
	event.NewStatus = "blacklisted"
	event.Reason = reason
	event.ExpiresAt = expiresAt

	err = s.commit(ctx, event, "seller", func(ctx context.Context) error {
		return s.sellers.SetBlacklist(ctx, input.SellerID, entry, now)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, input.SellerID)
}

func (s *moderationService) UnblacklistSeller(ctx context.Context, actor Actor, sellerID primitive.ObjectID) (*models.Seller, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	event := s.newEvent(models.ActionSellerUnblacklisted, models.TargetSeller, sellerID, actor, now)
	event.OldStatus = "blacklisted"

	err := s.commit(ctx, event, "seller", func(ctx context.Context) error {
		return s.sellers.ClearBlacklist(ctx, sellerID, now)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(ctx, sellerID)
}

func (s *moderationService) transitionProduct(ctx context.Context, actor Actor, productID primitive.ObjectID, to models.ApprovalState, reason string) (*models.Product, error) {
	now := s.now().UTC()
	action := models.ActionProductApproved
	if to == models.ApprovalRejected {
		action = models.ActionProductRejected
	}
	event := s.newEvent(action, models.TargetProduct, productID, actor, now)
	event.OldStatus = string(models.ApprovalPending)
	event.NewStatus = string(to)
	event.Reason = reason

	review := models.Review{Reason: reason, By: actor.ID, At: now}
	err := s.commit(ctx, event, "product", func(ctx context.Context) error {
		product, err := s.products.FindByID(ctx, productID)
		if err != nil {
			return err
		}
		if product.Status == models.ProductStatusDeleted {
			return repositories.ErrPreconditionFailed
		}
		return s.products.TransitionApproval(ctx, productID, models.ApprovalPending, to, lifecycleAfterReview(product.Status, to), review)
	})
	if err != nil {
		return nil, err
	}
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, translate(err, "product")
	}
	return product, nil
}

// lifecycleAfterReview returns the lifecycle status a product takes when an
// admin decides on it. Approval publishes a product that was waiting on
// review; a seller-chosen status such as draft is kept. Rejection always
// marks the product rejected.
func lifecycleAfterReview(current models.ProductStatus, to models.ApprovalState) models.ProductStatus {
	if to == models.ApprovalRejected {
		return models.ProductStatusRejected
	}
	if current == models.ProductStatusPending || current == models.ProductStatusRejected {
		return models.ProductStatusActive
	}
	return current
}

func (s *moderationService) ApproveProduct(ctx context.Context, actor Actor, productID primitive.ObjectID) (*models.Product, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.transitionProduct(ctx, actor, productID, models.ApprovalApproved, "")
}

func (s *moderationService) RejectProduct(ctx context.Context, actor Actor, productID primitive.ObjectID, reason string) (*models.Product, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	reason, err := requireReason(reason)
	if err != nil {
		return nil, err
	}
	return s.transitionProduct(ctx, actor, productID, models.ApprovalRejected, reason)
}

func (s *moderationService) ListPendingSellers(ctx context.Context, page, limit int) ([]*models.Seller, int64, error) {
	page, limit = NormalizePage(page, limit)
	sellers, total, err := s.sellers.FindByStatus(ctx, models.SellerStatusPending, page, limit)
	if err != nil {
		return nil, 0, translate(err, "sellers")
	}
	return sellers, total, nil
}

func (s *moderationService) ListPendingProducts(ctx context.Context, page, limit int) ([]*models.Product, int64, error) {
	page, limit = NormalizePage(page, limit)
	products, total, err := s.products.FindByApprovalState(ctx, models.ApprovalPending, page, limit)
	if err != nil {
		return nil, 0, translate(err, "products")
	}
	return products, total, nil
}

func (s *moderationService) ListBlacklistedSellers(ctx context.Context, state models.BlacklistState, page, limit int) ([]*models.Seller, int64, error) {
	switch state {
	case "":
		state = models.BlacklistStateActive
	case models.BlacklistStateActive, models.BlacklistStateExpired, models.BlacklistStateAll:
	default:
		return nil, 0, validationf("state must be one of active, expired, all")
	}
	page, limit = NormalizePage(page, limit)
	sellers, total, err := s.sellers.FindBlacklisted(ctx, state, s.now().UTC(), page, limit)
	if err != nil {
		return nil, 0, translate(err, "sellers")
	}
	return sellers, total, nil
}

func (s *moderationService) BlacklistStats(ctx context.Context) (*models.BlacklistStats, error) {
	stats, err := s.sellers.BlacklistStats(ctx, s.now().UTC())
	if err != nil {
		return nil, translate(err, "blacklist stats")
	}
	if stats.PendingSellers, err = s.sellers.CountByStatus(ctx, models.SellerStatusPending); err != nil {
		return nil, translate(err, "pending sellers")
	}
	if stats.PendingProducts, err = s.products.CountByApprovalState(ctx, models.ApprovalPending); err != nil {
		return nil, translate(err, "pending products")
	}
	return stats, nil
}

func (s *moderationService) ListAudit(ctx context.Context, targetID *primitive.ObjectID, page, limit int) ([]*models.ModerationEvent, int64, error) {
	page, limit = NormalizePage(page, limit)
	entries, total, err := s.audit.Find(ctx, targetID, page, limit)
	if err != nil {
		return nil, 0, translate(err, "audit")
	}
	return entries, total, nil
}

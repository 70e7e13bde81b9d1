package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/ArowuTest/marketplace-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound is returned when no document matches the given id
	ErrNotFound = errors.New("document not found")
	// ErrPreconditionFailed is returned by conditional updates when the
	// document exists but is not in the expected pre-state
	ErrPreconditionFailed = errors.New("document not in expected state")
	// ErrDuplicate is returned when a unique key is already taken
	ErrDuplicate = errors.New("duplicate key")
)

// SellerRepository defines the interface for seller data operations
type SellerRepository interface {
	Create(ctx context.Context, seller *models.Seller) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Seller, error)
	FindByEmail(ctx context.Context, email string) (*models.Seller, error)
	FindByStatus(ctx context.Context, status models.SellerStatus, page, limit int) ([]*models.Seller, int64, error)
	CountByStatus(ctx context.Context, status models.SellerStatus) (int64, error)
	// TransitionStatus moves a seller from one status to another only if
	// the stored status still equals from.
	TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to models.SellerStatus, review models.Review) error
	// SetBlacklist blacklists a seller that is not currently blacklisted at now.
	SetBlacklist(ctx context.Context, id primitive.ObjectID, entry models.BlacklistEntry, now time.Time) error
	// ClearBlacklist removes the blacklist of a seller flagged as blacklisted.
	ClearBlacklist(ctx context.Context, id primitive.ObjectID, now time.Time) error
	FindBlacklisted(ctx context.Context, state models.BlacklistState, now time.Time, page, limit int) ([]*models.Seller, int64, error)
	BlacklistStats(ctx context.Context, now time.Time) (*models.BlacklistStats, error)
	// ClearExpiredBlacklists nulls out blacklist fields whose expiry is before now.
	ClearExpiredBlacklists(ctx context.Context, now time.Time) (int64, error)
}

// ProductRepository defines the interface for product data operations
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	// Update replaces the editable fields of a product owned by
	// product.SellerID, provided its stored approval state still equals
	// expected. A concurrent review makes it fail with ErrPreconditionFailed.
	Update(ctx context.Context, product *models.Product, expected models.ApprovalState) error
	FindBySeller(ctx context.Context, sellerID primitive.ObjectID, page, limit int) ([]*models.Product, int64, error)
	FindByApprovalState(ctx context.Context, state models.ApprovalState, page, limit int) ([]*models.Product, int64, error)
	CountByApprovalState(ctx context.Context, state models.ApprovalState) (int64, error)
	// TransitionApproval moves a product between approval states only if the
	// stored state still equals from, setting the lifecycle status to status.
	TransitionApproval(ctx context.Context, id primitive.ObjectID, from, to models.ApprovalState, status models.ProductStatus, review models.Review) error
	// FindStorefront returns approved, active products whose seller is not
	// blacklisted at now.
	FindStorefront(ctx context.Context, now time.Time, page, limit int) ([]*models.Product, int64, error)
}

// ProductImageRepository defines the interface for product image records
type ProductImageRepository interface {
	CreateMany(ctx context.Context, images []*models.ProductImage) error
	FindByProduct(ctx context.Context, productID primitive.ObjectID) ([]*models.ProductImage, error)
}

// AdminUserRepository defines the interface for admin user data operations
type AdminUserRepository interface {
	Create(ctx context.Context, adminUser *models.AdminUser) error
	FindByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.AdminUser, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error
}

// AuditRepository defines the interface for the moderation audit trail
type AuditRepository interface {
	Append(ctx context.Context, event *models.ModerationEvent) error
	// Find lists events newest first; a nil targetID lists all targets.
	Find(ctx context.Context, targetID *primitive.ObjectID, page, limit int) ([]*models.ModerationEvent, int64, error)
}

// TxManager runs fn in a single all-or-nothing transaction. Repository
// calls made with the context passed to fn take part in the transaction.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

package memory

import (
	"context"
	"time"

	"github.com/ArowuTest/marketplace-backend/internal/models"
	"github.com/ArowuTest/marketplace-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ repositories.ProductRepository = (*ProductRepository)(nil)

// ProductRepository is the in-memory product store
type ProductRepository struct {
	store *Store
}

func productKey(p *models.Product) (time.Time, primitive.ObjectID) { return p.CreatedAt, p.ID }

func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	defer r.store.write(ctx)()
	now := time.Now().UTC()
	product.ID = primitive.NewObjectID()
	product.CreatedAt = now
	product.UpdatedAt = now
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.products[product.ID] = *copyProduct(*product)
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	defer r.store.read(ctx)()
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	product, ok := r.store.products[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return copyProduct(product), nil
}

func (r *ProductRepository) Update(ctx context.Context, product *models.Product, expected models.ApprovalState) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	defer r.store.write(ctx)()
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.products[product.ID]
	if !ok || stored.SellerID != product.SellerID {
		return repositories.ErrNotFound
	}
	if stored.AdminApprovalState != expected {
		return repositories.ErrPreconditionFailed
	}
	product.UpdatedAt = time.Now().UTC()
	updated := *copyProduct(*product)
	updated.CreatedAt = stored.CreatedAt
	updated.ReviewedBy = stored.ReviewedBy
	updated.ReviewedAt = copyTime(stored.ReviewedAt)
	r.store.products[product.ID] = updated
	return nil
}

func (r *ProductRepository) filter(keep func(*models.Product) bool) []*models.Product {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	result := []*models.Product{}
	for _, product := range r.store.products {
		c := copyProduct(product)
		if keep(c) {
			result = append(result, c)
		}
	}
	return result
}

func (r *ProductRepository) FindBySeller(ctx context.Context, sellerID primitive.ObjectID, page, limit int) ([]*models.Product, int64, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, 0, err
	}
	defer r.store.read(ctx)()
	matched := r.filter(func(p *models.Product) bool {
		return p.SellerID == sellerID && p.Status != models.ProductStatusDeleted
	})
	sortByCreated(matched, productKey, false)
	return paginate(matched, page, limit), int64(len(matched)), nil
}

func (r *ProductRepository) FindByApprovalState(ctx context.Context, state models.ApprovalState, page, limit int) ([]*models.Product, int64, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, 0, err
	}
	defer r.store.read(ctx)()
	matched := r.filter(func(p *models.Product) bool {
		return p.AdminApprovalState == state && p.Status != models.ProductStatusDeleted
	})
	sortByCreated(matched, productKey, true)
	return paginate(matched, page, limit), int64(len(matched)), nil
}

func (r *ProductRepository) CountByApprovalState(ctx context.Context, state models.ApprovalState) (int64, error) {
	if err := checkCtx(ctx); err != nil {
		return 0, err
	}
	defer r.store.read(ctx)()
	matched := r.filter(func(p *models.Product) bool {
		return p.AdminApprovalState == state && p.Status != models.ProductStatusDeleted
	})
	return int64(len(matched)), nil
}

func (r *ProductRepository) TransitionApproval(ctx context.Context, id primitive.ObjectID, from, to models.ApprovalState, status models.ProductStatus, review models.Review) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	defer r.store.write(ctx)()
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.products[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if stored.AdminApprovalState != from {
		return repositories.ErrPreconditionFailed
	}
	at := review.At
	stored.AdminApprovalState = to
	stored.Status = status
	stored.RejectionReason = review.Reason
	stored.ReviewedBy = review.By
	stored.ReviewedAt = &at
	stored.UpdatedAt = review.At
	r.store.products[id] = stored
	return nil
}

func (r *ProductRepository) FindStorefront(ctx context.Context, now time.Time, page, limit int) ([]*models.Product, int64, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, 0, err
	}
	defer r.store.read(ctx)()
	r.store.mu.RLock()
	result := []*models.Product{}
	for _, product := range r.store.products {
		if product.AdminApprovalState != models.ApprovalApproved || product.Status != models.ProductStatusActive {
			continue
		}
		seller, ok := r.store.sellers[product.SellerID]
		if !ok || seller.BlacklistActiveAt(now) {
			continue
		}
		result = append(result, copyProduct(product))
	}
	r.store.mu.RUnlock()

	sortByCreated(result, productKey, false)
	return paginate(result, page, limit), int64(len(result)), nil
}

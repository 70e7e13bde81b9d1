package memory

import (
	"context"
	"strings"
	"time"

	"github.com/ArowuTest/marketplace-backend/internal/models"
	"github.com/ArowuTest/marketplace-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ repositories.SellerRepository = (*SellerRepository)(nil)

// SellerRepository is the in-memory seller store
type SellerRepository struct {
	store *Store
}

func (r *SellerRepository) Create(ctx context.Context, seller *models.Seller) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	defer r.store.write(ctx)()
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.sellers {
		if strings.EqualFold(existing.Email, seller.Email) {
			return repositories.ErrDuplicate
		}
	}
	now := time.Now().UTC()
	seller.ID = primitive.NewObjectID()
	seller.CreatedAt = now
	seller.UpdatedAt = now
	s.sellers[seller.ID] = *copySeller(*seller)
	return nil
}

func (r *SellerRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Seller, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	defer r.store.read(ctx)()
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	seller, ok := r.store.sellers[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return copySeller(seller), nil
}

func (r *SellerRepository) FindByEmail(ctx context.Context, email string) (*models.Seller, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	defer r.store.read(ctx)()
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, seller := range r.store.sellers {
		if strings.EqualFold(seller.Email, email) {
			return copySeller(seller), nil
		}
	}
	return nil, repositories.ErrNotFound
}

// filter returns copies of every seller matching keep
func (r *SellerRepository) filter(keep func(*models.Seller) bool) []*models.Seller {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	result := []*models.Seller{}
	for _, seller := range r.store.sellers {
		c := copySeller(seller)
		if keep(c) {
			result = append(result, c)
		}
	}
	return result
}

func (r *SellerRepository) FindByStatus(ctx context.Context, status models.SellerStatus, page, limit int) ([]*models.Seller, int64, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, 0, err
	}
	defer r.store.read(ctx)()
	matched := r.filter(func(s *models.Seller) bool { return s.Status == status })
	sortByCreated(matched, func(s *models.Seller) (time.Time, primitive.ObjectID) { return s.CreatedAt, s.ID }, true)
	return paginate(matched, page, limit), int64(len(matched)), nil
}

func (r *SellerRepository) CountByStatus(ctx context.Context, status models.SellerStatus) (int64, error) {
	if err := checkCtx(ctx); err != nil {
		return 0, err
	}
	defer r.store.read(ctx)()
	return int64(len(r.filter(func(s *models.Seller) bool { return s.Status == status }))), nil
}

// update applies mutate to a seller under the write lock if cond holds
func (r *SellerRepository) update(id primitive.ObjectID, cond func(*models.Seller) bool, mutate func(*models.Seller)) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.sellers[id]
	if !ok {
		return repositories.ErrNotFound
	}
	seller := copySeller(stored)
	if !cond(seller) {
		return repositories.ErrPreconditionFailed
	}
	mutate(seller)
	s.sellers[id] = *seller
	return nil
}

func (r *SellerRepository) TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to models.SellerStatus, review models.Review) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	defer r.store.write(ctx)()
	return r.update(id,
		func(s *models.Seller) bool { return s.Status == from },
		func(s *models.Seller) {
			at := review.At
			s.Status = to
			s.RejectionReason = review.Reason
			s.ReviewedBy = review.By
			s.ReviewedAt = &at
			s.UpdatedAt = review.At
		})
}

func (r *SellerRepository) SetBlacklist(ctx context.Context, id primitive.ObjectID, entry models.BlacklistEntry, now time.Time) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	defer r.store.write(ctx)()
	return r.update(id,
		func(s *models.Seller) bool { return !s.BlacklistActiveAt(now) },
		func(s *models.Seller) {
			e := entry
			e.ExpiresAt = copyTime(entry.ExpiresAt)
			s.IsBlacklisted = true
			s.Blacklist = &e
			s.UpdatedAt = now
		})
}

func (r *SellerRepository) ClearBlacklist(ctx context.Context, id primitive.ObjectID, now time.Time) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	defer r.store.write(ctx)()
	return r.update(id,
		func(s *models.Seller) bool { return s.IsBlacklisted },
		func(s *models.Seller) {
			s.IsBlacklisted = false
			s.Blacklist = nil
			s.UpdatedAt = now
		})
}

func blacklistMatches(s *models.Seller, state models.BlacklistState, now time.Time) bool {
	if !s.IsBlacklisted {
		return false
	}
	switch state {
	case models.BlacklistStateActive:
		return s.BlacklistActiveAt(now)
	case models.BlacklistStateExpired:
		return !s.BlacklistActiveAt(now)
	default:
		return true
	}
}

func (r *SellerRepository) FindBlacklisted(ctx context.Context, state models.BlacklistState, now time.Time, page, limit int) ([]*models.Seller, int64, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, 0, err
	}
	defer r.store.read(ctx)()
	matched := r.filter(func(s *models.Seller) bool { return blacklistMatches(s, state, now) })
	sortByCreated(matched, func(s *models.Seller) (time.Time, primitive.ObjectID) {
		if s.Blacklist == nil {
			return time.Time{}, s.ID
		}
		return s.Blacklist.CreatedAt, s.ID
	}, false)
	return paginate(matched, page, limit), int64(len(matched)), nil
}

func (r *SellerRepository) BlacklistStats(ctx context.Context, now time.Time) (*models.BlacklistStats, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	defer r.store.read(ctx)()
	stats := &models.BlacklistStats{GeneratedAt: now}
	for _, s := range r.filter(func(s *models.Seller) bool { return s.IsBlacklisted }) {
		stats.Total++
		if s.BlacklistActiveAt(now) {
			stats.Active++
		} else {
			stats.Expired++
		}
		if s.Blacklist == nil || s.Blacklist.ExpiresAt == nil {
			stats.Indefinite++
		}
	}
	return stats, nil
}

func (r *SellerRepository) ClearExpiredBlacklists(ctx context.Context, now time.Time) (int64, error) {
	if err := checkCtx(ctx); err != nil {
		return 0, err
	}
	defer r.store.write(ctx)()
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	var cleared int64
	for id, stored := range s.sellers {
		seller := copySeller(stored)
		if !seller.IsBlacklisted || seller.BlacklistActiveAt(now) {
			continue
		}
		seller.IsBlacklisted = false
		seller.Blacklist = nil
		seller.UpdatedAt = now
		s.sellers[id] = *seller
		cleared++
	}
	return cleared, nil
}

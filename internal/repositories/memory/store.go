// Package memory holds in-process implementations of the repository
// interfaces. They back the "memory" store driver and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ArowuTest/marketplace-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store is the shared state behind every memory repository
type Store struct {
	mu       sync.RWMutex
	sellers  map[primitive.ObjectID]models.Seller
	products map[primitive.ObjectID]models.Product
	images   map[primitive.ObjectID]models.ProductImage
	admins   map[primitive.ObjectID]models.AdminUser
	audit    []models.ModerationEvent

	// txMu is held exclusively by a running transaction, so no other
	// caller can observe or overwrite its uncommitted writes
	txMu sync.RWMutex
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		sellers:  make(map[primitive.ObjectID]models.Seller),
		products: make(map[primitive.ObjectID]models.Product),
		images:   make(map[primitive.ObjectID]models.ProductImage),
		admins:   make(map[primitive.ObjectID]models.AdminUser),
	}
}

// Repositories bundles every repository backed by one store
type Repositories struct {
	Sellers   *SellerRepository
	Products  *ProductRepository
	Images    *ProductImageRepository
	Admins    *AdminUserRepository
	Audit     *AuditRepository
	TxManager *TxManager
}

// NewRepositories creates all memory repositories over a fresh store
func NewRepositories() *Repositories {
	s := NewStore()
	return &Repositories{
		Sellers:   &SellerRepository{store: s},
		Products:  &ProductRepository{store: s},
		Images:    &ProductImageRepository{store: s},
		Admins:    &AdminUserRepository{store: s},
		Audit:     &AuditRepository{store: s},
		TxManager: &TxManager{store: s},
	}
}

type txKey struct{}

// inTx reports whether ctx belongs to a transaction running on s
func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// read waits for any running transaction and returns the release func.
// Calls made inside a transaction already hold the lock.
func (s *Store) read(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.txMu.RLock()
	return s.txMu.RUnlock
}

// write is read for mutations: it excludes transactions and other writers
func (s *Store) write(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.txMu.Lock()
	return s.txMu.Unlock
}

func checkCtx(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func copySeller(s models.Seller) *models.Seller {
	s.ReviewedAt = copyTime(s.ReviewedAt)
	if s.Blacklist != nil {
		entry := *s.Blacklist
		entry.ExpiresAt = copyTime(entry.ExpiresAt)
		s.Blacklist = &entry
	}
	return &s
}

func copyProduct(p models.Product) *models.Product {
	p.ReviewedAt = copyTime(p.ReviewedAt)
	p.Images = nil
	return &p
}

// earlier orders by creation time, then by id for documents created in the
// same instant
func earlier(a, b time.Time, aID, bID primitive.ObjectID) bool {
	if !a.Equal(b) {
		return a.Before(b)
	}
	return aID.Hex() < bID.Hex()
}

func sortByCreated[T any](items []*T, key func(*T) (time.Time, primitive.ObjectID), asc bool) {
	sort.Slice(items, func(i, j int) bool {
		ti, ii := key(items[i])
		tj, ij := key(items[j])
		if asc {
			return earlier(ti, tj, ii, ij)
		}
		return earlier(tj, ti, ij, ii)
	})
}

// paginate slices a sorted result for a 1-based page
func paginate[T any](items []*T, page, limit int) []*T {
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []*T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

package memory

import (
	"context"

	"github.com/ArowuTest/marketplace-backend/internal/models"
	"github.com/ArowuTest/marketplace-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ repositories.TxManager = (*TxManager)(nil)

// TxManager gives memory repositories all-or-nothing semantics: it
// snapshots the store before fn and restores the snapshot if fn fails.
// A transaction holds the store exclusively until it commits or rolls
// back; repository calls made with any other context wait for it. A
// nested RunInTx joins the outer transaction.
type TxManager struct {
	store *Store
}

type snapshot struct {
	sellers  map[primitive.ObjectID]models.Seller
	products map[primitive.ObjectID]models.Product
	images   map[primitive.ObjectID]models.ProductImage
	admins   map[primitive.ObjectID]models.AdminUser
	audit    []models.ModerationEvent
}

func (m *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	s := m.store
	if s.inTx(ctx) {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := snapshot{
		sellers:  make(map[primitive.ObjectID]models.Seller, len(s.sellers)),
		products: make(map[primitive.ObjectID]models.Product, len(s.products)),
		images:   make(map[primitive.ObjectID]models.ProductImage, len(s.images)),
		admins:   make(map[primitive.ObjectID]models.AdminUser, len(s.admins)),
		audit:    append([]models.ModerationEvent(nil), s.audit...),
	}
	for k, v := range s.sellers {
		snap.sellers[k] = *copySeller(v)
	}
	for k, v := range s.products {
		snap.products[k] = *copyProduct(v)
	}
	for k, v := range s.images {
		snap.images[k] = v
	}
	for k, v := range s.admins {
		snap.admins[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sellers = snap.sellers
	s.products = snap.products
	s.images = snap.images
	s.admins = snap.admins
	s.audit = snap.audit
}

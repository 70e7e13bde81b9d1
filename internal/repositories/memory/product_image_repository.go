package memory

import (
	"context"
	"sort"
	"time"

	"github.com/ArowuTest/marketplace-backend/internal/models"
	"github.com/ArowuTest/marketplace-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ repositories.ProductImageRepository = (*ProductImageRepository)(nil)

// ProductImageRepository is the in-memory product image store
type ProductImageRepository struct {
	store *Store
}

func (r *ProductImageRepository) CreateMany(ctx context.Context, images []*models.ProductImage) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	defer r.store.write(ctx)()
	now := time.Now().UTC()
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, img := range images {
		img.ID = primitive.NewObjectID()
		img.CreatedAt = now
		r.store.images[img.ID] = *img
	}
	return nil
}

func (r *ProductImageRepository) FindByProduct(ctx context.Context, productID primitive.ObjectID) ([]*models.ProductImage, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	defer r.store.read(ctx)()
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	images := []*models.ProductImage{}
	for _, img := range r.store.images {
		if img.ProductID == productID {
			c := img
			images = append(images, &c)
		}
	}
	sort.Slice(images, func(i, j int) bool { return images[i].Position < images[j].Position })
	return images, nil
}

package memory

import (
	"context"
	"strings"
	"time"

	"github.com/ArowuTest/marketplace-backend/internal/models"
	"github.com/ArowuTest/marketplace-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var _ repositories.AdminUserRepository = (*AdminUserRepository)(nil)

// AdminUserRepository is the in-memory admin user store
type AdminUserRepository struct {
	store *Store
}

func (r *AdminUserRepository) Create(ctx context.Context, adminUser *models.AdminUser) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	defer r.store.write(ctx)()
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.admins {
		if strings.EqualFold(existing.Email, adminUser.Email) {
			return repositories.ErrDuplicate
		}
	}
	now := time.Now().UTC()
	adminUser.ID = primitive.NewObjectID()
	adminUser.CreatedAt = now
	adminUser.UpdatedAt = now
	r.store.admins[adminUser.ID] = *adminUser
	return nil
}

func (r *AdminUserRepository) FindByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	defer r.store.read(ctx)()
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, admin := range r.store.admins {
		if strings.EqualFold(admin.Email, email) {
			c := admin
			return &c, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *AdminUserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.AdminUser, error) {
	if err := checkCtx(ctx); err != nil {
		return nil, err
	}
	defer r.store.read(ctx)()
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	admin, ok := r.store.admins[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &admin, nil
}

func (r *AdminUserRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	defer r.store.write(ctx)()
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	admin, ok := r.store.admins[id]
	if !ok {
		return repositories.ErrNotFound
	}
	admin.Password = passwordHash
	admin.UpdatedAt = time.Now().UTC()
	r.store.admins[id] = admin
	return nil
}

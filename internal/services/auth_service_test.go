package services

import (
	"context"
	"testing"
	"time"

	"github.com/ArowuTest/marketplace-backend/internal/cache"
	"github.com/ArowuTest/marketplace-backend/internal/models"
	"github.com/ArowuTest/marketplace-backend/internal/repositories/memory"
	"github.com/ArowuTest/marketplace-backend/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) (AuthService, *jwt.Manager, *cache.MemoryRevocationStore) {
	t.Helper()
	repos := memory.NewRepositories()
	tokens := jwt.NewManager("test-secret", time.Hour)
	revocation := cache.NewMemoryRevocationStore()
	return NewAuthService(repos.Sellers, repos.Admins, tokens, revocation, nil), tokens, revocation
}

func TestRegisterAndLoginSeller(t *testing.T) {
	ctx := context.Background()
	auth, tokens, _ := newAuthService(t)

	seller, err := auth.RegisterSeller(ctx, &models.SellerRegisterRequest{
		Email:     "Shop@Example.com",
		Password:  "correct-horse",
		StoreName: "Corner Shop!",
	})
	require.NoError(t, err)
	assert.Equal(t, "shop@example.com", seller.Email)
	assert.Equal(t, "corner-shop", seller.StoreSlug)
	assert.Equal(t, models.SellerStatusPending, seller.Status)
	assert.Empty(t, seller.Password)

	_, err = auth.RegisterSeller(ctx, &models.SellerRegisterRequest{Email: "shop@example.com", Password: "another-pass", StoreName: "Other"})
	assert.ErrorIs(t, err, ErrValidation)

	resp, err := auth.LoginSeller(ctx, &models.LoginRequest{Email: "shop@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleSeller, resp.Role)
	assert.Equal(t, seller.ID.Hex(), resp.Subject)

	claims, err := tokens.Parse(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSeller, claims.Role)

	_, err = auth.LoginSeller(ctx, &models.LoginRequest{Email: "shop@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = auth.LoginSeller(ctx, &models.LoginRequest{Email: "nobody@example.com", Password: "correct-horse"})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = auth.LoginAdmin(ctx, &models.LoginRequest{Email: "shop@example.com", Password: "correct-horse"})
	assert.ErrorIs(t, err, ErrUnauthorized, "seller credentials do not open the admin portal")
}

func TestEnsureAdminCreatesThenResets(t *testing.T) {
	ctx := context.Background()
	auth, _, _ := newAuthService(t)

	admin, created, err := auth.EnsureAdmin(ctx, "root@example.com", "first-password", "Ada", "Admin")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	_, err = auth.LoginAdmin(ctx, &models.LoginRequest{Email: "root@example.com", Password: "first-password"})
	require.NoError(t, err)

	_, created, err = auth.EnsureAdmin(ctx, "root@example.com", "second-password", "", "")
	require.NoError(t, err)
	assert.False(t, created)

	_, err = auth.LoginAdmin(ctx, &models.LoginRequest{Email: "root@example.com", Password: "first-password"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	resp, err := auth.LoginAdmin(ctx, &models.LoginRequest{Email: "root@example.com", Password: "second-password"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, resp.Role)

	_, _, err = auth.EnsureAdmin(ctx, "x@example.com", "short", "", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLogoutRevokesToken(t *testing.T) {
	ctx := context.Background()
	auth, tokens, revocation := newAuthService(t)

	_, claims, err := tokens.Issue("seller-1", "s@example.com", models.RoleSeller)
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, claims.ID, claims.ExpiresAt.Time))
	revoked, err := revocation.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "corner-shop", Slugify("  Corner   Shop  "))
	assert.Equal(t, "a-b-c", Slugify("A/B & C"))
	assert.Equal(t, "", Slugify("!!!"))
}

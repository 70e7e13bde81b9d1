package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ArowuTest/marketplace-backend/internal/models"
	"github.com/ArowuTest/marketplace-backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newSeller(t *testing.T, repos *Repositories, email string) *models.Seller {
	t.Helper()
	s := &models.Seller{Email: email, StoreName: "Shop", Status: models.SellerStatusPending}
	require.NoError(t, repos.Sellers.Create(context.Background(), s))
	return s
}

func TestRunInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories()
	seller := newSeller(t, repos, "a@example.com")

	var productID primitive.ObjectID
	boom := errors.New("boom")
	err := repos.TxManager.RunInTx(ctx, func(ctx context.Context) error {
		p := &models.Product{SellerID: seller.ID, Name: "Lamp"}
		if err := repos.Products.Create(ctx, p); err != nil {
			return err
		}
		productID = p.ID
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = repos.Products.FindByID(ctx, productID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	_, err = repos.Sellers.FindByID(ctx, seller.ID)
	assert.NoError(t, err, "writes made before the transaction survive a rollback")
}

func TestRunInTxCommits(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories()
	seller := newSeller(t, repos, "a@example.com")

	p := &models.Product{SellerID: seller.ID, Name: "Lamp"}
	require.NoError(t, repos.TxManager.RunInTx(ctx, func(ctx context.Context) error {
		if err := repos.Products.Create(ctx, p); err != nil {
			return err
		}
		return repos.Images.CreateMany(ctx, []*models.ProductImage{{ProductID: p.ID, URL: "https://img/1"}})
	}))

	images, err := repos.Images.FindByProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, images, 1)
}

func TestSellerCreateRejectsDuplicateEmail(t *testing.T) {
	repos := NewRepositories()
	newSeller(t, repos, "a@example.com")
	err := repos.Sellers.Create(context.Background(), &models.Seller{Email: "A@example.com"})
	assert.ErrorIs(t, err, repositories.ErrDuplicate)
}

func TestTransitionStatusPrecondition(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories()
	seller := newSeller(t, repos, "a@example.com")
	review := models.Review{By: "admin", At: time.Now().UTC()}

	require.NoError(t, repos.Sellers.TransitionStatus(ctx, seller.ID, models.SellerStatusPending, models.SellerStatusApproved, review))
	err := repos.Sellers.TransitionStatus(ctx, seller.ID, models.SellerStatusPending, models.SellerStatusRejected, review)
	assert.ErrorIs(t, err, repositories.ErrPreconditionFailed)

	err = repos.Sellers.TransitionStatus(ctx, primitive.NewObjectID(), models.SellerStatusPending, models.SellerStatusApproved, review)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestBlacklistStatesAndSweep(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	active := newSeller(t, repos, "active@example.com")
	expired := newSeller(t, repos, "expired@example.com")
	forever := newSeller(t, repos, "forever@example.com")
	newSeller(t, repos, "clean@example.com")

	future := now.Add(24 * time.Hour)
	past := now.Add(-time.Hour)
	require.NoError(t, repos.Sellers.SetBlacklist(ctx, active.ID, models.BlacklistEntry{Reason: "spam", CreatedAt: now, ExpiresAt: &future}, now))
	require.NoError(t, repos.Sellers.SetBlacklist(ctx, expired.ID, models.BlacklistEntry{Reason: "late", CreatedAt: now.Add(-48 * time.Hour), ExpiresAt: &past}, now.Add(-48*time.Hour)))
	require.NoError(t, repos.Sellers.SetBlacklist(ctx, forever.ID, models.BlacklistEntry{Reason: "fraud", CreatedAt: now}, now))

	err := repos.Sellers.SetBlacklist(ctx, active.ID, models.BlacklistEntry{Reason: "again", CreatedAt: now}, now)
	assert.ErrorIs(t, err, repositories.ErrPreconditionFailed)

	_, total, err := repos.Sellers.FindBlacklisted(ctx, models.BlacklistStateActive, now, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	items, total, err := repos.Sellers.FindBlacklisted(ctx, models.BlacklistStateExpired, now, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, expired.ID, items[0].ID)

	stats, err := repos.Sellers.BlacklistStats(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.Total)
	assert.EqualValues(t, 2, stats.Active)
	assert.EqualValues(t, 1, stats.Expired)
	assert.EqualValues(t, 1, stats.Indefinite)

	cleared, err := repos.Sellers.ClearExpiredBlacklists(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, cleared)

	got, err := repos.Sellers.FindByID(ctx, expired.ID)
	require.NoError(t, err)
	assert.False(t, got.IsBlacklisted)
	assert.Nil(t, got.Blacklist)
}

func TestFindStorefrontHidesBlacklistedSellers(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories()
	now := time.Now().UTC()

	good := newSeller(t, repos, "good@example.com")
	bad := newSeller(t, repos, "bad@example.com")
	until := now.Add(time.Hour)
	require.NoError(t, repos.Sellers.SetBlacklist(ctx, bad.ID, models.BlacklistEntry{Reason: "x", CreatedAt: now, ExpiresAt: &until}, now))

	for _, sellerID := range []primitive.ObjectID{good.ID, bad.ID} {
		p := &models.Product{SellerID: sellerID, Name: "Item", Status: models.ProductStatusActive, AdminApprovalState: models.ApprovalApproved}
		require.NoError(t, repos.Products.Create(ctx, p))
	}
	require.NoError(t, repos.Products.Create(ctx, &models.Product{SellerID: good.ID, Name: "Draft", Status: models.ProductStatusPending, AdminApprovalState: models.ApprovalPending}))

	items, total, err := repos.Products.FindStorefront(ctx, now, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, good.ID, items[0].SellerID)

	_, total, err = repos.Products.FindStorefront(ctx, until.Add(time.Second), 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestPaginate(t *testing.T) {
	items := []*int{new(int), new(int), new(int)}
	assert.Len(t, paginate(items, 1, 2), 2)
	assert.Len(t, paginate(items, 2, 2), 1)
	assert.Empty(t, paginate(items, 3, 2))
	assert.Len(t, paginate(items, 0, 2), 2)
}

func TestRunInTxIsolatesOutsideCallers(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories()
	seller := newSeller(t, repos, "a@example.com")

	boom := errors.New("boom")
	started := make(chan struct{})
	done := make(chan struct{})
	var (
		seen      int64
		findErr   error
		createErr error
	)

	err := repos.TxManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := repos.Products.Create(txCtx, &models.Product{SellerID: seller.ID, Name: "Lamp"}); err != nil {
			return err
		}
		go func() {
			defer close(done)
			close(started)
			_, seen, findErr = repos.Products.FindBySeller(ctx, seller.ID, 1, 20)
			createErr = repos.Sellers.Create(ctx, &models.Seller{Email: "b@example.com"})
		}()
		<-started
		time.Sleep(20 * time.Millisecond)
		return boom
	})
	require.ErrorIs(t, err, boom)
	<-done

	require.NoError(t, findErr)
	assert.Zero(t, seen, "uncommitted products are not visible outside the transaction")
	require.NoError(t, createErr)

	_, err = repos.Sellers.FindByEmail(ctx, "b@example.com")
	assert.NoError(t, err, "a write waiting on a transaction survives its rollback")
}

func TestNestedRunInTxJoinsOuter(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories()
	seller := newSeller(t, repos, "a@example.com")

	boom := errors.New("boom")
	p := &models.Product{SellerID: seller.ID, Name: "Lamp"}
	err := repos.TxManager.RunInTx(ctx, func(ctx context.Context) error {
		if err := repos.TxManager.RunInTx(ctx, func(ctx context.Context) error {
			return repos.Products.Create(ctx, p)
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = repos.Products.FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestProductUpdateRequiresExpectedApprovalState(t *testing.T) {
	ctx := context.Background()
	repos := NewRepositories()
	seller := newSeller(t, repos, "a@example.com")
	p := &models.Product{SellerID: seller.ID, Name: "Lamp", Status: models.ProductStatusPending, AdminApprovalState: models.ApprovalPending}
	require.NoError(t, repos.Products.Create(ctx, p))

	review := models.Review{By: "admin", At: time.Now().UTC()}
	require.NoError(t, repos.Products.TransitionApproval(ctx, p.ID, models.ApprovalPending, models.ApprovalApproved, models.ProductStatusActive, review))

	p.Status = models.ProductStatusDraft
	err := repos.Products.Update(ctx, p, models.ApprovalPending)
	assert.ErrorIs(t, err, repositories.ErrPreconditionFailed)

	stored, err := repos.Products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, stored.AdminApprovalState)
	assert.Equal(t, models.ProductStatusActive, stored.Status)

	other := *p
	other.SellerID = primitive.NewObjectID()
	err = repos.Products.Update(ctx, &other, models.ApprovalApproved)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

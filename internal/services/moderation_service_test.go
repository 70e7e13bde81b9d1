package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ArowuTest/marketplace-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ModerationServiceTestSuite struct {
	suite.Suite
	f   *fixture
	ctx context.Context
}

func (s *ModerationServiceTestSuite) SetupTest() {
	s.f = newFixture()
	s.ctx = context.Background()
}

func TestModerationServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ModerationServiceTestSuite))
}

func (s *ModerationServiceTestSuite) TestApproveSeller() {
	seller := s.f.seller("a@example.com")

	got, err := s.f.moderation.ApproveSeller(s.ctx, s.f.admin, seller.ID)
	s.Require().NoError(err)
	s.Equal(models.SellerStatusApproved, got.Status)
	s.Equal("admin-1", got.ReviewedBy)
	s.Require().NotNil(got.ReviewedAt)
	s.True(got.ReviewedAt.Equal(s.f.clock.Now()))

	entries, total, err := s.f.moderation.ListAudit(s.ctx, &seller.ID, 1, 20)
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Equal(models.ActionSellerApproved, entries[0].Action)
	s.Equal("pending", entries[0].OldStatus)
	s.Equal("approved", entries[0].NewStatus)
	s.Equal([]models.ModerationAction{models.ActionSellerApproved}, s.f.publisher.Actions())
}

func (s *ModerationServiceTestSuite) TestApproveThenRejectIsInvalidTransition() {
	seller := s.f.seller("a@example.com")

	_, err := s.f.moderation.ApproveSeller(s.ctx, s.f.admin, seller.ID)
	s.Require().NoError(err)

	_, err = s.f.moderation.RejectSeller(s.ctx, s.f.admin, seller.ID, "incomplete documents")
	s.ErrorIs(err, ErrInvalidTransition)

	_, err = s.f.moderation.ApproveSeller(s.ctx, s.f.admin, seller.ID)
	s.ErrorIs(err, ErrInvalidTransition, "re-approving is an error, not a silent no-op")

	_, total, err := s.f.moderation.ListAudit(s.ctx, &seller.ID, 1, 20)
	s.Require().NoError(err)
	s.EqualValues(1, total, "failed transitions leave no audit record")
}

func (s *ModerationServiceTestSuite) TestRejectSellerRequiresReason() {
	seller := s.f.seller("a@example.com")

	for _, reason := range []string{"", "   "} {
		_, err := s.f.moderation.RejectSeller(s.ctx, s.f.admin, seller.ID, reason)
		s.ErrorIs(err, ErrValidation)
	}

	got, err := s.f.repos.Sellers.FindByID(s.ctx, seller.ID)
	s.Require().NoError(err)
	s.Equal(models.SellerStatusPending, got.Status)
}

func (s *ModerationServiceTestSuite) TestRejectSellerStoresReason() {
	seller := s.f.seller("a@example.com")

	got, err := s.f.moderation.RejectSeller(s.ctx, s.f.admin, seller.ID, "  missing tax id ")
	s.Require().NoError(err)
	s.Equal(models.SellerStatusRejected, got.Status)
	s.Equal("missing tax id", got.RejectionReason)
}

func (s *ModerationServiceTestSuite) TestUnknownSellerIsNotFound() {
	id := primitive.NewObjectID()

	_, err := s.f.moderation.ApproveSeller(s.ctx, s.f.admin, id)
	s.ErrorIs(err, ErrNotFound)
	_, err = s.f.moderation.BlacklistSeller(s.ctx, s.f.admin, BlacklistInput{SellerID: id, Reason: "x"})
	s.ErrorIs(err, ErrNotFound)
	_, err = s.f.moderation.UnblacklistSeller(s.ctx, s.f.admin, id)
	s.ErrorIs(err, ErrNotFound)
}

func (s *ModerationServiceTestSuite) TestMissingActorIsUnauthorized() {
	seller := s.f.seller("a@example.com")
	_, err := s.f.moderation.ApproveSeller(s.ctx, Actor{}, seller.ID)
	s.ErrorIs(err, ErrUnauthorized)
}

func (s *ModerationServiceTestSuite) TestConcurrentApproveHasOneWinner() {
	seller := s.f.seller("a@example.com")

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.f.moderation.ApproveSeller(s.ctx, s.f.admin, seller.ID)
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrInvalidTransition):
			conflicts++
		default:
			s.Failf("unexpected error", "%v", err)
		}
	}
	s.Equal(1, ok)
	s.Equal(callers-1, conflicts)
}

func (s *ModerationServiceTestSuite) TestBlacklistDefaultsToThirtyDays() {
	seller := s.f.seller("a@example.com")

	got, err := s.f.moderation.BlacklistSeller(s.ctx, s.f.admin, BlacklistInput{SellerID: seller.ID, Reason: "counterfeit goods"})
	s.Require().NoError(err)
	s.True(got.IsBlacklisted)
	s.Require().NotNil(got.Blacklist)
	s.Equal("counterfeit goods", got.Blacklist.Reason)
	s.Require().NotNil(got.Blacklist.ExpiresAt)
	s.True(got.Blacklist.ExpiresAt.Equal(s.f.clock.Now().Add(30*24*time.Hour)))
	s.Equal("admin-1", got.Blacklist.CreatedBy)
}

func (s *ModerationServiceTestSuite) TestBlacklistPermanent() {
	seller := s.f.seller("a@example.com")

	got, err := s.f.moderation.BlacklistSeller(s.ctx, s.f.admin, BlacklistInput{SellerID: seller.ID, Reason: "fraud", Permanent: true})
	s.Require().NoError(err)
	s.Nil(got.Blacklist.ExpiresAt)

	s.f.clock.Advance(365 * 24 * time.Hour)
	d, err := s.f.gate.CheckSeller(s.ctx, seller.ID)
	s.Require().NoError(err)
	s.False(d.Allowed)
}

func (s *ModerationServiceTestSuite) TestBlacklistValidation() {
	seller := s.f.seller("a@example.com")
	now := s.f.clock.Now()
	past := now.Add(-time.Second)
	future := now.Add(time.Hour)

	cases := []struct {
		name  string
		input BlacklistInput
	}{
		{"empty reason", BlacklistInput{SellerID: seller.ID}},
		{"blank reason", BlacklistInput{SellerID: seller.ID, Reason: " \t"}},
		{"expiry in the past", BlacklistInput{SellerID: seller.ID, Reason: "x", ExpiresAt: &past}},
		{"expiry equal to now", BlacklistInput{SellerID: seller.ID, Reason: "x", ExpiresAt: &now}},
		{"permanent with expiry", BlacklistInput{SellerID: seller.ID, Reason: "x", ExpiresAt: &future, Permanent: true}},
	}
	for _, tc := range cases {
		_, err := s.f.moderation.BlacklistSeller(s.ctx, s.f.admin, tc.input)
		s.ErrorIs(err, ErrValidation, tc.name)
	}

	got, err := s.f.repos.Sellers.FindByID(s.ctx, seller.ID)
	s.Require().NoError(err)
	s.False(got.IsBlacklisted)
}

func (s *ModerationServiceTestSuite) TestBlacklistTwiceIsInvalidTransition() {
	seller := s.f.seller("a@example.com")
	_, err := s.f.moderation.BlacklistSeller(s.ctx, s.f.admin, BlacklistInput{SellerID: seller.ID, Reason: "spam"})
	s.Require().NoError(err)

	_, err = s.f.moderation.BlacklistSeller(s.ctx, s.f.admin, BlacklistInput{SellerID: seller.ID, Reason: "more spam"})
	s.ErrorIs(err, ErrInvalidTransition)
}

func (s *ModerationServiceTestSuite) TestExpiredBlacklistCanBeReapplied() {
	seller := s.f.seller("a@example.com")
	until := s.f.clock.Now().Add(time.Hour)
	_, err := s.f.moderation.BlacklistSeller(s.ctx, s.f.admin, BlacklistInput{SellerID: seller.ID, Reason: "spam", ExpiresAt: &until})
	s.Require().NoError(err)

	s.f.clock.Advance(2 * time.Hour)
	got, err := s.f.moderation.BlacklistSeller(s.ctx, s.f.admin, BlacklistInput{SellerID: seller.ID, Reason: "spam again"})
	s.Require().NoError(err)
	s.Equal("spam again", got.Blacklist.Reason)
}

func (s *ModerationServiceTestSuite) TestUnblacklist() {
	seller := s.f.seller("a@example.com")

	_, err := s.f.moderation.UnblacklistSeller(s.ctx, s.f.admin, seller.ID)
	s.ErrorIs(err, ErrInvalidTransition)

	_, err = s.f.moderation.BlacklistSeller(s.ctx, s.f.admin, BlacklistInput{SellerID: seller.ID, Reason: "spam"})
	s.Require().NoError(err)

	s.f.clock.Advance(time.Hour)
	got, err := s.f.moderation.UnblacklistSeller(s.ctx, s.f.admin, seller.ID)
	s.Require().NoError(err)
	s.False(got.IsBlacklisted)
	s.Nil(got.Blacklist)
	s.True(s.f.clock.Now().Equal(got.UpdatedAt), "unblacklisting stamps the service clock")
	s.Equal([]models.ModerationAction{models.ActionSellerBlacklisted, models.ActionSellerUnblacklisted}, s.f.publisher.Actions())
}

func (s *ModerationServiceTestSuite) TestBlacklistGatesProductMutationUntilExpiry() {
	seller := s.f.seller("a@example.com")
	until := s.f.clock.Now().Add(48 * time.Hour)
	_, err := s.f.moderation.BlacklistSeller(s.ctx, s.f.admin, BlacklistInput{SellerID: seller.ID, Reason: "chargebacks", ExpiresAt: &until})
	s.Require().NoError(err)

	_, err = s.f.catalog.CreateProduct(s.ctx, seller.ID, ProductInput{Name: "Mug", Price: 5})
	s.Require().ErrorIs(err, ErrForbidden)
	var gateErr *GatingError
	s.Require().ErrorAs(err, &gateErr)
	s.Equal("chargebacks", gateErr.Reason)
	s.True(gateErr.ExpiresAt.Equal(until))

	s.f.clock.Advance(48 * time.Hour)
	_, err = s.f.catalog.CreateProduct(s.ctx, seller.ID, ProductInput{Name: "Mug", Price: 5})
	s.ErrorIs(err, ErrForbidden, "an expiry equal to now still blocks")

	s.f.clock.Advance(time.Millisecond)
	_, err = s.f.catalog.CreateProduct(s.ctx, seller.ID, ProductInput{Name: "Mug", Price: 5})
	s.NoError(err)
}

func (s *ModerationServiceTestSuite) TestApproveProductActivatesPendingProduct() {
	seller := s.f.seller("a@example.com")
	product := s.f.product(seller.ID, models.ApprovalPending, models.ProductStatusPending)

	got, err := s.f.moderation.ApproveProduct(s.ctx, s.f.admin, product.ID)
	s.Require().NoError(err)
	s.Equal(models.ApprovalApproved, got.AdminApprovalState)
	s.Equal(models.ProductStatusActive, got.Status)

	_, err = s.f.moderation.RejectProduct(s.ctx, s.f.admin, product.ID, "blurry photos")
	s.ErrorIs(err, ErrInvalidTransition)
}

func (s *ModerationServiceTestSuite) TestApproveProductKeepsSellerChosenStatus() {
	seller := s.f.seller("a@example.com")
	product := s.f.product(seller.ID, models.ApprovalPending, models.ProductStatusDraft)

	got, err := s.f.moderation.ApproveProduct(s.ctx, s.f.admin, product.ID)
	s.Require().NoError(err)
	s.Equal(models.ProductStatusDraft, got.Status)
}

func (s *ModerationServiceTestSuite) TestRejectProduct() {
	seller := s.f.seller("a@example.com")
	product := s.f.product(seller.ID, models.ApprovalPending, models.ProductStatusPending)

	_, err := s.f.moderation.RejectProduct(s.ctx, s.f.admin, product.ID, "")
	s.ErrorIs(err, ErrValidation)

	got, err := s.f.moderation.RejectProduct(s.ctx, s.f.admin, product.ID, "prohibited item")
	s.Require().NoError(err)
	s.Equal(models.ApprovalRejected, got.AdminApprovalState)
	s.Equal(models.ProductStatusRejected, got.Status)
	s.Equal("prohibited item", got.RejectionReason)

	_, err = s.f.moderation.ApproveProduct(s.ctx, s.f.admin, primitive.NewObjectID())
	s.ErrorIs(err, ErrNotFound)
}

func (s *ModerationServiceTestSuite) TestDeletedProductCannotBeModerated() {
	seller := s.f.seller("a@example.com")
	product := s.f.product(seller.ID, models.ApprovalPending, models.ProductStatusDeleted)

	_, err := s.f.moderation.ApproveProduct(s.ctx, s.f.admin, product.ID)
	s.ErrorIs(err, ErrInvalidTransition)
}

func (s *ModerationServiceTestSuite) TestListsAndStats() {
	a := s.f.seller("a@example.com")
	b := s.f.seller("b@example.com")
	c := s.f.seller("c@example.com")
	s.f.product(a.ID, models.ApprovalPending, models.ProductStatusPending)
	s.f.product(a.ID, models.ApprovalApproved, models.ProductStatusActive)

	_, err := s.f.moderation.ApproveSeller(s.ctx, s.f.admin, a.ID)
	s.Require().NoError(err)
	until := s.f.clock.Now().Add(time.Hour)
	_, err = s.f.moderation.BlacklistSeller(s.ctx, s.f.admin, BlacklistInput{SellerID: b.ID, Reason: "x", ExpiresAt: &until})
	s.Require().NoError(err)
	_, err = s.f.moderation.BlacklistSeller(s.ctx, s.f.admin, BlacklistInput{SellerID: c.ID, Reason: "y", Permanent: true})
	s.Require().NoError(err)

	pending, total, err := s.f.moderation.ListPendingSellers(s.ctx, 1, 20)
	s.Require().NoError(err)
	s.EqualValues(2, total)
	s.Len(pending, 2)

	products, total, err := s.f.moderation.ListPendingProducts(s.ctx, 0, 0)
	s.Require().NoError(err)
	s.EqualValues(1, total)
	s.Len(products, 1)

	s.f.clock.Advance(2 * time.Hour)
	stats, err := s.f.moderation.BlacklistStats(s.ctx)
	s.Require().NoError(err)
	s.EqualValues(2, stats.Total)
	s.EqualValues(1, stats.Active)
	s.EqualValues(1, stats.Expired)
	s.EqualValues(1, stats.Indefinite)
	s.EqualValues(2, stats.PendingSellers)
	s.EqualValues(1, stats.PendingProducts)

	expired, _, err := s.f.moderation.ListBlacklistedSellers(s.ctx, models.BlacklistStateExpired, 1, 20)
	s.Require().NoError(err)
	s.Require().Len(expired, 1)
	s.Equal(b.ID, expired[0].ID)

	_, _, err = s.f.moderation.ListBlacklistedSellers(s.ctx, "bogus", 1, 20)
	s.ErrorIs(err, ErrValidation)
}

func (s *ModerationServiceTestSuite) TestPublishFailureDoesNotFailTransition() {
	s.f.publisher.err = errors.New("broker unavailable")
	seller := s.f.seller("a@example.com")

	_, err := s.f.moderation.ApproveSeller(s.ctx, s.f.admin, seller.ID)
	s.Require().NoError(err)
	s.Equal("failed to publish moderation event", s.f.logHook.LastEntry().Message)
}

func TestNormalizePage(t *testing.T) {
	cases := []struct {
		page, limit         int
		wantPage, wantLimit int
	}{
		{0, 0, 1, DefaultPageSize},
		{-3, 10, 1, 10},
		{2, 500, 2, MaxPageSize},
		{4, 50, 4, 50},
	}
	for _, tc := range cases {
		page, limit := NormalizePage(tc.page, tc.limit)
		assert.Equal(t, tc.wantPage, page)
		assert.Equal(t, tc.wantLimit, limit)
	}
}

func TestGatingErrorUnwrapsToForbidden(t *testing.T) {
	until := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	err := error(&GatingError{Reason: "spam", ExpiresAt: &until})
	require.ErrorIs(t, err, ErrForbidden)
	assert.Contains(t, err.Error(), "2025-02-01T00:00:00Z")
	assert.Contains(t, (&GatingError{Reason: "fraud"}).Error(), "fraud")
}

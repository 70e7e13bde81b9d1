package services

import (
	"context"
	"sync"
	"time"

	"github.com/ArowuTest/marketplace-backend/internal/models"
	"github.com/ArowuTest/marketplace-backend/internal/repositories/memory"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// clock is a settable time source shared by the services under test
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock(t time.Time) *clock { return &clock{now: t} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingPublisher keeps every published event
type recordingPublisher struct {
	mu     sync.Mutex
	events []*models.ModerationEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, value interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	if e, ok := value.(*models.ModerationEvent); ok {
		p.events = append(p.events, e)
	}
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) Actions() []models.ModerationAction {
	p.mu.Lock()
	defer p.mu.Unlock()
	actions := make([]models.ModerationAction, 0, len(p.events))
	for _, e := range p.events {
		actions = append(actions, e.Action)
	}
	return actions
}

// fixture wires every service over one memory store
type fixture struct {
	repos      *memory.Repositories
	clock      *clock
	publisher  *recordingPublisher
	logHook    *test.Hook
	moderation ModerationService
	catalog    CatalogService
	gate       GatingService
	admin      Actor
}

func newFixture() *fixture {
	repos := memory.NewRepositories()
	c := newClock(time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC))
	pub := &recordingPublisher{}
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	gate := NewGatingService(repos.Sellers, c.Now)
	return &fixture{
		repos:     repos,
		clock:     c,
		publisher: pub,
		logHook:   hook,
		gate:      gate,
		admin:     Actor{ID: "admin-1", Email: "admin@example.com"},
		moderation: NewModerationService(ModerationDeps{
			Sellers:   repos.Sellers,
			Products:  repos.Products,
			Audit:     repos.Audit,
			Tx:        repos.TxManager,
			Publisher: pub,
			Now:       c.Now,
			Logger:    logger,
		}),
		catalog: NewCatalogService(CatalogDeps{
			Sellers:  repos.Sellers,
			Products: repos.Products,
			Images:   repos.Images,
			Tx:       repos.TxManager,
			Gate:     gate,
			Now:      c.Now,
			Logger:   logger,
		}),
	}
}

func (f *fixture) seller(email string) *models.Seller {
	s := &models.Seller{Email: email, StoreName: "Store " + email, Status: models.SellerStatusPending}
	if err := f.repos.Sellers.Create(context.Background(), s); err != nil {
		panic(err)
	}
	return s
}

func (f *fixture) product(sellerID primitive.ObjectID, approval models.ApprovalState, status models.ProductStatus) *models.Product {
	p := &models.Product{
		SellerID:           sellerID,
		Name:               "Desk lamp",
		Price:              25,
		Currency:           DefaultCurrency,
		Status:             status,
		AdminApprovalState: approval,
	}
	if err := f.repos.Products.Create(context.Background(), p); err != nil {
		panic(err)
	}
	return p
}

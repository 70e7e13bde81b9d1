package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ArowuTest/marketplace-backend/internal/models"
	"github.com/ArowuTest/marketplace-backend/internal/repositories"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Catalog limits
const (
	MaxProductImages = 10
	DefaultCurrency  = "USD"
)

// ImageInput is an image reference supplied with a new product
type ImageInput struct {
	URL string `json:"url" binding:"required,url"`
	Alt string `json:"alt" binding:"omitempty,max=200"`
}

// ProductInput is the payload for creating a product
type ProductInput struct {
	Name        string       `json:"name" binding:"required,notblank,max=200"`
	Description string       `json:"description" binding:"omitempty,max=5000"`
	Price       float64      `json:"price" binding:"gte=0"`
	Currency    string       `json:"currency" binding:"omitempty,len=3"`
	Category    string       `json:"category" binding:"omitempty,max=100"`
	Images      []ImageInput `json:"images" binding:"omitempty,max=10,dive"`
}

// ProductUpdate is the payload for editing a product. Nil fields are left
// untouched.
type ProductUpdate struct {
	Name        *string               `json:"name" binding:"omitempty,notblank,max=200"`
	Description *string               `json:"description" binding:"omitempty,max=5000"`
	Price       *float64              `json:"price" binding:"omitempty,gte=0"`
	Currency    *string               `json:"currency" binding:"omitempty,len=3"`
	Category    *string               `json:"category" binding:"omitempty,max=100"`
	Status      *models.ProductStatus `json:"status"`
}

// CatalogService covers seller product management and the public storefront
type CatalogService interface {
	CreateProduct(ctx context.Context, sellerID primitive.ObjectID, input ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, sellerID, productID primitive.ObjectID, input ProductUpdate) (*models.Product, error)
	ListSellerProducts(ctx context.Context, sellerID primitive.ObjectID, page, limit int) ([]*models.Product, int64, error)
	ListStorefront(ctx context.Context, page, limit int) ([]*models.Product, int64, error)
	GetStorefrontProduct(ctx context.Context, productID primitive.ObjectID) (*models.Product, error)
}

// CatalogDeps holds the collaborators of the catalog service
type CatalogDeps struct {
	Sellers  repositories.SellerRepository
	Products repositories.ProductRepository
	Images   repositories.ProductImageRepository
	Tx       repositories.TxManager
	Gate     GatingService
	Now      func() time.Time
	Logger   logrus.FieldLogger
}

type catalogService struct {
	sellers  repositories.SellerRepository
	products repositories.ProductRepository
	images   repositories.ProductImageRepository
	tx       repositories.TxManager
	gate     GatingService
	now      func() time.Time
	log      logrus.FieldLogger
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(deps CatalogDeps) CatalogService {
	s := &catalogService{
		sellers:  deps.Sellers,
		products: deps.Products,
		images:   deps.Images,
		tx:       deps.Tx,
		gate:     deps.Gate,
		now:      deps.Now,
		log:      deps.Logger,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	if s.gate == nil {
		s.gate = NewGatingService(deps.Sellers, s.now)
	}
	return s
}

// ProductVisible reports whether a product is shown on the storefront at
// now: approved by an admin, active, and owned by a seller whose blacklist
// is not in force.
func ProductVisible(product *models.Product, seller *models.Seller, now time.Time) bool {
	if product == nil || seller == nil || product.SellerID != seller.ID {
		return false
	}
	return product.AdminApprovalState == models.ApprovalApproved &&
		product.Status == models.ProductStatusActive &&
		!seller.BlacklistActiveAt(now)
}

func validateProductInput(input *ProductInput) error {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return validationf("name is required")
	}
	if input.Price < 0 {
		return validationf("price must not be negative")
	}
	if len(input.Images) > MaxProductImages {
		return validationf("at most %d images are allowed", MaxProductImages)
	}
	for i, img := range input.Images {
		if strings.TrimSpace(img.URL) == "" {
			return validationf("image %d has no url", i)
		}
	}
	return nil
}

// CreateProduct inserts a product and its image records in one
// transaction. A failure part way leaves nothing behind.
func (s *catalogService) CreateProduct(ctx context.Context, sellerID primitive.ObjectID, input ProductInput) (*models.Product, error) {
	if err := s.gate.Require(ctx, sellerID); err != nil {
		return nil, err
	}
	if err := validateProductInput(&input); err != nil {
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	product := &models.Product{
		SellerID:           sellerID,
		Name:               input.Name,
		Description:        strings.TrimSpace(input.Description),
		Price:              input.Price,
		Currency:           currency,
		Category:           strings.TrimSpace(input.Category),
		Status:             models.ProductStatusPending,
		AdminApprovalState: models.ApprovalPending,
	}

	var images []*models.ProductImage
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.products.Create(ctx, product); err != nil {
			return err
		}
		images = make([]*models.ProductImage, 0, len(input.Images))
		for i, img := range input.Images {
			images = append(images, &models.ProductImage{
				ProductID: product.ID,
				URL:       strings.TrimSpace(img.URL),
				Alt:       img.Alt,
				Position:  i,
			})
		}
		return s.images.CreateMany(ctx, images)
	})
	if err != nil {
		s.log.WithError(err).WithField("sellerId", sellerID.Hex()).Error("create product transaction rolled back")
		return nil, translate(err, "create product")
	}

	product.Images = make([]models.ProductImage, 0, len(images))
	for _, img := range images {
		product.Images = append(product.Images, *img)
	}
	return product, nil
}

// sellerSettable lists the lifecycle statuses a seller may request
var sellerSettable = map[models.ProductStatus]bool{
	models.ProductStatusActive:   true,
	models.ProductStatusInactive: true,
	models.ProductStatusDraft:    true,
	models.ProductStatusArchived: true,
	models.ProductStatusDeleted:  true,
}

// applyUpdate writes the requested fields onto product and reports whether
// any content field changed.
func applyUpdate(product *models.Product, input ProductUpdate) (bool, error) {
	changed := false
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return false, validationf("name must not be blank")
		}
		changed = changed || name != product.Name
		product.Name = name
	}
	if input.Description != nil {
		desc := strings.TrimSpace(*input.Description)
		changed = changed || desc != product.Description
		product.Description = desc
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return false, validationf("price must not be negative")
		}
		changed = changed || *input.Price != product.Price
		product.Price = *input.Price
	}
	if input.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*input.Currency))
		if currency == "" {
			currency = DefaultCurrency
		}
		changed = changed || currency != product.Currency
		product.Currency = currency
	}
	if input.Category != nil {
		category := strings.TrimSpace(*input.Category)
		changed = changed || category != product.Category
		product.Category = category
	}
	return changed, nil
}

// UpdateProduct edits a seller's product. Any content change sends the
// product back to the review queue; a status-only change keeps its
// approval. Only an approved product can be made active. An admin review
// landing between the read and the write fails the edit with
// ErrInvalidTransition.
func (s *catalogService) UpdateProduct(ctx context.Context, sellerID, productID primitive.ObjectID, input ProductUpdate) (*models.Product, error) {
	if err := s.gate.Require(ctx, sellerID); err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, translate(err, "product")
	}
	if product.SellerID != sellerID {
		return nil, ErrNotFound
	}
	readState := product.AdminApprovalState
	if product.Status == models.ProductStatusDeleted {
		return nil, invalidf("deleted products cannot be edited")
	}
	if input.Status != nil && !sellerSettable[*input.Status] {
		return nil, validationf("status %q cannot be set by a seller", *input.Status)
	}

	contentChanged, err := applyUpdate(product, input)
	if err != nil {
		return nil, err
	}

	if contentChanged {
		if input.Status != nil && *input.Status == models.ProductStatusActive {
			return nil, invalidf("an edited product must be approved before it can be activated")
		}
		product.AdminApprovalState = models.ApprovalPending
		product.RejectionReason = ""
		product.Status = models.ProductStatusPending
		if input.Status != nil {
			product.Status = *input.Status
		}
	} else if input.Status != nil {
		if *input.Status == models.ProductStatusActive && product.AdminApprovalState != models.ApprovalApproved {
			return nil, invalidf("only approved products can be activated")
		}
		product.Status = *input.Status
	}

	if err := s.products.Update(ctx, product, readState); err != nil {
		return nil, translate(err, "product")
	}
	return s.withImages(ctx, product)
}

func (s *catalogService) withImages(ctx context.Context, product *models.Product) (*models.Product, error) {
	images, err := s.images.FindByProduct(ctx, product.ID)
	if err != nil {
		return nil, translate(err, "product images")
	}
	product.Images = make([]models.ProductImage, 0, len(images))
	for _, img := range images {
		product.Images = append(product.Images, *img)
	}
	return product, nil
}

func (s *catalogService) withImagesAll(ctx context.Context, products []*models.Product) error {
	for _, p := range products {
		if _, err := s.withImages(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (s *catalogService) ListSellerProducts(ctx context.Context, sellerID primitive.ObjectID, page, limit int) ([]*models.Product, int64, error) {
	page, limit = NormalizePage(page, limit)
	products, total, err := s.products.FindBySeller(ctx, sellerID, page, limit)
	if err != nil {
		return nil, 0, translate(err, "products")
	}
	if err := s.withImagesAll(ctx, products); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// ListStorefront returns the products visible right now. Blacklist expiry
// is evaluated by the store at read time.
func (s *catalogService) ListStorefront(ctx context.Context, page, limit int) ([]*models.Product, int64, error) {
	page, limit = NormalizePage(page, limit)
	products, total, err := s.products.FindStorefront(ctx, s.now().UTC(), page, limit)
	if err != nil {
		return nil, 0, translate(err, "storefront")
	}
	if err := s.withImagesAll(ctx, products); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// GetStorefrontProduct returns ErrNotFound for a product that exists but is
// not visible, so hidden listings are indistinguishable from missing ones.
func (s *catalogService) GetStorefrontProduct(ctx context.Context, productID primitive.ObjectID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, translate(err, "product")
	}
	seller, err := s.sellers.FindByID(ctx, product.SellerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, translate(err, "seller")
	}
	if !ProductVisible(product, seller, s.now().UTC()) {
		return nil, ErrNotFound
	}
	return s.withImages(ctx, product)
}

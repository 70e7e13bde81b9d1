package services

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode"

	"github.com/ArowuTest/marketplace-backend/internal/cache"
	"github.com/ArowuTest/marketplace-backend/internal/models"
	"github.com/ArowuTest/marketplace-backend/internal/repositories"
	"github.com/ArowuTest/marketplace-backend/pkg/jwt"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// TokenIssuer signs access tokens
type TokenIssuer interface {
	Issue(subject, email, role string) (string, *jwt.Claims, error)
}

// AuthService defines the interface for authentication operations
type AuthService interface {
	RegisterSeller(ctx context.Context, req *models.SellerRegisterRequest) (*models.Seller, error)
	LoginSeller(ctx context.Context, req *models.LoginRequest) (*models.TokenResponse, error)
	LoginAdmin(ctx context.Context, req *models.LoginRequest) (*models.TokenResponse, error)
	// Logout revokes a token id until the token's own expiry
	Logout(ctx context.Context, tokenID string, expiresAt time.Time) error
	GetSeller(ctx context.Context, sellerID primitive.ObjectID) (*models.Seller, error)
	// EnsureAdmin creates an admin user, or resets the password of an existing one
	EnsureAdmin(ctx context.Context, email, password, firstName, lastName string) (*models.AdminUser, bool, error)
}

type authService struct {
	sellers    repositories.SellerRepository
	admins     repositories.AdminUserRepository
	tokens     TokenIssuer
	revocation cache.RevocationStore
	log        logrus.FieldLogger
}

// NewAuthService creates a new AuthService implementation. revocation may
// be nil, in which case Logout is a no-op.
func NewAuthService(sellers repositories.SellerRepository, admins repositories.AdminUserRepository, tokens TokenIssuer, revocation cache.RevocationStore, logger logrus.FieldLogger) AuthService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &authService{
		sellers:    sellers,
		admins:     admins,
		tokens:     tokens,
		revocation: revocation,
		log:        logger,
	}
}

// dummyHash is compared against when the email is unknown so both failure
// paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("marketplace-dummy-password"), bcrypt.DefaultCost)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Slugify turns a store name into a URL-safe slug
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// RegisterSeller creates a pending seller account
func (s *authService) RegisterSeller(ctx context.Context, req *models.SellerRegisterRequest) (*models.Seller, error) {
	storeName := strings.TrimSpace(req.StoreName)
	if storeName == "" {
		return nil, validationf("storeName is required")
	}
	if len(req.Password) < 8 {
		return nil, validationf("password must be at least 8 characters")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, translate(err, "hash password")
	}

	seller := &models.Seller{
		Email:        normalizeEmail(req.Email),
		Password:     string(hashedPassword),
		StoreName:    storeName,
		StoreSlug:    Slugify(storeName),
		ContactPhone: strings.TrimSpace(req.ContactPhone),
		Status:       models.SellerStatusPending,
	}
	if err := s.sellers.Create(ctx, seller); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, validationf("a seller with this email already exists")
		}
		return nil, translate(err, "create seller")
	}

	s.log.WithField("sellerId", seller.ID.Hex()).Info("seller registered")
	// Don't return password hash
	seller.Password = ""
	return seller, nil
}

func (s *authService) issue(subject, email, role string) (*models.TokenResponse, error) {
	token, claims, err := s.tokens.Issue(subject, email, role)
	if err != nil {
		return nil, translate(err, "issue token")
	}
	return &models.TokenResponse{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		Role:      role,
		Subject:   subject,
	}, nil
}

// LoginSeller authenticates a seller. Pending, rejected and blacklisted
// sellers can still log in to see their status.
func (s *authService) LoginSeller(ctx context.Context, req *models.LoginRequest) (*models.TokenResponse, error) {
	seller, err := s.sellers.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
			return nil, ErrUnauthorized
		}
		return nil, translate(err, "seller")
	}
	if bcrypt.CompareHashAndPassword([]byte(seller.Password), []byte(req.Password)) != nil {
		return nil, ErrUnauthorized
	}
	return s.issue(seller.ID.Hex(), seller.Email, models.RoleSeller)
}

// LoginAdmin authenticates an admin portal user
func (s *authService) LoginAdmin(ctx context.Context, req *models.LoginRequest) (*models.TokenResponse, error) {
	admin, err := s.admins.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
			return nil, ErrUnauthorized
		}
		return nil, translate(err, "admin")
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(req.Password)) != nil {
		return nil, ErrUnauthorized
	}
	return s.issue(admin.ID.Hex(), admin.Email, models.RoleAdmin)
}

func (s *authService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if s.revocation == nil || tokenID == "" {
		return nil
	}
	if err := s.revocation.MarkRevoked(ctx, tokenID, expiresAt); err != nil {
		return translate(err, "revoke token")
	}
	return nil
}

func (s *authService) GetSeller(ctx context.Context, sellerID primitive.ObjectID) (*models.Seller, error) {
	seller, err := s.sellers.FindByID(ctx, sellerID)
	if err != nil {
		return nil, translate(err, "seller")
	}
	seller.Password = ""
	return seller, nil
}

func (s *authService) EnsureAdmin(ctx context.Context, email, password, firstName, lastName string) (*models.AdminUser, bool, error) {
	email = normalizeEmail(email)
	if email == "" || len(password) < 8 {
		return nil, false, validationf("admin email and a password of at least 8 characters are required")
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, false, translate(err, "hash password")
	}

	existing, err := s.admins.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.admins.UpdatePassword(ctx, existing.ID, string(hashedPassword)); err != nil {
			return nil, false, translate(err, "admin")
		}
		existing.Password = ""
		return existing, false, nil
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, false, translate(err, "admin")
	}

	admin := &models.AdminUser{
		Email:     email,
		Password:  string(hashedPassword),
		FirstName: firstName,
		LastName:  lastName,
		Role:      models.RoleAdmin,
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		return nil, false, translate(err, "create admin")
	}
	admin.Password = ""
	return admin, true, nil
}

package handlers

import (
	"github.com/ArowuTest/marketplace-backend/internal/services"
	"github.com/ArowuTest/marketplace-backend/internal/utils"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SellerHandler serves the seller portal endpoints
type SellerHandler struct {
	auth    services.AuthService
	catalog services.CatalogService
	gate    services.GatingService
}

// NewSellerHandler creates a new SellerHandler
func NewSellerHandler(auth services.AuthService, catalog services.CatalogService, gate services.GatingService) *SellerHandler {
	return &SellerHandler{auth: auth, catalog: catalog, gate: gate}
}

func (h *SellerHandler) sellerID(c *gin.Context) (primitive.ObjectID, bool) {
	id, ok := utils.CurrentUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c, "Invalid token subject")
	}
	return id, ok
}

// Me handles GET /seller/me
func (h *SellerHandler) Me(c *gin.Context) {
	id, ok := h.sellerID(c)
	if !ok {
		return
	}
	seller, err := h.auth.GetSeller(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, seller)
}

// BlacklistStatus handles GET /seller/me/blacklist-status
func (h *SellerHandler) BlacklistStatus(c *gin.Context) {
	id, ok := h.sellerID(c)
	if !ok {
		return
	}
	decision, err := h.gate.CheckSeller(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, decision)
}

// ListProducts handles GET /seller/products
func (h *SellerHandler) ListProducts(c *gin.Context) {
	id, ok := h.sellerID(c)
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)
	products, total, err := h.catalog.ListSellerProducts(c.Request.Context(), id, params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(products, total, params))
}

// CreateProduct handles POST /seller/products
func (h *SellerHandler) CreateProduct(c *gin.Context) {
	id, ok := h.sellerID(c)
	if !ok {
		return
	}
	var input services.ProductInput
	if !bindJSON(c, &input) {
		return
	}
	product, err := h.catalog.CreateProduct(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, product)
}

// UpdateProduct handles PUT /seller/products/:id
func (h *SellerHandler) UpdateProduct(c *gin.Context) {
	sellerID, ok := h.sellerID(c)
	if !ok {
		return
	}
	productID, ok := utils.ParseObjectIDParam(c, "id")
	if !ok {
		return
	}
	var input services.ProductUpdate
	if !bindJSON(c, &input) {
		return
	}
	product, err := h.catalog.UpdateProduct(c.Request.Context(), sellerID, productID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, product)
}

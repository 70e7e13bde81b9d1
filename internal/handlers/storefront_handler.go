package handlers

import (
	"github.com/ArowuTest/marketplace-backend/internal/services"
	"github.com/ArowuTest/marketplace-backend/internal/utils"
	"github.com/gin-gonic/gin"
)

// StorefrontHandler serves the public product catalogue
type StorefrontHandler struct {
	catalog services.CatalogService
}

// NewStorefrontHandler creates a new StorefrontHandler
func NewStorefrontHandler(catalog services.CatalogService) *StorefrontHandler {
	return &StorefrontHandler{catalog: catalog}
}

// ListProducts handles GET /storefront/products
func (h *StorefrontHandler) ListProducts(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	products, total, err := h.catalog.ListStorefront(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(products, total, params))
}

// GetProduct handles GET /storefront/products/:id
func (h *StorefrontHandler) GetProduct(c *gin.Context) {
	id, ok := utils.ParseObjectIDParam(c, "id")
	if !ok {
		return
	}
	product, err := h.catalog.GetStorefrontProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, product)
}

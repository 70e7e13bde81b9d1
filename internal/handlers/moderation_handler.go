package handlers

import (
	"time"

	"github.com/ArowuTest/marketplace-backend/internal/models"
	"github.com/ArowuTest/marketplace-backend/internal/services"
	"github.com/ArowuTest/marketplace-backend/internal/utils"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ModerationHandler serves the admin moderation endpoints
type ModerationHandler struct {
	moderation services.ModerationService
}

// NewModerationHandler creates a new ModerationHandler
func NewModerationHandler(moderation services.ModerationService) *ModerationHandler {
	return &ModerationHandler{moderation: moderation}
}

// ReasonRequest carries a rejection reason
type ReasonRequest struct {
	Reason string `json:"reason" binding:"required,notblank,max=1000"`
}

// BlacklistRequest is the body of POST /admin/blacklist
type BlacklistRequest struct {
	SellerID  string     `json:"sellerId" binding:"required"`
	Reason    string     `json:"reason" binding:"required,notblank,max=1000"`
	ExpiresAt *time.Time `json:"expiresAt"`
	Permanent bool       `json:"permanent"`
}

func actorFrom(c *gin.Context) services.Actor {
	return services.Actor{
		ID:    c.GetString(utils.ContextUserID),
		Email: c.GetString(utils.ContextUserEmail),
	}
}

// ListPendingSellers handles GET /admin/sellers/pending
func (h *ModerationHandler) ListPendingSellers(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	sellers, total, err := h.moderation.ListPendingSellers(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(sellers, total, params))
}

// ApproveSeller handles POST /admin/sellers/:id/approve
func (h *ModerationHandler) ApproveSeller(c *gin.Context) {
	id, ok := utils.ParseObjectIDParam(c, "id")
	if !ok {
		return
	}
	seller, err := h.moderation.ApproveSeller(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, seller)
}

// RejectSeller handles POST /admin/sellers/:id/reject
func (h *ModerationHandler) RejectSeller(c *gin.Context) {
	id, ok := utils.ParseObjectIDParam(c, "id")
	if !ok {
		return
	}
	var req ReasonRequest
	if !bindJSON(c, &req) {
		return
	}
	seller, err := h.moderation.RejectSeller(c.Request.Context(), actorFrom(c), id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, seller)
}

// ListPendingProducts handles GET /admin/products/pending
func (h *ModerationHandler) ListPendingProducts(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	products, total, err := h.moderation.ListPendingProducts(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(products, total, params))
}

// ApproveProduct handles POST /admin/products/:id/approve
func (h *ModerationHandler) ApproveProduct(c *gin.Context) {
	id, ok := utils.ParseObjectIDParam(c, "id")
	if !ok {
		return
	}
	product, err := h.moderation.ApproveProduct(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, product)
}

// RejectProduct handles POST /admin/products/:id/reject
func (h *ModerationHandler) RejectProduct(c *gin.Context) {
	id, ok := utils.ParseObjectIDParam(c, "id")
	if !ok {
		return
	}
	var req ReasonRequest
	if !bindJSON(c, &req) {
		return
	}
	product, err := h.moderation.RejectProduct(c.Request.Context(), actorFrom(c), id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, product)
}

// BlacklistSeller handles POST /admin/blacklist
func (h *ModerationHandler) BlacklistSeller(c *gin.Context) {
	var req BlacklistRequest
	if !bindJSON(c, &req) {
		return
	}
	sellerID, err := primitive.ObjectIDFromHex(req.SellerID)
	if err != nil {
		utils.ValidationErrorResponse(c, "Invalid sellerId", nil)
		return
	}

	seller, err := h.moderation.BlacklistSeller(c.Request.Context(), actorFrom(c), services.BlacklistInput{
		SellerID:  sellerID,
		Reason:    req.Reason,
		ExpiresAt: req.ExpiresAt,
		Permanent: req.Permanent,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, seller)
}

// UnblacklistSeller handles DELETE /admin/blacklist/:sellerId
func (h *ModerationHandler) UnblacklistSeller(c *gin.Context) {
	id, ok := utils.ParseObjectIDParam(c, "sellerId")
	if !ok {
		return
	}
	seller, err := h.moderation.UnblacklistSeller(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, seller)
}

// ListBlacklist handles GET /admin/blacklist?state=active|expired|all
func (h *ModerationHandler) ListBlacklist(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	state := models.BlacklistState(c.DefaultQuery("state", string(models.BlacklistStateActive)))
	sellers, total, err := h.moderation.ListBlacklistedSellers(c.Request.Context(), state, params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(sellers, total, params))
}

// BlacklistStats handles GET /admin/blacklist/stats
func (h *ModerationHandler) BlacklistStats(c *gin.Context) {
	stats, err := h.moderation.BlacklistStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, stats)
}

// ListAudit handles GET /admin/audit?targetId=
func (h *ModerationHandler) ListAudit(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	var targetID *primitive.ObjectID
	if raw := c.Query("targetId"); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			utils.BadRequestResponse(c, "Invalid targetId", nil)
			return
		}
		targetID = &id
	}
	entries, total, err := h.moderation.ListAudit(c.Request.Context(), targetID, params.Page, params.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.PaginatedResponse(c, utils.CreatePaginationResult(entries, total, params))
}

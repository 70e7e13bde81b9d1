package handlers

import (
	"time"

	"github.com/ArowuTest/marketplace-backend/internal/models"
	"github.com/ArowuTest/marketplace-backend/internal/services"
	"github.com/ArowuTest/marketplace-backend/internal/utils"
	"github.com/gin-gonic/gin"
)

// AuthHandler handles authentication related HTTP requests
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterSeller handles POST /auth/seller/register
func (h *AuthHandler) RegisterSeller(c *gin.Context) {
	var req models.SellerRegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	seller, err := h.authService.RegisterSeller(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.CreatedResponse(c, seller)
}

// LoginSeller handles POST /auth/seller/login
func (h *AuthHandler) LoginSeller(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	token, err := h.authService.LoginSeller(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, token)
}

// LoginAdmin handles POST /auth/admin/login
func (h *AuthHandler) LoginAdmin(c *gin.Context) {
	var req models.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	token, err := h.authService.LoginAdmin(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, token)
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	expiresAt := c.GetTime(utils.ContextTokenExpiresAt)
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(24 * time.Hour)
	}
	if err := h.authService.Logout(c.Request.Context(), c.GetString(utils.ContextTokenID), expiresAt); err != nil {
		respondError(c, err)
		return
	}
	utils.SuccessResponse(c, gin.H{"loggedOut": true})
}

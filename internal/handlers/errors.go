package handlers

import (
	"errors"
	"strings"

	"github.com/ArowuTest/marketplace-backend/internal/services"
	"github.com/ArowuTest/marketplace-backend/internal/utils"
	"github.com/gin-gonic/gin"
)

// respondError maps service errors onto HTTP responses. Unexpected errors
// are attached to the gin context for the request logger and reported
// without detail.
func respondError(c *gin.Context, err error) {
	var gateErr *services.GatingError
	switch {
	case errors.As(err, &gateErr):
		utils.ForbiddenResponse(c, "Seller is blacklisted", gin.H{
			"reason":    gateErr.Reason,
			"expiresAt": gateErr.ExpiresAt,
		})
	case errors.Is(err, services.ErrNotFound):
		utils.NotFoundResponse(c, publicMessage(err, services.ErrNotFound))
	case errors.Is(err, services.ErrInvalidTransition):
		utils.ConflictResponse(c, "INVALID_TRANSITION", publicMessage(err, services.ErrInvalidTransition))
	case errors.Is(err, services.ErrValidation):
		utils.ValidationErrorResponse(c, publicMessage(err, services.ErrValidation), nil)
	case errors.Is(err, services.ErrUnauthorized):
		utils.UnauthorizedResponse(c, "Invalid credentials")
	case errors.Is(err, services.ErrForbidden):
		utils.ForbiddenResponse(c, "", nil)
	default:
		_ = c.Error(err)
		utils.InternalErrorResponse(c)
	}
}

// publicMessage strips the sentinel prefix from a wrapped service error
func publicMessage(err, sentinel error) string {
	msg := err.Error()
	if msg == sentinel.Error() {
		return ""
	}
	msg = strings.TrimPrefix(msg, sentinel.Error()+": ")
	if len(msg) > 0 {
		msg = strings.ToUpper(msg[:1]) + msg[1:]
	}
	return msg
}

// bindJSON binds the request body, writing a validation response on failure
func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		if details := utils.GetValidationErrors(err); len(details) > 0 {
			utils.ValidationErrorResponse(c, "", details)
		} else {
			utils.BadRequestResponse(c, "Invalid request body", nil)
		}
		return false
	}
	return true
}

package middleware

import (
	"errors"
	"strings"

	"github.com/ArowuTest/marketplace-backend/internal/cache"
	"github.com/ArowuTest/marketplace-backend/internal/utils"
	"github.com/ArowuTest/marketplace-backend/pkg/jwt"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// TokenParser verifies bearer tokens
type TokenParser interface {
	Parse(token string) (*jwt.Claims, error)
}

// JWTAuthMiddleware creates a gin middleware for JWT authentication. A
// missing, malformed, expired or revoked token is rejected with 401.
// revocation may be nil.
func JWTAuthMiddleware(tokens TokenParser, revocation cache.RevocationStore, logger logrus.FieldLogger) gin.HandlerFunc {
	const bearerSchema = "Bearer "
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.UnauthorizedResponse(c, "Authorization header is required")
			return
		}
		if !strings.HasPrefix(authHeader, bearerSchema) {
			utils.UnauthorizedResponse(c, "Authorization header must start with Bearer")
			return
		}

		claims, err := tokens.Parse(strings.TrimSpace(authHeader[len(bearerSchema):]))
		if err != nil {
			logger.WithError(err).WithField("path", c.FullPath()).Debug("token rejected")
			if errors.Is(err, jwt.ErrExpiredToken) {
				utils.UnauthorizedResponse(c, "Token has expired")
			} else {
				utils.UnauthorizedResponse(c, "Invalid token")
			}
			return
		}

		if revocation != nil {
			revoked, err := revocation.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				logger.WithError(err).Error("revocation lookup failed")
				utils.InternalErrorResponse(c)
				return
			}
			if revoked {
				utils.UnauthorizedResponse(c, "Token has been revoked")
				return
			}
		}

		c.Set(utils.ContextUserID, claims.Subject)
		c.Set(utils.ContextUserEmail, claims.Email)
		c.Set(utils.ContextUserRole, claims.Role)
		c.Set(utils.ContextTokenID, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(utils.ContextTokenExpiresAt, claims.ExpiresAt.Time)
		}
		c.Next()
	}
}

// RequireRole lets the request through only if the authenticated role is
// one of roles; any other role is unauthorized for the route. It must run
// after JWTAuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(utils.ContextUserRole)
		if role == "" {
			utils.UnauthorizedResponse(c, "")
			return
		}
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		utils.UnauthorizedResponse(c, "Insufficient role for this resource")
	}
}

package utils

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Context keys set by the auth middleware
const (
	ContextUserID         = "userID"
	ContextUserEmail      = "userEmail"
	ContextUserRole       = "userRole"
	ContextTokenID        = "tokenID"
	ContextTokenExpiresAt = "tokenExpiresAt"
	ContextRequestID      = "RequestID"
)

// ParseObjectIDParam reads a path parameter as an ObjectID. On failure it
// writes a 400 response and returns false.
func ParseObjectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		BadRequestResponse(c, "Invalid "+name, nil)
		return primitive.NilObjectID, false
	}
	return id, true
}

// CurrentUserID returns the authenticated subject as an ObjectID
func CurrentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.GetString(ContextUserID))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

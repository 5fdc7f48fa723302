package handlers

import (
	"errors"
	"net/http"

	"roster-backend/middleware"
	"roster-backend/models"
	"roster-backend/services"
	"roster-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	msgForbidden   = "You do not have permission to perform this action."
	msgNotFound    = "Not found."
	msgInactive    = "Your account has been deactivated."
	msgServerError = "Something went wrong. Please try again later."
)

// respondError writes the error envelope matching err. Unexpected errors are
// logged with the request id and answered with a generic message.
func respondError(c *gin.Context, log logrus.FieldLogger, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "errors": verr.Fields})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": msgNotFound})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": msgForbidden})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid username or password."})
	case errors.Is(err, services.ErrAccountInactive):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": msgInactive})
	default:
		_ = c.Error(err)
		log.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString(middleware.ContextRequestID),
			"path":       c.FullPath(),
		}).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": msgServerError})
	}
}

// bindJSON decodes the body into dst and answers 400 when it is malformed.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"errors":  gin.H{services.NonFieldErrors: []string{utils.SanitizeValidationError(err)}},
		})
		return false
	}
	return true
}

// currentUser reloads the authenticated account. Tokens of deleted or
// deactivated accounts stop working immediately.
func currentUser(c *gin.Context, accounts *services.IdentityStore, log logrus.FieldLogger) (*models.User, bool) {
	userID, ok := c.Get(middleware.ContextUserID)
	id, isUUID := userID.(uuid.UUID)
	if !ok || !isUUID {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authentication required"})
		return nil, false
	}

	user, err := accounts.Get(c.Request.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not found"})
		return nil, false
	}
	if err != nil {
		respondError(c, log, err)
		return nil, false
	}
	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": msgInactive})
		return nil, false
	}
	return user, true
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": msgNotFound})
		return uuid.Nil, false
	}
	return id, true
}

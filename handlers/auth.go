package handlers

import (
	"net/http"

	"roster-backend/dtos"
	"roster-backend/services"
	"roster-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AuthHandler serves login and the caller's own account.
type AuthHandler struct {
	Accounts *services.IdentityStore
	Log      logrus.FieldLogger
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dtos.LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	if fields := utils.FieldErrors(req); fields != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "errors": fields})
		return
	}

	user, err := h.Accounts.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}

	token, err := utils.GenerateToken(user.ID, user.CompanyID, user.Role, user.IsSuperuser)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"user":    profileJSON(user),
	})
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	user, ok := currentUser(c, h.Accounts, h.Log)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, profileJSON(user))
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	user, ok := currentUser(c, h.Accounts, h.Log)
	if !ok {
		return
	}

	var req dtos.ProfileUpdate
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.Accounts.UpdateProfile(c.Request.Context(), user, req)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, profileJSON(updated))
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user, ok := currentUser(c, h.Accounts, h.Log)
	if !ok {
		return
	}

	var req dtos.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.Accounts.ChangePassword(c.Request.Context(), user, req); err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password changed."})
}

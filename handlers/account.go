package handlers

import (
	"net/http"

	"roster-backend/dtos"
	"roster-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AccountHandler lists and provisions staff accounts.
type AccountHandler struct {
	Accounts *services.IdentityStore
	Log      logrus.FieldLogger
}

func (h *AccountHandler) ListUsers(c *gin.Context) {
	user, ok := currentUser(c, h.Accounts, h.Log)
	if !ok {
		return
	}

	users, err := h.Accounts.List(c.Request.Context(), user)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusOK, accountsJSON(users))
}

// CreateUser provisions an account directly. It is approved on creation by
// the caller.
func (h *AccountHandler) CreateUser(c *gin.Context) {
	user, ok := currentUser(c, h.Accounts, h.Log)
	if !ok {
		return
	}

	var req dtos.CreateAccountRequest
	if !bindJSON(c, &req) {
		return
	}

	account, err := h.Accounts.CreateAccount(c.Request.Context(), user, req)
	if err != nil {
		respondError(c, h.Log, err)
		return
	}
	c.JSON(http.StatusCreated, accountJSON(account))
}

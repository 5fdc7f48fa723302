package middleware

import (
	"net/http"
	"strings"

	"roster-backend/utils"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	ContextUserID    = "user_id"
	ContextCompanyID = "company_id"
	ContextUserRole  = "user_role"
	ContextSuperuser = "is_superuser"
)

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Authorization header required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid authorization header format"})
			return
		}

		claims, err := utils.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid or expired token"})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextCompanyID, claims.CompanyID)
		c.Set(ContextUserRole, claims.Role)
		c.Set(ContextSuperuser, claims.Superuser)
		c.Next()
	}
}

// SuperuserMiddleware guards tenant administration.
func SuperuserMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(ContextSuperuser) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Administrator access required"})
			return
		}
		c.Next()
	}
}

// ManagerMiddleware lets through managers, owners and superusers. Approval
// state is checked by the services against the stored account.
func ManagerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ContextUserRole)
		if role != "manager" && role != "owner" && !c.GetBool(ContextSuperuser) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "Manager access required"})
			return
		}
		c.Next()
	}
}

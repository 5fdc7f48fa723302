package routes

import (
	"net/http"

	"roster-backend/handlers"
	"roster-backend/metrics"
	"roster-backend/middleware"
	"roster-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SetupRoutes mounts the API. limiter guards the anonymous endpoints and may
// be nil.
func SetupRoutes(r *gin.Engine, db *gorm.DB, svc *services.Services, log logrus.FieldLogger, limiter *middleware.RateLimiter) {
	// Initialize handlers
	registrationHandler := &handlers.RegistrationHandler{
		Tenants:       svc.Tenants,
		Accounts:      svc.Accounts,
		Registrations: svc.Registrations,
		Log:           log,
	}
	authHandler := &handlers.AuthHandler{Accounts: svc.Accounts, Log: log}
	accountHandler := &handlers.AccountHandler{Accounts: svc.Accounts, Log: log}
	companyHandler := &handlers.CompanyHandler{Tenants: svc.Tenants, Log: log}

	throttle := func(c *gin.Context) { c.Next() }
	if limiter != nil {
		throttle = limiter.Middleware()
	}

	auth := r.Group("/api/auth")

	// Public routes
	{
		auth.POST("/lookup-company/", throttle, registrationHandler.LookupCompany)
		auth.POST("/register/", throttle, registrationHandler.Register)
		auth.POST("/login/", throttle, authHandler.Login)
		auth.POST("/verify-email/:token/", registrationHandler.VerifyEmail)
	}

	// Protected routes (require authentication)
	protected := auth.Group("")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.GET("/profile/", authHandler.GetProfile)
		protected.PATCH("/profile/", authHandler.UpdateProfile)
		protected.POST("/change-password/", authHandler.ChangePassword)

		protected.GET("/pending-registrations/", registrationHandler.PendingRegistrations)
		protected.POST("/approve-registration/:id/", registrationHandler.ApproveRegistration)
		protected.GET("/registrations/", registrationHandler.ListRegistrations)

		protected.GET("/users/", accountHandler.ListUsers)
		protected.POST("/users/", middleware.ManagerMiddleware(), accountHandler.CreateUser)
	}

	// Tenant administration (superusers only)
	admin := auth.Group("/companies")
	admin.Use(middleware.AuthMiddleware())
	admin.Use(middleware.SuperuserMiddleware())
	{
		admin.GET("/", companyHandler.ListCompanies)
		admin.POST("/", companyHandler.CreateCompany)
		admin.PATCH("/:id/active/", companyHandler.SetCompanyActive)
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			log.WithError(err).Warn("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/metrics", metrics.Handler())
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roster-backend/cache"
	"roster-backend/config"
	"roster-backend/database"
	"roster-backend/logger"
	"roster-backend/metrics"
	"roster-backend/middleware"
	"roster-backend/notify"
	"roster-backend/routes"
	"roster-backend/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables
	if err := config.LoadEnv(); err != nil {
		logrus.Fatal("Error loading .env file: ", err)
	}
	cfg := config.Load()
	log := logger.Init(cfg.LogLevel, cfg.AppEnv)

	// Validate critical environment variables
	if err := config.ValidateEnv(); err != nil {
		log.Fatal("Environment validation failed: ", err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}

	// Create default admin user if not exists
	if err := database.CreateDefaultAdmin(db, database.AdminSeed{
		Email:       cfg.AdminEmail,
		Password:    cfg.AdminPassword,
		CompanyName: cfg.DefaultCompanyName,
		CompanyCode: cfg.DefaultCompanyCode,
	}); err != nil {
		log.WithError(err).Warn("Could not create default admin")
	}

	metrics.InitMetrics()

	var tenantCache services.TenantCache
	var redisCache *cache.RedisTenantCache
	if cfg.RedisAddr != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisCache, err = cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.TenantCacheTTL, log)
		cancel()
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, company lookups are not cached")
		} else {
			tenantCache = redisCache
		}
	}

	notifier, publisher := buildNotifier(cfg, log)

	svc := services.New(db, tenantCache, notifier, log)

	// Setup Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(log))
	r.Use(metrics.Middleware())

	// CORS configuration - filter out empty strings from AllowOrigins
	var origins []string
	for _, o := range []string{cfg.FrontendURL, cfg.AdminURL} {
		if o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
		log.Warn("No CORS origins configured, defaulting to http://localhost:3000")
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
	}))

	// Setup routes
	limiter := middleware.NewRateLimiter(cfg.RegisterRateLimit, time.Minute)
	routes.SetupRoutes(r, db, svc, log, limiter)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server in a goroutine
	go func() {
		log.Infof("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.WithError(err).Error("Error closing event publisher")
		}
	}
	if redisCache != nil {
		if err := redisCache.Close(); err != nil {
			log.WithError(err).Error("Error closing redis client")
		}
	}

	// Close database connection
	sqlDB, err := db.DB()
	if err == nil {
		if err := sqlDB.Close(); err != nil {
			log.WithError(err).Error("Error closing database connection")
		} else {
			log.Info("Database connection closed")
		}
	}

	log.Info("Server exited gracefully")
}

// buildNotifier picks the mail transport from MAIL_DRIVER and adds the Kafka
// publisher when brokers are configured. The publisher is returned so it can
// be flushed on shutdown.
func buildNotifier(cfg *config.Config, log *logrus.Logger) (notify.Notifier, *notify.EventPublisher) {
	var sender notify.Sender
	switch cfg.MailDriver {
	case "smtp":
		sender = &notify.SMTPSender{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		}
	case "ses":
		ses, err := notify.NewSESSender(cfg.AWSRegion, cfg.MailFrom)
		if err != nil {
			log.WithError(err).Warn("SES unavailable, falling back to log mail driver")
			sender = &notify.LogSender{Log: log}
		} else {
			sender = ses
		}
	default:
		sender = &notify.LogSender{Log: log}
	}

	fanout := notify.Fanout{notify.NewMailNotifier(sender, cfg.FrontendURL, cfg.NotifyTimeout)}

	var publisher *notify.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher = notify.NewEventPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		fanout = append(fanout, publisher)
		log.WithField("topic", cfg.KafkaTopic).Info("Publishing registration events to Kafka")
	}
	return fanout, publisher
}

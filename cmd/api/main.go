package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/strataops/strata-api/docs" // Swagger docs
	"github.com/strataops/strata-api/internal/config"
	"github.com/strataops/strata-api/internal/database"
	"github.com/strataops/strata-api/internal/handlers"
	"github.com/strataops/strata-api/internal/jobs"
	"github.com/strataops/strata-api/internal/middleware"
	"github.com/strataops/strata-api/internal/repository"
	"github.com/strataops/strata-api/internal/services"
	"github.com/strataops/strata-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title Strata API
// @version 1.0
// @description REST API for the Strata property management platform: service charge demands, payments, penalties and building ledgers

// @contact.name API Support

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(repos, worker, cfg, db)

	// Schedule recurring sweeps
	scheduleJobs(worker, svcs, cfg)

	// Initialize handlers
	h := handlers.NewHandlers(svcs)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Create context with timeout for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Shutdown background worker
	worker.Shutdown()
	logger.Info("Background worker stopped")

	// Flush Sentry events before exit
	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Redirect root to swagger
		router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
		})

		// Swagger documentation
		router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

		// Health check (public)
		v1.GET("/health", h.Health.Index)

		// Protected routes (requires authentication)
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			// Staff routes: billing operations (admin or building manager)
			staff := protected.Group("")
			staff.Use(middleware.RequireRole("admin", "manager"))
			{
				staff.POST("/buildings/:building_id/demands/generate", h.Demand.Generate)
				staff.POST("/demands/:demand_id/payments", h.Demand.RecordPayment)
				staff.POST("/demands/:demand_id/reminders", h.Demand.SendReminder)

				// Sweep triggers, normally fired by the scheduler
				staff.POST("/buildings/:building_id/penalties/apply", h.Demand.ApplyPenalties)
				staff.POST("/buildings/:building_id/reminders/send", h.Demand.SendDueReminders)

				// Ledger writes
				staff.POST("/buildings/:building_id/ledger/expenditures", h.Ledger.RecordExpenditure)

				// Reports
				staff.GET("/reports/arrears_csv", h.Report.ArrearsCSV)
				staff.GET("/reports/arrears_xlsx", h.Report.ArrearsXLSX)
				staff.GET("/reports/collections_csv", h.Report.CollectionsCSV)

				// Aggregates
				staff.GET("/buildings/:building_id/demands/stats", h.Demand.Stats)
				staff.GET("/buildings/:building_id/ledger", h.Ledger.Index)
				staff.GET("/buildings/:building_id/ledger/summary", h.Ledger.Summary)
			}

			// Admin-only routes
			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.GET("/jobs/status", h.Job.Status)
			}

			// Read access for all authenticated users; residents see their own
			// demands through list filters and the detail endpoint
			protected.GET("/buildings", h.Building.Index)
			protected.GET("/buildings/:building_id", h.Building.Show)
			protected.GET("/buildings/:building_id/flats", h.Building.Flats)
			protected.GET("/demands", h.Demand.Index)
			protected.GET("/demands/:demand_id", h.Demand.Show)
			protected.GET("/demands/:demand_id/payments", h.Demand.PaymentHistory)
			protected.GET("/reports/demand_notice_pdf", h.Report.DemandNoticePDF)
			protected.GET("/reports/receipt_pdf", h.Report.ReceiptPDF)

			// Notifications (users manage their own)
			// Static route first so "mark_all_as_read" is not matched as :notification_id
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", h.Notification.Index)
				notifications.GET("/unread_count", h.Notification.UnreadCount)
				notifications.POST("/mark_all_as_read", h.Notification.MarkAllAsRead)
				notifications.PUT("/:notification_id", h.Notification.Update)
				notifications.GET("/:notification_id", h.Notification.Show)
				notifications.DELETE("/:notification_id", h.Notification.Delete)
			}
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services, cfg *config.Config) {
	// Penalty sweep across all buildings. Runs once at startup too, so a
	// redeploy never delays penalties by a full interval.
	worker.ScheduleEveryImmediate(time.Duration(cfg.PenaltySweepIntervalHours)*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Running penalty sweep...")
		return svcs.Penalty.ApplyPenaltiesAllBuildings(ctx)
	})

	// Daily reminder sweep across all buildings
	worker.ScheduleEvery(time.Duration(cfg.ReminderSweepIntervalHours)*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Running reminder sweep...")
		return svcs.Penalty.SendDueRemindersAllBuildings(ctx)
	})

	logger.Info("Scheduled recurring jobs")
}

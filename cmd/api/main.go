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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/sjperalta/fintera-lending/docs" // Swagger docs
	"github.com/sjperalta/fintera-lending/internal/config"
	"github.com/sjperalta/fintera-lending/internal/database"
	"github.com/sjperalta/fintera-lending/internal/handlers"
	"github.com/sjperalta/fintera-lending/internal/jobs"
	"github.com/sjperalta/fintera-lending/internal/metrics"
	"github.com/sjperalta/fintera-lending/internal/middleware"
	"github.com/sjperalta/fintera-lending/internal/repository"
	"github.com/sjperalta/fintera-lending/internal/services"
	"github.com/sjperalta/fintera-lending/pkg/logger"

	"github.com/gin-gonic/gin"
)

const version = "1.0.0"

// @title Fintera Lending API
// @version 1.0
// @description REST API for the Fintera private lending ledger: loans, credits, bad debts and the balance sheet

// @contact.name API Support
// @contact.email soporte@fintera.hn

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
	logger.Setup(cfg.Environment, cfg.LogLevel)

	// Initialize Sentry (GlitchTip) when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
			Release:          "fintera-lending@" + version,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	if !cfg.AutoClassify {
		logger.Warn("AUTO_CLASSIFY disabled: delinquency sweeps only log suggested statuses")
	}

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics.Init(nil)

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL, cfg.IsProduction())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(repos, worker, cfg)

	// Schedule recurring jobs
	scheduleJobs(worker, svcs, cfg)

	// Initialize handlers
	h := handlers.NewHandlers(svcs, version)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

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

	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		// Health check (public)
		v1.GET("/health", h.Health.Index)

		// Every other route requires a staff token
		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			// Read access for every staff role
			protected.GET("/loans", h.Loan.Index)
			protected.GET("/loans/:loan_id", h.Loan.Show)
			protected.GET("/loans/:loan_id/schedule", h.Loan.Schedule)
			protected.GET("/loans/:loan_id/accrual", h.Loan.Accrual)

			protected.GET("/credits", h.Credit.Index)
			protected.GET("/credits/:credit_id", h.Credit.Show)
			protected.GET("/credits/:credit_id/accrual", h.Credit.Accrual)

			protected.GET("/bad_debts", h.BadDebt.Index)
			protected.GET("/bad_debts/:bad_debt_id", h.BadDebt.Show)

			reports := protected.Group("/reports")
			{
				reports.GET("/balance_sheet", h.Report.BalanceSheet)
				reports.GET("/balance_sheet/export", h.Report.ExportBalanceSheet)
				reports.GET("/portfolio/loans", h.Report.LoanPortfolio)
				reports.GET("/portfolio/credits", h.Report.CreditPortfolio)
				reports.GET("/loans_csv", h.Report.LoansCSV)
				reports.GET("/overdue_loans_csv", h.Report.OverdueLoansCSV)
			}

			protected.GET("/jobs/status", h.Job.Status)

			// Ledger movements (admin and officer)
			writer := protected.Group("")
			writer.Use(middleware.RequireWriter())
			{
				writer.POST("/loans", h.Loan.Create)
				writer.PATCH("/loans/:loan_id", h.Loan.Update)
				writer.POST("/loans/:loan_id/repayments", h.Loan.RecordRepayment)
				writer.POST("/loans/:loan_id/status", h.Loan.ChangeStatus)
				writer.POST("/loans/:loan_id/archive", h.Loan.Archive)
				writer.POST("/loans/:loan_id/bad_debt", h.Loan.DeclareBadDebt)

				writer.POST("/credits", h.Credit.Create)
				writer.POST("/credits/:credit_id/payouts", h.Credit.RecordPayout)

				writer.POST("/bad_debts/:bad_debt_id/recoveries", h.BadDebt.RecordRecovery)
			}

			// Admin-only routes
			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.POST("/jobs/sweeps", h.Job.TriggerSweeps)
				admin.GET("/audits/:entity/:entity_id", h.Audit.History)
			}
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services, cfg *config.Config) {
	// Classify loans by days past due
	worker.ScheduleEveryImmediate(services.JobLoanStatusSweep, cfg.SweepInterval, func(ctx context.Context) error {
		logger.Info("[Job] Sweeping loan statuses...")
		return svcs.Job.SweepLoans(ctx)
	})

	// Mature credits whose tenure has ended
	worker.ScheduleEveryImmediate(services.JobCreditStatusSweep, cfg.SweepInterval, func(ctx context.Context) error {
		logger.Info("[Job] Sweeping credit statuses...")
		return svcs.Job.SweepCredits(ctx)
	})

	// Publish today's balance sheet once the startup sweeps have settled statuses
	worker.ScheduleEvery(services.JobBalanceSheetGauge, cfg.GaugeInterval, func(ctx context.Context) error {
		return svcs.Job.RefreshGauges(ctx)
	})

	logger.Info("Scheduled recurring jobs",
		"sweep_interval", cfg.SweepInterval.String(),
		"gauge_interval", cfg.GaugeInterval.String())
}

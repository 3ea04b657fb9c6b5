package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/ipowatch/dashboard-backend/config"
	"github.com/ipowatch/dashboard-backend/handlers"
	"github.com/ipowatch/dashboard-backend/jobs"
	"github.com/ipowatch/dashboard-backend/models"
	"github.com/ipowatch/dashboard-backend/services"
	"github.com/ipowatch/dashboard-backend/shared"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load config
	cfg := config.LoadConfig()

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	} else {
		logrus.Warnf("Invalid LOG_LEVEL %q, using info", cfg.LogLevel)
	}

	// Caches: long-lived listing snapshots, shorter-lived GMP quotes. Both
	// share one sweep interval.
	ipoCache := services.NewCache[[]models.IPORecord]("ipo_listings", cfg.GetIPOCacheTTL(), cfg.GetSweepInterval())
	gmpCache := services.NewCache[models.GMPQuote]("gmp_quotes", cfg.GetGMPCacheTTL(), cfg.GetSweepInterval())
	ipoCache.Start()
	gmpCache.Start()

	browserPool := shared.NewBrowserPool(cfg.GetBrowserMaxAge())

	// Initialize services
	utilityService := services.NewUtilityService()

	scraperConfig := services.NewDefaultScraperConfiguration()
	scraperConfig.BaseURL = cfg.ChittorgarhBaseURL
	scraperConfig.HTTPRequestTimeout = cfg.GetScrapeTimeout()
	scraper := services.NewChittorgarhScraper(scraperConfig, utilityService)

	gmpService := services.NewGMPService(browserPool, gmpCache, cfg.GetScrapeTimeout())
	allocationService := services.NewAllocationService(utilityService)
	calculator := services.NewApplicationCalculator(utilityService)
	optimizer := services.NewFundOptimizer(utilityService)

	ipoService := services.NewIPOService(scraper, gmpService, allocationService, calculator, utilityService, ipoCache)

	logrus.Info("IPO dashboard backend services initialized:")
	logrus.Infof("  - Chittorgarh scraper (rate limit: %v, timeout: %v)",
		scraperConfig.RequestRateLimit, scraperConfig.HTTPRequestTimeout)
	logrus.Infof("  - Listing cache (TTL: %v), GMP cache (TTL: %v), sweep every %v",
		cfg.GetIPOCacheTTL(), cfg.GetGMPCacheTTL(), cfg.GetSweepInterval())
	logrus.Infof("  - Shared browser pool (max age: %v)", cfg.GetBrowserMaxAge())

	// Background GMP refresh keeps quotes current between listing rebuilds.
	gmpJob := jobs.NewGMPRefreshJob(ipoService, cfg.GetGMPCacheTTL())
	gmpJob.Start()

	// Initialize handlers
	ipoHandler := handlers.NewIPOHandler(ipoService)
	optimizerHandler := handlers.NewOptimizerHandler(optimizer)

	// Setup Fiber. Unexpected handler failures surface as JSON with the
	// detail kept server-side.
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if fiberErr, ok := err.(*fiber.Error); ok {
				code = fiberErr.Code
			}
			if code == fiber.StatusInternalServerError {
				logrus.WithError(err).Error("Unhandled request error")
				return c.Status(code).JSON(fiber.Map{"error": "Internal server error"})
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	// Middleware
	app.Use(logger.New())
	app.Use(cors.New())

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})

	// Routes
	api := app.Group("/api")
	api.Get("/live-ipos", ipoHandler.GetLiveIPOs)
	api.Get("/sme-ipos", ipoHandler.GetSMEIPOs)
	api.Get("/all-ipos", ipoHandler.GetAllIPOs)
	api.Post("/optimize-accounts", optimizerHandler.OptimizeAccounts)

	// Graceful shutdown: stop accepting requests, then tear down the
	// background loops and the shared browser.
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-shutdownCh
		logrus.Info("Shutdown signal received, stopping server...")

		if err := app.Shutdown(); err != nil {
			logrus.Errorf("Server shutdown error: %v", err)
		}
	}()

	logrus.Infof("Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logrus.Fatalf("Server failed to start: %v", err)
	}

	gmpJob.Stop()
	ipoCache.Stop()
	gmpCache.Stop()
	browserPool.Close()
	logrus.Info("Server stopped")
}

package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fenilmodi00/allotment-gateway/config"
	"github.com/fenilmodi00/allotment-gateway/handlers"
	"github.com/fenilmodi00/allotment-gateway/jobs"
	"github.com/fenilmodi00/allotment-gateway/services"
	"github.com/fenilmodi00/allotment-gateway/shared"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load config
	cfg := config.LoadConfig()
	unified, err := cfg.LoadUnified()
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	shared.ConfigureLogging(unified.Logging)
	if data, err := unified.ToJSON(); err == nil {
		logrus.Debugf("Effective configuration: %s", data)
	}

	// Outbound transport shared by every checker and listing source
	transport := shared.NewHTTPTransport(unified.TransportConfig())

	var browser shared.PageFetcher
	if unified.Browser.HeadlessFallback {
		browser = shared.NewHeadlessBrowser(unified.Transport.HTTPRequestTimeout)
	}

	resolver := services.NewRegistrarResolver(services.ResolverConfig{
		CacheTTL:     unified.Resolution.CacheTTL,
		CacheMaxSize: unified.Resolution.CacheMaxSize,
		Snapshots:    services.NewListingSnapshotCache(unified.Listing.SnapshotSize, unified.Listing.SnapshotTTL),
	})

	table := services.NewRegistrarTable(unified.Registrars.BaseURLOverrides, unified.Registrars.Generic)
	checkers := services.BuildCheckers(table, services.CheckerDependencies{
		Transport: transport,
		Resolver:  resolver,
		Browser:   browser,
	})
	dispatcher := services.NewDispatcher(table.All(), checkers)
	allotmentService := services.NewAllotmentService(dispatcher, resolver)
	prober := services.NewHealthProber(transport, table.All())

	logrus.WithFields(logrus.Fields{
		"registrars":        len(dispatcher.Registrars()),
		"http_timeout":      unified.Transport.HTTPRequestTimeout,
		"politeness_delay":  unified.Transport.PolitenessDelay,
		"resolution_ttl":    unified.Resolution.CacheTTL,
		"resolution_size":   unified.Resolution.CacheMaxSize,
		"listing_ttl":       unified.Listing.SnapshotTTL,
		"headless_fallback": unified.Browser.HeadlessFallback,
	}).Info("Allotment gateway services initialized")

	// Background jobs
	cleanupJob := jobs.NewCacheCleanupJob(allotmentService)
	scheduler := jobs.NewScheduler()
	if err := scheduler.Schedule(unified.Jobs.CacheSweepSchedule, cleanupJob.Name(), func() { cleanupJob.Run() }); err != nil {
		logrus.WithError(err).Warn("Resolution cache cleanup will not run on a schedule")
	}
	scheduler.Start()

	// Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:      unified.Logging.ServiceName,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Minute,
	})

	middlewareConfig := handlers.MiddlewareConfig{
		RequestLogging: true,
		CheckRateLimit: unified.Server.CheckRateLimit,
	}
	handlers.SetupMiddleware(app, middlewareConfig)
	handlers.SetupRoutes(app, handlers.Router{
		Check:     handlers.NewCheckHandler(allotmentService),
		Registrar: handlers.NewRegistrarHandler(allotmentService),
		Cache:     handlers.NewCacheHandler(allotmentService),
		Admin:     handlers.NewAdminHandler(cleanupJob),
		Health:    handlers.NewHealthHandler(prober),
	}, middlewareConfig)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		logrus.Info("Shutting down allotment gateway")
		<-scheduler.Stop().Done()
		allotmentService.LogMetricsSummary()
		if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
			logrus.WithError(err).Error("Server shutdown failed")
		}
	}()

	// Start server
	logrus.Infof("Server starting on port %s", unified.Server.Port)
	if err := app.Listen(":" + unified.Server.Port); err != nil {
		logrus.Fatalf("Server failed to start: %v", err)
	}
}

package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router holds every handler mounted by SetupRoutes
type Router struct {
	Check     *CheckHandler
	Registrar *RegistrarHandler
	Cache     *CacheHandler
	Admin     *AdminHandler
	Health    *HealthHandler
}

// MiddlewareConfig controls the inbound middleware stack
type MiddlewareConfig struct {
	RequestLogging bool
	// CheckRateLimit is the number of allotment checks allowed per client IP per minute; zero disables it
	CheckRateLimit int
}

// SetupMiddleware installs recovery, request logging and CORS
func SetupMiddleware(app *fiber.App, cfg MiddlewareConfig) {
	app.Use(recover.New())

	if cfg.RequestLogging {
		app.Use(logger.New(logger.Config{
			Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${error}\n",
			TimeFormat: "2006-01-02 15:04:05",
		}))
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))
}

// checkRateLimiter throttles allotment checks, each of which fans out to every registrar
func checkRateLimiter(max int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "-check"
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"error":   "Too many allotment checks, please wait a minute",
			})
		},
	})
}

// SetupRoutes mounts the API
func SetupRoutes(app *fiber.App, router Router, cfg MiddlewareConfig) {
	app.Get("/health", router.Health.GetHealth)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api/v1")

	// Allotment Routes
	check := api.Group("/allotment")
	if cfg.CheckRateLimit > 0 {
		check.Use(checkRateLimiter(cfg.CheckRateLimit))
	}
	check.Post("/check", router.Check.CheckAllotment)
	check.Get("/check", router.Check.CheckAllotmentQuery)

	// Registrar Routes
	api.Get("/registrars", router.Registrar.GetRegistrars)
	api.Get("/registrars/stats", router.Registrar.GetRegistrarStats)
	api.Delete("/registrars/stats", router.Registrar.ResetRegistrarStats)

	// Cache Routes
	api.Get("/cache/resolution", router.Cache.GetResolutionStats)
	api.Delete("/cache/resolution", router.Cache.FlushResolution)

	// Admin Routes
	admin := api.Group("/admin")
	admin.Post("/cache/sweep", router.Admin.TriggerCacheSweep)
}

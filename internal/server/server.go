// Package server builds the Fiber application: middleware chain and routes.
package server

import (
	"github.com/bytedance/sonic"
	"github.com/ggorockee/dollcatch/internal/config"
	"github.com/ggorockee/dollcatch/internal/database"
	"github.com/ggorockee/dollcatch/internal/handlers"
	"github.com/ggorockee/dollcatch/internal/middleware"
	"github.com/ggorockee/dollcatch/internal/services"
	"github.com/ggorockee/dollcatch/internal/telemetry"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

const ServiceName = "dollcatch-api"

// Options switch off middleware that tests do not need
type Options struct {
	AccessLog bool
}

func New(cfg *config.Config, db *database.DB, svc *services.Services, opts Options) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "DollCatch API",
		ErrorHandler: handlers.ErrorHandler,
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	if opts.AccessLog {
		// JSON 구조화 로깅
		app.Use(logger.New(logger.Config{
			Format:     `{"time":"${time}","request_id":"${locals:requestid}","status":${status},"latency":"${latency}","ip":"${ip}","method":"${method}","path":"${path}","user_agent":"${ua}","error":"${error}"}` + "\n",
			TimeFormat: "2006-01-02T15:04:05Z07:00",
			TimeZone:   cfg.ServerTimezone,
		}))
	}
	app.Use(middleware.PrometheusMiddleware())
	app.Use(telemetry.New(telemetry.Config{
		ServiceName: ServiceName,
		Skip:        telemetry.DefaultConfig().Skip,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowOrigins,
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowHeaders:     "Accept, Accept-Encoding, Authorization, Content-Type, Origin, User-Agent, X-Requested-With, X-Request-ID",
		AllowCredentials: false,
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		MaxAge:           86400, // Preflight 캐시 24시간
	}))

	setupRoutes(app, cfg, db, svc)
	return app
}

func setupRoutes(app *fiber.App, cfg *config.Config, db *database.DB, svc *services.Services) {
	// Health check endpoints for k8s probes
	app.Get("/healthz", handlers.HealthCheck)
	app.Get("/v1/healthz", handlers.HealthCheck)
	app.Get("/v1/readiness", handlers.ReadinessCheck(db))
	app.Get("/v1/liveness", handlers.Liveness)

	// Prometheus scrape endpoint (production: 내부망 전용)
	if cfg.IsProduction() {
		app.Get("/metrics", middleware.InternalOnly(), middleware.PrometheusHandler())
	} else {
		app.Get("/metrics", middleware.PrometheusHandler())
	}

	authRequired := middleware.AuthRequired(cfg.JWTSecretKey)
	optionalAuth := middleware.OptionalAuth(cfg.JWTSecretKey)

	v1 := app.Group("/v1")

	handlers.SetupShopRoutes(v1.Group("/doll-shops"), svc)
	handlers.SetupReviewRoutes(v1.Group("/reviews"), svc, authRequired)
	handlers.SetupCommunityRoutes(v1.Group("/community"), svc, authRequired, optionalAuth)
	handlers.SetupCommentRoutes(v1.Group("/comments"), svc, authRequired)
	handlers.SetupFileRoutes(v1.Group("/files"), svc, authRequired)
	handlers.SetupUserRoutes(v1.Group("/users", authRequired), svc)
}

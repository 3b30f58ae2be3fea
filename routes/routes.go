package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ByLCY/papyrus-billing/config"
	"github.com/ByLCY/papyrus-billing/controllers"
	"github.com/ByLCY/papyrus-billing/document"
	"github.com/ByLCY/papyrus-billing/invoice"
	"github.com/ByLCY/papyrus-billing/middlewares"
)

// Deps are the collaborators shared by all handlers.
type Deps struct {
	DB        *gorm.DB
	Generator *document.Generator
	Profile   invoice.CompanyProfile
	Log       *zap.Logger
	Now       func() time.Time
}

// NewApp builds the fiber app with the global error handler, body limit,
// CORS and rate limiting, and registers all routes.
func NewApp(cfg config.Config, deps Deps) *fiber.App {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	app := fiber.New(fiber.Config{
		ErrorHandler: middlewares.ErrorHandler,
		BodyLimit:    cfg.BodyLimitBytes,
	})

	app.Use(middlewares.RequestLogger(deps.Log))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: false, // using Bearer tokens, not cookies
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Idempotency-Key",
	}))
	if cfg.RateLimitMax > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimitMax,
			Expiration: cfg.RateLimitWindow,
		}))
	}

	Register(app, cfg, deps)
	return app
}

// Register wires all HTTP routes.
func Register(app *fiber.App, cfg config.Config, deps Deps) {
	auth := &controllers.Auth{DB: deps.DB}
	lookups := &controllers.Lookups{DB: deps.DB}
	invoices := &controllers.Invoices{
		DB:         deps.DB,
		Generator:  deps.Generator,
		Profile:    deps.Profile,
		Normalizer: invoice.NewNormalizer(cfg.StatePrefix(deps.Profile.TaxID)),
		StorageDir: cfg.StorageDir,
		Now:        deps.Now,
		Log:        deps.Log,
	}

	api := app.Group("/api")
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Public auth endpoints
	api.Post("/auth/register", auth.Register)
	api.Post("/auth/login", auth.Login)

	// Protected endpoints (JWT auth)
	protected := api.Group("/invoices")
	protected.Use(middlewares.IsAuthenticatedHeader())

	// Idempotency guard FIRST (not tied to request TX)
	protected.Use(middlewares.Idempotency(deps.DB))

	// Then per-request transaction (commits/rolls back)
	protected.Use(middlewares.Tx(deps.DB))

	protected.Post("/", invoices.Create)
	protected.Get("/", invoices.List)
	protected.Get("/party/:gst", lookups.GetParty)
	protected.Get("/product/:product_name", lookups.GetProduct)
	protected.Get("/:id", invoices.Get)
	protected.Put("/:id", invoices.Update)
	protected.Get("/:id/pdf", invoices.PDF)
	protected.Get("/:id/versions", invoices.Versions)
}

package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/h2ledger/h2ledger/internal/auth"
	"github.com/h2ledger/h2ledger/internal/config"
	"github.com/h2ledger/h2ledger/internal/identity"
	"github.com/h2ledger/h2ledger/internal/ledger"
	"github.com/h2ledger/h2ledger/internal/mailer"
	"github.com/h2ledger/h2ledger/internal/middleware"
	"github.com/h2ledger/h2ledger/internal/otp"
	"github.com/h2ledger/h2ledger/internal/production"
	"github.com/h2ledger/h2ledger/internal/settlement"
)

// Deps aggregates shared dependencies required to wire routes. Nil DB,
// Cache or Ledger are tolerated only in development mode, where in-memory
// fallbacks are substituted.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Ledger ledger.Ledger
	Logger *slog.Logger
}

// Companies seeded in development mode, mirroring the registered-identity
// set of the pilot deployment.
var devCompanies = []identity.Company{
	{PAN: "ABCDE1234F", GST: "22AAAAA0000A1Z5", Email: "producer-one@example.com"},
	{PAN: "FGHIJ5666K", GST: "33BBBBB0000B2Z6", Email: "producer-two@example.com"},
	{PAN: "KLMNO9012P", GST: "11CCCCC0000C3Z7", Email: "producer-three@example.com"},
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce external collaborators outside of dev, even though main also checks.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Ledger == nil {
			return fmt.Errorf("ledger is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))

	// Health
	RegisterHealthRoutes(app, d)

	// Collaborators, with dev fallbacks.
	ledgerBackend := d.Ledger
	if ledgerBackend == nil {
		ledgerBackend = ledger.NewInMemory()
	}

	var companyRepo identity.Repository
	if d.DB != nil {
		companyRepo = identity.NewPostgresRepository(d.DB)
	} else {
		companyRepo = identity.NewMemoryRepository(devCompanies...)
	}

	var challengeStore otp.Store
	if d.Cache != nil {
		challengeStore = otp.NewRedisStore(d.Cache)
	} else {
		challengeStore = otp.NewMemoryStore()
	}

	var outbound mailer.Mailer
	if d.Cfg.SMTPHost != "" {
		smtp, err := mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     d.Cfg.SMTPHost,
			Port:     d.Cfg.SMTPPort,
			Username: d.Cfg.SMTPUsername,
			Password: d.Cfg.SMTPPassword,
			From:     d.Cfg.EmailFrom,
		}, d.Logger)
		if err != nil {
			return err
		}
		outbound = smtp
	} else {
		outbound = mailer.NewLogMailer(d.Logger)
	}

	var recordRepo production.Repository
	if d.DB != nil {
		recordRepo = production.NewPostgresRepository(d.DB)
	} else {
		recordRepo = production.NewMemoryRepository()
	}

	// Services and handlers
	identitySvc := identity.NewService(companyRepo)
	otpSvc := otp.NewService(identitySvc, challengeStore, outbound, d.Cfg.OTPTTL, d.Logger)
	sessionSvc := auth.NewService(d.Cfg)
	gateway := settlement.NewGateway(ledgerBackend, d.Logger)
	productionSvc := production.NewService(recordRepo, gateway, d.Logger)

	authHandler := auth.NewHandler(identitySvc, otpSvc, sessionSvc)
	settlementHandler := settlement.NewHandler(gateway)
	productionHandler := production.NewHandler(productionSvc)

	// Session boundary for browser navigation.
	app.Get("/login", middleware.LoginRedirect(sessionSvc), func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{"status": "login"})
	})
	app.Get("/dashboard", middleware.SessionAuth(sessionSvc), func(c *fiber.Ctx) error {
		pan, _ := c.Locals("pan").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{"status": "ok", "pan": pan})
	})

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	rateLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterAuthRoutes(api, authHandler, rateLimiter)

	// Protected routes
	sessionMW := middleware.SessionAuth(sessionSvc)
	protected := api.Group("", sessionMW)
	RegisterProductionRoutes(protected, productionHandler)
	RegisterSettlementRoutes(protected, settlementHandler)

	// Administrator routes
	admin := protected.Group("/admin", middleware.RequireAdmin(d.Cfg))
	if d.Cache != nil {
		admin.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}
	RegisterAdminRoutes(admin, productionHandler, settlementHandler)

	return nil
}

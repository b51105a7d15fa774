package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/tradepost/tradepost/internal/auth"
	"github.com/tradepost/tradepost/internal/config"
	"github.com/tradepost/tradepost/internal/gateway"
	"github.com/tradepost/tradepost/internal/identity"
	"github.com/tradepost/tradepost/internal/middleware"
	"github.com/tradepost/tradepost/internal/notification"
	"github.com/tradepost/tradepost/internal/observability"
	"github.com/tradepost/tradepost/internal/wallet"
	"github.com/tradepost/tradepost/internal/webhook"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg      config.Config
	DB       *pgxpool.Pool
	Cache    *redis.Client
	Logger   *slog.Logger
	Notifier notification.Notifier
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !isDev(d.Cfg.AppEnv) {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)
	app.Get("/metrics", adaptor.HTTPHandler(observability.Handler()))

	var store wallet.Store
	if d.DB != nil {
		store = wallet.NewPostgresStore(d.DB, wallet.AccountDefaults{
			DailyWithdrawalLimit:   d.Cfg.DefaultDailyWithdrawalLimit,
			MonthlyWithdrawalLimit: d.Cfg.DefaultMonthlyWithdrawalLimit,
		})
	} else {
		store = wallet.NewMemoryStore()
	}

	notifier := d.Notifier
	if notifier == nil {
		notifier = notification.NewLoggerNotifier(d.Logger)
	}

	gw := gateway.NewStatic(d.Cfg.GatewayFeeBps)
	ledger := wallet.NewService(store, gw, nil, nil, notifier, d.Logger)
	ledger.UseMetrics(observability.NewMetrics(prometheus.DefaultRegisterer))
	if d.Cache != nil {
		ledger.UseSummaryCache(wallet.NewSummaryCache(d.Cache, d.Cfg.SummaryCacheTTL, d.Logger))
	}

	var identityRepo identity.Repository
	if d.DB != nil {
		identityRepo = identity.NewPostgresRepository(d.DB)
	} else {
		identityRepo = identity.NewMemoryRepository()
	}
	identitySvc := identity.NewService(identityRepo)
	authSvc := auth.NewService(d.Cfg, identityRepo)
	authHandler := auth.NewHandler(identitySvc, authSvc, ledger)
	walletHandler := wallet.NewHandler(ledger)
	webhookHandler := webhook.NewHandler(gw, []byte(d.Cfg.WebhookSecret), ledger, d.Logger)

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
	RegisterIdentityRoutes(api, identitySvc, ledger, d.Logger)
	rateLimiter := middleware.LoginRateLimit(d.Cache, d.Cfg.LoginRatePerMin)
	RegisterAuthRoutes(api, authHandler, rateLimiter)
	api.Post("/webhooks/gateway", webhookHandler.HandleGatewayEvent)

	// Protected routes. Idempotency guards only the money-moving group; the
	// webhook and auth endpoints carry no Idempotency-Key.
	jwtmw := middleware.JWTAuth(d.Cfg, identityRepo)
	protected := api.Group("", jwtmw)
	protected.Get("/me", func(c *fiber.Ctx) error {
		uid, _ := c.Locals("user_id").(string)
		if uid == "" {
			return c.SendStatus(http.StatusUnauthorized)
		}
		user, err := identityRepo.FindByID(c.UserContext(), uid)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "user not found")
		}
		return c.JSON(fiber.Map{
			"user_id":       user.ID,
			"phone":         user.Phone,
			"tier":          user.Tier,
			"device_id":     user.DeviceID,
			"token_version": user.TokenVersion,
			"created_at":    user.CreatedAt,
			"last_login":    user.LastLogin,
		})
	})

	walletGroup := protected.Group("/wallet")
	if d.Cache != nil {
		walletGroup.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}
	RegisterWalletRoutes(walletGroup, walletHandler)

	return nil
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

package routes

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/cashcards/cashcards/internal/access"
	"github.com/cashcards/cashcards/internal/auth"
	"github.com/cashcards/cashcards/internal/cashcard"
	"github.com/cashcards/cashcards/internal/config"
	"github.com/cashcards/cashcards/internal/identity"
	"github.com/cashcards/cashcards/internal/middleware"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger

	// Cards and Users override the storage picked from DB. Tests use them to
	// start from known records.
	Cards cashcard.Store
	Users identity.Repository
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	if d.Logger == nil {
		return fmt.Errorf("logger is required")
	}

	maxAbs := decimal.Zero
	if d.Cfg.MaxAbsAmount != "" {
		v, err := decimal.NewFromString(d.Cfg.MaxAbsAmount)
		if err != nil {
			return fmt.Errorf("invalid MAX_ABS_AMOUNT: %w", err)
		}
		maxAbs = v
	}

	app.Use(middleware.RequestID())
	if d.Cfg.LogFormat == "text" {
		// [HH:MM:SS] 200 -  145ms METHOD /path
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	}
	app.Use(middleware.Audit(d.Logger))
	app.Use(recover.New())

	RegisterHealthRoutes(app, d)

	users := d.Users
	if users == nil {
		if d.DB != nil {
			users = identity.NewPostgresRepository(d.DB)
		} else {
			users = identity.NewMemoryRepository()
		}
	}
	identitySvc := identity.NewService(users)
	if err := identitySvc.Seed(context.Background(), seedUsers(d.Cfg.SeedUsers)); err != nil {
		return err
	}

	cards := d.Cards
	if cards == nil {
		if d.DB != nil {
			cards = cashcard.NewPostgresStore(d.DB)
		} else {
			cards = cashcard.NewMemoryStore()
		}
	}

	policy := access.NewPolicy(d.Cfg.OwnerRole)
	cardSvc := cashcard.NewService(cards, policy, cashcard.Limits{
		MaxPageSize:  d.Cfg.MaxPageSize,
		MaxAbsAmount: maxAbs,
	})
	tokenSvc := auth.NewService(d.Cfg.JWTSecret, d.Cfg.TokenTTL, d.Cfg.AppName)

	limiter := middleware.NewFailureLimiter(d.Cache, d.Cfg.LoginMaxFailures, loginFailureWindow)
	authn := middleware.Authenticate(identitySvc, tokenSvc, limiter, d.Logger)

	RegisterAuthRoutes(app, auth.NewHandler(tokenSvc), authn)
	RegisterCashCardRoutes(app, CashCardRoutes{
		Handler:      cashcard.NewHandler(cardSvc, d.Cfg.DefaultPageSize),
		Authenticate: authn,
		RequireOwner: access.RequireRole(policy),
		Idempotency:  middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger),
	})

	return nil
}

func seedUsers(seeds []config.UserSeed) []identity.SeedUser {
	out := make([]identity.SeedUser, 0, len(seeds))
	for _, s := range seeds {
		out = append(out, identity.SeedUser{Username: s.Username, Password: s.Password, Roles: s.Roles})
	}
	return out
}

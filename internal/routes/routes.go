package routes

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/sendvault/sendvault/internal/config"
	"github.com/sendvault/sendvault/internal/mail"
	"github.com/sendvault/sendvault/internal/middleware"
	"github.com/sendvault/sendvault/internal/otp"
	"github.com/sendvault/sendvault/internal/password"
	"github.com/sendvault/sendvault/internal/send"
	"github.com/sendvault/sendvault/internal/sendaccess"
	"github.com/sendvault/sendvault/internal/token"
)

// Deps aggregates shared dependencies required to wire routes. SendRepo
// and Mailer may be pre-set (tests do); otherwise Setup builds them.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger

	SendRepo send.Repository
	Mailer   mail.Mailer
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Outside of dev both stores must be present, even though main checks too.
	if !isDev(d.Cfg.AppEnv) {
		if d.DB == nil && d.SendRepo == nil {
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

	sendRepo := d.SendRepo
	if sendRepo == nil {
		if d.DB != nil {
			sendRepo = send.NewPostgresRepository(d.DB)
		} else {
			sendRepo = send.NewMemoryRepository()
		}
	}

	mailer := d.Mailer
	if mailer == nil {
		mailer = mail.NewLoggerMailer(d.Logger)
	}

	otpStore := otp.NewRedisStore(d.Cache, d.Cfg.OtpMaxAttempts)
	provider := otp.NewProvider(otpStore, d.Cfg.OtpTTL, d.Cfg.OtpLength)
	minter := token.NewMinter(d.Cfg.JWTSecret, d.Cfg.AppName)

	dispatcher := sendaccess.NewDispatcher(sendaccess.Deps{
		Repo:        sendRepo,
		Selector:    sendaccess.NewSelector(d.Cfg.EnumSalt),
		OtpProvider: provider,
		Mailer:      mailer,
		Verifier:    password.NewVerifier(),
		Minter:      minter,
		ClientID:    d.Cfg.SendClientID,
		AccessTTL:   d.Cfg.AccessTokenTTL,
		Logger:      d.Logger,
	})

	rateLimiter := middleware.TokenRateLimit(d.Cache, 20)
	RegisterTokenRoutes(app, NewTokenHandler(dispatcher), rateLimiter)

	// Routes below require a bearer token minted by the grant above.
	protected := app.Group("/api/v1", middleware.SendTokenAuth(minter))
	RegisterSendAccessRoutes(protected)

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

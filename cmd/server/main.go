package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/auth0"
	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/config"
	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/database"
	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/logging"
	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/models"
	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/repository"
	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/routes"
	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/services"
	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/storage"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Store
	var (
		users       repository.Repository[models.User]
		evaluations repository.Repository[models.Evaluation]
		ping        func(context.Context) error
		db          *gorm.DB
		mongoClient *mongo.Client
		pgLog       *logging.PGHandler
		cleanupDone = make(chan struct{})
	)
	switch cfg.StoreBackend {
	case config.BackendMongo:
		client, err := database.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			slog.Error("mongo connection failed", "error", err)
			os.Exit(1)
		}
		mongoClient = client
		mdb := client.Database(cfg.MongoDatabase)
		if err := database.EnsureMongoIndexes(ctx, mdb); err != nil {
			slog.Error("mongo index setup failed", "error", err)
			os.Exit(1)
		}
		users = repository.NewMongo[models.User](mdb, database.UsersCollection)
		evaluations = repository.NewMongo[models.Evaluation](mdb, database.EvaluationsCollection)
		ping = func(ctx context.Context) error { return database.PingMongo(ctx, client) }

	default:
		conn, err := database.Connect(cfg)
		if err != nil {
			slog.Error("database connection failed", "error", err)
			os.Exit(1)
		}
		db = conn
		if err := database.Migrate(db); err != nil {
			slog.Error("migration failed", "error", err)
			os.Exit(1)
		}
		if err := database.MigrateLogs(db); err != nil {
			slog.Error("system log migration failed", "error", err)
			os.Exit(1)
		}

		// PostgreSQL log handler (ERROR+ async batch)
		pgLog = logging.NewPGHandler(db)
		logging.AttachDB(pgLog)
		logging.StartCleanup(db, cfg.LogRetentionDays, cleanupDone)

		users = repository.NewGorm[models.User](db)
		evaluations = repository.NewGorm[models.Evaluation](db)
		ping = func(ctx context.Context) error { return database.Ping(ctx, conn) }
	}

	// Icon storage
	icons, err := storage.NewS3(ctx, storage.S3Config{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Endpoint:  cfg.S3Endpoint,
	})
	if err != nil {
		slog.Error("icon storage setup failed", "error", err)
		os.Exit(1)
	}

	// Auth0
	management, err := auth0.New(ctx, auth0.Config{
		Domain:       cfg.Auth0Domain,
		ClientID:     cfg.Auth0MgmtClientID,
		ClientSecret: cfg.Auth0MgmtClientSecret,
		Timeout:      cfg.Auth0Timeout,
	})
	if err != nil {
		slog.Error("auth0 management client setup failed", "error", err)
		os.Exit(1)
	}
	jwks, err := keyfunc.Get(cfg.JWKSURL(), keyfunc.Options{
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			slog.Error("jwks refresh failed", "url", cfg.JWKSURL(), "error", err)
		},
	})
	if err != nil {
		slog.Error("jwks fetch failed", "url", cfg.JWKSURL(), "error", err)
		os.Exit(1)
	}
	verifier := middleware.NewTokenVerifier(jwks.Keyfunc, cfg.Issuer(), cfg.Auth0Audience, cfg.Auth0TokenSigningAlg)

	// Rate limiter storage; without Redis each instance limits on its own.
	var limiterStorage fiber.Storage
	var redisStorage *middleware.RedisStorage
	if cfg.RedisURL != "" {
		redisStorage, err = middleware.NewRedisStorage(ctx, cfg.RedisURL)
		if err != nil {
			slog.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		limiterStorage = redisStorage
	}

	// Services
	var filter *services.ContentFilter
	if cfg.ContentFilterEnabled {
		filter = services.NewContentFilter()
	}
	locks := services.NewUserLocks()
	userService := services.NewUserService(users, management, locks)
	evaluationService := services.NewEvaluationService(evaluations, users, icons, filter, cfg.AggregateMode, locks)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, verifier, limiterStorage, routes.Handlers{
		User:       handlers.NewUserHandler(userService, icons),
		Evaluation: handlers.NewEvaluationHandler(evaluationService, userService),
		Icon:       handlers.NewIconHandler(icons),
		Health:     handlers.NewHealthHandler(cfg.StoreBackend, ping),
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "store", cfg.StoreBackend, "aggregate_mode", cfg.AggregateMode)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	jwks.EndBackground()
	sentry.Flush(2 * time.Second)

	if redisStorage != nil {
		if err := redisStorage.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}
	if mongoClient != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := mongoClient.Disconnect(shutdownCtx); err != nil {
			slog.Error("mongo disconnect error", "error", err)
		}
		cancel()
	}
	if pgLog != nil {
		pgLog.Stop()
	}
	if db != nil {
		if err := database.Close(db); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error",
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
			"route", c.Path(),
			"method", c.Method(),
			"error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}

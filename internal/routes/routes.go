package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/config"
	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/peer-evaluation/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

type Handlers struct {
	User       *handlers.UserHandler
	Evaluation *handlers.EvaluationHandler
	Icon       *handlers.IconHandler
	Health     *handlers.HealthHandler
}

// Setup mounts every route. limiterStorage may be nil for per-process limits.
func Setup(
	app *fiber.App,
	cfg *config.Config,
	verifier *middleware.TokenVerifier,
	limiterStorage fiber.Storage,
	h Handlers,
) {
	// General rate limiter per IP
	app.Use(limiter.New(limiter.Config{
		Max:               cfg.RateLimitPerMinute,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
		Storage:           limiterStorage,
		Next:              func(c *fiber.Ctx) bool { return c.Path() == "/health" },
	}))

	app.Get("/health", h.Health.Check)
	app.Get("/icon", h.Icon.Get)

	protected := middleware.JWTProtected(verifier)
	optional := middleware.JWTOptional(verifier)

	// Static paths are registered before /user/:id so they win the match.
	user := app.Group("/user")
	user.Get("/auth0", protected, h.User.GetByAuth0ID)
	user.Post("/signup", protected, h.User.Signup)
	user.Put("/update", protected, h.User.Update)
	user.Put("/update-email", protected, h.User.UpdateEmail)
	user.Delete("/delete/auth0", protected, h.User.DeleteAuth0)
	user.Delete("/delete", protected, h.User.Delete)
	user.Post("/icon", protected, h.User.UploadIcon)
	user.Get("/:id", h.User.GetByID)

	// Anonymous submissions get their own per-IP limit.
	evaluation := app.Group("/evaluation")
	evaluation.Post("/:userId", limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return "evaluation:" + c.IP() },
		Storage:           limiterStorage,
	}), h.Evaluation.Create)
	evaluation.Get("/detail/:id", optional, h.Evaluation.Detail)
	evaluation.Get("/all/:userId", protected, h.Evaluation.All)
	evaluation.Get("/published/:userId", h.Evaluation.Published)
	evaluation.Put("/publish/:userId/:evaluationId", protected, h.Evaluation.Publish)
	evaluation.Put("/unpublish/:userId/:evaluationId", protected, h.Evaluation.Unpublish)
	evaluation.Put("/delete/:userId/:evaluationId", protected, h.Evaluation.Delete)
}

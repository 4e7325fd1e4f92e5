package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func RegisterRoutes(app *fiber.App, handler *Handler) {
	registerPageRoutes(app, handler)
	registerAPIRoutes(app, handler)
}

func registerPageRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)
	app.Get("/favicon.ico", sendNoContent)
	app.Get("/lang/:lang", handler.SetLanguage)

	app.Get("/", handler.ShowLanding)
	app.Get("/signup", handler.ShowSignupForm)
}

func registerAPIRoutes(app *fiber.App, handler *Handler) {
	api := app.Group("/api")

	signups := api.Group("/signups")
	signups.Post("", handler.signupRateLimiter(), handler.CreateSignup)
	signups.Get("/receipt/:token", handler.GetSignupReceipt)

	api.Get("/pricing", handler.GetPricing)
	api.Get("/social-proof", handler.GetSocialProof)
}

// signupRateLimiter caps sign-up posts per client IP. A non-positive limit disables it.
func (handler *Handler) signupRateLimiter() fiber.Handler {
	if handler.signupLimit <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return limiter.New(limiter.Config{
		Max:        handler.signupLimit,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "signup:" + c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			handler.logger.Warn().Str("ip", c.IP()).Msg("signup rate limit reached")
			return handler.respondSignupFailure(c, "", fiber.StatusTooManyRequests, "too many requests", "signup.toast.rate_limited")
		},
	})
}

func sendNoContent(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

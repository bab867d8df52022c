// Package webapi is the thin HTTP adapter over the engine's services.
// It is organized into sub-packages per area:
// - currency: platform currency configuration
// - exchange: exchange rate ledger and conversion
// - promotion: campaigns, promo codes, validation and redemption
package webapi

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/ticketcore/promoengine/pkg/app"
	"github.com/ticketcore/promoengine/pkg/config"
	"github.com/ticketcore/promoengine/webapi/common"
	currencyweb "github.com/ticketcore/promoengine/webapi/currency"
	exchangeweb "github.com/ticketcore/promoengine/webapi/exchange"
	promotionweb "github.com/ticketcore/promoengine/webapi/promotion"
)

// SetupApp Initialize Fiber with custom configuration
func SetupApp(a *app.App) *fiber.App {
	fiberApp := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		},
	})

	rl := rateLimit(a.Config)
	fiberApp.Use(limiter.New(limiter.Config{
		Max:          rl.MaxRequests,
		Expiration:   rl.Window,
		KeyGenerator: clientKey,
		LimitReached: func(c *fiber.Ctx) error {
			return common.ProblemDetailsJSON(
				c,
				"Too Many Requests",
				errors.New("rate limit exceeded"),
				fiber.StatusTooManyRequests,
			)
		},
	}))
	fiberApp.Use(recover.New())
	if a.Config == nil || a.Config.Env != "test" {
		fiberApp.Use(logger.New())
	}

	fiberApp.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Promotion engine is running")
	})

	currencyweb.Routes(fiberApp, a.CurrencyConfig)
	exchangeweb.Routes(fiberApp, a.Exchange)
	promotionweb.Routes(fiberApp, a.Promotions, a.PromoCodes)
	return fiberApp
}

func rateLimit(cfg *config.App) config.RateLimit {
	rl := config.RateLimit{MaxRequests: 100, Window: time.Minute}
	if cfg == nil || cfg.RateLimit == nil {
		return rl
	}
	if cfg.RateLimit.MaxRequests > 0 {
		rl.MaxRequests = cfg.RateLimit.MaxRequests
	}
	if cfg.RateLimit.Window > 0 {
		rl.Window = cfg.RateLimit.Window
	}
	return rl
}

// clientKey prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// peer address.
func clientKey(c *fiber.Ctx) string {
	if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		return strings.TrimSpace(first)
	}
	if realIP := c.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return c.IP()
}

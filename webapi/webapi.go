// Package webapi provides the HTTP surface of the pledge engine. It is
// organized into sub-packages:
// - checkout: backer-facing checkout and payment session endpoints
// - admin: operator capture and void endpoints
package webapi

import (
	"errors"
	"strings"

	"github.com/amirasaad/crowdpledge/pkg/app"
	authsvc "github.com/amirasaad/crowdpledge/pkg/service/auth"
	adminweb "github.com/amirasaad/crowdpledge/webapi/admin"
	checkoutweb "github.com/amirasaad/crowdpledge/webapi/checkout"
	"github.com/amirasaad/crowdpledge/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// SetupApp Initialize Fiber with custom configuration
func SetupApp(a *app.App) *fiber.App {
	cfg := a.Config
	log := a.Deps.Logger
	authSvc := authsvc.NewWithJWT(cfg.Auth.Jwt, log)

	fiberApp := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return common.ProblemDetailsJSON(c, "Internal Server Error", err)
		},
	})

	// Uses X-Forwarded-For when behind a proxy, then X-Real-IP, then the
	// direct IP.
	fiberApp.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimit.MaxRequests,
		Expiration: cfg.RateLimit.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
				if commaIndex := strings.Index(forwardedFor, ","); commaIndex != -1 {
					return strings.TrimSpace(forwardedFor[:commaIndex])
				}
				return strings.TrimSpace(forwardedFor)
			}
			if realIP := c.Get("X-Real-IP"); realIP != "" {
				return realIP
			}
			return c.IP()
		},
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
	if cfg.Env == "development" {
		fiberApp.Use(logger.New())
	}

	fiberApp.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("Pledge engine is running")
	})

	checkoutweb.Routes(fiberApp, a.Pledge, a.Deps.Sessions, authSvc, cfg, log)
	adminweb.Routes(fiberApp, a.Pledge, authSvc, cfg, log)

	return fiberApp
}

package middleware

import (
	"errors"

	"github.com/amirasaad/crowdpledge/pkg/config"
	"github.com/amirasaad/crowdpledge/pkg/domain"
	authsvc "github.com/amirasaad/crowdpledge/pkg/service/auth"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// UserKey is where JwtProtected stores the validated *jwt.Token.
const UserKey = "user"

// OperatorKey is where OperatorOnly stores the operator name.
const OperatorKey = "operator"

// JwtProtected validates the bearer token of a request.
func JwtProtected(cfg *config.Jwt) fiber.Handler {
	secret := ""
	if cfg != nil {
		secret = cfg.Secret
	}
	return jwtware.New(jwtware.Config{
		SigningKey:   jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(secret)},
		ContextKey:   UserKey,
		ErrorHandler: jwtError,
	})
}

// OperatorOnly rejects tokens that do not carry the operator role.
func OperatorOnly(auth *authsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, _ := c.Locals(UserKey).(*jwt.Token)
		operator, err := auth.GetCurrentOperator(token)
		if err != nil {
			status := fiber.StatusUnauthorized
			if errors.Is(err, domain.ErrForbidden) {
				status = fiber.StatusForbidden
			}
			return problem(c, status, "Operator token required", err.Error())
		}
		c.Locals(OperatorKey, operator)
		return c.Next()
	}
}

func jwtError(c *fiber.Ctx, err error) error {
	if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
		return problem(c, fiber.StatusBadRequest, "Missing or malformed JWT", err.Error())
	}
	return problem(c, fiber.StatusUnauthorized, "Invalid or expired JWT", err.Error())
}

func problem(c *fiber.Ctx, status int, title, detail string) error {
	c.Set(fiber.HeaderContentType, "application/problem+json")
	return c.Status(status).JSON(fiber.Map{
		"type":     "about:blank",
		"title":    title,
		"status":   status,
		"detail":   detail,
		"instance": c.OriginalURL(),
	})
}

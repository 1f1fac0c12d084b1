package admin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amirasaad/crowdpledge/pkg/config"
	"github.com/amirasaad/crowdpledge/pkg/domain"
	"github.com/amirasaad/crowdpledge/pkg/domain/pledge"
	"github.com/amirasaad/crowdpledge/pkg/middleware"
	authsvc "github.com/amirasaad/crowdpledge/pkg/service/auth"
	pledgesvc "github.com/amirasaad/crowdpledge/pkg/service/pledge"
	"github.com/amirasaad/crowdpledge/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes registers the operator transaction routes.
func Routes(
	app *fiber.App,
	engine *pledgesvc.Engine,
	authSvc *authsvc.Service,
	cfg *config.App,
	logger *slog.Logger,
) {
	group := app.Group(
		"/admin/transactions",
		middleware.JwtProtected(cfg.Auth.Jwt),
		middleware.OperatorOnly(authSvc),
	)
	group.Post("/:id/capture", Capture(engine, logger))
	group.Post("/:id/void", Void(engine, logger))
}

// Capture returns a Fiber handler that captures a pending transaction.
func Capture(engine *pledgesvc.Engine, logger *slog.Logger) fiber.Handler {
	return operate("Capture", engine.Capture, logger)
}

// Void returns a Fiber handler that voids a transaction.
func Void(engine *pledgesvc.Engine, logger *slog.Logger) fiber.Handler {
	return operate("Void", engine.Void, logger)
}

func operate(name string, op func(context.Context, int64) pledge.Result, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return common.ProblemDetailsJSON(c, "Invalid transaction id",
				fmt.Errorf("%w: transaction id %q", domain.ErrValidation, c.Params("id")))
		}
		operator, _ := c.Locals(middleware.OperatorKey).(string)
		res := op(c.UserContext(), int64(id))
		logger.Info("Operator action", "action", name, "operator", operator, "transaction_id", id, "result", res.Kind, "reason", res.Reason)
		if res.Kind == pledge.ResultError {
			return common.ProblemDetailsJSON(c, res.Text, nil, resultStatus(res), res)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, res.Text, res)
	}
}

func resultStatus(res pledge.Result) int {
	switch res.Reason {
	case pledge.ReasonConfiguration:
		return fiber.StatusServiceUnavailable
	case pledge.ReasonNoPayoutOptions:
		return fiber.StatusConflict
	case pledge.ReasonTransactionNotFound:
		return fiber.StatusNotFound
	case pledge.ReasonSystemError:
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusUnprocessableEntity
	}
}

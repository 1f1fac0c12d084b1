package checkout

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/amirasaad/crowdpledge/pkg/config"
	"github.com/amirasaad/crowdpledge/pkg/domain"
	"github.com/amirasaad/crowdpledge/pkg/domain/pledge"
	"github.com/amirasaad/crowdpledge/pkg/middleware"
	authsvc "github.com/amirasaad/crowdpledge/pkg/service/auth"
	pledgesvc "github.com/amirasaad/crowdpledge/pkg/service/pledge"
	"github.com/amirasaad/crowdpledge/pkg/session"
	"github.com/amirasaad/crowdpledge/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// Routes registers the backer-facing payment routes.
func Routes(
	app *fiber.App,
	engine *pledgesvc.Engine,
	sessions session.Store,
	authSvc *authsvc.Service,
	cfg *config.App,
	logger *slog.Logger,
) {
	// Every method reaches the handler so that the engine can reject
	// non-POST requests with its own reason.
	app.All("/payments/checkout", Checkout(engine, logger))
	app.Post(
		"/payments/sessions",
		middleware.JwtProtected(cfg.Auth.Jwt),
		middleware.OperatorOnly(authSvc),
		CreateSession(sessions),
	)
}

// Checkout returns a Fiber handler that runs a pledge checkout.
func Checkout(engine *pledgesvc.Engine, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := pledgesvc.CheckoutRequest{Method: c.Method()}
		if c.Method() == fiber.MethodPost {
			input, err := common.BindAndValidate[CheckoutRequest](c)
			if err != nil {
				return nil
			}
			amount, err := parseAmount(input.Amount)
			if err != nil {
				return common.ProblemDetailsJSON(c, "Invalid amount", err)
			}
			req.SessionID = input.SessionID
			req.GatewayToken = input.StripeToken
			req.Item = pledgesvc.Item{
				ProjectID: input.ProjectID,
				Title:     input.Title,
				Slug:      input.Slug,
				CatSlug:   input.CatSlug,
				Amount:    amount,
				Currency:  input.Currency,
			}
		}

		res, err := engine.Checkout(c.UserContext(), req)
		if err != nil {
			var failure *pledge.CheckoutFailure
			if !errors.As(err, &failure) {
				logger.Error("Checkout failed", "error", err)
				return common.ProblemDetailsJSON(c, "Checkout failed", err)
			}
			if failure.RedirectURL != "" {
				c.Set(fiber.HeaderLocation, failure.RedirectURL)
			}
			return common.ProblemDetailsJSON(c, "Checkout rejected", nil,
				failureStatus(failure.Reason),
				failure.Message,
				FailureDTO{Reason: string(failure.Reason), RedirectURL: failure.RedirectURL},
			)
		}

		txn := res.Transaction
		c.Set(fiber.HeaderLocation, res.RedirectURL)
		status := fiber.StatusCreated
		if res.Replay {
			status = fiber.StatusOK
		}
		return common.SuccessResponseJSON(c, status, "Pledge accepted", TransactionDTO{
			ID:          txn.ID,
			TxnID:       txn.TxnID,
			ProjectID:   txn.ProjectID,
			InvestorID:  txn.InvestorID,
			RewardID:    txn.RewardID,
			Amount:      txn.Amount,
			Currency:    txn.Currency,
			Status:      string(txn.Status),
			RedirectURL: res.RedirectURL,
			Replay:      res.Replay,
		})
	}
}

// CreateSession returns a Fiber handler that opens a payment session.
func CreateSession(sessions session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, err := common.BindAndValidate[CreateSessionRequest](c)
		if err != nil {
			return nil
		}
		s := &pledge.PaymentSession{
			InvestorID: input.InvestorID,
			ProjectID:  input.ProjectID,
			RewardID:   input.RewardID,
			Anonymous:  input.Anonymous,
		}
		amount, err := parseAmount(input.Amount)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid amount", err)
		}
		s.Amount = amount
		if err := sessions.Save(c.UserContext(), s); err != nil {
			return common.ProblemDetailsJSON(c, "Failed to store payment session", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Payment session created", s)
	}
}

// parseAmount reads an optional decimal amount; empty means zero.
func parseAmount(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q: %v", domain.ErrValidation, raw, err)
	}
	return amount, nil
}

func failureStatus(reason pledge.Reason) int {
	switch reason {
	case pledge.ReasonInvalidRequestMethod:
		return fiber.StatusMethodNotAllowed
	case pledge.ReasonInvalidToken:
		return fiber.StatusBadRequest
	case pledge.ReasonInvalidTransaction, pledge.ReasonInvalidProject, pledge.ReasonInvalidReward:
		return fiber.StatusUnprocessableEntity
	case pledge.ReasonCardError:
		return fiber.StatusPaymentRequired
	case pledge.ReasonDuplicateSubmission:
		return fiber.StatusConflict
	case pledge.ReasonConfiguration:
		return common.ErrorToStatusCode(domain.ErrConfiguration)
	case pledge.ReasonInvalidCustomerObject, pledge.ReasonSystemError:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

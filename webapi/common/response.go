package common

import (
	"errors"

	"github.com/amirasaad/crowdpledge/pkg/domain"
	"github.com/amirasaad/crowdpledge/pkg/domain/pledge"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Response defines the standard API response structure for success cases.
type Response struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ProblemDetails follows RFC 9457 Problem Details for HTTP APIs.
type ProblemDetails struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	Errors   any    `json:"errors,omitempty"`
}

var validate = validator.New()

// SuccessResponseJSON writes a Response.
func SuccessResponseJSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{Status: status, Message: message, Data: data})
}

// ProblemDetailsJSON writes a problem response. The status is derived from
// err unless an int is passed in extras; a string in extras becomes the
// detail and any other value the errors member.
func ProblemDetailsJSON(c *fiber.Ctx, title string, err error, extras ...any) error {
	pd := ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Status:   ErrorToStatusCode(err),
		Instance: c.OriginalURL(),
	}
	if err != nil {
		pd.Detail = err.Error()
	}
	for _, extra := range extras {
		switch v := extra.(type) {
		case int:
			pd.Status = v
		case string:
			pd.Detail = v
		case nil:
		default:
			pd.Errors = v
		}
	}
	if err == nil && pd.Status == fiber.StatusInternalServerError && len(extras) > 0 {
		pd.Status = fiber.StatusBadRequest
	}
	c.Set(fiber.HeaderContentType, "application/problem+json")
	return c.Status(pd.Status).JSON(pd)
}

// ErrorToStatusCode maps domain errors to HTTP status codes.
func ErrorToStatusCode(err error) int {
	var fe *fiber.Error
	switch {
	case err == nil:
		return fiber.StatusInternalServerError
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, pledge.ErrTransactionNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, domain.ErrAlreadyExists), errors.Is(err, pledge.ErrAlreadyCompleted):
		return fiber.StatusConflict
	case errors.Is(err, pledge.ErrInvalidTransition):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrConfiguration):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// BindAndValidate parses the request body and validates it. On failure the
// error response is already written and the returned error is non-nil.
func BindAndValidate[T any](c *fiber.Ctx) (*T, error) {
	var input T
	if err := c.BodyParser(&input); err != nil {
		_ = ProblemDetailsJSON(c, "Invalid request body", err, fiber.StatusBadRequest)
		return nil, err
	}
	if err := validate.Struct(input); err != nil {
		var verrs validator.ValidationErrors
		fields := map[string]string{}
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
		}
		_ = ProblemDetailsJSON(c, "Validation failed", err, fiber.StatusBadRequest, fields)
		return nil, err
	}
	return &input, nil
}

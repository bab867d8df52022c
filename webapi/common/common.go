// Package common holds the response envelope, RFC 9457 problem details and
// request helpers shared by the route packages.
package common

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/ticketcore/promoengine/pkg/domain"
	"github.com/ticketcore/promoengine/pkg/dto"
	"github.com/ticketcore/promoengine/pkg/money"
)

const (
	// HeaderActorID carries the already-authorized caller identity.
	HeaderActorID = "X-Actor-ID"
	// MIMEProblemJSON is the RFC 9457 media type.
	MIMEProblemJSON = "application/problem+json"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Response defines the standard API response structure for success cases.
type Response struct {
	Status  int    `json:"status"`         // HTTP status code
	Message string `json:"message"`        // Human-readable explanation
	Data    any    `json:"data,omitempty"` // Response data
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

// SuccessResponseJSON writes the standard success envelope.
func SuccessResponseJSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{Status: status, Message: message, Data: data})
}

// ProblemDetailsJSON writes err as problem details. The status is derived
// from err unless one is given explicitly.
func ProblemDetailsJSON(c *fiber.Ctx, title string, err error, status ...int) error {
	code := ErrorToStatusCode(err)
	if len(status) > 0 {
		code = status[0]
	}
	pd := ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Status:   code,
		Instance: c.OriginalURL(),
	}
	if err != nil {
		pd.Detail = err.Error()
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			pd.Errors = fieldErrors(verrs)
		}
	}
	return c.Status(code).JSON(pd, MIMEProblemJSON)
}

func fieldErrors(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}

// ErrorToStatusCode maps domain errors to appropriate HTTP status codes.
func ErrorToStatusCode(err error) int {
	var fiberErr *fiber.Error
	switch {
	case err == nil:
		return fiber.StatusInternalServerError
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.Is(err, domain.ErrCodeNotFound),
		errors.Is(err, domain.ErrPromotionNotFound),
		errors.Is(err, domain.ErrRateNotFound),
		errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrCodeAlreadyExists),
		errors.Is(err, domain.ErrAlreadyExists):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrInvalidCurrencyCode),
		errors.Is(err, money.ErrInvalidCurrency),
		errors.Is(err, domain.ErrNotYetActive),
		errors.Is(err, domain.ErrExpired),
		errors.Is(err, domain.ErrUsageLimitReached),
		errors.Is(err, domain.ErrUserUsageLimitReached),
		errors.Is(err, domain.ErrNotApplicableToEvent),
		errors.Is(err, domain.ErrNotApplicableToTicketType),
		errors.Is(err, domain.ErrMinOrderAmountNotMet),
		errors.Is(err, money.ErrMismatchedCurrencies):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidRate),
		errors.Is(err, domain.ErrSameCurrencyPair),
		errors.Is(err, domain.ErrInvalidConfiguration),
		errors.Is(err, domain.ErrInvalidWindow),
		errors.Is(err, domain.ErrInvalidDiscount),
		errors.Is(err, money.ErrInvalidPercentage),
		errors.Is(err, money.ErrAmountExceedsMaxSafeInt):
		return fiber.StatusBadRequest
	default:
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fiber.StatusBadRequest
		}
		return fiber.StatusInternalServerError
	}
}

// BindAndValidate parses the request body and validates it using go-playground/validator.
// On failure it writes the problem response and returns a non-nil error; the
// handler must return nil so the response is not overwritten.
func BindAndValidate[T any](c *fiber.Ctx) (*T, error) {
	var input T
	if err := c.BodyParser(&input); err != nil {
		_ = ProblemDetailsJSON(c, "Invalid request body", err, fiber.StatusBadRequest)
		return nil, err
	}
	if err := validate.Struct(input); err != nil {
		_ = ProblemDetailsJSON(c, "Validation failed", err, fiber.StatusBadRequest)
		return nil, err
	}
	return &input, nil
}

// Actor builds the change-log identity from the X-Actor-ID header. A missing
// header is the system actor; a malformed one is rejected.
func Actor(c *fiber.Ctx) (dto.Actor, error) {
	actor := dto.Actor{
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
	raw := c.Get(HeaderActorID)
	if raw == "" {
		actor.ID = dto.SystemActor.ID
		return actor, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return dto.Actor{}, fiber.NewError(fiber.StatusBadRequest, "invalid "+HeaderActorID+" header")
	}
	actor.ID = id
	return actor, nil
}

// UUIDParam parses a path parameter as a UUID.
func UUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// TimeQuery parses an optional RFC 3339 query parameter. An absent value is
// the zero time, which the services read as now.
func TimeQuery(c *fiber.Ctx, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "invalid "+name+": expected RFC 3339")
	}
	return t, nil
}

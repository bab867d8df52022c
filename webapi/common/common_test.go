package common

import (
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ticketcore/promoengine/pkg/domain"
	"github.com/ticketcore/promoengine/pkg/money"
)

func TestErrorToStatusCode(t *testing.T) {
	type sample struct {
		Name string `validate:"required"`
	}
	verr := validator.New().Struct(sample{})
	require.Error(t, verr)

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"code not found", fmt.Errorf("lookup: %w", domain.ErrCodeNotFound), fiber.StatusNotFound},
		{"rate not found", domain.ErrRateNotFound, fiber.StatusNotFound},
		{"duplicate code", domain.ErrCodeAlreadyExists, fiber.StatusConflict},
		{"expired", domain.ErrExpired, fiber.StatusUnprocessableEntity},
		{"cap reached", domain.ErrUsageLimitReached, fiber.StatusUnprocessableEntity},
		{"unknown currency", domain.ErrInvalidCurrencyCode, fiber.StatusUnprocessableEntity},
		{"mismatched currencies", money.ErrMismatchedCurrencies, fiber.StatusUnprocessableEntity},
		{"bad window", domain.ErrInvalidWindow, fiber.StatusBadRequest},
		{"invalid rate", domain.ErrInvalidRate, fiber.StatusBadRequest},
		{"struct validation", verr, fiber.StatusBadRequest},
		{"fiber error", fiber.NewError(fiber.StatusTeapot, "short and stout"), fiber.StatusTeapot},
		{"unknown", assert.AnError, fiber.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ErrorToStatusCode(tc.err))
		})
	}
}

func TestActorHeader(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		actor, err := Actor(c)
		if err != nil {
			return ProblemDetailsJSON(c, "Invalid actor", err)
		}
		return c.JSON(fiber.Map{"id": actor.ID.String(), "ua": actor.UserAgent})
	})

	id := uuid.New()
	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(HeaderActorID, id.String())
	req.Header.Set(fiber.HeaderUserAgent, "checkout/1.0")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	req = httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(HeaderActorID, "not-a-uuid")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), MIMEProblemJSON)

	req = httptest.NewRequest(fiber.MethodGet, "/", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestTimeQuery(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		at, err := TimeQuery(c, "at")
		if err != nil {
			return ProblemDetailsJSON(c, "Invalid instant", err)
		}
		return c.SendString(at.UTC().Format("2006-01-02"))
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/?at=2026-03-01T10:00:00Z", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/?at=yesterday", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

package currency

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/ticketcore/promoengine/pkg/money"
	currencysvc "github.com/ticketcore/promoengine/pkg/service/currency"
	"github.com/ticketcore/promoengine/webapi/common"
)

const defaultChangeLogLimit = 50

// Routes registers HTTP routes for the platform currency configuration.
func Routes(app *fiber.App, svc *currencysvc.Service) {
	g := app.Group("/api/currency")

	g.Get("/config", GetConfig(svc))
	g.Patch("/config", UpdateConfig(svc))
	g.Put("/config/multi-currency", ToggleMultiCurrency(svc))
	g.Get("/config/changes", ListChangeLogs(svc))
	g.Get("/supported/:code", IsCurrencySupported(svc))
	g.Post("/format", FormatAmount(svc))
}

// GetConfig returns the current configuration, bootstrapping it on first use.
func GetConfig(svc *currencysvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cfg, err := svc.GetConfig(c.UserContext())
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to load currency configuration", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Currency configuration fetched", cfg)
	}
}

// UpdateConfig applies a partial update and records a change log.
func UpdateConfig(svc *currencysvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := common.Actor(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid actor", err)
		}
		input, _ := common.BindAndValidate[UpdateConfigRequest](c)
		if input == nil {
			return nil
		}
		cfg, err := svc.UpdateConfig(c.UserContext(), input.toPatch(), actor)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to update currency configuration", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Currency configuration updated", cfg)
	}
}

// ToggleMultiCurrency enables or disables multi-currency mode.
func ToggleMultiCurrency(svc *currencysvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := common.Actor(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid actor", err)
		}
		input, _ := common.BindAndValidate[ToggleMultiCurrencyRequest](c)
		if input == nil {
			return nil
		}
		cfg, err := svc.ToggleMultiCurrency(c.UserContext(), *input.Enabled, actor)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to toggle multi-currency", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Multi-currency mode updated", cfg)
	}
}

// ListChangeLogs returns recent configuration changes, newest first.
func ListChangeLogs(svc *currencysvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit := defaultChangeLogLimit
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				return common.ProblemDetailsJSON(c, "Invalid limit", fiber.NewError(fiber.StatusBadRequest, "limit must be a positive integer"))
			}
			limit = n
		}
		logs, err := svc.ListChangeLogs(c.UserContext(), limit)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list change logs", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Change logs fetched", logs)
	}
}

// IsCurrencySupported reports whether the platform accepts a currency.
func IsCurrencySupported(svc *currencysvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		code := toCode(c.Params("code"))
		supported, err := svc.IsCurrencySupported(c.UserContext(), code)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to check currency support", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Currency support checked",
			SupportedResponse{Code: code.String(), Supported: supported})
	}
}

// FormatAmount renders an amount with the configured display settings.
func FormatAmount(svc *currencysvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, _ := common.BindAndValidate[FormatAmountRequest](c)
		if input == nil {
			return nil
		}
		m, err := money.New(input.Amount, toCode(input.Currency))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid amount", err)
		}
		formatted, err := svc.FormatAmount(c.UserContext(), m)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to format amount", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Amount formatted", FormattedResponse{Formatted: formatted})
	}
}

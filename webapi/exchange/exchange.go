package exchange

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/ticketcore/promoengine/pkg/money"
	exchangesvc "github.com/ticketcore/promoengine/pkg/service/exchange"
	"github.com/ticketcore/promoengine/webapi/common"
)

// Routes registers HTTP routes for the exchange rate ledger.
func Routes(app *fiber.App, ledger *exchangesvc.Ledger) {
	g := app.Group("/api/exchange-rates")

	g.Post("/", AddRate(ledger))
	g.Get("/", ListActiveRates(ledger))
	g.Post("/convert", Convert(ledger))
	g.Get("/:from/:to", GetRate(ledger))
	g.Get("/:from/:to/history", RateHistory(ledger))
}

// AddRate records a rate and closes the previously active one for the pair.
func AddRate(ledger *exchangesvc.Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := common.Actor(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid actor", err)
		}
		input, _ := common.BindAndValidate[AddRateRequest](c)
		if input == nil {
			return nil
		}
		rate, err := ledger.AddRate(c.UserContext(), input.toDTO(), actor)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to add exchange rate", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Exchange rate recorded", rate)
	}
}

// ListActiveRates returns every rate active at ?at (default now).
func ListActiveRates(ledger *exchangesvc.Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		at, err := common.TimeQuery(c, "at")
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid instant", err)
		}
		rates, err := ledger.ListActiveRates(c.UserContext(), at)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list exchange rates", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Exchange rates fetched", rates)
	}
}

// GetRate returns the rate for a pair at ?at (default now).
func GetRate(ledger *exchangesvc.Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		at, err := common.TimeQuery(c, "at")
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid instant", err)
		}
		from, to := toCode(c.Params("from")), toCode(c.Params("to"))
		rate, err := ledger.GetRate(c.UserContext(), from, to, at)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to get exchange rate", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Exchange rate fetched", RateResponse{
			FromCurrency: from.String(),
			ToCurrency:   to.String(),
			Rate:         rate,
		})
	}
}

// RateHistory returns every recorded rate for a pair, newest first.
func RateHistory(ledger *exchangesvc.Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		history, err := ledger.RateHistory(c.UserContext(), toCode(c.Params("from")), toCode(c.Params("to")))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to fetch rate history", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Rate history fetched", history)
	}
}

// Convert converts an amount with the rate effective at the given instant.
func Convert(ledger *exchangesvc.Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, _ := common.BindAndValidate[ConvertRequest](c)
		if input == nil {
			return nil
		}
		amount, err := money.New(input.Amount, toCode(input.FromCurrency))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid amount", err)
		}
		var at time.Time
		if input.At != nil {
			at = *input.At
		}
		conv, err := ledger.Convert(c.UserContext(), amount, toCode(input.ToCurrency), at)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to convert amount", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Amount converted", ConversionResponse{
			Original:  conv.Original,
			Converted: conv.Converted,
			Rate:      conv.Rate,
		})
	}
}

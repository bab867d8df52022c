package promotion

import (
	"github.com/gofiber/fiber/v2"
	promosvc "github.com/ticketcore/promoengine/pkg/service/promotion"
	"github.com/ticketcore/promoengine/webapi/common"
)

// CreatePromoCode creates a code.
func CreatePromoCode(svc *promosvc.CodeService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := common.UUIDParam(c, "orgId")
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid organization", err)
		}
		actor, err := common.Actor(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid actor", err)
		}
		input, _ := common.BindAndValidate[CreatePromoCodeRequest](c)
		if input == nil {
			return nil
		}
		code, err := svc.Create(c.UserContext(), input.toDTO(orgID), actor)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to create promo code", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Promo code created", code)
	}
}

// ListPromoCodes lists the organization's codes.
func ListPromoCodes(svc *promosvc.CodeService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := common.UUIDParam(c, "orgId")
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid organization", err)
		}
		list, err := svc.List(c.UserContext(), orgID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list promo codes", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Promo codes fetched", list)
	}
}

// GetPromoCode returns one code.
func GetPromoCode(svc *promosvc.CodeService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, id, err := orgAndID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid path", err)
		}
		code, err := svc.Get(c.UserContext(), orgID, id)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Promo code not found", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Promo code fetched", code)
	}
}

// UpdatePromoCode partially updates a code.
func UpdatePromoCode(svc *promosvc.CodeService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, id, err := orgAndID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid path", err)
		}
		actor, err := common.Actor(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid actor", err)
		}
		input, _ := common.BindAndValidate[UpdatePromoCodeRequest](c)
		if input == nil {
			return nil
		}
		code, err := svc.Update(c.UserContext(), orgID, id, input.toDTO(), actor)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to update promo code", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Promo code updated", code)
	}
}

// DeletePromoCode deletes a code. Its redemptions are kept.
func DeletePromoCode(svc *promosvc.CodeService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, id, err := orgAndID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid path", err)
		}
		actor, err := common.Actor(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid actor", err)
		}
		if err := svc.Delete(c.UserContext(), orgID, id, actor); err != nil {
			return common.ProblemDetailsJSON(c, "Failed to delete promo code", err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// PromoCodeStatus returns the derived lifecycle state of a code.
func PromoCodeStatus(svc *promosvc.CodeService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, id, err := orgAndID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid path", err)
		}
		status, err := svc.Status(c.UserContext(), orgID, id)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to derive promo code status", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Promo code status fetched",
			StatusResponse{ID: id, Status: string(status)})
	}
}

// ListRedemptions returns the redemptions recorded for a code.
func ListRedemptions(svc *promosvc.CodeService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, id, err := orgAndID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid path", err)
		}
		reds, err := svc.Redemptions(c.UserContext(), orgID, id)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list redemptions", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Redemptions fetched", reds)
	}
}

// ValidatePromoCode previews a code against an order without consuming it.
func ValidatePromoCode(svc *promosvc.CodeService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := common.UUIDParam(c, "orgId")
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid organization", err)
		}
		input, _ := common.BindAndValidate[ValidatePromoCodeRequest](c)
		if input == nil {
			return nil
		}
		res, err := svc.ValidatePromoCode(c.UserContext(), input.toDTO(orgID))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Promo code rejected", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Promo code is valid", toValidationResponse(res))
	}
}

// UsePromoCode records a redemption. Replaying the same order returns the
// existing redemption with 200 instead of 201.
func UsePromoCode(svc *promosvc.CodeService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, id, err := orgAndID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid path", err)
		}
		input, _ := common.BindAndValidate[RedeemRequest](c)
		if input == nil {
			return nil
		}
		if _, err := svc.Get(c.UserContext(), orgID, id); err != nil {
			return common.ProblemDetailsJSON(c, "Promo code not found", err)
		}
		res, err := svc.UsePromoCode(c.UserContext(), id, input.UserID, input.OrderID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Promo code rejected", err)
		}
		status, message := fiber.StatusCreated, "Promo code redeemed"
		if !res.Created {
			status, message = fiber.StatusOK, "Order already redeemed this promo code"
		}
		return common.SuccessResponseJSON(c, status, message, res)
	}
}

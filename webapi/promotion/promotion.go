package promotion

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	promosvc "github.com/ticketcore/promoengine/pkg/service/promotion"
	"github.com/ticketcore/promoengine/webapi/common"
)

// Routes registers campaign and promo code routes. Every route is scoped to
// the organization in the path.
func Routes(app *fiber.App, campaigns *promosvc.CampaignService, codes *promosvc.CodeService) {
	org := app.Group("/api/orgs/:orgId")

	p := org.Group("/promotions")
	p.Post("/", CreatePromotion(campaigns))
	p.Get("/", ListPromotions(campaigns))
	p.Get("/:id", GetPromotion(campaigns))
	p.Patch("/:id", UpdatePromotion(campaigns))
	p.Delete("/:id", DeletePromotion(campaigns))

	pc := org.Group("/promo-codes")
	pc.Post("/", CreatePromoCode(codes))
	pc.Get("/", ListPromoCodes(codes))
	pc.Post("/validate", ValidatePromoCode(codes))
	pc.Get("/:id", GetPromoCode(codes))
	pc.Patch("/:id", UpdatePromoCode(codes))
	pc.Delete("/:id", DeletePromoCode(codes))
	pc.Get("/:id/status", PromoCodeStatus(codes))
	pc.Get("/:id/redemptions", ListRedemptions(codes))
	pc.Post("/:id/redeem", UsePromoCode(codes))
}

// CreatePromotion creates a campaign.
func CreatePromotion(svc *promosvc.CampaignService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := common.UUIDParam(c, "orgId")
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid organization", err)
		}
		actor, err := common.Actor(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid actor", err)
		}
		input, _ := common.BindAndValidate[CreatePromotionRequest](c)
		if input == nil {
			return nil
		}
		p, err := svc.Create(c.UserContext(), input.toDTO(orgID), actor)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to create promotion", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Promotion created", p)
	}
}

// ListPromotions lists the organization's campaigns.
func ListPromotions(svc *promosvc.CampaignService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, err := common.UUIDParam(c, "orgId")
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid organization", err)
		}
		list, err := svc.List(c.UserContext(), orgID)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to list promotions", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Promotions fetched", list)
	}
}

// GetPromotion returns one campaign.
func GetPromotion(svc *promosvc.CampaignService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, id, err := orgAndID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid path", err)
		}
		p, err := svc.Get(c.UserContext(), orgID, id)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Promotion not found", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Promotion fetched", p)
	}
}

// UpdatePromotion partially updates a campaign.
func UpdatePromotion(svc *promosvc.CampaignService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orgID, id, err := orgAndID(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid path", err)
		}
		actor, err := common.Actor(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid actor", err)
		}
		input, _ := common.BindAndValidate[UpdatePromotionRequest](c)
		if input == nil {
			return nil
		}
		p, err := svc.Update(c.UserContext(), orgID, id, input.toDTO(), actor)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Failed to update promotion", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Promotion updated", p)
	}
}

// DeletePromotion deletes a campaign and its codes. Redemptions are kept.
func DeletePromotion(svc *promosvc.CampaignService) fiber.Handler {
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
			return common.ProblemDetailsJSON(c, "Failed to delete promotion", err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func orgAndID(c *fiber.Ctx) (orgID, id uuid.UUID, err error) {
	if orgID, err = common.UUIDParam(c, "orgId"); err != nil {
		return orgID, id, err
	}
	id, err = common.UUIDParam(c, "id")
	return orgID, id, err
}

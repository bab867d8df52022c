package promotion_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/ticketcore/promoengine/pkg/audit"
	"github.com/ticketcore/promoengine/pkg/domain/promotion"
	"github.com/ticketcore/promoengine/pkg/money"
	promosvc "github.com/ticketcore/promoengine/pkg/service/promotion"
	promotionweb "github.com/ticketcore/promoengine/webapi/promotion"
	"github.com/ticketcore/promoengine/webapi/testutils"
)

type PromotionTestSuite struct {
	testutils.APITestSuite
}

func TestPromotionTestSuite(t *testing.T) {
	suite.Run(t, new(PromotionTestSuite))
}

func (s *PromotionTestSuite) path(format string, args ...any) string {
	return fmt.Sprintf("/api/orgs/%s"+format, append([]any{s.OrgID}, args...)...)
}

func (s *PromotionTestSuite) createCampaign(body map[string]any) *promotion.Promotion {
	now := time.Now().UTC()
	payload := map[string]any{
		"name":          "Launch week",
		"discountType":  "percentage",
		"discountValue": 10,
		"currency":      "NGN",
		"startsAt":      now.Add(-time.Hour),
		"endsAt":        now.Add(24 * time.Hour),
	}
	for k, v := range body {
		payload[k] = v
	}
	resp := s.MakeRequest(fiber.MethodPost, s.path("/promotions"), payload)
	s.Require().Equal(fiber.StatusCreated, resp.StatusCode)
	var p promotion.Promotion
	s.Decode(resp, &p)
	return &p
}

func (s *PromotionTestSuite) createCode(body map[string]any) *promotion.PromoCode {
	resp := s.MakeRequest(fiber.MethodPost, s.path("/promo-codes"), body)
	s.Require().Equal(fiber.StatusCreated, resp.StatusCode)
	var c promotion.PromoCode
	s.Decode(resp, &c)
	return &c
}

func (s *PromotionTestSuite) TestValidateAndRedeemLifecycle() {
	campaign := s.createCampaign(nil)
	code := s.createCode(map[string]any{"promotionId": campaign.ID, "code": " save10 "})
	s.Equal("SAVE10", code.Code)
	s.Equal(money.NGN, code.Currency)

	var preview promotionweb.ValidationResponse
	env := s.Decode(s.MakeRequest(fiber.MethodPost, s.path("/promo-codes/validate"), map[string]any{
		"code":          "save10",
		"orderAmount":   50_000,
		"orderCurrency": "NGN",
	}), &preview)
	s.Equal(fiber.StatusOK, env.Status)
	s.True(preview.IsValid)
	s.Equal(int64(5_000), preview.Discount.Amount())
	s.Equal(code.ID, preview.PromoCodeID)

	// without orderCurrency the order is priced in the platform default
	s.Decode(s.MakeRequest(fiber.MethodPost, s.path("/promo-codes/validate"), map[string]any{
		"code": "SAVE10", "orderAmount": 50_000,
	}), &preview)
	s.Equal(money.NGN, preview.Discount.Currency())
	s.Equal(int64(5_000), preview.Discount.Amount())

	redeem := map[string]any{"userId": uuid.New(), "orderId": uuid.New()}
	resp := s.MakeRequest(fiber.MethodPost, s.path("/promo-codes/%s/redeem", code.ID), redeem)
	s.Equal(fiber.StatusCreated, resp.StatusCode)
	var first promosvc.RedemptionResult
	s.Decode(resp, &first)
	s.True(first.Created)

	resp = s.MakeRequest(fiber.MethodPost, s.path("/promo-codes/%s/redeem", code.ID), redeem)
	s.Equal(fiber.StatusOK, resp.StatusCode)
	var again promosvc.RedemptionResult
	s.Decode(resp, &again)
	s.False(again.Created)
	s.Equal(first.Redemption.ID, again.Redemption.ID)

	var reds []promotion.Redemption
	s.Decode(s.MakeRequest(fiber.MethodGet, s.path("/promo-codes/%s/redemptions", code.ID), nil), &reds)
	s.Len(reds, 1)

	var status promotionweb.StatusResponse
	s.Decode(s.MakeRequest(fiber.MethodGet, s.path("/promo-codes/%s/status", code.ID), nil), &status)
	s.Equal(string(promotion.StatusActive), status.Status)

	resp = s.MakeRequest(fiber.MethodDelete, s.path("/promotions/%s", campaign.ID), nil)
	s.Equal(fiber.StatusNoContent, resp.StatusCode)
	resp = s.MakeRequest(fiber.MethodGet, s.path("/promo-codes/%s", code.ID), nil)
	s.Equal(fiber.StatusNotFound, resp.StatusCode)

	actions := make([]string, 0, len(*s.Audit))
	for _, e := range *s.Audit {
		actions = append(actions, e.Action)
	}
	s.Contains(actions, audit.ActionPromotionCreated)
	s.Contains(actions, audit.ActionPromotionDeleted)
}

func (s *PromotionTestSuite) TestStandaloneCodeCapAndScope() {
	event := uuid.New()
	code := s.createCode(map[string]any{
		"code":           "FLAT2000",
		"amountOffCents": 2_000,
		"currency":       "NGN",
		"maxRedemptions": 1,
		"eventId":        event,
	})

	resp := s.MakeRequest(fiber.MethodPost, s.path("/promo-codes/validate"), map[string]any{
		"code": "FLAT2000", "orderAmount": 10_000, "orderCurrency": "NGN", "eventId": uuid.New(),
	})
	s.Equal(fiber.StatusUnprocessableEntity, resp.StatusCode)
	s.Contains(s.Problem(resp).Detail, "event")

	resp = s.MakeRequest(fiber.MethodPost, s.path("/promo-codes/%s/redeem", code.ID),
		map[string]any{"userId": uuid.New(), "orderId": uuid.New()})
	s.Equal(fiber.StatusCreated, resp.StatusCode)

	resp = s.MakeRequest(fiber.MethodPost, s.path("/promo-codes/%s/redeem", code.ID),
		map[string]any{"userId": uuid.New(), "orderId": uuid.New()})
	s.Equal(fiber.StatusUnprocessableEntity, resp.StatusCode)

	var status promotionweb.StatusResponse
	s.Decode(s.MakeRequest(fiber.MethodGet, s.path("/promo-codes/%s/status", code.ID), nil), &status)
	s.Equal(string(promotion.StatusExhausted), status.Status)
}

func (s *PromotionTestSuite) TestUpdateCodeAndCampaign() {
	campaign := s.createCampaign(map[string]any{"maxUses": 5})
	code := s.createCode(map[string]any{"code": "SPRING", "percentOff": 15})

	var updatedCode promotion.PromoCode
	s.Decode(s.MakeRequest(fiber.MethodPatch, s.path("/promo-codes/%s", code.ID), map[string]any{
		"clearDiscount": true, "amountOffCents": 500, "currency": "NGN",
	}), &updatedCode)
	s.Nil(updatedCode.PercentOff)
	s.Require().NotNil(updatedCode.AmountOffCents)
	s.Equal(int64(500), *updatedCode.AmountOffCents)

	var updated promotion.Promotion
	s.Decode(s.MakeRequest(fiber.MethodPatch, s.path("/promotions/%s", campaign.ID), map[string]any{
		"name": "Launch week extended", "maxUses": 50,
	}), &updated)
	s.Equal("Launch week extended", updated.Name)
	s.Equal(int64(50), updated.MaxUses)

	var list []promotion.Promotion
	s.Decode(s.MakeRequest(fiber.MethodGet, s.path("/promotions"), nil), &list)
	s.Len(list, 1)

	var codes []promotion.PromoCode
	s.Decode(s.MakeRequest(fiber.MethodGet, s.path("/promo-codes"), nil), &codes)
	s.Len(codes, 1)
}

func (s *PromotionTestSuite) TestRejections() {
	s.createCode(map[string]any{"code": "TAKEN", "percentOff": 5})
	foreign := uuid.New()
	now := time.Now().UTC()

	tests := []struct {
		desc       string
		method     string
		path       string
		body       any
		wantStatus int
	}{
		{"duplicate code", fiber.MethodPost, s.path("/promo-codes"), map[string]any{"code": "taken", "percentOff": 10}, fiber.StatusConflict},
		{"unknown code", fiber.MethodPost, s.path("/promo-codes/validate"), map[string]any{"code": "NOPE", "orderAmount": 100, "orderCurrency": "NGN"}, fiber.StatusNotFound},
		{"invalid org", fiber.MethodGet, "/api/orgs/acme/promotions", nil, fiber.StatusBadRequest},
		{"missing name", fiber.MethodPost, s.path("/promotions"), map[string]any{"discountValue": 5, "startsAt": now, "endsAt": now.Add(time.Hour)}, fiber.StatusBadRequest},
		{"inverted window", fiber.MethodPost, s.path("/promotions"), map[string]any{"name": "x", "discountType": "percentage", "discountValue": 5, "startsAt": now, "endsAt": now.Add(-time.Hour)}, fiber.StatusBadRequest},
		{"percent over 100", fiber.MethodPost, s.path("/promo-codes"), map[string]any{"code": "HUGE", "percentOff": 150}, fiber.StatusBadRequest},
		{"foreign campaign", fiber.MethodPost, s.path("/promo-codes"), map[string]any{"code": "LINKED", "promotionId": foreign}, fiber.StatusNotFound},
		{"redeem missing code", fiber.MethodPost, s.path("/promo-codes/%s/redeem", uuid.New()), map[string]any{"userId": uuid.New(), "orderId": uuid.New()}, fiber.StatusNotFound},
		{"redeem without order", fiber.MethodPost, s.path("/promo-codes/%s/redeem", uuid.New()), map[string]any{"userId": uuid.New()}, fiber.StatusBadRequest},
	}
	for _, tc := range tests {
		s.Run(tc.desc, func() {
			resp := s.MakeRequest(tc.method, tc.path, tc.body)
			s.Equal(tc.wantStatus, resp.StatusCode)
			s.Equal(tc.wantStatus, s.Problem(resp).Status)
		})
	}
}

func (s *PromotionTestSuite) TestCodesAreScopedToOrganization() {
	code := s.createCode(map[string]any{"code": "MINE", "percentOff": 20})
	other := fmt.Sprintf("/api/orgs/%s/promo-codes", uuid.New())

	resp := s.MakeRequest(fiber.MethodGet, other+"/"+code.ID.String(), nil)
	s.Equal(fiber.StatusNotFound, resp.StatusCode)

	resp = s.MakeRequest(fiber.MethodPost, other+"/"+code.ID.String()+"/redeem",
		map[string]any{"userId": uuid.New(), "orderId": uuid.New()})
	s.Equal(fiber.StatusNotFound, resp.StatusCode)

	resp = s.MakeRequest(fiber.MethodPost, other+"/validate",
		map[string]any{"code": "MINE", "orderAmount": 100, "orderCurrency": "NGN"})
	s.Equal(fiber.StatusNotFound, resp.StatusCode)
}

package promotion

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/ticketcore/promoengine/infra/repository/memory"
	"github.com/ticketcore/promoengine/pkg/audit"
	"github.com/ticketcore/promoengine/pkg/domain"
	domainpromo "github.com/ticketcore/promoengine/pkg/domain/promotion"
	"github.com/ticketcore/promoengine/pkg/dto"
	"github.com/ticketcore/promoengine/pkg/money"
	currencysvc "github.com/ticketcore/promoengine/pkg/service/currency"
	"github.com/ticketcore/promoengine/pkg/service/exchange"
)

func ptr[T any](v T) *T { return &v }

type PromotionTestSuite struct {
	suite.Suite
	ctx       context.Context
	now       time.Time
	uow       *memory.UoW
	ledger    *exchange.Ledger
	campaigns *CampaignService
	codes     *CodeService
	entries   []audit.Entry
	mu        sync.Mutex
	org       uuid.UUID
	admin     dto.Actor
}

func TestPromotionTestSuite(t *testing.T) {
	suite.Run(t, new(PromotionTestSuite))
}

func (s *PromotionTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return s.now }
	s.uow = memory.NewUoW(memory.NewStore())
	s.entries = nil
	sink := audit.SinkFunc(func(_ context.Context, e audit.Entry) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.entries = append(s.entries, e)
		return nil
	})

	configs := currencysvc.New(s.uow, nil, nil, audit.Discard, nil, currencysvc.WithClock(clock))
	s.ledger = exchange.New(s.uow, nil, audit.Discard, nil, exchange.WithClock(clock))
	s.campaigns = NewCampaignService(s.uow, nil, configs, sink, nil, WithClock(clock))
	s.codes = NewCodeService(s.uow, nil, configs, s.ledger, sink, nil, WithClock(clock))
	s.org = uuid.New()
	s.admin = dto.Actor{ID: uuid.New(), IPAddress: "10.1.1.1", UserAgent: "test"}
}

func (s *PromotionTestSuite) newCode(in dto.PromoCodeCreate) *domainpromo.PromoCode {
	s.T().Helper()
	if in.OrgID == uuid.Nil {
		in.OrgID = s.org
	}
	c, err := s.codes.Create(s.ctx, in, s.admin)
	s.Require().NoError(err)
	return c
}

func (s *PromotionTestSuite) newCampaign(in dto.PromotionCreate) *domainpromo.Promotion {
	s.T().Helper()
	if in.OrgID == uuid.Nil {
		in.OrgID = s.org
	}
	if in.Name == "" {
		in.Name = "Launch week"
	}
	if in.StartsAt.IsZero() {
		in.StartsAt = s.now.Add(-time.Hour)
	}
	if in.EndsAt.IsZero() {
		in.EndsAt = s.now.Add(24 * time.Hour)
	}
	if in.DiscountType == "" {
		in.DiscountType = "percentage"
	}
	p, err := s.campaigns.Create(s.ctx, in, s.admin)
	s.Require().NoError(err)
	return p
}

func (s *PromotionTestSuite) validate(code string, amount int64, currency string) (*ValidationResult, error) {
	return s.codes.ValidatePromoCode(s.ctx, dto.ValidatePromoCode{
		OrgID:         s.org,
		Code:          code,
		OrderAmount:   amount,
		OrderCurrency: currency,
	})
}

func (s *PromotionTestSuite) TestPercentageAndFixedDiscounts() {
	s.newCode(dto.PromoCodeCreate{Code: "save10", PercentOff: ptr(int64(10))})
	s.newCode(dto.PromoCodeCreate{Code: "FLAT2000", AmountOffCents: ptr(int64(2000)), Currency: "NGN"})

	res, err := s.validate("SAVE10", 50_000, "NGN")
	s.Require().NoError(err)
	s.True(res.IsValid)
	s.Equal(money.Must(5_000, money.NGN), res.Discount)
	s.Equal("SAVE10", res.PromoCode.Code)

	res, err = s.validate(" flat2000 ", 50_000, "NGN")
	s.Require().NoError(err)
	s.Equal(money.Must(2_000, money.NGN), res.Discount)

	res, err = s.validate("FLAT2000", 1_000, "NGN")
	s.Require().NoError(err)
	s.Equal(money.Must(1_000, money.NGN), res.Discount)
}

func (s *PromotionTestSuite) TestPercentageFloors() {
	s.newCode(dto.PromoCodeCreate{Code: "ODD", PercentOff: ptr(int64(15))})
	res, err := s.validate("ODD", 999, "NGN")
	s.Require().NoError(err)
	// 149.85 floors to 149
	s.Equal(int64(149), res.Discount.Amount())
}

func (s *PromotionTestSuite) TestCodeDefaultsToPlatformCurrency() {
	c := s.newCode(dto.PromoCodeCreate{Code: "DEFAULTCUR", AmountOffCents: ptr(int64(500))})
	s.Equal(money.NGN, c.Currency)
	s.Equal(domainpromo.TypeDiscount, c.Kind)
}

func (s *PromotionTestSuite) TestFixedDiscountConvertedAcrossCurrencies() {
	s.newCode(dto.PromoCodeCreate{Code: "USD5", AmountOffCents: ptr(int64(500)), Currency: "USD"})

	_, err := s.validate("USD5", 5_000_000, "NGN")
	s.Require().ErrorIs(err, domain.ErrRateNotFound)

	_, err = s.ledger.AddRate(s.ctx, dto.AddRate{
		FromCurrency: "USD", ToCurrency: "NGN", Rate: decimal.RequireFromString("1575.50"),
	}, s.admin)
	s.Require().NoError(err)

	res, err := s.validate("USD5", 5_000_000, "NGN")
	s.Require().NoError(err)
	s.Equal(money.Must(787_750, money.NGN), res.Discount)

	// converted amount is still clamped to the order
	res, err = s.validate("USD5", 100_000, "NGN")
	s.Require().NoError(err)
	s.Equal(money.Must(100_000, money.NGN), res.Discount)
}

func (s *PromotionTestSuite) TestAccessCodeGivesZeroDiscount() {
	s.newCode(dto.PromoCodeCreate{Code: "BACKSTAGE", Kind: "access"})
	res, err := s.validate("BACKSTAGE", 20_000, "USD")
	s.Require().NoError(err)
	s.True(res.IsValid)
	s.True(res.Discount.IsZero())
	s.Equal(money.USD, res.Discount.Currency())
}

func (s *PromotionTestSuite) TestCodeFallsBackToCampaignTerms() {
	p := s.newCampaign(dto.PromotionCreate{DiscountType: "fixed", DiscountValue: 3_000, Currency: "NGN"})
	c := s.newCode(dto.PromoCodeCreate{Code: "CAMPAIGN", PromotionID: &p.ID})
	s.Equal(money.NGN, c.Currency)

	res, err := s.validate("CAMPAIGN", 10_000, "NGN")
	s.Require().NoError(err)
	s.Equal(money.Must(3_000, money.NGN), res.Discount)
	s.Equal(p.ID, res.Promotion.ID)
}

func (s *PromotionTestSuite) TestValidationOrder() {
	start := s.now.Add(time.Hour)
	s.newCode(dto.PromoCodeCreate{Code: "LATER", PercentOff: ptr(int64(5)), StartsAt: &start})
	end := s.now
	s.newCode(dto.PromoCodeCreate{Code: "ENDED", PercentOff: ptr(int64(5)), EndsAt: &end})
	event := uuid.New()
	s.newCode(dto.PromoCodeCreate{Code: "PINNED", PercentOff: ptr(int64(5)), EventID: &event})

	_, err := s.validate("MISSING", 100, "NGN")
	s.ErrorIs(err, domain.ErrCodeNotFound)
	_, err = s.validate("LATER", 100, "NGN")
	s.ErrorIs(err, domain.ErrNotYetActive)
	// endsAt itself is already outside the window
	_, err = s.validate("ENDED", 100, "NGN")
	s.ErrorIs(err, domain.ErrExpired)
	_, err = s.validate("PINNED", 100, "NGN")
	s.ErrorIs(err, domain.ErrNotApplicableToEvent)

	other := uuid.New()
	_, err = s.codes.ValidatePromoCode(s.ctx, dto.ValidatePromoCode{
		OrgID: s.org, Code: "PINNED", EventID: &other, OrderAmount: 100, OrderCurrency: "NGN",
	})
	s.ErrorIs(err, domain.ErrNotApplicableToEvent)
	_, err = s.codes.ValidatePromoCode(s.ctx, dto.ValidatePromoCode{
		OrgID: s.org, Code: "PINNED", EventID: &event, OrderAmount: 100, OrderCurrency: "NGN",
	})
	s.NoError(err)

	_, err = s.validate("PINNED", 100, "XYZ")
	s.ErrorIs(err, domain.ErrInvalidCurrencyCode)
	_, err = s.validate("PINNED", -1, "NGN")
	s.ErrorIs(err, domain.ErrValidation)
}

func (s *PromotionTestSuite) TestCodesAreScopedToOrg() {
	s.newCode(dto.PromoCodeCreate{Code: "SHARED", PercentOff: ptr(int64(10))})
	_, err := s.codes.ValidatePromoCode(s.ctx, dto.ValidatePromoCode{
		OrgID: uuid.New(), Code: "SHARED", OrderAmount: 100, OrderCurrency: "NGN",
	})
	s.ErrorIs(err, domain.ErrCodeNotFound)

	_, err = s.codes.Create(s.ctx, dto.PromoCodeCreate{OrgID: s.org, Code: "shared", PercentOff: ptr(int64(1))}, s.admin)
	s.ErrorIs(err, domain.ErrCodeAlreadyExists)
}

func (s *PromotionTestSuite) TestCreateCodeValidation() {
	_, err := s.codes.Create(s.ctx, dto.PromoCodeCreate{
		OrgID: s.org, Code: "BOTH", PercentOff: ptr(int64(10)), AmountOffCents: ptr(int64(10)),
	}, s.admin)
	s.ErrorIs(err, domain.ErrInvalidDiscount)

	start := s.now
	_, err = s.codes.Create(s.ctx, dto.PromoCodeCreate{
		OrgID: s.org, Code: "WIN", StartsAt: &start, EndsAt: &start,
	}, s.admin)
	s.ErrorIs(err, domain.ErrInvalidWindow)

	missing := uuid.New()
	_, err = s.codes.Create(s.ctx, dto.PromoCodeCreate{OrgID: s.org, Code: "ORPHAN", PromotionID: &missing}, s.admin)
	s.ErrorIs(err, domain.ErrPromotionNotFound)

	// a campaign of another org cannot be linked
	foreign := s.newCampaign(dto.PromotionCreate{OrgID: uuid.New(), DiscountValue: 10})
	_, err = s.codes.Create(s.ctx, dto.PromoCodeCreate{OrgID: s.org, Code: "FOREIGN", PromotionID: &foreign.ID}, s.admin)
	s.ErrorIs(err, domain.ErrPromotionNotFound)

	_, err = s.codes.Create(s.ctx, dto.PromoCodeCreate{OrgID: s.org, Code: "CUR", Currency: "ABC"}, s.admin)
	s.ErrorIs(err, domain.ErrInvalidCurrencyCode)
}

func (s *PromotionTestSuite) TestUpdateCode() {
	c := s.newCode(dto.PromoCodeCreate{Code: "SWITCH", PercentOff: ptr(int64(10))})

	_, err := s.codes.Update(s.ctx, s.org, c.ID, dto.PromoCodeUpdate{AmountOffCents: ptr(int64(100))}, s.admin)
	s.ErrorIs(err, domain.ErrInvalidDiscount)

	updated, err := s.codes.Update(s.ctx, s.org, c.ID, dto.PromoCodeUpdate{
		ClearDiscount: true, AmountOffCents: ptr(int64(100)), MaxRedemptions: ptr(int64(3)),
	}, s.admin)
	s.Require().NoError(err)
	s.Nil(updated.PercentOff)
	s.Equal(int64(100), *updated.AmountOffCents)

	_, err = s.codes.Update(s.ctx, uuid.New(), c.ID, dto.PromoCodeUpdate{}, s.admin)
	s.ErrorIs(err, domain.ErrCodeNotFound)
}

func (s *PromotionTestSuite) TestUsePromoCodeIsIdempotentPerOrder() {
	p := s.newCampaign(dto.PromotionCreate{DiscountValue: 10})
	c := s.newCode(dto.PromoCodeCreate{Code: "ONCE", PromotionID: &p.ID})
	user, order := uuid.New(), uuid.New()

	first, err := s.codes.UsePromoCode(s.ctx, c.ID, user, order)
	s.Require().NoError(err)
	s.True(first.Created)

	second, err := s.codes.UsePromoCode(s.ctx, c.ID, user, order)
	s.Require().NoError(err)
	s.False(second.Created)
	s.Equal(first.Redemption.ID, second.Redemption.ID)

	reds, err := s.codes.Redemptions(s.ctx, s.org, c.ID)
	s.Require().NoError(err)
	s.Len(reds, 1)

	campaign, err := s.campaigns.Get(s.ctx, s.org, p.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), campaign.Redemptions)

	var redeemed int
	for _, e := range s.entries {
		if e.Action == audit.ActionPromoCodeRedeemed {
			redeemed++
		}
	}
	s.Equal(1, redeemed)
}

func (s *PromotionTestSuite) TestUsePromoCodeCapsAndStatus() {
	c := s.newCode(dto.PromoCodeCreate{Code: "TWICE", PercentOff: ptr(int64(5)), MaxRedemptions: ptr(int64(2)), PerUserLimit: ptr(int64(1))})
	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()

	status, err := s.codes.Status(s.ctx, s.org, c.ID)
	s.Require().NoError(err)
	s.Equal(domainpromo.StatusActive, status)

	_, err = s.codes.UsePromoCode(s.ctx, c.ID, alice, uuid.New())
	s.Require().NoError(err)
	_, err = s.codes.UsePromoCode(s.ctx, c.ID, alice, uuid.New())
	s.ErrorIs(err, domain.ErrUserUsageLimitReached)

	_, err = s.codes.ValidatePromoCode(s.ctx, dto.ValidatePromoCode{
		OrgID: s.org, Code: "TWICE", UserID: &alice, OrderAmount: 100, OrderCurrency: "NGN",
	})
	s.ErrorIs(err, domain.ErrUserUsageLimitReached)

	_, err = s.codes.UsePromoCode(s.ctx, c.ID, bob, uuid.New())
	s.Require().NoError(err)
	_, err = s.codes.UsePromoCode(s.ctx, c.ID, carol, uuid.New())
	s.ErrorIs(err, domain.ErrUsageLimitReached)

	_, err = s.validate("TWICE", 100, "NGN")
	s.ErrorIs(err, domain.ErrUsageLimitReached)

	status, err = s.codes.Status(s.ctx, s.org, c.ID)
	s.Require().NoError(err)
	s.Equal(domainpromo.StatusExhausted, status)
}

func (s *PromotionTestSuite) TestCampaignCapSpansCodes() {
	p := s.newCampaign(dto.PromotionCreate{DiscountValue: 10, MaxUses: 2, MaxUsesPerUser: ptr(int64(1))})
	a := s.newCode(dto.PromoCodeCreate{Code: "A1", PromotionID: &p.ID})
	b := s.newCode(dto.PromoCodeCreate{Code: "B1", PromotionID: &p.ID})
	user := uuid.New()

	_, err := s.codes.UsePromoCode(s.ctx, a.ID, user, uuid.New())
	s.Require().NoError(err)
	_, err = s.codes.UsePromoCode(s.ctx, b.ID, user, uuid.New())
	s.ErrorIs(err, domain.ErrUserUsageLimitReached)

	_, err = s.codes.UsePromoCode(s.ctx, b.ID, uuid.New(), uuid.New())
	s.Require().NoError(err)
	_, err = s.codes.UsePromoCode(s.ctx, a.ID, uuid.New(), uuid.New())
	s.ErrorIs(err, domain.ErrUsageLimitReached)
}

func (s *PromotionTestSuite) TestCampaignCapCountsRedemptionsOfDeletedCodes() {
	p := s.newCampaign(dto.PromotionCreate{DiscountValue: 10, MaxUses: 1, MaxUsesPerUser: ptr(int64(1))})
	a := s.newCode(dto.PromoCodeCreate{Code: "PA", PromotionID: &p.ID})
	b := s.newCode(dto.PromoCodeCreate{Code: "PB", PromotionID: &p.ID})
	user := uuid.New()

	first, err := s.codes.UsePromoCode(s.ctx, a.ID, user, uuid.New())
	s.Require().NoError(err)
	s.Require().NotNil(first.Redemption.PromotionID)
	s.Equal(p.ID, *first.Redemption.PromotionID)

	s.Require().NoError(s.codes.Delete(s.ctx, s.org, a.ID, s.admin))

	_, err = s.codes.UsePromoCode(s.ctx, b.ID, uuid.New(), uuid.New())
	s.ErrorIs(err, domain.ErrUsageLimitReached)
	_, err = s.codes.ValidatePromoCode(s.ctx, dto.ValidatePromoCode{
		OrgID: s.org, Code: "PB", UserID: &user, OrderAmount: 100, OrderCurrency: "NGN",
	})
	s.ErrorIs(err, domain.ErrUsageLimitReached)

	status, err := s.codes.Status(s.ctx, s.org, b.ID)
	s.Require().NoError(err)
	s.Equal(domainpromo.StatusExhausted, status)
}

func (s *PromotionTestSuite) TestValidateWithoutOrderCurrencyUsesDefault() {
	s.newCode(dto.PromoCodeCreate{Code: "SAVE10", PercentOff: ptr(int64(10))})

	res, err := s.validate("SAVE10", 50_000, "")
	s.Require().NoError(err)
	s.Equal(money.Must(5_000, money.NGN), res.Discount)
}

func (s *PromotionTestSuite) TestUpdateCodeClearsOptionalFields() {
	event := uuid.New()
	start, end := s.now.Add(-time.Hour), s.now.Add(time.Hour)
	c := s.newCode(dto.PromoCodeCreate{
		Code:           "PINNED",
		PercentOff:     ptr(int64(10)),
		MaxRedemptions: ptr(int64(1)),
		PerUserLimit:   ptr(int64(1)),
		StartsAt:       &start,
		EndsAt:         &end,
		EventID:        &event,
	})

	updated, err := s.codes.Update(s.ctx, s.org, c.ID, dto.PromoCodeUpdate{
		ClearMaxRedemptions: true,
		ClearPerUserLimit:   true,
		ClearStartsAt:       true,
		ClearEndsAt:         true,
		ClearEventID:        true,
	}, s.admin)
	s.Require().NoError(err)
	s.Nil(updated.MaxRedemptions)
	s.Nil(updated.PerUserLimit)
	s.Nil(updated.StartsAt)
	s.Nil(updated.EndsAt)
	s.Nil(updated.EventID)

	other := uuid.New()
	_, err = s.codes.ValidatePromoCode(s.ctx, dto.ValidatePromoCode{
		OrgID: s.org, Code: "PINNED", EventID: &other, OrderAmount: 100, OrderCurrency: "NGN",
	})
	s.NoError(err)

	// clearing and setting in one update keeps the new value
	repinned, err := s.codes.Update(s.ctx, s.org, c.ID, dto.PromoCodeUpdate{ClearEventID: true, EventID: &other}, s.admin)
	s.Require().NoError(err)
	s.Equal(other, *repinned.EventID)
}

func (s *PromotionTestSuite) TestUsePromoCodeRejectsExpiredCode() {
	end := s.now.Add(time.Minute)
	c := s.newCode(dto.PromoCodeCreate{Code: "SOON", PercentOff: ptr(int64(5)), EndsAt: &end})
	s.now = end

	_, err := s.codes.UsePromoCode(s.ctx, c.ID, uuid.New(), uuid.New())
	s.ErrorIs(err, domain.ErrExpired)

	status, err := s.codes.Status(s.ctx, s.org, c.ID)
	s.Require().NoError(err)
	s.Equal(domainpromo.StatusExpired, status)

	_, err = s.codes.UsePromoCode(s.ctx, uuid.New(), uuid.New(), uuid.New())
	s.ErrorIs(err, domain.ErrCodeNotFound)
}

func (s *PromotionTestSuite) TestCampaignScopeAndMinOrder() {
	event, vip := uuid.New(), uuid.New()
	p := s.newCampaign(dto.PromotionCreate{
		DiscountValue:  20,
		EventIDs:       []uuid.UUID{event, event},
		TicketTypeIDs:  []uuid.UUID{vip},
		MinOrderAmount: ptr(int64(10_000)),
	})
	s.Len(p.EventIDs, 1)
	s.newCode(dto.PromoCodeCreate{Code: "VIPONLY", PromotionID: &p.ID})

	in := dto.ValidatePromoCode{OrgID: s.org, Code: "VIPONLY", EventID: &event, OrderAmount: 5_000, OrderCurrency: "NGN"}
	_, err := s.codes.ValidatePromoCode(s.ctx, in)
	// minimum order is not enforced by default
	s.Require().NoError(err)

	in.TicketTypeIDs = []uuid.UUID{uuid.New()}
	_, err = s.codes.ValidatePromoCode(s.ctx, in)
	s.ErrorIs(err, domain.ErrNotApplicableToTicketType)

	in.TicketTypeIDs = []uuid.UUID{vip}
	strict := NewCodeService(s.uow, nil, nil, s.ledger, audit.Discard, nil,
		WithClock(func() time.Time { return s.now }), WithMinOrderEnforcement(true))
	_, err = strict.ValidatePromoCode(s.ctx, in)
	s.ErrorIs(err, domain.ErrMinOrderAmountNotMet)

	in.OrderAmount = 10_000
	res, err := strict.ValidatePromoCode(s.ctx, in)
	s.Require().NoError(err)
	s.Equal(int64(2_000), res.Discount.Amount())
}

func (s *PromotionTestSuite) TestCampaignLifecycle() {
	p := s.newCampaign(dto.PromotionCreate{DiscountValue: 10})
	s.Equal(money.NGN, p.Currency)

	_, err := s.campaigns.Update(s.ctx, s.org, p.ID, dto.PromotionUpdate{EndsAt: ptr(p.StartsAt)}, s.admin)
	s.ErrorIs(err, domain.ErrInvalidWindow)
	_, err = s.campaigns.Update(s.ctx, s.org, p.ID, dto.PromotionUpdate{DiscountValue: ptr(int64(150))}, s.admin)
	s.ErrorIs(err, domain.ErrInvalidDiscount)
	_, err = s.campaigns.Update(s.ctx, s.org, p.ID, dto.PromotionUpdate{Currency: ptr("NOPE")}, s.admin)
	s.ErrorIs(err, domain.ErrInvalidCurrencyCode)

	updated, err := s.campaigns.Update(s.ctx, s.org, p.ID, dto.PromotionUpdate{Name: ptr("Renamed")}, s.admin)
	s.Require().NoError(err)
	s.Equal("Renamed", updated.Name)

	c := s.newCode(dto.PromoCodeCreate{Code: "LINKED", PromotionID: &p.ID})
	standalone := s.newCode(dto.PromoCodeCreate{Code: "ALONE", PercentOff: ptr(int64(5))})
	_, err = s.codes.UsePromoCode(s.ctx, c.ID, uuid.New(), uuid.New())
	s.Require().NoError(err)

	list, err := s.campaigns.List(s.ctx, s.org)
	s.Require().NoError(err)
	s.Len(list, 1)

	s.Require().NoError(s.campaigns.Delete(s.ctx, s.org, p.ID, s.admin))
	_, err = s.campaigns.Get(s.ctx, s.org, p.ID)
	s.ErrorIs(err, domain.ErrPromotionNotFound)
	_, err = s.codes.Get(s.ctx, s.org, c.ID)
	s.ErrorIs(err, domain.ErrCodeNotFound)
	_, err = s.codes.Get(s.ctx, s.org, standalone.ID)
	s.NoError(err)

	// redemptions outlive their code
	reds, err := s.uow.RedemptionRepository()
	s.Require().NoError(err)
	count, err := reds.CountByCode(s.ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), count)

	s.ErrorIs(s.campaigns.Delete(s.ctx, s.org, p.ID, s.admin), domain.ErrPromotionNotFound)
}

func (s *PromotionTestSuite) TestCreateCampaignValidation() {
	_, err := s.campaigns.Create(s.ctx, dto.PromotionCreate{
		OrgID: s.org, Name: "bad", DiscountType: "percentage",
		StartsAt: s.now, EndsAt: s.now,
	}, s.admin)
	s.ErrorIs(err, domain.ErrInvalidWindow)

	_, err = s.campaigns.Create(s.ctx, dto.PromotionCreate{
		OrgID: s.org, Name: "bad", DiscountType: "fixed", DiscountValue: -5,
		StartsAt: s.now, EndsAt: s.now.Add(time.Hour),
	}, s.admin)
	s.ErrorIs(err, domain.ErrInvalidDiscount)

	access, err := s.campaigns.Create(s.ctx, dto.PromotionCreate{
		OrgID: s.org, Name: "presale", Type: "access",
		StartsAt: s.now, EndsAt: s.now.Add(time.Hour),
	}, s.admin)
	s.Require().NoError(err)
	s.Equal(domainpromo.TypeAccess, access.Type)
}

func TestUsePromoCodeNeverExceedsCapUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	uow := memory.NewUoW(memory.NewStore())
	codes := NewCodeService(uow, nil, nil, nil, audit.Discard, nil)
	org := uuid.New()

	const (
		attempts = 40
		capacity = 7
	)
	c, err := codes.Create(ctx, dto.PromoCodeCreate{
		OrgID: org, Code: "RUSH", PercentOff: ptr(int64(50)), MaxRedemptions: ptr(int64(capacity)),
	}, dto.SystemActor)
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		capped    atomic.Int32
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := codes.UsePromoCode(ctx, c.ID, uuid.New(), uuid.New())
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, domain.ErrUsageLimitReached):
				capped.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(capacity), succeeded.Load())
	assert.Equal(t, int32(attempts-capacity), capped.Load())

	reds, err := codes.Redemptions(ctx, org, c.ID)
	require.NoError(t, err)
	assert.Len(t, reds, capacity)
}

func TestValidatePromoCodeDoesNotConsumeUsage(t *testing.T) {
	ctx := context.Background()
	uow := memory.NewUoW(memory.NewStore())
	codes := NewCodeService(uow, nil, nil, nil, audit.Discard, nil)
	org := uuid.New()

	_, err := codes.Create(ctx, dto.PromoCodeCreate{
		OrgID: org, Code: "PEEK", PercentOff: ptr(int64(10)), MaxRedemptions: ptr(int64(1)),
	}, dto.SystemActor)
	require.NoError(t, err)

	for range 5 {
		res, err := codes.ValidatePromoCode(ctx, dto.ValidatePromoCode{OrgID: org, Code: "peek", OrderAmount: 1_000, OrderCurrency: "NGN"})
		require.NoError(t, err)
		assert.Equal(t, int64(100), res.Discount.Amount())
	}
}

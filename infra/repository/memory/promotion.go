package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/ticketcore/promoengine/pkg/domain"
	"github.com/ticketcore/promoengine/pkg/domain/promotion"
)

type promotionRepository struct{ sess *session }

func (r *promotionRepository) Create(_ context.Context, p *promotion.Promotion) error {
	return r.sess.write(func(st *state) error {
		if _, exists := st.promotions[p.ID]; exists {
			return domain.ErrAlreadyExists
		}
		st.promotions[p.ID] = clonePromotion(p)
		return nil
	})
}

func (r *promotionRepository) Update(_ context.Context, p *promotion.Promotion) error {
	return r.sess.write(func(st *state) error {
		existing, ok := st.promotions[p.ID]
		if !ok || existing.OrgID != p.OrgID {
			return domain.ErrNotFound
		}
		cp := clonePromotion(p)
		cp.Redemptions = existing.Redemptions
		cp.CreatedAt = existing.CreatedAt
		st.promotions[p.ID] = cp
		return nil
	})
}

func (r *promotionRepository) Get(ctx context.Context, orgID, id uuid.UUID) (*promotion.Promotion, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.OrgID != orgID {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (r *promotionRepository) GetByID(_ context.Context, id uuid.UUID) (*promotion.Promotion, error) {
	var out *promotion.Promotion
	err := r.sess.read(func(st *state) error {
		p, ok := st.promotions[id]
		if !ok {
			return domain.ErrNotFound
		}
		out = clonePromotion(p)
		return nil
	})
	return out, err
}

// GetForUpdate needs no extra locking: transactions are already serialized.
func (r *promotionRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*promotion.Promotion, error) {
	return r.GetByID(ctx, id)
}

func (r *promotionRepository) List(_ context.Context, orgID uuid.UUID) ([]*promotion.Promotion, error) {
	var out []*promotion.Promotion
	err := r.sess.read(func(st *state) error {
		for _, p := range st.promotions {
			if p.OrgID == orgID {
				out = append(out, clonePromotion(p))
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *promotion.Promotion) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, err
}

func (r *promotionRepository) Delete(_ context.Context, orgID, id uuid.UUID) error {
	return r.sess.write(func(st *state) error {
		p, ok := st.promotions[id]
		if !ok || p.OrgID != orgID {
			return domain.ErrNotFound
		}
		delete(st.promotions, id)
		return nil
	})
}

func (r *promotionRepository) IncrementRedemptions(_ context.Context, id uuid.UUID) error {
	return r.sess.write(func(st *state) error {
		p, ok := st.promotions[id]
		if !ok {
			return domain.ErrNotFound
		}
		cp := clonePromotion(p)
		cp.Redemptions++
		st.promotions[id] = cp
		return nil
	})
}

type codeRepository struct{ sess *session }

func (r *codeRepository) Create(_ context.Context, c *promotion.PromoCode) error {
	return r.sess.write(func(st *state) error {
		if _, exists := st.codes[c.ID]; exists {
			return domain.ErrAlreadyExists
		}
		for _, existing := range st.codes {
			if existing.OrgID == c.OrgID && existing.Code == c.Code {
				return domain.ErrAlreadyExists
			}
		}
		st.codes[c.ID] = cloneCode(c)
		return nil
	})
}

func (r *codeRepository) Update(_ context.Context, c *promotion.PromoCode) error {
	return r.sess.write(func(st *state) error {
		existing, ok := st.codes[c.ID]
		if !ok || existing.OrgID != c.OrgID {
			return domain.ErrNotFound
		}
		cp := cloneCode(c)
		cp.Code = existing.Code
		cp.CreatedAt = existing.CreatedAt
		st.codes[c.ID] = cp
		return nil
	})
}

func (r *codeRepository) Get(ctx context.Context, orgID, id uuid.UUID) (*promotion.PromoCode, error) {
	c, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.OrgID != orgID {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (r *codeRepository) GetByID(_ context.Context, id uuid.UUID) (*promotion.PromoCode, error) {
	var out *promotion.PromoCode
	err := r.sess.read(func(st *state) error {
		c, ok := st.codes[id]
		if !ok {
			return domain.ErrNotFound
		}
		out = cloneCode(c)
		return nil
	})
	return out, err
}

func (r *codeRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*promotion.PromoCode, error) {
	return r.GetByID(ctx, id)
}

func (r *codeRepository) FindByCode(_ context.Context, orgID uuid.UUID, code string) (*promotion.PromoCode, error) {
	var out *promotion.PromoCode
	err := r.sess.read(func(st *state) error {
		for _, c := range st.codes {
			if c.OrgID == orgID && c.Code == code {
				out = cloneCode(c)
				return nil
			}
		}
		return domain.ErrNotFound
	})
	return out, err
}

func (r *codeRepository) List(_ context.Context, orgID uuid.UUID) ([]*promotion.PromoCode, error) {
	var out []*promotion.PromoCode
	err := r.sess.read(func(st *state) error {
		for _, c := range st.codes {
			if c.OrgID == orgID {
				out = append(out, cloneCode(c))
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *promotion.PromoCode) int {
		return strings.Compare(a.Code, b.Code)
	})
	return out, err
}

func (r *codeRepository) Delete(_ context.Context, orgID, id uuid.UUID) error {
	return r.sess.write(func(st *state) error {
		c, ok := st.codes[id]
		if !ok || c.OrgID != orgID {
			return domain.ErrNotFound
		}
		delete(st.codes, id)
		return nil
	})
}

func (r *codeRepository) DeleteByPromotion(_ context.Context, promotionID uuid.UUID) (int64, error) {
	var n int64
	err := r.sess.write(func(st *state) error {
		for id, c := range st.codes {
			if c.PromotionID != nil && *c.PromotionID == promotionID {
				delete(st.codes, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

type redemptionRepository struct{ sess *session }

func (r *redemptionRepository) Create(_ context.Context, red *promotion.Redemption) error {
	return r.sess.write(func(st *state) error {
		for _, existing := range st.redemptions {
			if existing.PromoID == red.PromoID && existing.OrderID == red.OrderID {
				return domain.ErrAlreadyExists
			}
		}
		cp := *red
		cp.PromotionID = clonePtr(red.PromotionID)
		st.redemptions[red.ID] = &cp
		return nil
	})
}

func (r *redemptionRepository) FindByOrder(_ context.Context, promoID, orderID uuid.UUID) (*promotion.Redemption, error) {
	var out *promotion.Redemption
	err := r.sess.read(func(st *state) error {
		for _, red := range st.redemptions {
			if red.PromoID == promoID && red.OrderID == orderID {
				cp := *red
				out = &cp
				return nil
			}
		}
		return domain.ErrNotFound
	})
	return out, err
}

func (r *redemptionRepository) CountByCode(_ context.Context, promoID uuid.UUID) (int64, error) {
	return r.count(func(_ *state, red *promotion.Redemption) bool {
		return red.PromoID == promoID
	})
}

func (r *redemptionRepository) CountByCodeAndUser(_ context.Context, promoID, userID uuid.UUID) (int64, error) {
	return r.count(func(_ *state, red *promotion.Redemption) bool {
		return red.PromoID == promoID && red.UserID == userID
	})
}

func (r *redemptionRepository) CountByPromotion(_ context.Context, promotionID uuid.UUID) (int64, error) {
	return r.count(func(_ *state, red *promotion.Redemption) bool {
		return campaignOf(red) == promotionID
	})
}

func (r *redemptionRepository) CountByPromotionAndUser(_ context.Context, promotionID, userID uuid.UUID) (int64, error) {
	return r.count(func(_ *state, red *promotion.Redemption) bool {
		return red.UserID == userID && campaignOf(red) == promotionID
	})
}

func (r *redemptionRepository) ListByCode(_ context.Context, promoID uuid.UUID) ([]*promotion.Redemption, error) {
	var out []*promotion.Redemption
	err := r.sess.read(func(st *state) error {
		for _, red := range st.redemptions {
			if red.PromoID == promoID {
				cp := *red
				out = append(out, &cp)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *promotion.Redemption) int {
		return a.RedeemedAt.Compare(b.RedeemedAt)
	})
	return out, err
}

func (r *redemptionRepository) count(match func(*state, *promotion.Redemption) bool) (int64, error) {
	var n int64
	err := r.sess.read(func(st *state) error {
		for _, red := range st.redemptions {
			if match(st, red) {
				n++
			}
		}
		return nil
	})
	return n, err
}

func campaignOf(red *promotion.Redemption) uuid.UUID {
	if red.PromotionID == nil {
		return uuid.Nil
	}
	return *red.PromotionID
}

func clonePromotion(p *promotion.Promotion) *promotion.Promotion {
	cp := *p
	cp.MaxUsesPerUser = clonePtr(p.MaxUsesPerUser)
	cp.MinOrderAmount = clonePtr(p.MinOrderAmount)
	cp.EventIDs = slices.Clone(p.EventIDs)
	cp.TicketTypeIDs = slices.Clone(p.TicketTypeIDs)
	return &cp
}

func cloneCode(c *promotion.PromoCode) *promotion.PromoCode {
	cp := *c
	cp.PromotionID = clonePtr(c.PromotionID)
	cp.PercentOff = clonePtr(c.PercentOff)
	cp.AmountOffCents = clonePtr(c.AmountOffCents)
	cp.MaxRedemptions = clonePtr(c.MaxRedemptions)
	cp.PerUserLimit = clonePtr(c.PerUserLimit)
	cp.StartsAt = clonePtr(c.StartsAt)
	cp.EndsAt = clonePtr(c.EndsAt)
	cp.EventID = clonePtr(c.EventID)
	return &cp
}

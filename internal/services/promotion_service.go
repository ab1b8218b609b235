package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domain "github.com/famto/api/internal/domain"
	"github.com/famto/api/internal/repositories"
)

// PromotionServiceDeps bundles dependencies required to construct a PromotionService implementation.
type PromotionServiceDeps struct {
	Promotions repositories.PromotionRepository
	Discounts  repositories.DiscountRepository
	Clock      func() time.Time
	Logger     func(ctx context.Context, event string, fields map[string]any)
}

type promotionService struct {
	promotions repositories.PromotionRepository
	discounts  repositories.DiscountRepository
	clock      func() time.Time
	logger     func(context.Context, string, map[string]any)
}

// NewPromotionService wires a PromotionService backed by the provided repositories.
func NewPromotionService(deps PromotionServiceDeps) (PromotionService, error) {
	if deps.Promotions == nil {
		return nil, errors.New("promotion service: promotion repository is required")
	}
	if deps.Discounts == nil {
		return nil, errors.New("promotion service: discount repository is required")
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &promotionService{
		promotions: deps.Promotions,
		discounts:  deps.Discounts,
		clock:      func() time.Time { return clock().UTC() },
		logger:     logger,
	}, nil
}

// EvaluatePromoCode runs the full validation chain against the cart context
// and returns the discount the code would yield. It does not consume a
// redemption; RedeemPromoCode does.
func (s *promotionService) EvaluatePromoCode(ctx context.Context, cmd EvaluatePromoCommand) (PromoEvaluation, error) {
	code := strings.ToUpper(strings.TrimSpace(cmd.Code))
	if code == "" {
		return PromoEvaluation{}, ErrPromotionInvalidCode
	}
	geofenceID := strings.TrimSpace(cmd.GeofenceID)
	if geofenceID == "" {
		return PromoEvaluation{}, fmt.Errorf("%w: geofence is required", ErrPromotionInvalidCode)
	}

	promo, err := s.promotions.FindByCode(ctx, code, geofenceID)
	if err != nil {
		return PromoEvaluation{}, s.translateRepoError(err)
	}

	if !promo.Status {
		return PromoEvaluation{}, ErrPromotionInactive
	}
	if promo.MerchantID != nil {
		if cmd.MerchantID == nil || strings.TrimSpace(*cmd.MerchantID) != strings.TrimSpace(*promo.MerchantID) {
			return PromoEvaluation{}, ErrPromotionMerchantMismatch
		}
	}

	now := s.clock()
	if now.Before(promo.FromDate) || now.After(promo.ToDate) {
		return PromoEvaluation{}, ErrPromotionOutOfDateRange
	}
	if cmd.CartValue < promo.MinOrderAmount {
		return PromoEvaluation{}, fmt.Errorf("%w: order value %.2f below %.2f", ErrPromotionMinOrderAmount, cmd.CartValue, promo.MinOrderAmount)
	}
	if promo.MaxAllowedUsers > 0 && promo.NoOfUserUsed >= promo.MaxAllowedUsers {
		return PromoEvaluation{}, ErrPromotionUsageLimitReached
	}

	base := cmd.CartValue
	if promo.AppliedOn == domain.PromotionOnDeliveryCharge {
		base = cmd.DeliveryCharge
	}

	discount := promo.Discount
	if promo.PromoType == domain.PromotionTypePercentage {
		discount = base * promo.Discount / 100
		if promo.MaxDiscountValue > 0 && discount > promo.MaxDiscountValue {
			discount = promo.MaxDiscountValue
		}
	}
	if discount > base {
		discount = base
	}

	return PromoEvaluation{
		Promotion:      promo,
		DiscountAmount: Round2(discount),
	}, nil
}

// RedeemPromoCode consumes one redemption slot. The underlying increment runs
// transactionally; a second redeemer past the limit loses with a usage error.
func (s *promotionService) RedeemPromoCode(ctx context.Context, promotionID string) (Promotion, error) {
	id := strings.TrimSpace(promotionID)
	if id == "" {
		return Promotion{}, ErrPromotionInvalidCode
	}
	promo, err := s.promotions.Redeem(ctx, id, s.clock())
	if err != nil {
		return Promotion{}, s.translateRepoError(err)
	}
	return promo, nil
}

// ReleasePromoCode undoes a redemption whose surrounding cart save failed.
func (s *promotionService) ReleasePromoCode(ctx context.Context, promotionID string) error {
	id := strings.TrimSpace(promotionID)
	if id == "" {
		return ErrPromotionInvalidCode
	}
	if err := s.promotions.ReleaseRedemption(ctx, id, s.clock()); err != nil {
		return s.translateRepoError(err)
	}
	return nil
}

// ItemDiscount evaluates merchant and product discounts for the cart lines.
// Product discounts win per line; the merchant discount covers the remainder
// once the item total clears its checkout threshold.
func (s *promotionService) ItemDiscount(ctx context.Context, merchantID string, geofenceID string, items []CartItem) (float64, error) {
	merchantID = strings.TrimSpace(merchantID)
	if merchantID == "" || len(items) == 0 {
		return 0, nil
	}

	now := s.clock()
	productIDs := make([]string, 0, len(items))
	for _, item := range items {
		if item.ProductID != nil && strings.TrimSpace(*item.ProductID) != "" {
			productIDs = append(productIDs, strings.TrimSpace(*item.ProductID))
		}
	}

	productDiscounts := map[string]domain.ProductDiscount{}
	if len(productIDs) > 0 {
		found, err := s.discounts.ActiveProductDiscounts(ctx, merchantID, productIDs, now)
		if err != nil && !isRepoNotFound(err) {
			return 0, s.translateRepoError(err)
		}
		if found != nil {
			productDiscounts = found
		}
	}

	var total float64
	var undiscountedBase float64
	for _, item := range items {
		base := item.Price * float64(item.Quantity)
		if item.ProductID != nil {
			if pd, ok := productDiscounts[strings.TrimSpace(*item.ProductID)]; ok {
				total += lineDiscount(base, pd.DiscountType, pd.DiscountValue, pd.MaxDiscountValue)
				continue
			}
		}
		undiscountedBase += base
	}

	merchantDiscount, err := s.discounts.ActiveMerchantDiscount(ctx, merchantID, now)
	if err != nil {
		if isRepoNotFound(err) {
			return Round2(total), nil
		}
		return 0, s.translateRepoError(err)
	}

	itemTotal := ItemTotal(items)
	if undiscountedBase > 0 && itemTotal >= merchantDiscount.MaxCheckoutValue {
		total += lineDiscount(undiscountedBase, merchantDiscount.DiscountType, merchantDiscount.DiscountValue, merchantDiscount.MaxDiscountValue)
	}

	return Round2(total), nil
}

func lineDiscount(base float64, kind domain.DiscountType, value float64, maxValue float64) float64 {
	var discount float64
	switch kind {
	case domain.DiscountTypePercentage:
		discount = base * value / 100
		if maxValue > 0 && discount > maxValue {
			discount = maxValue
		}
	default:
		discount = value
	}
	if discount > base {
		discount = base
	}
	return discount
}

func (s *promotionService) translateRepoError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		switch {
		case repoErr.IsNotFound():
			return fmt.Errorf("%w: %v", ErrPromotionNotFound, err)
		case repoErr.IsConflict():
			return fmt.Errorf("%w: %v", ErrPromotionUsageLimitReached, err)
		case repoErr.IsUnavailable():
			return fmt.Errorf("%w: %v", ErrPromotionUnavailable, err)
		}
	}
	return err
}

func isRepoNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

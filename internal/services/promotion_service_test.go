package services

import (
	"context"
	"errors"
	"testing"
	"time"

	domain "github.com/famto/api/internal/domain"
)

func basePromotionDeps() PromotionServiceDeps {
	return PromotionServiceDeps{
		Promotions: &stubPromotionRepo{},
		Discounts:  &stubDiscountRepo{},
		Clock:      fixedClock(time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)),
	}
}

func activePromotion() domain.Promotion {
	return domain.Promotion{
		ID:             "promo-1",
		Code:           "SAVE30",
		Status:         true,
		PromoType:      domain.PromotionTypeFlat,
		Discount:       30,
		MinOrderAmount: 100,
		AppliedOn:      domain.PromotionOnCartValue,
		GeofenceID:     "geo-1",
		FromDate:       time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		ToDate:         time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestEvaluatePromoCode(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		promo   func() domain.Promotion
		cmd     EvaluatePromoCommand
		want    float64
		wantErr error
	}{
		{
			name:  "flat discount on cart value",
			promo: activePromotion,
			cmd:   EvaluatePromoCommand{Code: "save30", GeofenceID: "geo-1", CartValue: 240},
			want:  30,
		},
		{
			name: "percentage capped at max",
			promo: func() domain.Promotion {
				p := activePromotion()
				p.PromoType = domain.PromotionTypePercentage
				p.Discount = 25
				p.MaxDiscountValue = 40
				return p
			},
			cmd:  EvaluatePromoCommand{Code: "SAVE30", GeofenceID: "geo-1", CartValue: 240},
			want: 40,
		},
		{
			name: "percentage below cap",
			promo: func() domain.Promotion {
				p := activePromotion()
				p.PromoType = domain.PromotionTypePercentage
				p.Discount = 10
				p.MaxDiscountValue = 40
				return p
			},
			cmd:  EvaluatePromoCommand{Code: "SAVE30", GeofenceID: "geo-1", CartValue: 240},
			want: 24,
		},
		{
			name: "delivery charge promotion clamps to the charge",
			promo: func() domain.Promotion {
				p := activePromotion()
				p.AppliedOn = domain.PromotionOnDeliveryCharge
				p.Discount = 50
				return p
			},
			cmd:  EvaluatePromoCommand{Code: "SAVE30", GeofenceID: "geo-1", CartValue: 240, DeliveryCharge: 20},
			want: 20,
		},
		{
			name: "inactive",
			promo: func() domain.Promotion {
				p := activePromotion()
				p.Status = false
				return p
			},
			cmd:     EvaluatePromoCommand{Code: "SAVE30", GeofenceID: "geo-1", CartValue: 240},
			wantErr: ErrPromotionInactive,
		},
		{
			name: "expired",
			promo: func() domain.Promotion {
				p := activePromotion()
				p.ToDate = now.Add(-time.Hour)
				return p
			},
			cmd:     EvaluatePromoCommand{Code: "SAVE30", GeofenceID: "geo-1", CartValue: 240},
			wantErr: ErrPromotionOutOfDateRange,
		},
		{
			name:    "below minimum order amount",
			promo:   activePromotion,
			cmd:     EvaluatePromoCommand{Code: "SAVE30", GeofenceID: "geo-1", CartValue: 80},
			wantErr: ErrPromotionMinOrderAmount,
		},
		{
			name: "usage limit reached",
			promo: func() domain.Promotion {
				p := activePromotion()
				p.MaxAllowedUsers = 100
				p.NoOfUserUsed = 100
				return p
			},
			cmd:     EvaluatePromoCommand{Code: "SAVE30", GeofenceID: "geo-1", CartValue: 240},
			wantErr: ErrPromotionUsageLimitReached,
		},
		{
			name: "merchant scoped code on another merchant's cart",
			promo: func() domain.Promotion {
				p := activePromotion()
				p.MerchantID = strPtr("m1")
				return p
			},
			cmd:     EvaluatePromoCommand{Code: "SAVE30", GeofenceID: "geo-1", MerchantID: strPtr("m2"), CartValue: 240},
			wantErr: ErrPromotionMerchantMismatch,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			deps := basePromotionDeps()
			deps.Promotions = &stubPromotionRepo{
				findByCodeFunc: func(ctx context.Context, code string, geofenceID string) (domain.Promotion, error) {
					if code != "SAVE30" {
						t.Fatalf("looked up code = %q, want upper-cased SAVE30", code)
					}
					return tc.promo(), nil
				},
			}
			svc, err := NewPromotionService(deps)
			if err != nil {
				t.Fatalf("NewPromotionService: %v", err)
			}

			evaluation, err := svc.EvaluatePromoCode(context.Background(), tc.cmd)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("EvaluatePromoCode error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("EvaluatePromoCode: %v", err)
			}
			if evaluation.DiscountAmount != tc.want {
				t.Fatalf("discount = %.2f, want %.2f", evaluation.DiscountAmount, tc.want)
			}
		})
	}
}

func TestEvaluatePromoCodeUnknown(t *testing.T) {
	svc, err := NewPromotionService(basePromotionDeps())
	if err != nil {
		t.Fatalf("NewPromotionService: %v", err)
	}

	_, err = svc.EvaluatePromoCode(context.Background(), EvaluatePromoCommand{Code: "NOPE", GeofenceID: "geo-1", CartValue: 240})
	if !errors.Is(err, ErrPromotionNotFound) {
		t.Fatalf("EvaluatePromoCode error = %v, want %v", err, ErrPromotionNotFound)
	}
}

func TestRedeemPromoCodeTranslatesConflict(t *testing.T) {
	deps := basePromotionDeps()
	deps.Promotions = &stubPromotionRepo{
		redeemFunc: func(ctx context.Context, promotionID string, now time.Time) (domain.Promotion, error) {
			return domain.Promotion{}, conflictErr("limit hit inside the transaction")
		},
	}

	svc, err := NewPromotionService(deps)
	if err != nil {
		t.Fatalf("NewPromotionService: %v", err)
	}

	if _, err := svc.RedeemPromoCode(context.Background(), "promo-1"); !errors.Is(err, ErrPromotionUsageLimitReached) {
		t.Fatalf("RedeemPromoCode error = %v, want %v", err, ErrPromotionUsageLimitReached)
	}
}

func TestReleasePromoCode(t *testing.T) {
	released := ""
	deps := basePromotionDeps()
	deps.Promotions = &stubPromotionRepo{
		releaseFunc: func(ctx context.Context, promotionID string, now time.Time) error {
			released = promotionID
			return nil
		},
	}

	svc, err := NewPromotionService(deps)
	if err != nil {
		t.Fatalf("NewPromotionService: %v", err)
	}
	if err := svc.ReleasePromoCode(context.Background(), "promo-1"); err != nil {
		t.Fatalf("ReleasePromoCode: %v", err)
	}
	if released != "promo-1" {
		t.Fatalf("released = %q, want promo-1", released)
	}
}

func TestItemDiscountProductWinsOverMerchant(t *testing.T) {
	items := []domain.CartItem{
		{ItemID: "itm_1", ProductID: strPtr("prod-1"), ItemName: "Biryani", Quantity: 2, Price: 120},
		{ItemID: "itm_2", ProductID: strPtr("prod-2"), ItemName: "Raita", Quantity: 1, Price: 60},
	}

	deps := basePromotionDeps()
	deps.Discounts = &stubDiscountRepo{
		productFunc: func(ctx context.Context, merchantID string, productIDs []string, now time.Time) (map[string]domain.ProductDiscount, error) {
			return map[string]domain.ProductDiscount{
				"prod-1": {DiscountType: domain.DiscountTypePercentage, DiscountValue: 10},
			}, nil
		},
		merchantFunc: func(ctx context.Context, merchantID string, now time.Time) (domain.MerchantDiscount, error) {
			return domain.MerchantDiscount{
				DiscountType:     domain.DiscountTypeFlat,
				DiscountValue:    15,
				MaxCheckoutValue: 200,
			}, nil
		},
	}

	svc, err := NewPromotionService(deps)
	if err != nil {
		t.Fatalf("NewPromotionService: %v", err)
	}

	discount, err := svc.ItemDiscount(context.Background(), "m1", "geo-1", items)
	if err != nil {
		t.Fatalf("ItemDiscount: %v", err)
	}

	// prod-1 takes 10% of 240; the remaining 60 clears the 200 item-total
	// threshold and takes the flat 15.
	if discount != 39 {
		t.Fatalf("discount = %.2f, want 39", discount)
	}
}

func TestItemDiscountBelowCheckoutThreshold(t *testing.T) {
	items := []domain.CartItem{
		{ItemID: "itm_1", ProductID: strPtr("prod-1"), ItemName: "Raita", Quantity: 1, Price: 60},
	}

	deps := basePromotionDeps()
	deps.Discounts = &stubDiscountRepo{
		merchantFunc: func(ctx context.Context, merchantID string, now time.Time) (domain.MerchantDiscount, error) {
			return domain.MerchantDiscount{
				DiscountType:     domain.DiscountTypeFlat,
				DiscountValue:    15,
				MaxCheckoutValue: 200,
			}, nil
		},
	}

	svc, err := NewPromotionService(deps)
	if err != nil {
		t.Fatalf("NewPromotionService: %v", err)
	}

	discount, err := svc.ItemDiscount(context.Background(), "m1", "geo-1", items)
	if err != nil {
		t.Fatalf("ItemDiscount: %v", err)
	}
	if discount != 0 {
		t.Fatalf("discount = %.2f, want 0 below the checkout threshold", discount)
	}
}

func TestItemDiscountNoActiveDiscounts(t *testing.T) {
	svc, err := NewPromotionService(basePromotionDeps())
	if err != nil {
		t.Fatalf("NewPromotionService: %v", err)
	}

	discount, err := svc.ItemDiscount(context.Background(), "m1", "geo-1", []domain.CartItem{
		{ItemID: "itm_1", ItemName: "Biryani", Quantity: 1, Price: 120},
	})
	if err != nil {
		t.Fatalf("ItemDiscount: %v", err)
	}
	if discount != 0 {
		t.Fatalf("discount = %.2f, want 0", discount)
	}
}

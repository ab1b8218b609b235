package services

import (
	"context"
	"errors"
	"testing"

	domain "github.com/famto/api/internal/domain"
)

func TestCommissionCalculate(t *testing.T) {
	order := domain.Order{BillDetail: domain.BillDetail{ItemTotal: 240}}

	tests := []struct {
		name         string
		commission   *domain.MerchantCommission
		wantFamto    float64
		wantMerchant float64
		wantErr      error
	}{
		{
			name:         "percentage split",
			commission:   &domain.MerchantCommission{CommissionType: domain.DiscountTypePercentage, CommissionValue: 10},
			wantFamto:    24,
			wantMerchant: 216,
		},
		{
			name:         "flat split",
			commission:   &domain.MerchantCommission{CommissionType: domain.DiscountTypeFlat, CommissionValue: 30},
			wantFamto:    30,
			wantMerchant: 210,
		},
		{
			name:         "flat larger than the item total",
			commission:   &domain.MerchantCommission{CommissionType: domain.DiscountTypeFlat, CommissionValue: 500},
			wantFamto:    240,
			wantMerchant: 0,
		},
		{
			name:    "not configured",
			wantErr: ErrCommissionNotConfigured,
		},
	}

	calc := NewCommissionCalculator()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			merchant := domain.Merchant{ID: "m1", Commission: tc.commission}
			detail, err := calc.Calculate(context.Background(), order, merchant)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("Calculate error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Calculate: %v", err)
			}
			if detail.FamtoEarnings != tc.wantFamto || detail.MerchantEarnings != tc.wantMerchant {
				t.Fatalf("split = %.2f / %.2f, want %.2f / %.2f",
					detail.FamtoEarnings, detail.MerchantEarnings, tc.wantFamto, tc.wantMerchant)
			}
		})
	}
}

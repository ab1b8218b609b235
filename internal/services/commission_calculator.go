package services

import (
	"context"
	"errors"

	domain "github.com/famto/api/internal/domain"
)

// ErrCommissionNotConfigured indicates the merchant carries no commission setup.
var ErrCommissionNotConfigured = errors.New("commission: not configured")

// commissionCalculator splits the item total between the merchant and the
// platform using the merchant's configured commission.
type commissionCalculator struct{}

// NewCommissionCalculator returns the default commission split implementation.
func NewCommissionCalculator() CommissionCalculator {
	return commissionCalculator{}
}

func (commissionCalculator) Calculate(_ context.Context, order Order, merchant Merchant) (CommissionDetail, error) {
	if merchant.Commission == nil {
		return CommissionDetail{}, ErrCommissionNotConfigured
	}

	base := order.BillDetail.ItemTotal
	var famto float64
	switch merchant.Commission.CommissionType {
	case domain.DiscountTypePercentage:
		famto = base * merchant.Commission.CommissionValue / 100
	default:
		famto = merchant.Commission.CommissionValue
	}
	if famto > base {
		famto = base
	}
	if famto < 0 {
		famto = 0
	}

	return CommissionDetail{
		FamtoEarnings:    Round2(famto),
		MerchantEarnings: Round2(base - famto),
	}, nil
}

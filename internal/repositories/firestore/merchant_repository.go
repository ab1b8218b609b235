package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/famto/api/internal/domain"
	pfirestore "github.com/famto/api/internal/platform/firestore"
	"github.com/famto/api/internal/repositories"
)

const merchantCollection = "merchants"

type merchantCommissionDocument struct {
	CommissionType  string  `firestore:"commissionType"`
	CommissionValue float64 `firestore:"commissionValue"`
}

type merchantDocument struct {
	Name               string                      `firestore:"name,omitempty"`
	Phone              string                      `firestore:"phone,omitempty"`
	GeofenceID         string                      `firestore:"geofenceId,omitempty"`
	BusinessCategoryID string                      `firestore:"businessCategoryId,omitempty"`
	Status             bool                        `firestore:"status"`
	ServingModes       []string                    `firestore:"servingModes,omitempty"`
	ServingOptions     []string                    `firestore:"servingOptions,omitempty"`
	Commission         *merchantCommissionDocument `firestore:"commission,omitempty"`
	UpdatedAt          time.Time                   `firestore:"updatedAt"`
}

// MerchantRepository reads merchant profiles.
type MerchantRepository struct {
	base *pfirestore.BaseRepository[merchantDocument]
}

// NewMerchantRepository constructs a Firestore-backed merchant repository.
func NewMerchantRepository(provider *pfirestore.Provider) (*MerchantRepository, error) {
	if provider == nil {
		return nil, errors.New("merchant repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[merchantDocument](provider, merchantCollection, nil, nil)
	return &MerchantRepository{base: base}, nil
}

// FindByID loads one merchant.
func (r *MerchantRepository) FindByID(ctx context.Context, merchantID string) (domain.Merchant, error) {
	if r == nil || r.base == nil {
		return domain.Merchant{}, errors.New("merchant repository not initialised")
	}
	id := strings.TrimSpace(merchantID)
	if id == "" {
		return domain.Merchant{}, errors.New("merchant repository: merchant id is required")
	}
	doc, err := r.base.Get(ctx, id)
	if err != nil {
		return domain.Merchant{}, err
	}
	return decodeMerchant(doc.ID, doc.Data), nil
}

func decodeMerchant(id string, doc merchantDocument) domain.Merchant {
	merchant := domain.Merchant{
		ID:                 id,
		Name:               doc.Name,
		Phone:              doc.Phone,
		GeofenceID:         doc.GeofenceID,
		BusinessCategoryID: doc.BusinessCategoryID,
		Status:             doc.Status,
		UpdatedAt:          doc.UpdatedAt,
	}
	for _, mode := range doc.ServingModes {
		merchant.ServingModes = append(merchant.ServingModes, domain.DeliveryMode(mode))
	}
	for _, option := range doc.ServingOptions {
		merchant.ServingOptions = append(merchant.ServingOptions, domain.DeliveryOption(option))
	}
	if doc.Commission != nil {
		merchant.Commission = &domain.MerchantCommission{
			CommissionType:  domain.DiscountType(doc.Commission.CommissionType),
			CommissionValue: doc.Commission.CommissionValue,
		}
	}
	return merchant
}

var _ repositories.MerchantRepository = (*MerchantRepository)(nil)

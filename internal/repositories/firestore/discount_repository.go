package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/famto/api/internal/domain"
	pfirestore "github.com/famto/api/internal/platform/firestore"
	"github.com/famto/api/internal/repositories"
)

const (
	merchantDiscountCollection = "merchantDiscounts"
	productDiscountCollection  = "productDiscounts"
)

type merchantDiscountDocument struct {
	MerchantID       string    `firestore:"merchantId"`
	DiscountType     string    `firestore:"discountType"`
	DiscountValue    float64   `firestore:"discountValue"`
	MaxDiscountValue float64   `firestore:"maxDiscountValue"`
	MaxCheckoutValue float64   `firestore:"maxCheckoutValue"`
	ValidFrom        time.Time `firestore:"validFrom"`
	ValidTo          time.Time `firestore:"validTo"`
	Status           bool      `firestore:"status"`
	GeofenceID       string    `firestore:"geofenceId,omitempty"`
}

type productDiscountDocument struct {
	MerchantID       string    `firestore:"merchantId"`
	ProductIDs       []string  `firestore:"productIds"`
	DiscountType     string    `firestore:"discountType"`
	DiscountValue    float64   `firestore:"discountValue"`
	MaxDiscountValue float64   `firestore:"maxDiscountValue"`
	ValidFrom        time.Time `firestore:"validFrom"`
	ValidTo          time.Time `firestore:"validTo"`
	Status           bool      `firestore:"status"`
	GeofenceID       string    `firestore:"geofenceId,omitempty"`
}

// DiscountRepository resolves the merchant and product discounts active at a
// point in time.
type DiscountRepository struct {
	merchants *pfirestore.BaseRepository[merchantDiscountDocument]
	products  *pfirestore.BaseRepository[productDiscountDocument]
}

// NewDiscountRepository constructs a Firestore-backed discount repository.
func NewDiscountRepository(provider *pfirestore.Provider) (*DiscountRepository, error) {
	if provider == nil {
		return nil, errors.New("discount repository requires firestore provider")
	}
	return &DiscountRepository{
		merchants: pfirestore.NewBaseRepository[merchantDiscountDocument](provider, merchantDiscountCollection, nil, nil),
		products:  pfirestore.NewBaseRepository[productDiscountDocument](provider, productDiscountCollection, nil, nil),
	}, nil
}

// ActiveMerchantDiscount returns the merchant-wide discount in force at now,
// or a not-found error when none applies.
func (r *DiscountRepository) ActiveMerchantDiscount(ctx context.Context, merchantID string, now time.Time) (domain.MerchantDiscount, error) {
	if r == nil || r.merchants == nil {
		return domain.MerchantDiscount{}, errors.New("discount repository not initialised")
	}
	id := strings.TrimSpace(merchantID)
	if id == "" {
		return domain.MerchantDiscount{}, errors.New("discount repository: merchant id is required")
	}

	docs, err := r.merchants.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.
			Where("merchantId", "==", id).
			Where("status", "==", true).
			Where("validTo", ">=", now.UTC()).
			OrderBy("validTo", firestore.Asc)
	})
	if err != nil {
		return domain.MerchantDiscount{}, err
	}
	for _, doc := range docs {
		if doc.Data.ValidFrom.After(now) {
			continue
		}
		return domain.MerchantDiscount{
			ID:               doc.ID,
			MerchantID:       doc.Data.MerchantID,
			DiscountType:     domain.DiscountType(doc.Data.DiscountType),
			DiscountValue:    doc.Data.DiscountValue,
			MaxDiscountValue: doc.Data.MaxDiscountValue,
			MaxCheckoutValue: doc.Data.MaxCheckoutValue,
			ValidFrom:        doc.Data.ValidFrom,
			ValidTo:          doc.Data.ValidTo,
			Status:           doc.Data.Status,
			GeofenceID:       doc.Data.GeofenceID,
		}, nil
	}
	return domain.MerchantDiscount{}, pfirestore.WrapError("merchantDiscounts.active", status.Error(codes.NotFound, "no active merchant discount"))
}

// ActiveProductDiscounts maps each requested product id to the discount in
// force at now. Products with no active discount are simply absent.
func (r *DiscountRepository) ActiveProductDiscounts(ctx context.Context, merchantID string, productIDs []string, now time.Time) (map[string]domain.ProductDiscount, error) {
	if r == nil || r.products == nil {
		return nil, errors.New("discount repository not initialised")
	}
	id := strings.TrimSpace(merchantID)
	if id == "" {
		return nil, errors.New("discount repository: merchant id is required")
	}
	if len(productIDs) == 0 {
		return map[string]domain.ProductDiscount{}, nil
	}

	docs, err := r.products.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.
			Where("merchantId", "==", id).
			Where("status", "==", true).
			Where("validTo", ">=", now.UTC()).
			OrderBy("validTo", firestore.Asc)
	})
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(productIDs))
	for _, productID := range productIDs {
		wanted[productID] = struct{}{}
	}

	result := make(map[string]domain.ProductDiscount)
	for _, doc := range docs {
		if doc.Data.ValidFrom.After(now) {
			continue
		}
		discount := domain.ProductDiscount{
			ID:               doc.ID,
			MerchantID:       doc.Data.MerchantID,
			ProductIDs:       doc.Data.ProductIDs,
			DiscountType:     domain.DiscountType(doc.Data.DiscountType),
			DiscountValue:    doc.Data.DiscountValue,
			MaxDiscountValue: doc.Data.MaxDiscountValue,
			ValidFrom:        doc.Data.ValidFrom,
			ValidTo:          doc.Data.ValidTo,
			Status:           doc.Data.Status,
			GeofenceID:       doc.Data.GeofenceID,
		}
		for _, productID := range doc.Data.ProductIDs {
			if _, ok := wanted[productID]; !ok {
				continue
			}
			if _, taken := result[productID]; taken {
				continue
			}
			result[productID] = discount
		}
	}
	return result, nil
}

var _ repositories.DiscountRepository = (*DiscountRepository)(nil)

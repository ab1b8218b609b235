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

const promotionCollection = "promotions"

type promotionDocument struct {
	Code             string    `firestore:"code"`
	Description      string    `firestore:"description,omitempty"`
	Status           bool      `firestore:"status"`
	PromoType        string    `firestore:"promoType"`
	Discount         float64   `firestore:"discount"`
	MaxDiscountValue float64   `firestore:"maxDiscountValue"`
	MinOrderAmount   float64   `firestore:"minOrderAmount"`
	MaxAllowedUsers  int       `firestore:"maxAllowedUsers"`
	NoOfUserUsed     int       `firestore:"noOfUserUsed"`
	AppliedOn        string    `firestore:"appliedOn"`
	MerchantID       *string   `firestore:"merchantId,omitempty"`
	GeofenceID       string    `firestore:"geofenceId"`
	FromDate         time.Time `firestore:"fromDate"`
	ToDate           time.Time `firestore:"toDate"`
	ImageURL         string    `firestore:"imageUrl,omitempty"`
	UpdatedAt        time.Time `firestore:"updatedAt"`
}

// PromotionRepository stores promo codes and their redemption counters.
type PromotionRepository struct {
	provider *pfirestore.Provider
	base     *pfirestore.BaseRepository[promotionDocument]
}

// NewPromotionRepository constructs a Firestore-backed promotion repository.
func NewPromotionRepository(provider *pfirestore.Provider) (*PromotionRepository, error) {
	if provider == nil {
		return nil, errors.New("promotion repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[promotionDocument](provider, promotionCollection, nil, nil)
	return &PromotionRepository{
		provider: provider,
		base:     base,
	}, nil
}

// FindByCode resolves a promo code within a geofence.
func (r *PromotionRepository) FindByCode(ctx context.Context, code string, geofenceID string) (domain.Promotion, error) {
	if r == nil || r.base == nil {
		return domain.Promotion{}, errors.New("promotion repository not initialised")
	}
	code = strings.TrimSpace(code)
	geofenceID = strings.TrimSpace(geofenceID)
	if code == "" || geofenceID == "" {
		return domain.Promotion{}, errors.New("promotion repository: code and geofence id are required")
	}

	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.
			Where("code", "==", code).
			Where("geofenceId", "==", geofenceID).
			Limit(1)
	})
	if err != nil {
		return domain.Promotion{}, err
	}
	if len(docs) == 0 {
		return domain.Promotion{}, pfirestore.WrapError("promotions.findByCode", status.Error(codes.NotFound, "promotion not found"))
	}
	return decodePromotion(docs[0].ID, docs[0].Data), nil
}

// Redeem increments the usage counter, failing with a conflict once the
// allowance is exhausted.
func (r *PromotionRepository) Redeem(ctx context.Context, promotionID string, now time.Time) (domain.Promotion, error) {
	if r == nil || r.provider == nil {
		return domain.Promotion{}, errors.New("promotion repository not initialised")
	}
	id := strings.TrimSpace(promotionID)
	if id == "" {
		return domain.Promotion{}, errors.New("promotion repository: promotion id is required")
	}

	var redeemed domain.Promotion
	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.base.DocumentRef(ctx, id)
		if err != nil {
			return err
		}
		snapshot, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var doc promotionDocument
		if err := snapshot.DataTo(&doc); err != nil {
			return err
		}
		if doc.MaxAllowedUsers > 0 && doc.NoOfUserUsed >= doc.MaxAllowedUsers {
			return status.Error(codes.FailedPrecondition, "promotion usage limit reached")
		}
		doc.NoOfUserUsed++
		doc.UpdatedAt = now.UTC()
		if err := tx.Set(ref, doc); err != nil {
			return err
		}
		redeemed = decodePromotion(snapshot.Ref.ID, doc)
		return nil
	})
	if err != nil {
		return domain.Promotion{}, pfirestore.WrapError("promotions.redeem", err)
	}
	return redeemed, nil
}

// ReleaseRedemption undoes one Redeem. The counter never goes below zero.
func (r *PromotionRepository) ReleaseRedemption(ctx context.Context, promotionID string, now time.Time) error {
	if r == nil || r.provider == nil {
		return errors.New("promotion repository not initialised")
	}
	id := strings.TrimSpace(promotionID)
	if id == "" {
		return errors.New("promotion repository: promotion id is required")
	}

	err := r.provider.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref, err := r.base.DocumentRef(ctx, id)
		if err != nil {
			return err
		}
		snapshot, err := tx.Get(ref)
		if err != nil {
			return err
		}
		var doc promotionDocument
		if err := snapshot.DataTo(&doc); err != nil {
			return err
		}
		if doc.NoOfUserUsed > 0 {
			doc.NoOfUserUsed--
		}
		doc.UpdatedAt = now.UTC()
		return tx.Set(ref, doc)
	})
	return pfirestore.WrapError("promotions.releaseRedemption", err)
}

func decodePromotion(id string, doc promotionDocument) domain.Promotion {
	return domain.Promotion{
		ID:               id,
		Code:             doc.Code,
		Description:      doc.Description,
		Status:           doc.Status,
		PromoType:        domain.PromotionType(doc.PromoType),
		Discount:         doc.Discount,
		MaxDiscountValue: doc.MaxDiscountValue,
		MinOrderAmount:   doc.MinOrderAmount,
		MaxAllowedUsers:  doc.MaxAllowedUsers,
		NoOfUserUsed:     doc.NoOfUserUsed,
		AppliedOn:        domain.PromotionAppliedOn(doc.AppliedOn),
		MerchantID:       doc.MerchantID,
		GeofenceID:       doc.GeofenceID,
		FromDate:         doc.FromDate,
		ToDate:           doc.ToDate,
		ImageURL:         doc.ImageURL,
	}
}

var _ repositories.PromotionRepository = (*PromotionRepository)(nil)

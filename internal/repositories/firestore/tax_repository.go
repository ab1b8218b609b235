package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	domain "github.com/famto/api/internal/domain"
	pfirestore "github.com/famto/api/internal/platform/firestore"
	"github.com/famto/api/internal/repositories"
)

const taxRuleCollection = "taxRules"

type taxRuleDocument struct {
	BusinessCategoryID string  `firestore:"businessCategoryId"`
	GeofenceID         string  `firestore:"geofenceId"`
	TaxPercent         float64 `firestore:"taxPercent"`
	Status             bool    `firestore:"status"`
}

// TaxRepository resolves tax percentages per business category and geofence.
type TaxRepository struct {
	base *pfirestore.BaseRepository[taxRuleDocument]
}

// NewTaxRepository constructs a Firestore-backed tax repository.
func NewTaxRepository(provider *pfirestore.Provider) (*TaxRepository, error) {
	if provider == nil {
		return nil, errors.New("tax repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[taxRuleDocument](provider, taxRuleCollection, nil, nil)
	return &TaxRepository{base: base}, nil
}

// FindRule resolves the tax rule for a business category within a geofence.
func (r *TaxRepository) FindRule(ctx context.Context, businessCategoryID string, geofenceID string) (domain.TaxRule, error) {
	if r == nil || r.base == nil {
		return domain.TaxRule{}, errors.New("tax repository not initialised")
	}
	businessCategoryID = strings.TrimSpace(businessCategoryID)
	geofenceID = strings.TrimSpace(geofenceID)
	if businessCategoryID == "" || geofenceID == "" {
		return domain.TaxRule{}, errors.New("tax repository: business category and geofence ids are required")
	}

	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.
			Where("businessCategoryId", "==", businessCategoryID).
			Where("geofenceId", "==", geofenceID).
			Limit(1)
	})
	if err != nil {
		return domain.TaxRule{}, err
	}
	if len(docs) == 0 {
		return domain.TaxRule{}, pfirestore.WrapError("taxRules.find", status.Error(codes.NotFound, "tax rule not found"))
	}

	doc := docs[0]
	return domain.TaxRule{
		ID:                 doc.ID,
		BusinessCategoryID: doc.Data.BusinessCategoryID,
		GeofenceID:         doc.Data.GeofenceID,
		TaxPercent:         doc.Data.TaxPercent,
		Status:             doc.Data.Status,
	}, nil
}

var _ repositories.TaxRepository = (*TaxRepository)(nil)

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
	customerTariffCollection = "customerTariffs"
	agentTariffCollection    = "agentTariffs"
	surgeRuleCollection      = "surgeRules"
)

type customerTariffDocument struct {
	GeofenceID          string  `firestore:"geofenceId"`
	DeliveryMode        string  `firestore:"deliveryMode"`
	VehicleType         *string `firestore:"vehicleType,omitempty"`
	BaseFare            float64 `firestore:"baseFare"`
	BaseDistanceKm      float64 `firestore:"baseDistanceKm"`
	FarePerKmBeyondBase float64 `firestore:"farePerKmBeyondBase"`
	BaseWeightKg        float64 `firestore:"baseWeightKg"`
	FarePerKgBeyondBase float64 `firestore:"farePerKgBeyondBase"`
	PurchaseFarePerHour float64 `firestore:"purchaseFarePerHour"`
}

type agentTariffDocument struct {
	GeofenceID            string  `firestore:"geofenceId"`
	BaseFare              float64 `firestore:"baseFare"`
	BaseDistanceFarePerKm float64 `firestore:"baseDistanceFarePerKm"`
	PurchaseFarePerHour   float64 `firestore:"purchaseFarePerHour"`
	MinLoginHours         float64 `firestore:"minLoginHours"`
}

type surgeRuleDocument struct {
	GeofenceID          string    `firestore:"geofenceId"`
	BaseFare            float64   `firestore:"baseFare"`
	BaseDistanceKm      float64   `firestore:"baseDistanceKm"`
	FarePerKmBeyondBase float64   `firestore:"farePerKmBeyondBase"`
	Status              bool      `firestore:"status"`
	ActiveFrom          time.Time `firestore:"activeFrom"`
	ActiveTo            time.Time `firestore:"activeTo"`
}

// TariffRepository resolves the geofence-scoped fare tables.
type TariffRepository struct {
	customers *pfirestore.BaseRepository[customerTariffDocument]
	agents    *pfirestore.BaseRepository[agentTariffDocument]
	surges    *pfirestore.BaseRepository[surgeRuleDocument]
}

// NewTariffRepository constructs a Firestore-backed tariff repository.
func NewTariffRepository(provider *pfirestore.Provider) (*TariffRepository, error) {
	if provider == nil {
		return nil, errors.New("tariff repository requires firestore provider")
	}
	return &TariffRepository{
		customers: pfirestore.NewBaseRepository[customerTariffDocument](provider, customerTariffCollection, nil, nil),
		agents:    pfirestore.NewBaseRepository[agentTariffDocument](provider, agentTariffCollection, nil, nil),
		surges:    pfirestore.NewBaseRepository[surgeRuleDocument](provider, surgeRuleCollection, nil, nil),
	}, nil
}

// CustomerTariff resolves the fare table for a delivery mode within a
// geofence. Pick-and-drop tariffs are further keyed by vehicle type.
func (r *TariffRepository) CustomerTariff(ctx context.Context, geofenceID string, mode domain.DeliveryMode, vehicleType *string) (domain.Tariff, error) {
	if r == nil || r.customers == nil {
		return domain.Tariff{}, errors.New("tariff repository not initialised")
	}
	geofenceID = strings.TrimSpace(geofenceID)
	if geofenceID == "" {
		return domain.Tariff{}, errors.New("tariff repository: geofence id is required")
	}

	docs, err := r.customers.Query(ctx, func(query firestore.Query) firestore.Query {
		query = query.
			Where("geofenceId", "==", geofenceID).
			Where("deliveryMode", "==", string(mode))
		if vehicleType != nil {
			query = query.Where("vehicleType", "==", *vehicleType)
		}
		return query.Limit(1)
	})
	if err != nil {
		return domain.Tariff{}, err
	}
	if len(docs) == 0 {
		return domain.Tariff{}, pfirestore.WrapError("customerTariffs.find", status.Error(codes.NotFound, "tariff not found"))
	}

	doc := docs[0]
	return domain.Tariff{
		ID:                  doc.ID,
		GeofenceID:          doc.Data.GeofenceID,
		DeliveryMode:        domain.DeliveryMode(doc.Data.DeliveryMode),
		VehicleType:         doc.Data.VehicleType,
		BaseFare:            doc.Data.BaseFare,
		BaseDistanceKm:      doc.Data.BaseDistanceKm,
		FarePerKmBeyondBase: doc.Data.FarePerKmBeyondBase,
		BaseWeightKg:        doc.Data.BaseWeightKg,
		FarePerKgBeyondBase: doc.Data.FarePerKgBeyondBase,
		PurchaseFarePerHour: doc.Data.PurchaseFarePerHour,
	}, nil
}

// AgentTariff resolves the payout table for a geofence.
func (r *TariffRepository) AgentTariff(ctx context.Context, geofenceID string) (domain.AgentTariff, error) {
	if r == nil || r.agents == nil {
		return domain.AgentTariff{}, errors.New("tariff repository not initialised")
	}
	geofenceID = strings.TrimSpace(geofenceID)
	if geofenceID == "" {
		return domain.AgentTariff{}, errors.New("tariff repository: geofence id is required")
	}

	docs, err := r.agents.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.Where("geofenceId", "==", geofenceID).Limit(1)
	})
	if err != nil {
		return domain.AgentTariff{}, err
	}
	if len(docs) == 0 {
		return domain.AgentTariff{}, pfirestore.WrapError("agentTariffs.find", status.Error(codes.NotFound, "agent tariff not found"))
	}

	doc := docs[0]
	return domain.AgentTariff{
		ID:                    doc.ID,
		GeofenceID:            doc.Data.GeofenceID,
		BaseFare:              doc.Data.BaseFare,
		BaseDistanceFarePerKm: doc.Data.BaseDistanceFarePerKm,
		PurchaseFarePerHour:   doc.Data.PurchaseFarePerHour,
		MinLoginHours:         doc.Data.MinLoginHours,
	}, nil
}

// ActiveSurge returns the surge rule in force for the geofence at now, or a
// not-found error when demand is normal.
func (r *TariffRepository) ActiveSurge(ctx context.Context, geofenceID string, now time.Time) (domain.SurgeRule, error) {
	if r == nil || r.surges == nil {
		return domain.SurgeRule{}, errors.New("tariff repository not initialised")
	}
	geofenceID = strings.TrimSpace(geofenceID)
	if geofenceID == "" {
		return domain.SurgeRule{}, errors.New("tariff repository: geofence id is required")
	}

	docs, err := r.surges.Query(ctx, func(query firestore.Query) firestore.Query {
		return query.
			Where("geofenceId", "==", geofenceID).
			Where("status", "==", true).
			Where("activeTo", ">=", now.UTC()).
			OrderBy("activeTo", firestore.Asc)
	})
	if err != nil {
		return domain.SurgeRule{}, err
	}
	for _, doc := range docs {
		if doc.Data.ActiveFrom.After(now) {
			continue
		}
		return domain.SurgeRule{
			ID:                  doc.ID,
			GeofenceID:          doc.Data.GeofenceID,
			BaseFare:            doc.Data.BaseFare,
			BaseDistanceKm:      doc.Data.BaseDistanceKm,
			FarePerKmBeyondBase: doc.Data.FarePerKmBeyondBase,
			Status:              doc.Data.Status,
		}, nil
	}
	return domain.SurgeRule{}, pfirestore.WrapError("surgeRules.active", status.Error(codes.NotFound, "no active surge"))
}

var _ repositories.TariffRepository = (*TariffRepository)(nil)

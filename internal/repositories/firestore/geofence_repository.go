package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"

	domain "github.com/famto/api/internal/domain"
	"github.com/famto/api/internal/geo"
	pfirestore "github.com/famto/api/internal/platform/firestore"
)

const geofenceCollection = "geofences"

type geofenceDocument struct {
	Name    string             `firestore:"name,omitempty"`
	Status  bool               `firestore:"status"`
	Polygon []locationDocument `firestore:"polygon"`
}

// GeofenceRepository reads the configured service areas.
type GeofenceRepository struct {
	base *pfirestore.BaseRepository[geofenceDocument]
}

// NewGeofenceRepository constructs a Firestore-backed geofence repository.
func NewGeofenceRepository(provider *pfirestore.Provider) (*GeofenceRepository, error) {
	if provider == nil {
		return nil, errors.New("geofence repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[geofenceDocument](provider, geofenceCollection, nil, nil)
	return &GeofenceRepository{base: base}, nil
}

// ListGeofences returns every configured service area.
func (r *GeofenceRepository) ListGeofences(ctx context.Context) ([]geo.Geofence, error) {
	if r == nil || r.base == nil {
		return nil, errors.New("geofence repository not initialised")
	}
	docs, err := r.base.Query(ctx, func(query firestore.Query) firestore.Query {
		return query
	})
	if err != nil {
		return nil, err
	}

	fences := make([]geo.Geofence, 0, len(docs))
	for _, doc := range docs {
		fence := geo.Geofence{
			ID:     doc.ID,
			Name:   doc.Data.Name,
			Status: doc.Data.Status,
		}
		for _, vertex := range doc.Data.Polygon {
			fence.Polygon = append(fence.Polygon, domain.Location{
				Latitude:  vertex.Latitude,
				Longitude: vertex.Longitude,
			})
		}
		fences = append(fences, fence)
	}
	return fences, nil
}

var _ geo.GeofenceSource = (*GeofenceRepository)(nil)

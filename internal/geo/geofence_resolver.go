package geo

import (
	"context"
	"errors"
	"sync"
	"time"

	domain "github.com/famto/api/internal/domain"
	"github.com/famto/api/internal/services"
)

// ErrGeofenceNotFound is returned when no service area contains the point.
var ErrGeofenceNotFound = errors.New("geo: no geofence contains the point")

// Geofence is one polygonal service area.
type Geofence struct {
	ID      string
	Name    string
	Status  bool
	Polygon []domain.Location
}

// GeofenceSource lists the configured service areas.
type GeofenceSource interface {
	ListGeofences(ctx context.Context) ([]Geofence, error)
}

// GeofenceResolver maps coordinates onto service areas. The area list is
// cached and refreshed on a fixed interval.
type GeofenceResolver struct {
	source   GeofenceSource
	cacheTTL time.Duration
	clock    func() time.Time

	mu        sync.Mutex
	cached    []Geofence
	fetchedAt time.Time
}

// GeofenceResolverConfig configures the GeofenceResolver.
type GeofenceResolverConfig struct {
	Source   GeofenceSource
	CacheTTL time.Duration
	Clock    func() time.Time
}

// NewGeofenceResolver constructs a resolver over the given source.
func NewGeofenceResolver(cfg GeofenceResolverConfig) (*GeofenceResolver, error) {
	if cfg.Source == nil {
		return nil, errors.New("geo: geofence source is required")
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &GeofenceResolver{
		source:   cfg.Source,
		cacheTTL: ttl,
		clock: func() time.Time {
			return clock().UTC()
		},
	}, nil
}

// ResolveGeofence returns the id of the active geofence containing the point.
func (r *GeofenceResolver) ResolveGeofence(ctx context.Context, point services.Location) (string, error) {
	if r == nil || r.source == nil {
		return "", errors.New("geo: geofence resolver not initialised")
	}
	fences, err := r.geofences(ctx)
	if err != nil {
		return "", err
	}
	for _, fence := range fences {
		if !fence.Status {
			continue
		}
		if containsPoint(fence.Polygon, point) {
			return fence.ID, nil
		}
	}
	return "", ErrGeofenceNotFound
}

func (r *GeofenceResolver) geofences(ctx context.Context) ([]Geofence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock()
	if r.cached != nil && now.Sub(r.fetchedAt) < r.cacheTTL {
		return r.cached, nil
	}
	fences, err := r.source.ListGeofences(ctx)
	if err != nil {
		if r.cached != nil {
			return r.cached, nil
		}
		return nil, err
	}
	r.cached = fences
	r.fetchedAt = now
	return fences, nil
}

// containsPoint runs the even-odd ray casting rule over the polygon vertices.
func containsPoint(polygon []domain.Location, point services.Location) bool {
	if len(polygon) < 3 {
		return false
	}
	inside := false
	j := len(polygon) - 1
	for i := 0; i < len(polygon); i++ {
		vi, vj := polygon[i], polygon[j]
		crosses := (vi.Latitude > point.Latitude) != (vj.Latitude > point.Latitude)
		if crosses {
			intersectLng := (vj.Longitude-vi.Longitude)*(point.Latitude-vi.Latitude)/(vj.Latitude-vi.Latitude) + vi.Longitude
			if point.Longitude < intersectLng {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

var _ services.GeofenceResolver = (*GeofenceResolver)(nil)

package geo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"googlemaps.github.io/maps"

	"github.com/famto/api/internal/services"
)

// RouteResolver resolves road distance and travel time via the Google Maps
// Directions API.
type RouteResolver struct {
	client *maps.Client
	region string
	logger func(ctx context.Context, event string, fields map[string]any)
}

// RouteResolverConfig configures the RouteResolver.
type RouteResolverConfig struct {
	APIKey string
	Region string
	Logger func(ctx context.Context, event string, fields map[string]any)
	Client *maps.Client
}

// NewRouteResolver constructs a RouteResolver backed by the Directions API.
func NewRouteResolver(cfg RouteResolverConfig) (*RouteResolver, error) {
	client := cfg.Client
	if client == nil {
		if cfg.APIKey == "" {
			return nil, errors.New("geo: maps api key is required")
		}
		created, err := maps.NewClient(maps.WithAPIKey(cfg.APIKey))
		if err != nil {
			return nil, fmt.Errorf("geo: create maps client: %w", err)
		}
		client = created
	}
	logger := cfg.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &RouteResolver{
		client: client,
		region: cfg.Region,
		logger: logger,
	}, nil
}

// RouteDistance returns the driving distance and duration between two points.
func (r *RouteResolver) RouteDistance(ctx context.Context, origin services.Location, destination services.Location) (services.RouteEstimate, error) {
	if r == nil || r.client == nil {
		return services.RouteEstimate{}, errors.New("geo: route resolver not initialised")
	}

	req := &maps.DirectionsRequest{
		Origin:      latLng(origin),
		Destination: latLng(destination),
		Mode:        maps.TravelModeDriving,
	}
	if r.region != "" {
		req.Region = r.region
	}

	routes, _, err := r.client.Directions(ctx, req)
	if err != nil {
		return services.RouteEstimate{}, fmt.Errorf("geo: directions request: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return services.RouteEstimate{}, errors.New("geo: no route found")
	}

	var meters int
	var duration time.Duration
	for _, leg := range routes[0].Legs {
		meters += leg.Distance.Meters
		duration += leg.Duration
	}

	estimate := services.RouteEstimate{
		DistanceKm:      float64(meters) / 1000,
		DurationMinutes: duration.Minutes(),
	}
	r.logger(ctx, "geo.route.resolved", map[string]any{
		"distanceKm":      estimate.DistanceKm,
		"durationMinutes": estimate.DurationMinutes,
	})
	return estimate, nil
}

func latLng(point services.Location) string {
	return fmt.Sprintf("%f,%f", point.Latitude, point.Longitude)
}

var _ services.RouteResolver = (*RouteResolver)(nil)

package distance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"collection-route-service/internal/domain"
	"collection-route-service/internal/platform/obs"
	"collection-route-service/internal/ports"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// ORSDistanceProvider implements DistanceProvider and TripPlanner
// using OpenRouteService.
//
// It coordinates:
//   - Persistent distance caching (optional)
//   - Outbound rate limiting (optional)
//   - Matrix and optimization API calls
//
// The provider is safe for concurrent use.
type ORSDistanceProvider struct {
	session       *http.Client
	apiKey        string
	baseURL       string
	profile       string
	limiter       *rate.Limiter
	distanceCache ports.DistanceCache
}

type ORSOption func(*ORSDistanceProvider)

func WithBaseURL(u string) ORSOption {
	return func(o *ORSDistanceProvider) {
		if u = strings.TrimRight(strings.TrimSpace(u), "/"); u != "" {
			o.baseURL = u
		}
	}
}

// WithRateLimit caps outbound requests per second; rps <= 0 disables it.
func WithRateLimit(rps float64) ORSOption {
	return func(o *ORSDistanceProvider) {
		if rps > 0 {
			o.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

func WithDistanceCache(c ports.DistanceCache) ORSOption {
	return func(o *ORSDistanceProvider) { o.distanceCache = c }
}

// WithHTTPTimeout sets the transport-level ceiling. Per-call deadlines come
// from the caller's context.
func WithHTTPTimeout(d time.Duration) ORSOption {
	return func(o *ORSDistanceProvider) {
		if d > 0 {
			o.session.Timeout = d
		}
	}
}

func NewORSDistanceProvider(apiKey string, opts ...ORSOption) (*ORSDistanceProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}

	provider := &ORSDistanceProvider{
		session: &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: "https://api.openrouteservice.org",
		profile: "driving-car",
	}
	for _, opt := range opts {
		opt(provider)
	}

	return provider, nil
}

// Delegate to batched path to reuse caching and matrix logic.
func (o *ORSDistanceProvider) GetDistance(
	ctx context.Context,
	origin domain.Coordinates,
	destination domain.Coordinates,
) (ports.DistanceResult, error) {
	if origin == destination {
		return ports.DistanceResult{}, nil
	}

	results, err := o.GetDistances(ctx, origin, []domain.Coordinates{destination})
	if err != nil {
		return ports.DistanceResult{}, fmt.Errorf(
			"get distances %s -> %s: %w",
			origin.Key(), destination.Key(), err,
		)
	}

	result, ok := results[destination.Key()]
	if !ok {
		return ports.DistanceResult{}, fmt.Errorf("no distance result for %s -> %s", origin.Key(), destination.Key())
	}

	return result, nil
}

// Compute distances from a single origin to many destinations.
func (o *ORSDistanceProvider) GetDistances(
	ctx context.Context,
	origin domain.Coordinates,
	destinations []domain.Coordinates,
) (_ map[string]ports.DistanceResult, err error) {
	defer obs.Time(ctx, "ors.GetDistances")(&err)

	if !origin.Valid() {
		return nil, fmt.Errorf("invalid origin %s", origin.Key())
	}

	originKey := origin.Key()

	seen := make(map[string]struct{}, len(destinations))
	destList := make([]domain.Coordinates, 0, len(destinations))
	out := make(map[string]ports.DistanceResult, len(destinations))
	for _, d := range destinations {
		k := d.Key()
		if k == originKey {
			out[k] = ports.DistanceResult{}
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		if !d.Valid() {
			return nil, fmt.Errorf("invalid destination %s", k)
		}

		seen[k] = struct{}{}
		destList = append(destList, d)
	}

	if len(destList) == 0 {
		return out, nil
	}

	// Check persistent distance cache before issuing external API calls.
	hits := map[string]ports.DistanceResult{}
	if o.distanceCache != nil {
		keys := make([]string, 0, len(destList))
		for _, d := range destList {
			keys = append(keys, d.Key())
		}

		var cacheErr error
		hits, cacheErr = o.distanceCache.GetMany(ctx, originKey, keys)
		if cacheErr != nil {
			// A broken cache degrades to a miss rather than failing the lookup.
			zerolog.Ctx(ctx).Warn().Err(cacheErr).Msg("distance cache read failed")
			hits = map[string]ports.DistanceResult{}
		}
	}

	misses := make([]domain.Coordinates, 0, len(destList))
	for _, d := range destList {
		if r, ok := hits[d.Key()]; ok {
			out[d.Key()] = r
			continue
		}
		misses = append(misses, d)
	}

	if len(misses) == 0 {
		return out, nil
	}

	// Fetch a single origin->many matrix row for all cache misses.
	fetched, err := o.fetchMatrixRow(ctx, origin, misses)
	if err != nil {
		return nil, fmt.Errorf("fetching matrix row: %w", err)
	}

	if o.distanceCache != nil {
		if err := o.distanceCache.PutMany(ctx, originKey, fetched); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("distance cache write failed")
		}
	}

	for k, v := range fetched {
		out[k] = v
	}

	return out, nil
}

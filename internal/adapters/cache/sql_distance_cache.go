package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"collection-route-service/internal/platform/obs"
	"collection-route-service/internal/ports"
)

// SQLDistanceCache keeps oracle leg results in the distance_cache table.
// Rows older than TTL read as misses; TTL <= 0 keeps rows forever.
type SQLDistanceCache struct {
	DB  *sql.DB
	TTL time.Duration
}

func NewSQLDistanceCache(db *sql.DB, ttl time.Duration) *SQLDistanceCache {
	return &SQLDistanceCache{DB: db, TTL: ttl}
}

const selectLegsQuery = `
SELECT destination, distance_meters, duration_seconds
FROM distance_cache
WHERE origin = $1
	AND destination = ANY($2::text[])
	AND ($3::bigint <= 0 OR updated_at > now() - make_interval(secs => $3::bigint));
`

// One round trip per origin: the three arrays are zipped by unnest.
const upsertLegsQuery = `
INSERT INTO distance_cache (origin, destination, distance_meters, duration_seconds, updated_at)
SELECT $1, leg.destination, leg.meters, leg.seconds, now()
FROM unnest($2::text[], $3::int[], $4::int[]) AS leg(destination, meters, seconds)
ON CONFLICT (origin, destination) DO UPDATE
SET distance_meters = EXCLUDED.distance_meters,
	duration_seconds = EXCLUDED.duration_seconds,
	updated_at = EXCLUDED.updated_at;
`

func (s *SQLDistanceCache) GetMany(
	ctx context.Context,
	origin string,
	destinations []string,
) (_ map[string]ports.DistanceResult, err error) {
	defer obs.Time(ctx, "distance.sql.GetMany")(&err)

	if err := s.check(origin); err != nil {
		return nil, fmt.Errorf("sql distance cache get: %w", err)
	}

	wanted := uniqueKeys(destinations)
	if len(wanted) == 0 {
		return map[string]ports.DistanceResult{}, nil
	}

	rows, err := s.DB.QueryContext(ctx, selectLegsQuery, origin, wanted, int64(s.TTL.Seconds()))
	if err != nil {
		return nil, fmt.Errorf("sql distance cache get: query: %w", err)
	}
	defer rows.Close()

	found := make(map[string]ports.DistanceResult, len(wanted))
	for rows.Next() {
		var (
			dest string
			leg  ports.DistanceResult
		)
		if err := rows.Scan(&dest, &leg.DistanceMeters, &leg.DurationSeconds); err != nil {
			return nil, fmt.Errorf("sql distance cache get: scan: %w", err)
		}
		found[dest] = leg
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sql distance cache get: rows: %w", err)
	}

	countLookups("sql", len(found), len(wanted))
	return found, nil
}

func (s *SQLDistanceCache) PutMany(
	ctx context.Context,
	origin string,
	results map[string]ports.DistanceResult,
) (err error) {
	defer obs.Time(ctx, "distance.sql.PutMany")(&err)

	if err := s.check(origin); err != nil {
		return fmt.Errorf("sql distance cache put: %w", err)
	}
	if len(results) == 0 {
		return nil
	}

	dests := make([]string, 0, len(results))
	meters := make([]int32, 0, len(results))
	seconds := make([]int32, 0, len(results))
	for dest, r := range results {
		if strings.TrimSpace(dest) == "" {
			return errors.New("sql distance cache put: empty destination key")
		}
		dests = append(dests, dest)
		meters = append(meters, int32(r.DistanceMeters))
		seconds = append(seconds, int32(r.DurationSeconds))
	}

	if _, err := s.DB.ExecContext(ctx, upsertLegsQuery, origin, dests, meters, seconds); err != nil {
		return fmt.Errorf("sql distance cache put: upsert %d legs: %w", len(dests), err)
	}
	return nil
}

func (s *SQLDistanceCache) check(origin string) error {
	if s.DB == nil {
		return errors.New("db is nil")
	}
	if origin == "" {
		return errors.New("origin must not be empty")
	}
	return nil
}

// uniqueKeys trims keys and drops blanks and repeats, keeping first-seen order.
func uniqueKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

func countLookups(backend string, hits, total int) {
	obs.CacheLookups.WithLabelValues(backend, "hit").Add(float64(hits))
	obs.CacheLookups.WithLabelValues(backend, "miss").Add(float64(total - hits))
}

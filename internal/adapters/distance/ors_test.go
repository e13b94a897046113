package distance

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"collection-route-service/internal/domain"
	"collection-route-service/internal/ports"
)

func newTestProvider(t *testing.T, h http.HandlerFunc, opts ...ORSOption) *ORSDistanceProvider {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	p, err := NewORSDistanceProvider("test-key", append([]ORSOption{WithBaseURL(srv.URL)}, opts...)...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

func TestNewORSDistanceProviderRequiresKey(t *testing.T) {
	if _, err := NewORSDistanceProvider("  "); err == nil {
		t.Fatalf("expected error for empty api key")
	}
}

func TestORSGetDistancesMatrix(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/matrix/driving-car" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "test-key" {
			t.Errorf("missing api key header")
		}

		var req matrixRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Locations) != 3 || req.Locations[0][0] != deira.Lon {
			t.Errorf("locations = %v", req.Locations)
		}

		w.Write([]byte(`{"distances":[[3200.4,25100.6]],"durations":[[400,1800]]}`))
	})

	got, err := p.GetDistances(context.Background(), deira, []domain.Coordinates{karama, marina, karama})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got[karama.Key()].DistanceMeters != 3200 {
		t.Fatalf("karama = %+v", got[karama.Key()])
	}
	if got[marina.Key()].DistanceMeters != 25101 || got[marina.Key()].DurationSeconds != 1800 {
		t.Fatalf("marina = %+v", got[marina.Key()])
	}
}

func TestORSNon2xxIsError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("quota exceeded"))
	})

	_, err := p.GetDistance(context.Background(), deira, karama)
	if err == nil {
		t.Fatalf("expected error on 429")
	}
	var status *httpStatusError
	if !errors.As(err, &status) || status.Code != http.StatusTooManyRequests || status.Body != "quota exceeded" {
		t.Fatalf("err = %v, want wrapped 429 status error", err)
	}

	c := NewClient(p, p, time.Second)
	if got := c.Distance(context.Background(), deira, karama); got != domain.HaversineKm(deira, karama) {
		t.Fatalf("client did not fall back on 429: %v", got)
	}
}

func TestORSMalformedBodyIsError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"distances":[[`))
	})

	if _, err := p.GetDistance(context.Background(), deira, karama); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestORSNullMetricIsError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"distances":[[null]],"durations":[[null]]}`))
	})

	if _, err := p.GetDistance(context.Background(), deira, karama); err == nil {
		t.Fatalf("expected error for unroutable pair")
	}
}

func TestORSSlowServerFallsBack(t *testing.T) {
	release := make(chan struct{})
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	c := NewClient(p, p, 30*time.Millisecond)

	start := time.Now()
	got := c.Distance(context.Background(), deira, karama)
	if got != domain.HaversineKm(deira, karama) {
		t.Fatalf("distance = %v, want haversine", got)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("timeout not honoured")
	}
}

func TestORSPlanTrip(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/optimization" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req optimizationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Jobs) != 3 || req.Jobs[0].ID != 1 {
			t.Errorf("jobs = %+v", req.Jobs)
		}
		if req.Vehicles[0].Start[1] != deira.Lat || req.Vehicles[0].End[1] != marina.Lat {
			t.Errorf("vehicle = %+v", req.Vehicles[0])
		}

		w.Write([]byte(`{"code":0,"routes":[{"steps":[
			{"type":"start"},
			{"type":"job","id":3},
			{"type":"job","job":1},
			{"type":"job","id":2},
			{"type":"end"}]}],"unassigned":[]}`))
	})

	order, err := p.PlanTrip(context.Background(), deira, marina, []domain.Coordinates{karama, jumeira, karama})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{2, 0, 1}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestORSPlanTripRejectsPartialOrder(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":0,"routes":[{"steps":[{"type":"job","id":1}]}],"unassigned":[{"id":2}]}`))
	})

	if _, err := p.PlanTrip(context.Background(), deira, marina, []domain.Coordinates{karama, jumeira}); err == nil {
		t.Fatalf("expected error for unassigned waypoint")
	}
}

func TestORSUsesDistanceCache(t *testing.T) {
	var hits atomic.Int32
	cache := &memCache{m: map[string]ports.DistanceResult{
		deira.Key() + "|" + karama.Key(): {DistanceMeters: 1234, DurationSeconds: 60},
	}}
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"distances":[[9000]],"durations":[[700]]}`))
	}, WithDistanceCache(cache))

	got, err := p.GetDistances(context.Background(), deira, []domain.Coordinates{karama, marina})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[karama.Key()].DistanceMeters != 1234 {
		t.Fatalf("cached karama = %+v", got[karama.Key()])
	}
	if got[marina.Key()].DistanceMeters != 9000 {
		t.Fatalf("fetched marina = %+v", got[marina.Key()])
	}
	if hits.Load() != 1 {
		t.Fatalf("http calls = %d, want 1", hits.Load())
	}
	if _, ok := cache.m[deira.Key()+"|"+marina.Key()]; !ok {
		t.Fatalf("fetched result was not written back to the cache")
	}
}

type memCache struct {
	m map[string]ports.DistanceResult
}

func (c *memCache) GetMany(ctx context.Context, origin string, destinations []string) (map[string]ports.DistanceResult, error) {
	out := map[string]ports.DistanceResult{}
	for _, d := range destinations {
		if r, ok := c.m[origin+"|"+d]; ok {
			out[d] = r
		}
	}
	return out, nil
}

func (c *memCache) PutMany(ctx context.Context, origin string, results map[string]ports.DistanceResult) error {
	for d, r := range results {
		c.m[origin+"|"+d] = r
	}
	return nil
}

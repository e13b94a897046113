package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"collection-route-service/internal/api/dto"
	"collection-route-service/internal/api/handlers"
	"collection-route-service/internal/config"
	"collection-route-service/internal/domain"
	"collection-route-service/internal/services"

	"github.com/rs/zerolog"
)

var ref = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

type memRepo struct {
	records  []domain.CollectionRecord
	vehicles []domain.Vehicle
	err      error
}

func (m *memRepo) ListRecords(ctx context.Context) ([]domain.CollectionRecord, error) {
	return m.records, m.err
}

func (m *memRepo) ListVehicles(ctx context.Context) ([]domain.Vehicle, error) {
	return m.vehicles, m.err
}

func daysAgo(d int) *time.Time {
	t := ref.AddDate(0, 0, -d)
	return &t
}

func seededRepo() *memRepo {
	return &memRepo{
		records: []domain.CollectionRecord{
			{ID: "r1", Name: "Diner", Category: "restaurant", Zone: "north", Location: domain.Coordinates{Lat: 1.30, Lon: 103.80}, ContainerSize: 200, LastServiceAt: daysAgo(30)},
			{ID: "r2", Name: "Mart", Category: "retail", Zone: "north", Location: domain.Coordinates{Lat: 1.31, Lon: 103.81}, ContainerSize: 100, LastServiceAt: daysAgo(1)},
			{ID: "r3", Name: "Plant", Category: "industrial", Zone: "south", Location: domain.Coordinates{Lat: 1.25, Lon: 103.70}, ContainerSize: 300, LastServiceAt: daysAgo(10)},
			{ID: "bad", Name: "Nowhere", Category: "retail", Zone: "south", Location: domain.Coordinates{Lat: 200, Lon: 0}, ContainerSize: 50},
		},
		vehicles: []domain.Vehicle{
			{VehicleID: "T1", Capacity: 2000, Status: domain.VehicleActive},
			{VehicleID: "T2", Capacity: 2000, Status: domain.VehicleIdle},
		},
	}
}

func newTestRouter(repo *memRepo, checks map[string]handlers.Pinger) http.Handler {
	opt := services.NewOptimizer(config.DefaultProfiles(), ref, nil, false, 2)
	d := Deps{
		Optimizer: opt,
		Defaults:  services.OptimizeOptions{PrioritizeUrgent: true},
		Checks:    checks,
		Logger:    zerolog.Nop(),
	}
	if repo != nil {
		d.Repo = repo
	}
	return NewRouter(d)
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestRouter(nil, nil), http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected a request id header")
	}

	failing := map[string]handlers.Pinger{
		"database": func(ctx context.Context) error { return errors.New("down") },
	}
	rec = do(t, newTestRouter(nil, failing), http.MethodGet, "/health", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	var res map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res["database"] != "down" || res["status"] != "degraded" {
		t.Fatalf("unexpected body %v", res)
	}
}

func TestHealth_MethodNotAllowed(t *testing.T) {
	rec := do(t, newTestRouter(nil, nil), http.MethodPost, "/health", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestListPoints(t *testing.T) {
	h := newTestRouter(seededRepo(), nil)

	rec := do(t, h, http.MethodGet, "/points?reference_date=2024-03-01", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res dto.ListPointsResponse
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Count != 3 || res.Invalid != 1 {
		t.Fatalf("expected 3 valid and 1 invalid, got %d and %d", res.Count, res.Invalid)
	}

	rec = do(t, h, http.MethodGet, "/points?reference_date=2024-03-01&zone=south", nil)
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Count != 1 || res.Points[0].ID != "r3" {
		t.Fatalf("unexpected zone filter result %+v", res.Points)
	}
	// Industrial, serviced 10 days ago on a 6 day cycle: 4 days overdue.
	if res.Points[0].Priority != "critical" || res.Points[0].DaysOverdue != 4 {
		t.Fatalf("unexpected enrichment %+v", res.Points[0])
	}
}

func TestListPoints_BadQuery(t *testing.T) {
	h := newTestRouter(seededRepo(), nil)

	if rec := do(t, h, http.MethodGet, "/points?priority=urgent", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad priority, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/points?reference_date=03/01/2024", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad date, got %d", rec.Code)
	}
}

func TestListPoints_NoRepository(t *testing.T) {
	rec := do(t, newTestRouter(nil, nil), http.MethodGet, "/points", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestListPoints_RepositoryError(t *testing.T) {
	rec := do(t, newTestRouter(&memRepo{err: errors.New("boom")}, nil), http.MethodGet, "/points", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "boom") {
		t.Fatalf("internal error leaked to client")
	}
}

func TestDelays(t *testing.T) {
	rec := do(t, newTestRouter(seededRepo(), nil), http.MethodGet, "/delays?reference_date=2024-03-01", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var res dto.DelaysResponse
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.TotalPoints != 3 {
		t.Fatalf("expected 3 points, got %d", res.TotalPoints)
	}
	total := 0
	for _, n := range res.RiskCounts {
		total += n
	}
	if total != 3 {
		t.Fatalf("risk counts should cover every point, got %v", res.RiskCounts)
	}
}

func TestOptimize_FromRepository(t *testing.T) {
	rec := do(t, newTestRouter(seededRepo(), nil), http.MethodPost, "/optimize", map[string]any{
		"reference_date": "2024-03-01",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var res dto.OptimizeResponse
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.RunID == "" {
		t.Fatalf("expected run id")
	}
	if res.Summary.Stops+res.Summary.Unassigned != 4 {
		t.Fatalf("expected all 4 records accounted for, got %+v", res.Summary)
	}
	if res.Summary.Unassigned != 1 || res.Unassigned[0].Reason != "invalid" {
		t.Fatalf("expected the bad record unassigned as invalid, got %+v", res.Unassigned)
	}
	for i, r := range res.Routes {
		if r.Rank != i+1 {
			t.Fatalf("unexpected rank %d at %d", r.Rank, i)
		}
		if i > 0 && res.Routes[i-1].EfficiencyScore < r.EfficiencyScore {
			t.Fatalf("routes not ranked by score")
		}
		for j, s := range r.Stops {
			if s.Sequence != j+1 {
				t.Fatalf("unexpected stop sequence %d", s.Sequence)
			}
		}
	}
}

func TestOptimize_InlinePoints(t *testing.T) {
	body := map[string]any{
		"reference_date":   "2024-03-01",
		"vehicle_count":    1,
		"vehicle_capacity": 1000,
		"depot":            map[string]float64{"lat": 1.29, "lon": 103.85},
		"points": []map[string]any{
			{"id": "a", "zone": "X", "lat": 1.30, "lon": 103.80, "container_size": 100},
			{"id": "b", "zone": "X", "lat": 1.31, "lon": 103.81, "container_size": 100},
		},
	}

	rec := do(t, newTestRouter(nil, nil), http.MethodPost, "/optimize", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var res dto.OptimizeResponse
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Routes) != 1 || len(res.Routes[0].Stops) != 2 {
		t.Fatalf("expected one route with two stops, got %+v", res.Routes)
	}
	if res.Routes[0].VehicleID != "vehicle-1" {
		t.Fatalf("expected synthetic vehicle, got %s", res.Routes[0].VehicleID)
	}
}

func TestOptimize_OversizedPoints(t *testing.T) {
	body := map[string]any{
		"reference_date":   "2024-03-01",
		"vehicle_count":    1,
		"vehicle_capacity": 500,
		"points": []map[string]any{
			{"id": "huge", "category": "retail", "zone": "X", "lat": 1.30, "lon": 103.80, "container_size": 1e20},
			{"id": "big", "category": "industrial", "zone": "X", "lat": 1.30, "lon": 103.80, "container_size": 1000, "last_service_at": "2024-01-31T00:00:00Z"},
			{"id": "small", "category": "retail", "zone": "Y", "lat": 1.31, "lon": 103.81, "container_size": 100, "last_service_at": "2024-03-01T00:00:00Z"},
		},
	}

	rec := do(t, newTestRouter(nil, nil), http.MethodPost, "/optimize", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var res dto.OptimizeResponse
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Routes) != 1 || !res.Routes[0].OverCapacity || res.Routes[0].Stops[0].ID != "big" {
		t.Fatalf("expected the critical oversized point on a flagged route, got %+v", res.Routes)
	}
	if res.Routes[0].Volume < 0 {
		t.Fatalf("negative route volume %d", res.Routes[0].Volume)
	}
	reasons := map[string]string{}
	for _, u := range res.Unassigned {
		reasons[u.ID] = u.Reason
	}
	if reasons["huge"] != "invalid" || reasons["small"] != "no_vehicle" || len(reasons) != 2 {
		t.Fatalf("unexpected unassigned reasons %v", reasons)
	}
}

func TestOptimize_RejectsBadRequests(t *testing.T) {
	h := newTestRouter(seededRepo(), nil)

	cases := map[string]string{
		"unknown field":   `{"trucks": 3}`,
		"two objects":     `{} {}`,
		"not json":        `nope`,
		"negative count":  `{"vehicle_count": -1}`,
		"bad date":        `{"reference_date": "yesterday"}`,
		"bad status":      `{"vehicles": [{"vehicle_id": "T1", "capacity": 10, "status": "parked"}]}`,
		"missing id":      `{"points": [{"lat": 1, "lon": 1}]}`,
		"depot range":     `{"depot": {"lat": 100, "lon": 0}}`,
		"depot required":  `{"use_depot": true}`,
	}
	for name, body := range cases {
		rec := do(t, h, http.MethodPost, "/optimize", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d: %s", name, rec.Code, rec.Body.String())
		}
	}
}

func TestOptimize_NoSource(t *testing.T) {
	rec := do(t, newTestRouter(nil, nil), http.MethodPost, "/optimize", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(nil, nil)
	do(t, h, http.MethodGet, "/health", nil)

	rec := do(t, h, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

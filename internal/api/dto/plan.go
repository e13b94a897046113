package dto

import "time"

// OptimizeRequest overrides the server defaults. Points and Vehicles, when
// present, replace the stored records and fleet for this run only.
type OptimizeRequest struct {
	VehicleCapacity   *int         `json:"vehicle_capacity" validate:"omitempty,gte=0"`
	VehicleCount      *int         `json:"vehicle_count" validate:"omitempty,gte=0,lte=500"`
	MaxPointsPerRoute *int         `json:"max_points_per_route" validate:"omitempty,gte=0"`
	MaxRouteKm        *float64     `json:"max_route_km" validate:"omitempty,gte=0"`
	MaxRouteHours     *float64     `json:"max_route_hours" validate:"omitempty,gte=0"`
	PrioritizeUrgent  *bool        `json:"prioritize_urgent"`
	UseDepot          *bool        `json:"use_depot"`
	Depot             *Coordinates `json:"depot"`
	ReferenceDate     string       `json:"reference_date" validate:"omitempty,datetime=2006-01-02"`

	Points   []PointInput   `json:"points" validate:"omitempty,dive"`
	Vehicles []VehicleInput `json:"vehicles" validate:"omitempty,dive"`
}

type RouteStopResponse struct {
	Sequence       int     `json:"sequence"`
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	Zone           string  `json:"zone"`
	Area           string  `json:"area"`
	Lat            float64 `json:"lat"`
	Lon            float64 `json:"lon"`
	ExpectedVolume int     `json:"expected_volume"`
	DaysOverdue    int     `json:"days_overdue"`
	Priority       string  `json:"priority"`
	OverflowRisk   bool    `json:"overflow_risk"`
}

type RouteResponse struct {
	Rank            int                 `json:"rank"`
	VehicleID       string              `json:"vehicle_id"`
	Color           string              `json:"color"`
	DominantZone    string              `json:"dominant_zone"`
	Strategy        string              `json:"strategy"`
	DistanceKm      float64             `json:"distance_km"`
	DurationHours   float64             `json:"duration_hours"`
	Volume          int                 `json:"volume"`
	EfficiencyScore float64             `json:"efficiency_score"`
	OverCapacity    bool                `json:"over_capacity"`
	ExceedsLimits   bool                `json:"exceeds_limits"`
	Stops           []RouteStopResponse `json:"stops"`
}

type UnassignedResponse struct {
	ID       string `json:"id"`
	Zone     string `json:"zone"`
	Priority string `json:"priority"`
	// Reason is invalid, no_vehicle or over_capacity.
	Reason   string `json:"reason"`
}

type PlanSummary struct {
	Routes          int     `json:"routes"`
	Stops           int     `json:"stops"`
	Unassigned      int     `json:"unassigned"`
	TotalDistanceKm float64 `json:"total_distance_km"`
	TotalHours      float64 `json:"total_hours"`
	TotalVolume     int     `json:"total_volume"`
}

type OptimizeResponse struct {
	RunID       string               `json:"run_id"`
	GeneratedAt time.Time            `json:"generated_at"`
	Summary     PlanSummary          `json:"summary"`
	Routes      []RouteResponse      `json:"routes"`
	Unassigned  []UnassignedResponse `json:"unassigned"`
}

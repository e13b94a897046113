package dto

import "time"

type Coordinates struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// PointInput is a raw collection record supplied inline with a request.
// Coordinates and container size are not validated here: records that
// cannot be routed come back as unassigned.
type PointInput struct {
	ID             string      `json:"id" validate:"required"`
	Name           string      `json:"name"`
	Category       string      `json:"category"`
	Zone           string      `json:"zone"`
	Area           string      `json:"area"`
	Lat            float64     `json:"lat"`
	Lon            float64     `json:"lon"`
	ContainerSize  float64     `json:"container_size"`
	LastServiceAt  *time.Time  `json:"last_service_at"`
	ServiceHistory []time.Time `json:"service_history"`
}

type VehicleInput struct {
	VehicleID string `json:"vehicle_id" validate:"required"`
	Capacity  int    `json:"capacity" validate:"gte=0"`
	Zone      string `json:"zone"`
	Status    string `json:"status" validate:"omitempty,oneof=active idle maintenance"`
}

type PointResponse struct {
	ID                string     `json:"id"`
	Name              string     `json:"name"`
	Category          string     `json:"category"`
	Zone              string     `json:"zone"`
	Area              string     `json:"area"`
	Lat               float64    `json:"lat"`
	Lon               float64    `json:"lon"`
	ContainerSize     float64    `json:"container_size"`
	LastServiceAt     *time.Time `json:"last_service_at"`
	FrequencyDays     int        `json:"frequency_days"`
	NextServiceAt     time.Time  `json:"next_service_at"`
	DaysOverdue       int        `json:"days_overdue"`
	ExpectedVolume    int        `json:"expected_volume"`
	Priority          string     `json:"priority"`
	OverflowRisk      bool       `json:"overflow_risk"`
	RiskLevel         string     `json:"risk_level"`
	RecommendedAction string     `json:"recommended_action"`
}

type ListPointsResponse struct {
	ReferenceDate string          `json:"reference_date"`
	Count         int             `json:"count"`
	Invalid       int             `json:"invalid"`
	Points        []PointResponse `json:"points"`
}

type DelayBucket struct {
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
	Total    int `json:"total"`
}

type DelaysResponse struct {
	ReferenceDate      string                 `json:"reference_date"`
	TotalPoints        int                    `json:"total_points"`
	RiskCounts         map[string]int         `json:"risk_counts"`
	DelayedCount       int                    `json:"delayed_count"`
	DelayRate          float64                `json:"delay_rate"`
	AvgOverdueDays     float64                `json:"avg_overdue_days"`
	CriticalAlerts     []PointResponse        `json:"critical_alerts"`
	ByZone             map[string]DelayBucket `json:"by_zone"`
	ByCategory         map[string]DelayBucket `json:"by_category"`
	HighRiskZones      []string               `json:"high_risk_zones"`
	HighRiskCategories []string               `json:"high_risk_categories"`
}

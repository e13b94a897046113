package domain

import "time"

// CollectionRecord is the raw service location supplied by the input collaborator.
// The caller owns these records; the routing core only reads them.
type CollectionRecord struct {
	ID             string
	Name           string
	Category       string
	Zone           string
	Area           string
	Location       Coordinates
	ContainerSize  float64
	LastServiceAt  *time.Time
	ServiceHistory []time.Time
}

// Pattern is the accumulation estimate for a single location.
type Pattern struct {
	FrequencyDays  int
	NextServiceAt  time.Time
	DaysOverdue    int
	ExpectedVolume int
}

// CollectionPoint is a record enriched with its accumulation pattern and urgency.
// Points are created fresh for each optimization run and never mutated afterward.
type CollectionPoint struct {
	CollectionRecord
	Pattern

	Priority          Priority
	OverflowRisk      bool
	RecommendedAction string
	RiskLevel         RiskLevel
}

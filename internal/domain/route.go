package domain

import "time"

// Route is the finished, ordered, scored visiting sequence for one vehicle.
// It is immutable planning data; a new optimization replaces the whole set.
type Route struct {
	VehicleID       string
	Stops           []CollectionPoint
	DistanceKm      float64
	DurationHours   float64
	Volume          int
	EfficiencyScore float64
	DominantZone    string
	Color           string
	Strategy        string
	OverCapacity    bool
	ExceedsLimits   bool
}

// ZoneTransitions counts adjacent stop pairs with differing zone labels.
func (r Route) ZoneTransitions() int {
	n := 0
	for i := 1; i < len(r.Stops); i++ {
		if r.Stops[i].Zone != r.Stops[i-1].Zone {
			n++
		}
	}
	return n
}

type UnassignedReason string

const (
	ReasonInvalid      UnassignedReason = "invalid"
	ReasonNoVehicle    UnassignedReason = "no_vehicle"
	// ReasonOverCapacity marks a point larger than vehicle capacity that
	// was left without a vehicle.
	ReasonOverCapacity UnassignedReason = "over_capacity"
)

type UnassignedPoint struct {
	Point  CollectionPoint
	Reason UnassignedReason
}

// Plan is the output of one optimization run. Routes plus Unassigned
// partition the input records.
type Plan struct {
	RunID       string
	GeneratedAt time.Time
	Routes      []Route
	Unassigned  []UnassignedPoint
}

// DominantZone returns the most frequent zone label; ties go to the
// lexicographically smaller label.
func DominantZone(points []CollectionPoint) string {
	counts := make(map[string]int, len(points))
	for _, p := range points {
		counts[p.Zone]++
	}

	best, bestN := "", 0
	for z, n := range counts {
		if n > bestN || (n == bestN && z < best) {
			best, bestN = z, n
		}
	}
	return best
}

package domain

import "math"

const EarthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between a and b in kilometers.
func HaversineKm(a, b Coordinates) float64 {
	if a == b {
		return 0
	}
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// PathKm sums great-circle legs along coords in order.
func PathKm(coords []Coordinates) float64 {
	total := 0.0
	for i := 1; i < len(coords); i++ {
		total += HaversineKm(coords[i-1], coords[i])
	}
	return total
}

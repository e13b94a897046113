package domain

type VehicleStatus string

const (
	VehicleActive      VehicleStatus = "active"
	VehicleIdle        VehicleStatus = "idle"
	VehicleMaintenance VehicleStatus = "maintenance"
)

// Vehicle is read-only fleet input. Capacity is in volume units (gallons).
type Vehicle struct {
	VehicleID string
	Capacity  int
	Zone      string
	Status    VehicleStatus
}

// Available reports whether the vehicle can be staffed on a route.
// An empty status is treated as active.
func (v Vehicle) Available() bool {
	switch v.Status {
	case VehicleActive, VehicleIdle, "":
		return true
	}
	return false
}

package branch

// Geofence is a circular area around a branch location where clock events
// count as on-site.
type Geofence struct {
	ID           string
	BranchID     string
	Name         string
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
	IsActive     bool
}

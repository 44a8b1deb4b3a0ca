package branch

import "context"

type GeofenceRepository interface {
	ListActiveByBranch(ctx context.Context, branchID string) ([]Geofence, error)
}

package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/master/branch"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/database"
)

type branchRepositoryImpl struct {
	db *database.DB
}

func NewBranchRepository(db *database.DB) branch.GeofenceRepository {
	return &branchRepositoryImpl{db: db}
}

// ListActiveByBranch implements branch.GeofenceRepository.
func (r *branchRepositoryImpl) ListActiveByBranch(ctx context.Context, branchID string) ([]branch.Geofence, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, branch_id, name, latitude, longitude, radius_meters, is_active
		FROM branch_geofences
		WHERE branch_id = $1 AND is_active
		ORDER BY name
	`

	rows, err := q.Query(ctx, query, branchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query geofences: %w", err)
	}
	defer rows.Close()

	fences := make([]branch.Geofence, 0)
	for rows.Next() {
		var g branch.Geofence
		if err := rows.Scan(&g.ID, &g.BranchID, &g.Name, &g.Latitude, &g.Longitude, &g.RadiusMeters, &g.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan geofence: %w", err)
		}
		fences = append(fences, g)
	}

	return fences, rows.Err()
}

package schedule

import "context"

type ShiftRepository interface {
	GetByID(ctx context.Context, id, companyID string) (Shift, error)
}

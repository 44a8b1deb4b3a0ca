package regularization

import "context"

type RegularizationRepository interface {
	Create(ctx context.Context, r Regularization) (Regularization, error)
	GetByID(ctx context.Context, id, companyID string) (Regularization, error)
	GetByIDForUpdate(ctx context.Context, id, companyID string) (Regularization, error)
	Update(ctx context.Context, r Regularization) error
	HasPending(ctx context.Context, attendanceID string) (bool, error)
	ListByEmployee(ctx context.Context, employeeID, companyID string) ([]Regularization, error)
	ListPending(ctx context.Context, companyID string) ([]Regularization, error)
}

package employee

import "context"

type AssignmentRepository interface {
	GetAssignment(ctx context.Context, employeeID, companyID string) (Assignment, error)
}

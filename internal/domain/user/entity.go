package user

type Role string

const (
	RoleOwner    Role = "owner"    // Company owner - full access
	RoleManager  Role = "manager"  // Can approve leave/attendance
	RoleEmployee Role = "employee" // Regular employee
	RolePending  Role = "pending"  // Still in onboarding
)

// Actor is the authenticated caller of a workflow operation, taken from the
// bearer token claims.
type Actor struct {
	UserID     string
	EmployeeID string
	CompanyID  string
	Role       Role
}

// IsManager checks if actor is manager or owner
func (a Actor) IsManager() bool {
	return a.Role == RoleManager || a.Role == RoleOwner
}

// CanApprove checks if actor can review leave and regularization requests
func (a Actor) CanApprove() bool {
	return HasPermission(a.Role, PermissionLeaveApprove)
}

// IsEmployee reports whether the actor is linked to an employee record.
func (a Actor) IsEmployee() bool {
	return a.EmployeeID != ""
}

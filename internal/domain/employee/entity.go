package employee

// Assignment is where an employee works: the branch that owns its geofences
// and timezone, and the shift it is scheduled on.
type Assignment struct {
	EmployeeID string
	CompanyID  string
	BranchID   string
	ShiftID    *string
	Timezone   string
}

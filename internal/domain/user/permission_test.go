package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPermission(t *testing.T) {
	assert.True(t, HasPermission(RoleOwner, PermissionLeaveApprove))
	assert.True(t, HasPermission(RoleManager, PermissionAttendanceApprove))
	assert.True(t, HasPermission(RoleEmployee, PermissionLeaveCreate))
	assert.False(t, HasPermission(RoleEmployee, PermissionLeaveApprove))
	assert.False(t, HasPermission(RolePending, PermissionAttendanceCreate))
	assert.False(t, HasPermission(Role("admin"), PermissionLeaveViewOwn))
}

func TestActor(t *testing.T) {
	manager := Actor{UserID: "u1", EmployeeID: "e1", Role: RoleManager}
	assert.True(t, manager.IsManager())
	assert.True(t, manager.CanApprove())
	assert.True(t, manager.IsEmployee())

	employee := Actor{UserID: "u2", Role: RoleEmployee}
	assert.False(t, employee.IsManager())
	assert.False(t, employee.CanApprove())
	assert.False(t, employee.IsEmployee())
}

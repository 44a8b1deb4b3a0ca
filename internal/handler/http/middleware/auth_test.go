package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/jwt"
	"github.com/stretchr/testify/assert"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func serve(ctx context.Context, h http.Handler) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestAuthRequired(t *testing.T) {
	h := AuthRequired(okHandler)

	assert.Equal(t, http.StatusUnauthorized, serve(context.Background(), h))

	ctx := jwt.NewContextWithActor(context.Background(), user.Actor{UserID: "u-1", Role: user.RoleEmployee})
	assert.Equal(t, http.StatusNoContent, serve(ctx, h))
}

func TestRequireManager(t *testing.T) {
	h := RequireManager(okHandler)

	tests := []struct {
		role user.Role
		want int
	}{
		{user.RoleOwner, http.StatusNoContent},
		{user.RoleManager, http.StatusNoContent},
		{user.RoleEmployee, http.StatusForbidden},
		{user.RolePending, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			ctx := jwt.NewContextWithActor(context.Background(), user.Actor{UserID: "u-1", Role: tt.role})
			assert.Equal(t, tt.want, serve(ctx, h))
		})
	}
}

func TestRequireEmployee(t *testing.T) {
	h := RequireEmployee(okHandler)

	noEmployee := jwt.NewContextWithActor(context.Background(), user.Actor{UserID: "u-1", Role: user.RoleOwner})
	assert.Equal(t, http.StatusForbidden, serve(noEmployee, h))

	linked := jwt.NewContextWithActor(context.Background(), user.Actor{UserID: "u-1", EmployeeID: "e-1", Role: user.RoleEmployee})
	assert.Equal(t, http.StatusNoContent, serve(linked, h))
}

func TestRequirePermission(t *testing.T) {
	h := RequirePermission(user.PermissionLeaveApprove)(okHandler)

	employee := jwt.NewContextWithActor(context.Background(), user.Actor{UserID: "u-1", Role: user.RoleEmployee})
	assert.Equal(t, http.StatusForbidden, serve(employee, h))

	manager := jwt.NewContextWithActor(context.Background(), user.Actor{UserID: "u-2", Role: user.RoleManager})
	assert.Equal(t, http.StatusNoContent, serve(manager, h))
}

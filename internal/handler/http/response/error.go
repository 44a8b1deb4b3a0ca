package response

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/regularization"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/geofence"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/validator"
	"github.com/go-chi/jwtauth/v5"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth
	case errors.Is(err, jwt.ErrMissingClaims),
		errors.Is(err, jwt.ErrInvalidToken),
		errors.Is(err, jwtauth.ErrNoTokenFound),
		errors.Is(err, jwtauth.ErrUnauthorized):
		Unauthorized(w, err.Error())
	case errors.Is(err, user.ErrManagerAccessRequired),
		errors.Is(err, user.ErrInsufficientPermissions),
		errors.Is(err, user.ErrEmployeeRequired),
		errors.Is(err, attendance.ErrUnauthorized),
		errors.Is(err, leave.ErrNotOwner),
		errors.Is(err, leave.ErrSelfReview),
		errors.Is(err, regularization.ErrSelfReview):
		Forbidden(w, err.Error())

	// Attendance
	case errors.Is(err, geofence.ErrInvalidCoordinate):
		writeJSON(w, http.StatusBadRequest, Response{
			Success: false,
			Error:   &ErrorDetail{Code: "INVALID_COORDINATE", Message: err.Error()},
		})
	case errors.Is(err, attendance.ErrDuplicateClockIn):
		ConflictWithCode(w, "DUPLICATE_CLOCK_IN", err.Error())
	case errors.Is(err, attendance.ErrNoOpenClockIn):
		ConflictWithCode(w, "NO_OPEN_CLOCK_IN", err.Error())
	case errors.Is(err, attendance.ErrInvalidTimeOrder):
		UnprocessableEntity(w, "INVALID_TIME_ORDER", err.Error())
	case errors.Is(err, attendance.ErrOutsideGeofence):
		UnprocessableEntity(w, "OUTSIDE_GEOFENCE", err.Error())

	// Leave
	case errors.Is(err, leave.ErrInsufficientBalance):
		UnprocessableEntity(w, "INSUFFICIENT_BALANCE", err.Error())
	case errors.Is(err, leave.ErrOverRelease):
		ConflictWithCode(w, "OVER_RELEASE", err.Error())
	case errors.Is(err, leave.ErrOverlappingLeave):
		ConflictWithCode(w, "OVERLAPPING_LEAVE", err.Error())
	case errors.Is(err, leave.ErrInvalidState),
		errors.Is(err, regularization.ErrInvalidState):
		ConflictWithCode(w, "INVALID_STATE", err.Error())
	case errors.Is(err, regularization.ErrAlreadyPending):
		ConflictWithCode(w, "ALREADY_PENDING", err.Error())

	// Not found
	case errors.Is(err, attendance.ErrAttendanceNotFound),
		errors.Is(err, leave.ErrLeaveNotFound),
		errors.Is(err, leave.ErrBalanceNotFound),
		errors.Is(err, regularization.ErrRegularizationNotFound),
		errors.Is(err, employee.ErrEmployeeNotFound),
		errors.Is(err, schedule.ErrShiftNotFound):
		NotFound(w, err.Error())

	// Storage
	case errors.Is(err, database.ErrConflict):
		ServiceUnavailable(w, "CONFLICT_RETRY", "The record was modified concurrently, please retry")
	case errors.Is(err, database.ErrDuplicate):
		Conflict(w, "Record already exists")
	case errors.Is(err, context.DeadlineExceeded):
		ServiceUnavailable(w, "TIMEOUT", "The request took too long to complete")

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}

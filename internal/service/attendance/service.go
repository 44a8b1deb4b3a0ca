package attendance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/audit"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/master/branch"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/geofence"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/validator"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	attendanceTable = "attendances"
	autoClosedNote  = "auto-closed"

	// maxClockSkew is how far in the future a client timestamp may be.
	maxClockSkew = 5 * time.Minute
)

type Config struct {
	DefaultBreakHours    decimal.Decimal
	DefaultStandardHours decimal.Decimal
	RequireCoordinates   bool
	EnforceGeofence      bool
	// StaleAfter is how long past its scheduled end an open session is left
	// alone before the sweep closes it.
	StaleAfter time.Duration
}

type AttendanceServiceImpl struct {
	txManager database.TxManager
	attendance.AttendanceRepository
	employee.AssignmentRepository
	schedule.ShiftRepository
	branch.GeofenceRepository
	calculator Calculator
	auditSink  audit.Sink
	cfg        Config
	now        func() time.Time
}

func NewAttendanceService(
	txManager database.TxManager,
	attendanceRepo attendance.AttendanceRepository,
	assignmentRepo employee.AssignmentRepository,
	shiftRepo schedule.ShiftRepository,
	geofenceRepo branch.GeofenceRepository,
	auditSink audit.Sink,
	cfg Config,
) *AttendanceServiceImpl {
	return &AttendanceServiceImpl{
		txManager:            txManager,
		AttendanceRepository: attendanceRepo,
		AssignmentRepository: assignmentRepo,
		ShiftRepository:      shiftRepo,
		GeofenceRepository:   geofenceRepo,
		calculator: Calculator{
			DefaultBreakHours:    cfg.DefaultBreakHours,
			DefaultStandardHours: cfg.DefaultStandardHours,
		},
		auditSink: auditSink,
		cfg:       cfg,
		now:       time.Now,
	}
}

// ClockIn implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ClockIn(ctx context.Context, req attendance.ClockInRequest) (attendance.AttendanceResponse, error) {
	actor, err := requireEmployee(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	clockIn, err := s.eventTime(req.Timestamp)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	assignment, err := s.AssignmentRepository.GetAssignment(ctx, actor.EmployeeID, actor.CompanyID)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get employee assignment: %w", err)
	}

	wc, err := s.workContext(ctx, assignment, assignment.ShiftID, actor.CompanyID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	coordinate := toCoordinate(req.Latitude, req.Longitude)
	fenceResult, err := s.checkGeofence(ctx, assignment.BranchID, coordinate)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if s.cfg.EnforceGeofence && fenceResult.HasFence && !fenceResult.Inside {
		return attendance.AttendanceResponse{}, attendance.ErrOutsideGeofence
	}

	id, err := uuid.NewV7()
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to generate attendance id: %w", err)
	}

	now := s.now().UTC()
	record := attendance.Attendance{
		ID:               id.String(),
		CompanyID:        actor.CompanyID,
		EmployeeID:       actor.EmployeeID,
		ShiftID:          assignment.ShiftID,
		ClockIn:          &clockIn,
		ClockInLatitude:  req.Latitude,
		ClockInLongitude: req.Longitude,
		IsInGeofence:     fenceResult.Inside,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if fenceResult.HasFence {
		distance := math.Round(fenceResult.MinDistanceMeters*100) / 100
		record.GeofenceDistanceMeters = &distance
	}
	if err := s.calculator.Derive(&record, wc); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	var created attendance.Attendance
	err = s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		_, err := s.AttendanceRepository.GetOpenSessionForUpdate(ctx, actor.EmployeeID)
		if err == nil {
			return attendance.ErrDuplicateClockIn
		}
		if !errors.Is(err, attendance.ErrAttendanceNotFound) {
			return fmt.Errorf("failed to get open session: %w", err)
		}

		exists, err := s.AttendanceRepository.ExistsForDate(ctx, actor.EmployeeID, record.Date)
		if err != nil {
			return fmt.Errorf("failed to check attendance for date: %w", err)
		}
		if exists {
			return attendance.ErrDuplicateClockIn
		}

		created, err = s.AttendanceRepository.Create(ctx, record)
		if err != nil {
			return fmt.Errorf("failed to create attendance record: %w", err)
		}
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	resp := mapAttendanceToResponse(created)
	s.record(ctx, created.ID, audit.ActionCreate, actor.UserID, nil, resp)

	return resp, nil
}

// ClockOut implements attendance.AttendanceService. The open session is
// locked so a concurrent regularization approval cannot interleave.
func (s *AttendanceServiceImpl) ClockOut(ctx context.Context, req attendance.ClockOutRequest) (attendance.AttendanceResponse, error) {
	actor, err := requireEmployee(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	clockOut, err := s.eventTime(req.Timestamp)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	coordinate := toCoordinate(req.Latitude, req.Longitude)
	if _, err := geofence.Validate(nil, coordinate, geofence.Policy{RequireCoordinate: s.cfg.RequireCoordinates}); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	assignment, err := s.AssignmentRepository.GetAssignment(ctx, actor.EmployeeID, actor.CompanyID)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get employee assignment: %w", err)
	}

	var before, after attendance.Attendance
	err = s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		record, err := s.AttendanceRepository.GetOpenSessionForUpdate(ctx, actor.EmployeeID)
		if err != nil {
			if errors.Is(err, attendance.ErrAttendanceNotFound) {
				return attendance.ErrNoOpenClockIn
			}
			return fmt.Errorf("failed to get open session: %w", err)
		}
		if clockOut.Before(*record.ClockIn) {
			return attendance.ErrInvalidTimeOrder
		}
		before = record

		wc, err := s.workContext(ctx, assignment, record.ShiftID, actor.CompanyID)
		if err != nil {
			return err
		}

		record.ClockOut = &clockOut
		record.ClockOutLatitude = req.Latitude
		record.ClockOutLongitude = req.Longitude
		record.UpdatedAt = s.now().UTC()
		if err := s.calculator.Derive(&record, wc); err != nil {
			return err
		}

		if err := s.AttendanceRepository.Update(ctx, record); err != nil {
			return fmt.Errorf("failed to update attendance record: %w", err)
		}
		after = record
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	resp := mapAttendanceToResponse(after)
	s.record(ctx, after.ID, audit.ActionUpdate, actor.UserID, mapAttendanceToResponse(before), resp)

	return resp, nil
}

// ApplyRegularization implements attendance.Regularizer. It must run inside
// the caller's transaction with record already locked.
func (s *AttendanceServiceImpl) ApplyRegularization(ctx context.Context, record attendance.Attendance, clockIn, clockOut time.Time) (attendance.Attendance, error) {
	wc, err := s.regularizationContext(ctx, record, clockIn, clockOut)
	if err != nil {
		return attendance.Attendance{}, err
	}

	in, out := clockIn.UTC(), clockOut.UTC()
	record.ClockIn = &in
	record.ClockOut = &out
	record.Status = attendance.StatusRegularized
	record.UpdatedAt = s.now().UTC()
	if err := s.calculator.Derive(&record, wc); err != nil {
		return attendance.Attendance{}, err
	}

	if err := s.AttendanceRepository.Update(ctx, record); err != nil {
		return attendance.Attendance{}, fmt.Errorf("failed to update attendance record: %w", err)
	}
	return record, nil
}

// CheckRegularization implements attendance.Regularizer.
func (s *AttendanceServiceImpl) CheckRegularization(ctx context.Context, record attendance.Attendance, clockIn, clockOut time.Time) error {
	_, err := s.regularizationContext(ctx, record, clockIn, clockOut)
	return err
}

// regularizationContext loads the record's work context and rejects times
// that would move the record to another local date.
func (s *AttendanceServiceImpl) regularizationContext(ctx context.Context, record attendance.Attendance, clockIn, clockOut time.Time) (WorkContext, error) {
	if clockOut.Before(clockIn) {
		return WorkContext{}, attendance.ErrInvalidTimeOrder
	}

	assignment, err := s.AssignmentRepository.GetAssignment(ctx, record.EmployeeID, record.CompanyID)
	if err != nil {
		return WorkContext{}, fmt.Errorf("failed to get employee assignment: %w", err)
	}
	wc, err := s.workContext(ctx, assignment, record.ShiftID, record.CompanyID)
	if err != nil {
		return WorkContext{}, err
	}

	if !LocalDate(clockIn, wc.location()).Equal(record.Date) {
		return WorkContext{}, validator.ValidationErrors{{
			Field:   "requested_clock_in_time",
			Message: "requested_clock_in_time must fall on the attendance date " + record.Date.Format("2006-01-02"),
		}}
	}
	return wc, nil
}

// CloseStaleSession clocks out a session that was never closed, at the end
// of its scheduled day. It reports false when the session was closed in the
// meantime.
func (s *AttendanceServiceImpl) CloseStaleSession(ctx context.Context, stale attendance.Attendance) (bool, error) {
	assignment, err := s.AssignmentRepository.GetAssignment(ctx, stale.EmployeeID, stale.CompanyID)
	if err != nil {
		return false, fmt.Errorf("failed to get employee assignment: %w", err)
	}

	var before, after attendance.Attendance
	err = s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		record, err := s.AttendanceRepository.GetByIDForUpdate(ctx, stale.ID, stale.CompanyID)
		if err != nil {
			return err
		}
		if !record.IsOpen() {
			return nil
		}
		before = record

		wc, err := s.workContext(ctx, assignment, record.ShiftID, record.CompanyID)
		if err != nil {
			return err
		}

		clockOut := s.calculator.ScheduledClockOut(record, wc).UTC()
		if clockOut.Before(*record.ClockIn) {
			clockOut = *record.ClockIn
		}
		if s.now().Before(clockOut.Add(s.cfg.StaleAfter)) {
			return nil
		}
		note := autoClosedNote
		record.ClockOut = &clockOut
		record.Note = &note
		record.UpdatedAt = s.now().UTC()
		if err := s.calculator.Derive(&record, wc); err != nil {
			return err
		}

		if err := s.AttendanceRepository.Update(ctx, record); err != nil {
			return fmt.Errorf("failed to update attendance record: %w", err)
		}
		after = record
		return nil
	})
	if err != nil {
		return false, err
	}
	if after.ID == "" {
		return false, nil
	}

	s.record(ctx, after.ID, audit.ActionUpdate, "", mapAttendanceToResponse(before), mapAttendanceToResponse(after))
	return true, nil
}

// GetMyAttendance implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetMyAttendance(ctx context.Context, filter attendance.MyAttendanceFilter) (attendance.ListAttendanceResponse, error) {
	actor, err := requireEmployee(ctx)
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	records, total, err := s.AttendanceRepository.GetMyAttendance(ctx, actor.EmployeeID, filter, actor.CompanyID)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to get attendance records: %w", err)
	}

	items := make([]attendance.AttendanceResponse, 0, len(records))
	for _, r := range records {
		items = append(items, mapAttendanceToResponse(r))
	}

	return attendance.ListAttendanceResponse{
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  int(math.Ceil(float64(total) / float64(filter.Limit))),
		Attendances: items,
	}, nil
}

// GetAttendance implements attendance.AttendanceService. Employees only see
// their own records; reviewers see the whole company.
func (s *AttendanceServiceImpl) GetAttendance(ctx context.Context, id string) (attendance.AttendanceResponse, error) {
	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	record, err := s.AttendanceRepository.GetByID(ctx, id, actor.CompanyID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if record.EmployeeID != actor.EmployeeID && !user.HasPermission(actor.Role, user.PermissionAttendanceViewAll) {
		return attendance.AttendanceResponse{}, attendance.ErrUnauthorized
	}

	return mapAttendanceToResponse(record), nil
}

func (s *AttendanceServiceImpl) eventTime(ts *time.Time) (time.Time, error) {
	now := s.now().UTC()
	if ts == nil {
		return now, nil
	}
	if ts.After(now.Add(maxClockSkew)) {
		return time.Time{}, validator.ValidationErrors{{Field: "timestamp", Message: "timestamp must not be in the future"}}
	}
	return ts.UTC(), nil
}

func (s *AttendanceServiceImpl) workContext(ctx context.Context, assignment employee.Assignment, shiftID *string, companyID string) (WorkContext, error) {
	loc, err := time.LoadLocation(assignment.Timezone)
	if err != nil || assignment.Timezone == "" {
		loc = time.UTC
	}

	wc := WorkContext{Location: loc}
	if shiftID == nil {
		return wc, nil
	}

	shift, err := s.ShiftRepository.GetByID(ctx, *shiftID, companyID)
	if err != nil {
		return WorkContext{}, fmt.Errorf("failed to get shift: %w", err)
	}
	wc.Shift = &shift
	return wc, nil
}

func (s *AttendanceServiceImpl) checkGeofence(ctx context.Context, branchID string, c *geofence.Coordinate) (geofence.Result, error) {
	policy := geofence.Policy{RequireCoordinate: s.cfg.RequireCoordinates}

	// Validate the coordinate before touching storage.
	if _, err := geofence.Validate(nil, c, policy); err != nil {
		return geofence.Result{}, err
	}
	if c == nil || branchID == "" {
		return geofence.Result{}, nil
	}

	active, err := s.GeofenceRepository.ListActiveByBranch(ctx, branchID)
	if err != nil {
		return geofence.Result{}, fmt.Errorf("failed to get branch geofences: %w", err)
	}

	fences := make([]geofence.Fence, 0, len(active))
	for _, g := range active {
		fences = append(fences, geofence.Fence{
			ID:           g.ID,
			Latitude:     g.Latitude,
			Longitude:    g.Longitude,
			RadiusMeters: g.RadiusMeters,
		})
	}
	return geofence.Validate(fences, c, policy)
}

func (s *AttendanceServiceImpl) record(ctx context.Context, recordID string, action audit.Action, actorID string, oldValues, newValues any) {
	s.auditSink.Record(ctx, audit.Entry{
		TableName: attendanceTable,
		RecordID:  recordID,
		Action:    action,
		ActorID:   actorID,
		OldValues: oldValues,
		NewValues: newValues,
	})
}

func toCoordinate(lat, lon *float64) *geofence.Coordinate {
	if lat == nil || lon == nil {
		return nil
	}
	return &geofence.Coordinate{Latitude: *lat, Longitude: *lon}
}

func requireEmployee(ctx context.Context) (user.Actor, error) {
	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return user.Actor{}, err
	}
	if !actor.IsEmployee() {
		return user.Actor{}, user.ErrEmployeeRequired
	}
	return actor, nil
}

// timePtrToString safely converts a *time.Time to a string.
func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.UTC().Format(time.RFC3339)
	return &format
}

func mapAttendanceToResponse(a attendance.Attendance) attendance.AttendanceResponse {
	return attendance.AttendanceResponse{
		ID:                     a.ID,
		EmployeeID:             a.EmployeeID,
		Date:                   a.Date.Format("2006-01-02"),
		ShiftID:                a.ShiftID,
		ClockInTime:            timePtrToString(a.ClockIn),
		ClockOutTime:           timePtrToString(a.ClockOut),
		ClockInLatitude:        a.ClockInLatitude,
		ClockInLongitude:       a.ClockInLongitude,
		ClockOutLatitude:       a.ClockOutLatitude,
		ClockOutLongitude:      a.ClockOutLongitude,
		IsInGeofence:           a.IsInGeofence,
		GeofenceDistanceMeters: a.GeofenceDistanceMeters,
		TotalHours:             a.TotalHours,
		BreakHours:             a.BreakHours,
		WorkedHours:            a.WorkedHours,
		OvertimeHours:          a.OvertimeHours,
		Status:                 string(a.Status),
		IsLate:                 a.IsLate,
		LateMinutes:            a.LateMinutes,
		IsEarlyDeparture:       a.IsEarlyDeparture,
		EarlyDepartureMinutes:  a.EarlyDepartureMinutes,
		Note:                   a.Note,
		CreatedAt:              a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:              a.UpdatedAt.Format(time.RFC3339),
	}
}

var (
	_ attendance.AttendanceService = (*AttendanceServiceImpl)(nil)
	_ attendance.Regularizer       = (*AttendanceServiceImpl)(nil)
)

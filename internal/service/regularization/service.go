package regularization

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/audit"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/regularization"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/jwt"
	"github.com/google/uuid"
)

const (
	regularizationTable = "attendance_regularizations"
	attendanceTable     = "attendances"
)

type RegularizationServiceImpl struct {
	txManager database.TxManager
	regularization.RegularizationRepository
	attendanceRepo attendance.AttendanceRepository
	regularizer    attendance.Regularizer
	auditSink      audit.Sink
	now            func() time.Time
}

func NewRegularizationService(
	txManager database.TxManager,
	regularizationRepo regularization.RegularizationRepository,
	attendanceRepo attendance.AttendanceRepository,
	regularizer attendance.Regularizer,
	auditSink audit.Sink,
) *RegularizationServiceImpl {
	return &RegularizationServiceImpl{
		txManager:                txManager,
		RegularizationRepository: regularizationRepo,
		attendanceRepo:           attendanceRepo,
		regularizer:              regularizer,
		auditSink:                auditSink,
		now:                      time.Now,
	}
}

// Submit implements regularization.RegularizationService.
func (s *RegularizationServiceImpl) Submit(ctx context.Context, req regularization.SubmitRegularizationRequest) (regularization.RegularizationResponse, error) {
	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return regularization.RegularizationResponse{}, err
	}
	if !actor.IsEmployee() {
		return regularization.RegularizationResponse{}, user.ErrEmployeeRequired
	}
	if err := req.Validate(); err != nil {
		return regularization.RegularizationResponse{}, err
	}
	if req.RequestedClockOut.Before(req.RequestedClockIn) {
		return regularization.RegularizationResponse{}, attendance.ErrInvalidTimeOrder
	}

	id, err := uuid.NewV7()
	if err != nil {
		return regularization.RegularizationResponse{}, fmt.Errorf("failed to generate regularization id: %w", err)
	}

	var created regularization.Regularization
	err = s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		record, err := s.attendanceRepo.GetByID(ctx, req.AttendanceID, actor.CompanyID)
		if err != nil {
			return err
		}
		// Someone else's record looks the same as a missing one.
		if record.EmployeeID != actor.EmployeeID {
			return attendance.ErrAttendanceNotFound
		}
		if err := s.regularizer.CheckRegularization(ctx, record, req.RequestedClockIn, req.RequestedClockOut); err != nil {
			return err
		}

		pending, err := s.RegularizationRepository.HasPending(ctx, record.ID)
		if err != nil {
			return fmt.Errorf("failed to check pending regularization: %w", err)
		}
		if pending {
			return regularization.ErrAlreadyPending
		}

		now := s.now().UTC()
		created, err = s.RegularizationRepository.Create(ctx, regularization.Regularization{
			ID:                id.String(),
			CompanyID:         actor.CompanyID,
			EmployeeID:        actor.EmployeeID,
			AttendanceID:      record.ID,
			RequestedClockIn:  req.RequestedClockIn.UTC(),
			RequestedClockOut: req.RequestedClockOut.UTC(),
			Reason:            req.Reason,
			Status:            regularization.StatusPending,
			CreatedAt:         now,
			UpdatedAt:         now,
		})
		if err != nil {
			return fmt.Errorf("failed to create regularization: %w", err)
		}
		return nil
	})
	if err != nil {
		return regularization.RegularizationResponse{}, err
	}

	resp := mapRegularizationToResponse(created)
	s.record(ctx, regularizationTable, created.ID, audit.ActionCreate, actor.UserID, nil, resp)

	return resp, nil
}

// Review implements regularization.RegularizationService. Approval rewrites
// the attendance record under the same row lock that clock-out takes.
func (s *RegularizationServiceImpl) Review(ctx context.Context, req regularization.ReviewRegularizationRequest) (regularization.RegularizationResponse, error) {
	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return regularization.RegularizationResponse{}, err
	}
	if !user.HasPermission(actor.Role, user.PermissionAttendanceApprove) {
		return regularization.RegularizationResponse{}, user.ErrManagerAccessRequired
	}
	if err := req.Validate(); err != nil {
		return regularization.RegularizationResponse{}, err
	}

	var before, after regularization.Regularization
	var recordBefore, recordAfter attendance.Attendance
	err = s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		reg, err := s.RegularizationRepository.GetByIDForUpdate(ctx, req.ID, actor.CompanyID)
		if err != nil {
			return err
		}
		if actor.EmployeeID != "" && reg.EmployeeID == actor.EmployeeID {
			return regularization.ErrSelfReview
		}
		if !reg.IsPending() {
			return regularization.ErrInvalidState
		}
		before = reg

		if req.Status == regularization.StatusApproved {
			record, err := s.attendanceRepo.GetByIDForUpdate(ctx, reg.AttendanceID, actor.CompanyID)
			if err != nil {
				return fmt.Errorf("failed to lock attendance record: %w", err)
			}
			recordBefore = record

			recordAfter, err = s.regularizer.ApplyRegularization(ctx, record, reg.RequestedClockIn, reg.RequestedClockOut)
			if err != nil {
				return err
			}
		}

		now := s.now().UTC()
		reg.Status = req.Status
		reg.ReviewedBy = &actor.UserID
		reg.ReviewedAt = &now
		reg.ReviewerNotes = req.Notes
		reg.UpdatedAt = now

		if err := s.RegularizationRepository.Update(ctx, reg); err != nil {
			return fmt.Errorf("failed to update regularization: %w", err)
		}
		after = reg
		return nil
	})
	if err != nil {
		return regularization.RegularizationResponse{}, err
	}

	action := audit.ActionReject
	if after.Status == regularization.StatusApproved {
		action = audit.ActionApprove
		s.record(ctx, attendanceTable, recordAfter.ID, audit.ActionUpdate, actor.UserID, hoursSnapshot(recordBefore), hoursSnapshot(recordAfter))
	}

	resp := mapRegularizationToResponse(after)
	s.record(ctx, regularizationTable, after.ID, action, actor.UserID, mapRegularizationToResponse(before), resp)

	return resp, nil
}

// ListMine implements regularization.RegularizationService.
func (s *RegularizationServiceImpl) ListMine(ctx context.Context) ([]regularization.RegularizationResponse, error) {
	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.IsEmployee() {
		return nil, user.ErrEmployeeRequired
	}

	regs, err := s.RegularizationRepository.ListByEmployee(ctx, actor.EmployeeID, actor.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list regularizations: %w", err)
	}
	return mapRegularizations(regs), nil
}

// ListPending implements regularization.RegularizationService.
func (s *RegularizationServiceImpl) ListPending(ctx context.Context) ([]regularization.RegularizationResponse, error) {
	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !user.HasPermission(actor.Role, user.PermissionAttendanceApprove) {
		return nil, user.ErrManagerAccessRequired
	}

	regs, err := s.RegularizationRepository.ListPending(ctx, actor.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending regularizations: %w", err)
	}
	return mapRegularizations(regs), nil
}

func (s *RegularizationServiceImpl) record(ctx context.Context, table, recordID string, action audit.Action, actorID string, oldValues, newValues any) {
	s.auditSink.Record(ctx, audit.Entry{
		TableName: table,
		RecordID:  recordID,
		Action:    action,
		ActorID:   actorID,
		OldValues: oldValues,
		NewValues: newValues,
	})
}

// attendanceHours is the part of an attendance record a regularization
// approval changes.
type attendanceHours struct {
	ClockIn       *time.Time `json:"clock_in_time"`
	ClockOut      *time.Time `json:"clock_out_time"`
	Status        string     `json:"status"`
	TotalHours    string     `json:"total_hours"`
	WorkedHours   string     `json:"worked_hours"`
	OvertimeHours string     `json:"overtime_hours"`
	LateMinutes   int        `json:"late_minutes"`
}

func hoursSnapshot(a attendance.Attendance) attendanceHours {
	return attendanceHours{
		ClockIn:       a.ClockIn,
		ClockOut:      a.ClockOut,
		Status:        string(a.Status),
		TotalHours:    a.TotalHours.StringFixed(2),
		WorkedHours:   a.WorkedHours.StringFixed(2),
		OvertimeHours: a.OvertimeHours.StringFixed(2),
		LateMinutes:   a.LateMinutes,
	}
}

func mapRegularizations(regs []regularization.Regularization) []regularization.RegularizationResponse {
	resp := make([]regularization.RegularizationResponse, 0, len(regs))
	for _, r := range regs {
		resp = append(resp, mapRegularizationToResponse(r))
	}
	return resp
}

func mapRegularizationToResponse(r regularization.Regularization) regularization.RegularizationResponse {
	resp := regularization.RegularizationResponse{
		ID:                r.ID,
		EmployeeID:        r.EmployeeID,
		AttendanceID:      r.AttendanceID,
		RequestedClockIn:  r.RequestedClockIn.Format(time.RFC3339),
		RequestedClockOut: r.RequestedClockOut.Format(time.RFC3339),
		Reason:            r.Reason,
		Status:            string(r.Status),
		ReviewedBy:        r.ReviewedBy,
		ReviewerNotes:     r.ReviewerNotes,
		CreatedAt:         r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         r.UpdatedAt.Format(time.RFC3339),
	}
	if r.ReviewedAt != nil {
		reviewedAt := r.ReviewedAt.Format(time.RFC3339)
		resp.ReviewedAt = &reviewedAt
	}
	return resp
}

var _ regularization.RegularizationService = (*RegularizationServiceImpl)(nil)

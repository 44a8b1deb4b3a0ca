package leave

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/audit"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/validator"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const leaveTable = "leave_requests"

// DayCounter counts chargeable days for a leave range.
type DayCounter interface {
	CountLeaveDays(ctx context.Context, companyID string, start, end time.Time, isHalfDay bool) (decimal.Decimal, error)
}

type LeaveServiceImpl struct {
	txManager database.TxManager
	leave.LeaveRepository
	ledger     leave.BalanceLedger
	dayCounter DayCounter
	auditSink  audit.Sink
	now        func() time.Time
}

func NewLeaveService(
	txManager database.TxManager,
	leaveRepo leave.LeaveRepository,
	ledger leave.BalanceLedger,
	dayCounter DayCounter,
	auditSink audit.Sink,
) *LeaveServiceImpl {
	return &LeaveServiceImpl{
		txManager:       txManager,
		LeaveRepository: leaveRepo,
		ledger:          ledger,
		dayCounter:      dayCounter,
		auditSink:       auditSink,
		now:             time.Now,
	}
}

// Submit implements leave.LeaveService. Metered leave reserves its days on
// the ledger in the same transaction that creates the request.
func (s *LeaveServiceImpl) Submit(ctx context.Context, req leave.SubmitLeaveRequest) (leave.LeaveResponse, error) {
	actor, err := requireEmployee(ctx)
	if err != nil {
		return leave.LeaveResponse{}, err
	}

	startDate, endDate, err := req.Validate()
	if err != nil {
		return leave.LeaveResponse{}, err
	}

	totalDays, err := s.dayCounter.CountLeaveDays(ctx, actor.CompanyID, startDate, endDate, req.IsHalfDay)
	if err != nil {
		return leave.LeaveResponse{}, fmt.Errorf("failed to count leave days: %w", err)
	}
	if totalDays.IsZero() {
		return leave.LeaveResponse{}, validator.ValidationErrors{{Field: "start_date", Message: "the requested range contains no working days"}}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return leave.LeaveResponse{}, fmt.Errorf("failed to generate leave id: %w", err)
	}

	now := s.now().UTC()
	request := leave.Leave{
		ID:            id.String(),
		CompanyID:     actor.CompanyID,
		EmployeeID:    actor.EmployeeID,
		LeaveType:     leave.LeaveType(req.LeaveType),
		StartDate:     startDate,
		EndDate:       endDate,
		IsHalfDay:     req.IsHalfDay,
		TotalDays:     totalDays,
		Reason:        req.Reason,
		AttachmentURL: req.AttachmentURL,
		Status:        leave.StatusPending,
		AppliedAt:     now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.IsHalfDay && req.HalfDayPeriod != nil {
		period := leave.HalfDayPeriod(*req.HalfDayPeriod)
		request.HalfDayPeriod = &period
	}

	var created leave.Leave
	err = s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		// Held before the overlap check so unmetered requests, which take
		// no balance lock, cannot both pass it.
		if err := s.LeaveRepository.LockEmployeeRequests(ctx, request.EmployeeID); err != nil {
			return err
		}

		overlap, err := s.LeaveRepository.HasOverlap(ctx, request.EmployeeID, request.StartDate, request.EndDate)
		if err != nil {
			return fmt.Errorf("failed to check overlapping leave: %w", err)
		}
		if overlap {
			return leave.ErrOverlappingLeave
		}

		if request.LeaveType.IsMetered() {
			key := request.BalanceKey()
			available, err := s.ledger.CheckAvailable(ctx, key, request.TotalDays)
			if err != nil {
				return err
			}
			if !available {
				return leave.ErrInsufficientBalance
			}
			if _, err := s.ledger.Reserve(ctx, key, request.TotalDays); err != nil {
				return err
			}
		}

		created, err = s.LeaveRepository.Create(ctx, request)
		if err != nil {
			return fmt.Errorf("failed to create leave request: %w", err)
		}
		return nil
	})
	if err != nil {
		return leave.LeaveResponse{}, err
	}

	resp := mapLeaveToResponse(created)
	s.record(ctx, created.ID, audit.ActionCreate, actor, nil, resp)

	return resp, nil
}

// Review implements leave.LeaveService.
func (s *LeaveServiceImpl) Review(ctx context.Context, req leave.ReviewLeaveRequest) (leave.LeaveResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveResponse{}, err
	}

	if req.Status == leave.StatusApproved {
		return s.Approve(ctx, req.ID, req.Comments)
	}
	return s.Reject(ctx, req.ID, req.Comments)
}

// Approve implements leave.LeaveService. The days were already reserved at
// submission so the ledger is untouched.
func (s *LeaveServiceImpl) Approve(ctx context.Context, id string, comments *string) (leave.LeaveResponse, error) {
	return s.review(ctx, id, leave.StatusApproved, comments, audit.ActionApprove)
}

// Reject implements leave.LeaveService.
func (s *LeaveServiceImpl) Reject(ctx context.Context, id string, comments *string) (leave.LeaveResponse, error) {
	return s.review(ctx, id, leave.StatusRejected, comments, audit.ActionReject)
}

func (s *LeaveServiceImpl) review(ctx context.Context, id string, next leave.Status, comments *string, action audit.Action) (leave.LeaveResponse, error) {
	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return leave.LeaveResponse{}, err
	}
	if !actor.CanApprove() {
		return leave.LeaveResponse{}, user.ErrManagerAccessRequired
	}

	var before, after leave.Leave
	err = s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		request, err := s.LeaveRepository.GetByIDForUpdate(ctx, id, actor.CompanyID)
		if err != nil {
			return err
		}
		if actor.EmployeeID != "" && request.EmployeeID == actor.EmployeeID {
			return leave.ErrSelfReview
		}
		if request.Status != leave.StatusPending || !request.CanTransitionTo(next) {
			return leave.ErrInvalidState
		}
		before = request

		if next == leave.StatusRejected && request.LeaveType.IsMetered() {
			if _, err := s.ledger.Release(ctx, request.BalanceKey(), request.TotalDays); err != nil {
				return err
			}
		}

		now := s.now().UTC()
		request.Status = next
		request.ReviewedBy = &actor.UserID
		request.ReviewedAt = &now
		request.ReviewerComments = comments
		request.UpdatedAt = now

		if err := s.LeaveRepository.Update(ctx, request); err != nil {
			return fmt.Errorf("failed to update leave request: %w", err)
		}
		after = request
		return nil
	})
	if err != nil {
		return leave.LeaveResponse{}, err
	}

	resp := mapLeaveToResponse(after)
	s.record(ctx, after.ID, action, actor, mapLeaveToResponse(before), resp)

	return resp, nil
}

// Withdraw implements leave.LeaveService. Only the owner can withdraw, from
// pending or approved, and the reserved days are returned.
func (s *LeaveServiceImpl) Withdraw(ctx context.Context, id string) (leave.LeaveResponse, error) {
	actor, err := requireEmployee(ctx)
	if err != nil {
		return leave.LeaveResponse{}, err
	}

	var before, after leave.Leave
	err = s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		request, err := s.LeaveRepository.GetByIDForUpdate(ctx, id, actor.CompanyID)
		if err != nil {
			return err
		}
		if request.EmployeeID != actor.EmployeeID {
			return leave.ErrNotOwner
		}
		if !request.CanTransitionTo(leave.StatusCancelled) {
			return leave.ErrInvalidState
		}
		before = request

		if request.HoldsBalance() {
			if _, err := s.ledger.Release(ctx, request.BalanceKey(), request.TotalDays); err != nil {
				return err
			}
		}

		now := s.now().UTC()
		request.Status = leave.StatusCancelled
		request.CancelledBy = &actor.UserID
		request.CancelledAt = &now
		request.UpdatedAt = now

		if err := s.LeaveRepository.Update(ctx, request); err != nil {
			return fmt.Errorf("failed to update leave request: %w", err)
		}
		after = request
		return nil
	})
	if err != nil {
		return leave.LeaveResponse{}, err
	}

	resp := mapLeaveToResponse(after)
	s.record(ctx, after.ID, audit.ActionCancel, actor, mapLeaveToResponse(before), resp)

	return resp, nil
}

// Delete implements leave.LeaveService. Pending requests give back their
// hold; cancelled ones have already done so.
func (s *LeaveServiceImpl) Delete(ctx context.Context, id string) error {
	actor, err := requireEmployee(ctx)
	if err != nil {
		return err
	}

	var deleted leave.Leave
	err = s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		request, err := s.LeaveRepository.GetByIDForUpdate(ctx, id, actor.CompanyID)
		if err != nil {
			return err
		}
		if request.EmployeeID != actor.EmployeeID {
			return leave.ErrNotOwner
		}
		if !request.IsDeletable() {
			return leave.ErrInvalidState
		}

		if request.HoldsBalance() {
			if _, err := s.ledger.Release(ctx, request.BalanceKey(), request.TotalDays); err != nil {
				return err
			}
		}

		if err := s.LeaveRepository.Delete(ctx, request.ID, actor.CompanyID); err != nil {
			return fmt.Errorf("failed to delete leave request: %w", err)
		}
		deleted = request
		return nil
	})
	if err != nil {
		return err
	}

	s.record(ctx, deleted.ID, audit.ActionDelete, actor, mapLeaveToResponse(deleted), nil)
	return nil
}

// GetLeave implements leave.LeaveService.
func (s *LeaveServiceImpl) GetLeave(ctx context.Context, id string) (leave.LeaveResponse, error) {
	actor, err := jwt.ActorFromContext(ctx)
	if err != nil {
		return leave.LeaveResponse{}, err
	}

	request, err := s.LeaveRepository.GetByID(ctx, id, actor.CompanyID)
	if err != nil {
		return leave.LeaveResponse{}, err
	}
	if request.EmployeeID != actor.EmployeeID && !user.HasPermission(actor.Role, user.PermissionLeaveViewAll) {
		return leave.LeaveResponse{}, leave.ErrNotOwner
	}

	return mapLeaveToResponse(request), nil
}

// ListMyRequests implements leave.LeaveService.
func (s *LeaveServiceImpl) ListMyRequests(ctx context.Context, filter leave.MyLeaveFilter) (leave.ListLeaveResponse, error) {
	actor, err := requireEmployee(ctx)
	if err != nil {
		return leave.ListLeaveResponse{}, err
	}
	if err := filter.Validate(); err != nil {
		return leave.ListLeaveResponse{}, err
	}

	requests, total, err := s.LeaveRepository.ListByEmployee(ctx, actor.EmployeeID, filter)
	if err != nil {
		return leave.ListLeaveResponse{}, fmt.Errorf("failed to list leave requests: %w", err)
	}

	leaves := make([]leave.LeaveResponse, 0, len(requests))
	for _, r := range requests {
		leaves = append(leaves, mapLeaveToResponse(r))
	}

	return leave.ListLeaveResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		Leaves:     leaves,
	}, nil
}

// GetMyBalance implements leave.LeaveService. A zero year means the current
// year.
func (s *LeaveServiceImpl) GetMyBalance(ctx context.Context, year int) ([]leave.BalanceResponse, error) {
	actor, err := requireEmployee(ctx)
	if err != nil {
		return nil, err
	}
	if year == 0 {
		year = s.now().Year()
	}

	balances, err := s.ledger.ListBalances(ctx, actor.EmployeeID, year)
	if err != nil {
		return nil, err
	}

	resp := make([]leave.BalanceResponse, 0, len(balances))
	for _, b := range balances {
		resp = append(resp, leave.BalanceResponse{
			LeaveType:    string(b.LeaveType),
			Year:         b.Year,
			TotalAllowed: b.TotalAllowed,
			CarryForward: b.CarryForward,
			Used:         b.Used,
			Remaining:    b.Remaining,
		})
	}
	return resp, nil
}

func (s *LeaveServiceImpl) record(ctx context.Context, recordID string, action audit.Action, actor user.Actor, oldValues, newValues any) {
	s.auditSink.Record(ctx, audit.Entry{
		TableName: leaveTable,
		RecordID:  recordID,
		Action:    action,
		ActorID:   actor.UserID,
		OldValues: oldValues,
		NewValues: newValues,
	})
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

func mapLeaveToResponse(l leave.Leave) leave.LeaveResponse {
	resp := leave.LeaveResponse{
		ID:               l.ID,
		EmployeeID:       l.EmployeeID,
		LeaveType:        string(l.LeaveType),
		StartDate:        l.StartDate.Format("2006-01-02"),
		EndDate:          l.EndDate.Format("2006-01-02"),
		IsHalfDay:        l.IsHalfDay,
		TotalDays:        l.TotalDays,
		Reason:           l.Reason,
		AttachmentURL:    l.AttachmentURL,
		Status:           string(l.Status),
		AppliedAt:        l.AppliedAt.Format(time.RFC3339),
		ReviewedBy:       l.ReviewedBy,
		ReviewerComments: l.ReviewerComments,
	}
	if l.HalfDayPeriod != nil {
		period := string(*l.HalfDayPeriod)
		resp.HalfDayPeriod = &period
	}
	if l.ReviewedAt != nil {
		reviewedAt := l.ReviewedAt.Format(time.RFC3339)
		resp.ReviewedAt = &reviewedAt
	}
	if l.CancelledAt != nil {
		cancelledAt := l.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &cancelledAt
	}
	return resp
}

var _ leave.LeaveService = (*LeaveServiceImpl)(nil)
var _ leave.BalanceLedger = (*Ledger)(nil)

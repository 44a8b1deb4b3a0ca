// Package memstore holds in-memory repositories and a transaction manager
// for service tests. Transactions are serialized and roll back every
// repository on error.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/audit"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/master/branch"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/regularization"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/domain/schedule"
	"github.com/cmlabs-hris/hris-attendance-leave/internal/pkg/database"
)

type txKey struct{}

type state struct {
	attendances     map[string]attendance.Attendance
	regularizations map[string]regularization.Regularization
	leaves          map[string]leave.Leave
	balances        map[leave.BalanceKey]leave.Balance
}

func (s state) clone() state {
	c := state{
		attendances:     make(map[string]attendance.Attendance, len(s.attendances)),
		regularizations: make(map[string]regularization.Regularization, len(s.regularizations)),
		leaves:          make(map[string]leave.Leave, len(s.leaves)),
		balances:        make(map[leave.BalanceKey]leave.Balance, len(s.balances)),
	}
	for k, v := range s.attendances {
		c.attendances[k] = v
	}
	for k, v := range s.regularizations {
		c.regularizations[k] = v
	}
	for k, v := range s.leaves {
		c.leaves[k] = v
	}
	for k, v := range s.balances {
		c.balances[k] = v
	}
	return c
}

type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	data state

	assignments map[string]employee.Assignment
	shifts      map[string]schedule.Shift
	geofences   map[string][]branch.Geofence

	failures map[string]error
	commits  int
}

func New() *Store {
	return &Store{
		data:        state{}.clone(),
		assignments: make(map[string]employee.Assignment),
		shifts:      make(map[string]schedule.Shift),
		geofences:   make(map[string][]branch.Geofence),
		failures:    make(map[string]error),
	}
}

// WithinTx implements database.TxManager.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.commits++
	s.mu.Unlock()
	return nil
}

// Commits returns how many transactions committed.
func (s *Store) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

// FailOn makes the named operation (for example "leave.create") return err
// until cleared with a nil err.
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *Store) failure(op string) error {
	return s.failures[op]
}

// ---- fixtures ----

func (s *Store) PutAssignment(a employee.Assignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments[a.EmployeeID] = a
}

func (s *Store) PutShift(sh schedule.Shift) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shifts[sh.ID] = sh
}

func (s *Store) PutGeofence(g branch.Geofence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.geofences[g.BranchID] = append(s.geofences[g.BranchID], g)
}

func (s *Store) PutBalance(b leave.Balance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = fmt.Sprintf("bal-%s-%d-%s", b.EmployeeID, b.Year, b.LeaveType)
	}
	b.Remaining = b.TotalAllowed.Add(b.CarryForward).Sub(b.Used)
	s.data.balances[b.Key()] = b
}

func (s *Store) PutAttendance(a attendance.Attendance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.attendances[a.ID] = a
}

func (s *Store) Balance(key leave.BalanceKey) (leave.Balance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.data.balances[key]
	return b, ok
}

func (s *Store) Attendance(id string) (attendance.Attendance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.data.attendances[id]
	return a, ok
}

func (s *Store) AttendanceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.attendances)
}

func (s *Store) Leave(id string) (leave.Leave, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.data.leaves[id]
	return l, ok
}

// ---- attendance ----

type AttendanceRepo struct{ s *Store }

func (s *Store) Attendances() *AttendanceRepo { return &AttendanceRepo{s: s} }

func (r *AttendanceRepo) Create(_ context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("attendance.create"); err != nil {
		return attendance.Attendance{}, err
	}
	for _, existing := range r.s.data.attendances {
		if existing.EmployeeID == a.EmployeeID && existing.Date.Equal(a.Date) {
			return attendance.Attendance{}, attendance.ErrDuplicateClockIn
		}
	}
	r.s.data.attendances[a.ID] = a
	return a, nil
}

func (r *AttendanceRepo) GetByID(_ context.Context, id, companyID string) (attendance.Attendance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.data.attendances[id]
	if !ok || a.CompanyID != companyID {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	return a, nil
}

func (r *AttendanceRepo) GetByIDForUpdate(ctx context.Context, id, companyID string) (attendance.Attendance, error) {
	return r.GetByID(ctx, id, companyID)
}

func (r *AttendanceRepo) GetOpenSessionForUpdate(_ context.Context, employeeID string) (attendance.Attendance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.data.attendances {
		if a.EmployeeID == employeeID && a.IsOpen() {
			return a, nil
		}
	}
	return attendance.Attendance{}, attendance.ErrAttendanceNotFound
}

func (r *AttendanceRepo) ExistsForDate(_ context.Context, employeeID string, date time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.data.attendances {
		if a.EmployeeID == employeeID && a.Date.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

func (r *AttendanceRepo) Update(_ context.Context, a attendance.Attendance) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("attendance.update"); err != nil {
		return err
	}
	if _, ok := r.s.data.attendances[a.ID]; !ok {
		return attendance.ErrAttendanceNotFound
	}
	for id, existing := range r.s.data.attendances {
		if id != a.ID && existing.EmployeeID == a.EmployeeID && existing.Date.Equal(a.Date) {
			return fmt.Errorf("%w: attendances employee date", database.ErrDuplicate)
		}
	}
	r.s.data.attendances[a.ID] = a
	return nil
}

func (r *AttendanceRepo) GetMyAttendance(_ context.Context, employeeID string, filter attendance.MyAttendanceFilter, companyID string) ([]attendance.Attendance, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []attendance.Attendance
	for _, a := range r.s.data.attendances {
		if a.EmployeeID != employeeID || a.CompanyID != companyID {
			continue
		}
		if filter.Status != nil && *filter.Status != "" && string(a.Status) != *filter.Status {
			continue
		}
		if filter.StartDate != nil && *filter.StartDate != "" && a.Date.Format("2006-01-02") < *filter.StartDate {
			continue
		}
		if filter.EndDate != nil && *filter.EndDate != "" && a.Date.Format("2006-01-02") > *filter.EndDate {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return paginate(out, filter.Page, filter.Limit), int64(len(out)), nil
}

func (r *AttendanceRepo) GetStaleOpenSessions(_ context.Context, clockedInBefore time.Time) ([]attendance.Attendance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []attendance.Attendance
	for _, a := range r.s.data.attendances {
		if a.IsOpen() && a.ClockIn.Before(clockedInBefore) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClockIn.Before(*out[j].ClockIn) })
	return out, nil
}

// ---- regularization ----

type RegularizationRepo struct{ s *Store }

func (s *Store) Regularizations() *RegularizationRepo { return &RegularizationRepo{s: s} }

func (r *RegularizationRepo) Create(_ context.Context, reg regularization.Regularization) (regularization.Regularization, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.data.regularizations[reg.ID] = reg
	return reg, nil
}

func (r *RegularizationRepo) GetByID(_ context.Context, id, companyID string) (regularization.Regularization, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	reg, ok := r.s.data.regularizations[id]
	if !ok || reg.CompanyID != companyID {
		return regularization.Regularization{}, regularization.ErrRegularizationNotFound
	}
	return reg, nil
}

func (r *RegularizationRepo) GetByIDForUpdate(ctx context.Context, id, companyID string) (regularization.Regularization, error) {
	return r.GetByID(ctx, id, companyID)
}

func (r *RegularizationRepo) Update(_ context.Context, reg regularization.Regularization) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.regularizations[reg.ID]; !ok {
		return regularization.ErrRegularizationNotFound
	}
	r.s.data.regularizations[reg.ID] = reg
	return nil
}

func (r *RegularizationRepo) HasPending(_ context.Context, attendanceID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, reg := range r.s.data.regularizations {
		if reg.AttendanceID == attendanceID && reg.IsPending() {
			return true, nil
		}
	}
	return false, nil
}

func (r *RegularizationRepo) ListByEmployee(_ context.Context, employeeID, companyID string) ([]regularization.Regularization, error) {
	return r.list(func(reg regularization.Regularization) bool {
		return reg.EmployeeID == employeeID && reg.CompanyID == companyID
	}), nil
}

func (r *RegularizationRepo) ListPending(_ context.Context, companyID string) ([]regularization.Regularization, error) {
	return r.list(func(reg regularization.Regularization) bool {
		return reg.CompanyID == companyID && reg.IsPending()
	}), nil
}

func (r *RegularizationRepo) list(match func(regularization.Regularization) bool) []regularization.Regularization {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []regularization.Regularization
	for _, reg := range r.s.data.regularizations {
		if match(reg) {
			out = append(out, reg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// ---- leave ----

type LeaveRepo struct{ s *Store }

func (s *Store) Leaves() *LeaveRepo { return &LeaveRepo{s: s} }

func (r *LeaveRepo) Create(_ context.Context, l leave.Leave) (leave.Leave, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("leave.create"); err != nil {
		return leave.Leave{}, err
	}
	r.s.data.leaves[l.ID] = l
	return l, nil
}

func (r *LeaveRepo) GetByID(_ context.Context, id, companyID string) (leave.Leave, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.data.leaves[id]
	if !ok || l.CompanyID != companyID {
		return leave.Leave{}, leave.ErrLeaveNotFound
	}
	return l, nil
}

func (r *LeaveRepo) GetByIDForUpdate(ctx context.Context, id, companyID string) (leave.Leave, error) {
	return r.GetByID(ctx, id, companyID)
}

func (r *LeaveRepo) Update(_ context.Context, l leave.Leave) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("leave.update"); err != nil {
		return err
	}
	if _, ok := r.s.data.leaves[l.ID]; !ok {
		return leave.ErrLeaveNotFound
	}
	r.s.data.leaves[l.ID] = l
	return nil
}

func (r *LeaveRepo) Delete(_ context.Context, id, companyID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.data.leaves[id]
	if !ok || l.CompanyID != companyID {
		return leave.ErrLeaveNotFound
	}
	delete(r.s.data.leaves, id)
	return nil
}

func (r *LeaveRepo) ListByEmployee(_ context.Context, employeeID string, filter leave.MyLeaveFilter) ([]leave.Leave, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []leave.Leave
	for _, l := range r.s.data.leaves {
		if l.EmployeeID != employeeID {
			continue
		}
		if filter.Status != nil && *filter.Status != "" && string(l.Status) != *filter.Status {
			continue
		}
		if filter.Year != nil && l.StartDate.Year() != *filter.Year {
			continue
		}
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AppliedAt.After(out[j].AppliedAt) })
	return paginate(out, filter.Page, filter.Limit), int64(len(out)), nil
}

func (r *LeaveRepo) HasOverlap(_ context.Context, employeeID string, start, end time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.data.leaves {
		if l.EmployeeID != employeeID {
			continue
		}
		if l.Status != leave.StatusPending && l.Status != leave.StatusApproved {
			continue
		}
		if !l.StartDate.After(end) && !l.EndDate.Before(start) {
			return true, nil
		}
	}
	return false, nil
}

// LockEmployeeRequests is a no-op beyond the injected failure because
// transactions are already serialized.
func (r *LeaveRepo) LockEmployeeRequests(_ context.Context, _ string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.failure("leave.lock")
}

// ---- balances ----

type BalanceRepo struct{ s *Store }

func (s *Store) Balances() *BalanceRepo { return &BalanceRepo{s: s} }

func (r *BalanceRepo) GetByKey(_ context.Context, key leave.BalanceKey) (leave.Balance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.data.balances[key]
	if !ok {
		return leave.Balance{}, leave.ErrBalanceNotFound
	}
	return b, nil
}

func (r *BalanceRepo) GetByKeyForUpdate(ctx context.Context, key leave.BalanceKey) (leave.Balance, error) {
	return r.GetByKey(ctx, key)
}

func (r *BalanceRepo) UpdateUsage(_ context.Context, b leave.Balance) (leave.Balance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("balance.update"); err != nil {
		return leave.Balance{}, err
	}
	current, ok := r.s.data.balances[b.Key()]
	if !ok {
		return leave.Balance{}, leave.ErrBalanceNotFound
	}
	if current.Version != b.Version {
		return leave.Balance{}, database.ErrConflict
	}
	current.Used = b.Used
	current.Remaining = b.Remaining
	current.Version++
	current.UpdatedAt = time.Now().UTC()
	r.s.data.balances[b.Key()] = current
	return current, nil
}

func (r *BalanceRepo) ListByEmployeeYear(_ context.Context, employeeID string, year int) ([]leave.Balance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []leave.Balance
	for _, b := range r.s.data.balances {
		if b.EmployeeID == employeeID && b.Year == year {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LeaveType < out[j].LeaveType })
	return out, nil
}

// ---- reference data ----

type AssignmentRepo struct{ s *Store }

func (s *Store) Assignments() *AssignmentRepo { return &AssignmentRepo{s: s} }

func (r *AssignmentRepo) GetAssignment(_ context.Context, employeeID, companyID string) (employee.Assignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.assignments[employeeID]
	if !ok || a.CompanyID != companyID {
		return employee.Assignment{}, employee.ErrEmployeeNotFound
	}
	return a, nil
}

type ShiftRepo struct{ s *Store }

func (s *Store) Shifts() *ShiftRepo { return &ShiftRepo{s: s} }

func (r *ShiftRepo) GetByID(_ context.Context, id, companyID string) (schedule.Shift, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sh, ok := r.s.shifts[id]
	if !ok || sh.CompanyID != companyID {
		return schedule.Shift{}, schedule.ErrShiftNotFound
	}
	return sh, nil
}

type GeofenceRepo struct{ s *Store }

func (s *Store) Geofences() *GeofenceRepo { return &GeofenceRepo{s: s} }

func (r *GeofenceRepo) ListActiveByBranch(_ context.Context, branchID string) ([]branch.Geofence, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []branch.Geofence
	for _, g := range r.s.geofences[branchID] {
		if g.IsActive {
			out = append(out, g)
		}
	}
	return out, nil
}

// ---- audit ----

// AuditRecorder is a synchronous audit.Sink that keeps every entry.
type AuditRecorder struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (a *AuditRecorder) Record(_ context.Context, e audit.Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
}

func (a *AuditRecorder) Entries() []audit.Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]audit.Entry(nil), a.entries...)
}

func paginate[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		return items
	}
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

var (
	_ database.TxManager                      = (*Store)(nil)
	_ attendance.AttendanceRepository         = (*AttendanceRepo)(nil)
	_ regularization.RegularizationRepository = (*RegularizationRepo)(nil)
	_ leave.LeaveRepository                   = (*LeaveRepo)(nil)
	_ leave.BalanceRepository                 = (*BalanceRepo)(nil)
	_ employee.AssignmentRepository           = (*AssignmentRepo)(nil)
	_ schedule.ShiftRepository                = (*ShiftRepo)(nil)
	_ branch.GeofenceRepository               = (*GeofenceRepo)(nil)
	_ audit.Sink                              = (*AuditRecorder)(nil)
)

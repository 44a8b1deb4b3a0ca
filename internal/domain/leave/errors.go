package leave

import "errors"

var (
	ErrLeaveNotFound       = errors.New("leave request not found")
	ErrBalanceNotFound     = errors.New("leave balance not found")
	ErrInsufficientBalance = errors.New("insufficient leave balance")
	ErrOverRelease         = errors.New("cannot release more days than used")
	ErrInvalidState        = errors.New("leave request cannot be changed in its current status")
	ErrOverlappingLeave    = errors.New("leave request overlaps an existing request")
	ErrNotOwner            = errors.New("leave request belongs to another employee")
	ErrSelfReview          = errors.New("you cannot review your own leave request")
)

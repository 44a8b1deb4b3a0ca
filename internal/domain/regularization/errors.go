package regularization

import "errors"

var (
	ErrRegularizationNotFound = errors.New("regularization request not found")
	ErrInvalidState           = errors.New("regularization request has already been reviewed")
	ErrAlreadyPending         = errors.New("a pending regularization already exists for this attendance")
	ErrSelfReview             = errors.New("you cannot review your own regularization request")
)

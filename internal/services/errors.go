package services

import "errors"

// Common service errors. Handlers map these onto HTTP status codes; absent
// and inaccessible records collapse into the same not-found error so the
// response never leaks whether a loan exists.
var (
	ErrNotFound           = errors.New("loan application not found")
	ErrInvalidState       = errors.New("invalid state transition")
	ErrAlreadyPaid        = errors.New("loan already paid")
	ErrRejected           = errors.New("your loan is rejected")
	ErrNotApproved        = errors.New("loan application is not approved yet")
	ErrInsufficientAmount = errors.New("amount paid is less than the weekly installment")
	ErrNoScheduleFound    = errors.New("loan repayment schedule not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidPassword    = errors.New("invalid password")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrDuplicate          = errors.New("duplicate record")
)

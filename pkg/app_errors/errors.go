package apperrors

import "errors"

var (
	ErrTourNotFound         = errors.New("tour not found")
	ErrBookingNotFound      = errors.New("booking not found")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrWizardNotFound       = errors.New("wizard session not found")
	ErrInvalidBookingStatus = errors.New("invalid booking status")
	ErrInsufficientSpots    = errors.New("insufficient spots")
)

// remote collaborator failures
var (
	ErrValidation         = errors.New("validation error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrPaymentDeclined    = errors.New("payment declined")
)

// caller defects
var (
	ErrIllegalTransition  = errors.New("illegal wizard transition")
	ErrSubmissionInFlight = errors.New("submission in flight")
	ErrInvalidRoster      = errors.New("invalid participant roster")
)

var (
	ErrBookingNotExpired   = errors.New("unpaid booking hold has not expired")
	ErrInternalServerError = errors.New("internal server error")
)
